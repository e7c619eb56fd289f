package defect

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DefectStatus
		to   DefectStatus
		want bool
	}{
		{"open to in_review", StatusOpen, StatusInReview, true},
		{"open to resolved", StatusOpen, StatusResolved, true},
		{"open to closed skips review", StatusOpen, StatusClosed, false},
		{"in_review back to open", StatusInReview, StatusOpen, true},
		{"in_review to resolved", StatusInReview, StatusResolved, true},
		{"resolved to closed", StatusResolved, StatusClosed, true},
		{"resolved reopened", StatusResolved, StatusOpen, true},
		{"closed is final", StatusClosed, StatusOpen, false},
		{"closed cannot resolve", StatusClosed, StatusResolved, false},
		{"no self transition", StatusOpen, StatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("canTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
