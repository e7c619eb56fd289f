package risk

import (
	"testing"

	"kademe-kys/pkg/condition"
)

func TestValidateScales(t *testing.T) {
	tests := []struct {
		name       string
		severity   int
		likelihood int
		wantErr    bool
	}{
		{"both in range", 3, 4, false},
		{"minimum values", 1, 1, false},
		{"maximum values", 5, 5, false},
		{"severity too low", 0, 3, true},
		{"severity too high", 6, 3, true},
		{"likelihood too low", 3, 0, true},
		{"likelihood too high", 3, 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &RiskEntry{Severity: tt.severity, Likelihood: tt.likelihood}
			err := validateScales(entry)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateScales() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// the remediation template auto-starts on a score of 12 or more; the
// payload must feed the condition script the raw integer scales.
func TestPayloadDrivesAutoStartCondition(t *testing.T) {
	script := "result := record.severity * record.likelihood >= 12"

	high := &RiskEntry{Severity: 4, Likelihood: 4, Category: "process", Unit: "paint"}
	high.Score = high.Severity * high.Likelihood
	ok, err := condition.Evaluate(script, high.payload())
	if err != nil {
		t.Fatalf("Evaluate high risk: %v", err)
	}
	if !ok {
		t.Error("score 16 should trigger remediation")
	}

	low := &RiskEntry{Severity: 2, Likelihood: 3, Category: "process", Unit: "paint"}
	low.Score = low.Severity * low.Likelihood
	ok, err = condition.Evaluate(script, low.payload())
	if err != nil {
		t.Fatalf("Evaluate low risk: %v", err)
	}
	if ok {
		t.Error("score 6 should not trigger remediation")
	}
}
