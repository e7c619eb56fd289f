package vehicle

import "testing"

func TestCanMove(t *testing.T) {
	tests := []struct {
		name string
		from VehicleState
		to   VehicleState
		want bool
	}{
		{"production to quality check", StateProduction, StateQualityCheck, true},
		{"production cannot skip to shipment", StateProduction, StateShipmentReady, false},
		{"quality check to rework", StateQualityCheck, StateRework, true},
		{"quality check to shipment ready", StateQualityCheck, StateShipmentReady, true},
		{"rework back to quality check", StateRework, StateQualityCheck, true},
		{"rework cannot ship directly", StateRework, StateShipped, false},
		{"shipment ready to shipped", StateShipmentReady, StateShipped, true},
		{"shipment ready back to quality check", StateShipmentReady, StateQualityCheck, true},
		{"shipped is final", StateShipped, StateQualityCheck, false},
		{"no self move", StateProduction, StateProduction, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canMove(tt.from, tt.to); got != tt.want {
				t.Errorf("canMove(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestWarnThresholdCoversAllActiveStates(t *testing.T) {
	for _, state := range []VehicleState{StateProduction, StateQualityCheck, StateRework, StateShipmentReady} {
		if _, ok := warnThreshold[state]; !ok {
			t.Errorf("state %s has no warning threshold", state)
		}
	}
	if _, ok := warnThreshold[StateShipped]; ok {
		t.Error("shipped vehicles should not carry a warning threshold")
	}
}
