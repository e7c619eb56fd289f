package condition

import "testing"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		record  map[string]interface{}
		want    bool
		wantErr bool
	}{
		{
			name:   "score threshold met",
			script: "result := record.severity * record.likelihood >= 12",
			record: map[string]interface{}{"severity": 4, "likelihood": 3},
			want:   true,
		},
		{
			name:   "score threshold not met",
			script: "result := record.severity * record.likelihood >= 12",
			record: map[string]interface{}{"severity": 2, "likelihood": 2},
			want:   false,
		},
		{
			name:   "string field comparison",
			script: `result := record.severity == "critical"`,
			record: map[string]interface{}{"severity": "critical"},
			want:   true,
		},
		{
			name:   "nil record with constant script",
			script: "result := true",
			want:   true,
		},
		{
			name:    "missing field fails at runtime",
			script:  "result := record.severity * record.likelihood >= 12",
			record:  map[string]interface{}{"severity": 4},
			wantErr: true,
		},
		{
			name:    "syntax error",
			script:  "result :=",
			record:  map[string]interface{}{},
			wantErr: true,
		},
		{
			name:   "script without result reads as false",
			script: "x := 1 + 1",
			record: map[string]interface{}{},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.script, tt.record)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Evaluate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
