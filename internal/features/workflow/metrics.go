package workflow

import "time"

// recomputeMetrics refreshes the derived metrics after a mutation.
// EscalationCount and RejectionCount are maintained incrementally at
// their trigger sites; everything else is derived from current state.
func recomputeMetrics(instance *WorkflowInstance, now time.Time) {
	end := now
	if instance.CompletedDate != nil {
		end = *instance.CompletedDate
	}
	instance.Metrics.TotalDuration = end.Sub(instance.InitiatedDate)

	durations := make(map[string]time.Duration)
	clean := 0
	for _, step := range instance.Steps {
		if step.StartedDate != nil {
			stepEnd := now
			if step.CompletedDate != nil {
				stepEnd = *step.CompletedDate
			}
			durations[step.ID] = stepEnd.Sub(*step.StartedDate)
		}
		if step.Status == StepStatusCompleted && len(step.FiredRules) == 0 {
			clean++
		}
	}
	instance.Metrics.StepDurations = durations

	// share of steps finished without rejection or escalation
	if total := len(instance.Steps); total > 0 {
		eff := float64(clean) / float64(total)
		if eff < 0 {
			eff = 0
		}
		if eff > 1 {
			eff = 1
		}
		instance.Metrics.Efficiency = eff
	}
}
