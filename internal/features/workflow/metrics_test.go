package workflow

import (
	"context"
	"testing"
	"time"
)

func TestMetricsTrackDurationsAndEfficiency(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	clock.advance(24 * time.Hour)
	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	clock.advance(12 * time.Hour)
	if _, err := engine.CompleteStep(ctx, id, "b", OutcomeDone, "", "eng2"); err != nil {
		t.Fatalf("complete b: %v", err)
	}
	clock.advance(12 * time.Hour)
	instance, err = engine.CompleteStep(ctx, id, "c", OutcomeDone, "", "qm1")
	if err != nil {
		t.Fatalf("complete c: %v", err)
	}

	m := instance.Metrics
	if m.TotalDuration != 48*time.Hour {
		t.Errorf("total duration = %v, want 48h", m.TotalDuration)
	}
	if got := m.StepDurations["a"]; got != 24*time.Hour {
		t.Errorf("step a duration = %v, want 24h", got)
	}
	if got := m.StepDurations["b"]; got != 12*time.Hour {
		t.Errorf("step b duration = %v, want 12h", got)
	}
	if m.Efficiency != 1.0 {
		t.Errorf("efficiency = %v, want 1.0", m.Efficiency)
	}
	if m.RejectionCount != 0 || m.EscalationCount != 0 {
		t.Errorf("counters = %d/%d, want 0/0", m.RejectionCount, m.EscalationCount)
	}
}

func TestEfficiencyDropsWhenRulesFire(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-overdue",
		Trigger:     TriggerOverdue,
		TriggerDays: 1,
		EscalateTo:  "quality_manager",
		Action:      ActionNotification,
		Active:      true,
	})
	engine, _, clock, _ := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	clock.advance(32 * 24 * time.Hour)
	if _, err := engine.RunEscalationScan(ctx, clock.Now()); err != nil {
		t.Fatalf("scan: %v", err)
	}

	// the escalated step completes, but it no longer counts as clean
	instance, err = engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1")
	if err != nil {
		t.Fatalf("complete a: %v", err)
	}

	want := 0.0
	if instance.Metrics.Efficiency != want {
		t.Errorf("efficiency = %v, want %v", instance.Metrics.Efficiency, want)
	}
	if instance.Metrics.EscalationCount != 1 {
		t.Errorf("escalation count = %d, want 1", instance.Metrics.EscalationCount)
	}
}
