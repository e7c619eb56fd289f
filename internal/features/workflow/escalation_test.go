package workflow

import (
	"context"
	"testing"
	"time"
)

func escalatingTemplate(rules ...EscalationRule) *WorkflowTemplate {
	tmpl := chainTemplate()
	tmpl.ID = "escalating"
	tmpl.EscalationRules = rules
	return tmpl
}

func TestOverdueRuleFiresOnce(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-overdue",
		Trigger:     TriggerOverdue,
		TriggerDays: 1,
		EscalateTo:  "quality_manager",
		Action:      ActionNotification,
		Active:      true,
	})
	engine, _, clock, notifier := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	// not yet overdue
	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("premature scan fired %d events, want 0", len(events))
	}

	clock.advance(31 * 24 * time.Hour)

	events, err = engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("overdue scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("overdue scan fired %d events, want 1", len(events))
	}
	if events[0].RuleID != "r-overdue" || events[0].StepID != "a" {
		t.Errorf("event = %+v, want rule r-overdue on step a", events[0])
	}
	if got := notifier.roleCount("quality_manager"); got != 1 {
		t.Errorf("quality_manager notified %d times, want 1", got)
	}

	updated, err := engine.GetInstance(instance.ID.Hex())
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if updated.Metrics.EscalationCount != 1 {
		t.Errorf("escalation count = %d, want 1", updated.Metrics.EscalationCount)
	}
	if !stepByID(t, updated, "a").hasFired("r-overdue") {
		t.Error("fired rule marker missing on step a")
	}

	// the marker keeps the rule from firing twice
	events, err = engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("repeat scan: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("repeat scan fired %d events, want 0", len(events))
	}
	if got := notifier.roleCount("quality_manager"); got != 1 {
		t.Errorf("quality_manager notified %d times after repeat, want 1", got)
	}
}

func TestInactiveRuleNeverFires(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-dormant",
		Trigger:     TriggerOverdue,
		TriggerDays: 1,
		EscalateTo:  "quality_manager",
		Action:      ActionNotification,
		Active:      false,
	})
	engine, _, clock, _ := newTestEngine(t, tmpl)
	ctx := context.Background()

	if _, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{}); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	clock.advance(60 * 24 * time.Hour)

	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("inactive rule fired %d events, want 0", len(events))
	}
}

func TestAutoApprovalCompletesAutomaticStep(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-auto",
		Trigger:     TriggerOverdue,
		TriggerDays: 1,
		EscalateTo:  "quality_manager",
		Action:      ActionAutoApproval,
		Active:      true,
	})
	tmpl.Steps[0].IsAutomatic = true

	engine, _, clock, notifier := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	clock.advance(31 * 24 * time.Hour)

	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 || events[0].Details != "auto-approved" {
		t.Fatalf("events = %+v, want one auto-approved event", events)
	}

	updated, err := engine.GetInstance(instance.ID.Hex())
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	a := stepByID(t, updated, "a")
	if a.Status != StepStatusCompleted {
		t.Errorf("step a status = %s, want completed", a.Status)
	}
	if a.CompletedBy != SystemActor {
		t.Errorf("step a completed by %s, want %s", a.CompletedBy, SystemActor)
	}
	// the follow-up step activates as part of the same scan and its
	// assignee is told about it
	b := stepByID(t, updated, "b")
	if b.Status != StepStatusInProgress {
		t.Errorf("step b status = %s, want in_progress", b.Status)
	}
	if b.AssignedTo != "eng2" {
		t.Fatalf("step b assigned to %s, want eng2", b.AssignedTo)
	}
	if got := notifier.userCount("eng2"); got != 1 {
		t.Errorf("eng2 notified %d times, want 1", got)
	}

	// the escalation entry snapshots the status pair around the action
	last := updated.History[len(updated.History)-1]
	if last.Action != EventEscalation {
		t.Fatalf("last history action = %s, want %s", last.Action, EventEscalation)
	}
	if last.PreviousState != string(StepStatusInProgress) || last.NewState != string(StepStatusCompleted) {
		t.Errorf("history transition = %s -> %s, want in_progress -> completed",
			last.PreviousState, last.NewState)
	}
}

func TestFailedPersistKeepsRuleEligible(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-overdue",
		Trigger:     TriggerOverdue,
		TriggerDays: 1,
		EscalateTo:  "quality_manager",
		Action:      ActionNotification,
		Active:      true,
	})
	engine, repo, clock, notifier := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	clock.advance(31 * 24 * time.Hour)

	repo.mu.Lock()
	repo.failing = true
	repo.mu.Unlock()

	// the marker never became durable, so nothing may go out either
	if _, err := engine.RunEscalationScan(ctx, clock.Now()); err == nil {
		t.Fatal("expected scan to surface the persistence error")
	}
	if got := notifier.roleCount("quality_manager"); got != 0 {
		t.Fatalf("quality_manager notified %d times after failed persist, want 0", got)
	}
	current, err := engine.GetInstance(instance.ID.Hex())
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if stepByID(t, current, "a").hasFired("r-overdue") {
		t.Error("fired marker retained despite failed persist")
	}

	repo.mu.Lock()
	repo.failing = false
	repo.mu.Unlock()

	// the next scan fires the rule exactly once
	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("recovery scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("recovery scan fired %d events, want 1", len(events))
	}
	if got := notifier.roleCount("quality_manager"); got != 1 {
		t.Errorf("quality_manager notified %d times in total, want 1", got)
	}

	if _, err := engine.RunEscalationScan(ctx, clock.Now()); err != nil {
		t.Fatalf("repeat scan: %v", err)
	}
	if got := notifier.roleCount("quality_manager"); got != 1 {
		t.Errorf("quality_manager notified %d times after repeat, want 1", got)
	}
}

func TestAutoApprovalSkipsManualStep(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-auto",
		Trigger:     TriggerOverdue,
		TriggerDays: 1,
		EscalateTo:  "quality_manager",
		Action:      ActionAutoApproval,
		Active:      true,
	})

	engine, _, clock, _ := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	clock.advance(31 * 24 * time.Hour)

	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("scan fired %d events, want 1", len(events))
	}
	if events[0].Details != "auto-approval skipped: step is not automatic" {
		t.Errorf("details = %q, want skip notice", events[0].Details)
	}

	updated, err := engine.GetInstance(instance.ID.Hex())
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got := stepByID(t, updated, "a").Status; got != StepStatusInProgress {
		t.Errorf("step a status = %s, want in_progress", got)
	}
}

func TestReassignmentPicksNextCandidate(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:          "r-reassign",
		Trigger:     TriggerNoAction,
		TriggerDays: 2,
		EscalateTo:  "quality_engineer",
		Action:      ActionReassignment,
		Active:      true,
	})

	engine, _, clock, notifier := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if got := stepByID(t, instance, "a").AssignedTo; got != "eng1" {
		t.Fatalf("initial assignee = %s, want eng1", got)
	}

	clock.advance(3 * 24 * time.Hour)

	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 || events[0].Action != ActionReassignment {
		t.Fatalf("events = %+v, want one reassignment", events)
	}

	updated, err := engine.GetInstance(instance.ID.Hex())
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got := stepByID(t, updated, "a").AssignedTo; got != "eng2" {
		t.Errorf("assignee after reassignment = %s, want eng2", got)
	}
	if got := notifier.roleCount("quality_engineer"); got != 1 {
		t.Errorf("quality_engineer notified %d times, want 1", got)
	}
}

func TestRejectionTriggerNotifies(t *testing.T) {
	tmpl := escalatingTemplate(EscalationRule{
		ID:         "r-reject",
		Trigger:    TriggerRejection,
		EscalateTo: "quality_manager",
		Action:     ActionNotification,
		Active:     true,
	})

	engine, _, clock, notifier := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	if _, err := engine.CompleteStep(ctx, instance.ID.Hex(), "a", OutcomeRejected, "fails inspection", "eng1"); err != nil {
		t.Fatalf("reject a: %v", err)
	}

	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 1 || events[0].StepID != "a" {
		t.Fatalf("events = %+v, want one event on step a", events)
	}
	if got := notifier.roleCount("quality_manager"); got != 1 {
		t.Errorf("quality_manager notified %d times, want 1", got)
	}
}

func TestCriticalIssueTriggerRequiresCriticalPriority(t *testing.T) {
	rule := EscalationRule{
		ID:          "r-critical",
		Trigger:     TriggerCriticalIssue,
		TriggerDays: 1,
		EscalateTo:  "plant_manager",
		Action:      ActionEscalation,
		Active:      true,
	}

	tests := []struct {
		name       string
		priority   Priority
		wantEvents int
	}{
		{"critical instance escalates", PriorityCritical, 1},
		{"medium instance does not", PriorityMedium, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := escalatingTemplate(rule)
			engine, _, clock, _ := newTestEngine(t, tmpl)
			ctx := context.Background()

			instance, err := engine.StartWorkflow(ctx, tmpl.ID, testContext(), "alice", StartOptions{Priority: tt.priority})
			if err != nil {
				t.Fatalf("StartWorkflow: %v", err)
			}
			clock.advance(2 * 24 * time.Hour)

			events, err := engine.RunEscalationScan(ctx, clock.Now())
			if err != nil {
				t.Fatalf("scan: %v", err)
			}
			if len(events) != tt.wantEvents {
				t.Fatalf("fired %d events, want %d", len(events), tt.wantEvents)
			}
			if tt.wantEvents == 0 {
				return
			}

			updated, err := engine.GetInstance(instance.ID.Hex())
			if err != nil {
				t.Fatalf("GetInstance: %v", err)
			}
			if got := stepByID(t, updated, "a").EscalationLevel; got != 1 {
				t.Errorf("escalation level = %d, want 1", got)
			}
		})
	}
}

func TestScanSkipsTerminalInstances(t *testing.T) {
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
	if _, err := engine.CancelWorkflow(ctx, instance.ID.Hex(), "alice", "superseded"); err != nil {
		t.Fatalf("CancelWorkflow: %v", err)
	}
	clock.advance(60 * 24 * time.Hour)

	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("cancelled instance fired %d events, want 0", len(events))
	}
}
