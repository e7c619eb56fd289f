package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memRepo struct {
	mu      sync.Mutex
	saved   map[string]*WorkflowInstance
	saves   int
	failing bool
}

func newMemRepo() *memRepo {
	return &memRepo{saved: make(map[string]*WorkflowInstance)}
}

func (r *memRepo) LoadAll(_ context.Context) ([]*WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]*WorkflowInstance, 0, len(r.saved))
	for _, i := range r.saved {
		list = append(list, i.Clone())
	}
	return list, nil
}

func (r *memRepo) FindByID(_ context.Context, id primitive.ObjectID) (*WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.saved[id.Hex()]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return i.Clone(), nil
}

func (r *memRepo) Save(_ context.Context, instance *WorkflowInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("storage down")
	}
	r.saves++
	r.saved[instance.ID.Hex()] = instance.Clone()
	return nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeNotifier struct {
	mu    sync.Mutex
	users []string
	roles []string
}

func (n *fakeNotifier) NotifyUser(_ context.Context, userID, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	return nil
}

func (n *fakeNotifier) NotifyRole(_ context.Context, role, _, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roles = append(n.roles, role)
	return nil
}

func (n *fakeNotifier) userCount(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, u := range n.users {
		if u == userID {
			count++
		}
	}
	return count
}

func (n *fakeNotifier) roleCount(role string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, r := range n.roles {
		if r == role {
			count++
		}
	}
	return count
}

func chainTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		ID:   "chain",
		Name: "Three Step Chain",
		Steps: []StepDefinition{
			{ID: "a", Name: "First", RequiredRole: "quality_engineer"},
			{ID: "b", Name: "Second", RequiredRole: "quality_engineer", Dependencies: []string{"a"}},
			{ID: "c", Name: "Third", RequiredRole: "quality_manager", Dependencies: []string{"b"}},
		},
	}
}

func testPool() *StaticPool {
	return NewStaticPool(map[string][]string{
		"quality_engineer": {"eng1", "eng2"},
		"quality_manager":  {"qm1"},
	}, "fallback-user")
}

func newTestEngine(t *testing.T, templates ...*WorkflowTemplate) (*Engine, *memRepo, *fakeClock, *fakeNotifier) {
	t.Helper()

	store := NewTemplateStore()
	for _, tmpl := range templates {
		if err := store.Register(tmpl); err != nil {
			t.Fatalf("register template %s: %v", tmpl.ID, err)
		}
	}

	repo := newMemRepo()
	clock := newFakeClock()
	notifier := &fakeNotifier{}
	cfg := &config.Config{WorkflowDueDays: 30, DefaultAssignee: "fallback-user"}

	engine := NewEngine(store, repo, notifier, testPool(), clock, zap.NewNop(), cfg)
	return engine, repo, clock, notifier
}

func testContext() WorkflowContext {
	return WorkflowContext{
		ModuleType: common_models.ModuleDefect,
		RecordID:   "rec-1",
		Payload:    map[string]interface{}{"severity": "high"},
	}
}

func stepByID(t *testing.T, instance *WorkflowInstance, id string) *InstanceStep {
	t.Helper()
	idx := stepIndex(instance, id)
	if idx < 0 {
		t.Fatalf("step %s not found", id)
	}
	return &instance.Steps[idx]
}

func TestStartWorkflowActivatesReadySteps(t *testing.T) {
	engine, repo, clock, notifier := newTestEngine(t, chainTemplate())

	instance, err := engine.StartWorkflow(context.Background(), "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	if instance.Status != WorkflowStatusActive {
		t.Errorf("status = %s, want active", instance.Status)
	}
	if got := stepByID(t, instance, "a").Status; got != StepStatusInProgress {
		t.Errorf("step a status = %s, want in_progress", got)
	}
	if got := stepByID(t, instance, "a").AssignedTo; got != "eng1" {
		t.Errorf("step a assigned to %s, want eng1", got)
	}
	for _, id := range []string{"b", "c"} {
		if got := stepByID(t, instance, id).Status; got != StepStatusPending {
			t.Errorf("step %s status = %s, want pending", id, got)
		}
	}

	wantDue := clock.Now().AddDate(0, 0, 30)
	if !instance.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", instance.DueDate, wantDue)
	}

	if len(instance.History) < 2 {
		t.Fatalf("history has %d entries, want at least 2", len(instance.History))
	}
	if instance.History[0].Action != EventWorkflowStarted {
		t.Errorf("first history action = %s, want %s", instance.History[0].Action, EventWorkflowStarted)
	}

	if repo.saves != 1 {
		t.Errorf("repo saves = %d, want 1", repo.saves)
	}

	notifier.mu.Lock()
	gotUsers := append([]string(nil), notifier.users...)
	notifier.mu.Unlock()
	if len(gotUsers) != 1 || gotUsers[0] != "eng1" {
		t.Errorf("notified users = %v, want [eng1]", gotUsers)
	}
}

func TestCompleteStepAdvancesChain(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	instance, err = engine.CompleteStep(ctx, id, "a", OutcomeDone, "done with a", "eng1")
	if err != nil {
		t.Fatalf("complete a: %v", err)
	}
	if got := stepByID(t, instance, "a").Status; got != StepStatusCompleted {
		t.Errorf("step a status = %s, want completed", got)
	}
	if got := stepByID(t, instance, "b").Status; got != StepStatusInProgress {
		t.Errorf("step b status = %s, want in_progress", got)
	}
	if got := stepByID(t, instance, "c").Status; got != StepStatusPending {
		t.Errorf("step c status = %s, want pending", got)
	}

	if _, err = engine.CompleteStep(ctx, id, "b", OutcomeDone, "", "eng2"); err != nil {
		t.Fatalf("complete b: %v", err)
	}
	instance, err = engine.CompleteStep(ctx, id, "c", OutcomeDone, "", "qm1")
	if err != nil {
		t.Fatalf("complete c: %v", err)
	}

	if instance.Status != WorkflowStatusCompleted {
		t.Errorf("status = %s, want completed", instance.Status)
	}
	if instance.CompletedDate == nil {
		t.Error("completed date not set")
	}

	last := instance.History[len(instance.History)-1]
	if last.Action != EventWorkflowCompleted {
		t.Errorf("last history action = %s, want %s", last.Action, EventWorkflowCompleted)
	}
}

func TestCompleteStepValidation(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	tests := []struct {
		name       string
		instanceID string
		stepID     string
		outcome    string
		wantErr    error
	}{
		{"unknown outcome", id, "a", "maybe", ErrInvalidState},
		{"unknown instance", primitive.NewObjectID().Hex(), "a", OutcomeDone, ErrInstanceNotFound},
		{"unknown step", id, "zz", OutcomeDone, ErrStepNotFound},
		{"step not in progress", id, "c", OutcomeDone, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CompleteStep(ctx, tt.instanceID, tt.stepID, tt.outcome, "", "eng1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTerminalInstanceRejectsWrites(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	cancelled, err := engine.CancelWorkflow(ctx, id, "alice", "superseded")
	if err != nil {
		t.Fatalf("CancelWorkflow: %v", err)
	}
	if cancelled.Status != WorkflowStatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}

	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("CompleteStep on cancelled instance: err = %v, want ErrInvalidState", err)
	}
	if _, err := engine.CancelWorkflow(ctx, id, "alice", "again"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second cancel: err = %v, want ErrInvalidState", err)
	}
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	engine, repo, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	repo.mu.Lock()
	repo.failing = true
	repo.mu.Unlock()

	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); err == nil {
		t.Fatal("expected persistence error")
	}

	current, err := engine.GetInstance(id)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got := stepByID(t, current, "a").Status; got != StepStatusInProgress {
		t.Errorf("step a status after failed persist = %s, want in_progress", got)
	}

	// storage recovers, the same call succeeds
	repo.mu.Lock()
	repo.failing = false
	repo.mu.Unlock()

	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
}

func TestCriticalPriorityHalvesDueWindow(t *testing.T) {
	engine, _, clock, _ := newTestEngine(t, chainTemplate())

	instance, err := engine.StartWorkflow(context.Background(), "chain", testContext(), "alice", StartOptions{
		Priority: PriorityCritical,
	})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	wantDue := clock.Now().AddDate(0, 0, 15)
	if !instance.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %v", instance.DueDate, wantDue)
	}
}

func TestRejectedStepDoesNotAdvance(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	instance, err = engine.CompleteStep(ctx, id, "a", OutcomeRejected, "not acceptable", "eng1")
	if err != nil {
		t.Fatalf("reject a: %v", err)
	}

	if got := stepByID(t, instance, "a").Status; got != StepStatusRejected {
		t.Errorf("step a status = %s, want rejected", got)
	}
	if got := stepByID(t, instance, "b").Status; got != StepStatusPending {
		t.Errorf("step b status = %s, want pending", got)
	}
	if instance.Status != WorkflowStatusActive {
		t.Errorf("instance status = %s, want active", instance.Status)
	}
	if instance.Metrics.RejectionCount != 1 {
		t.Errorf("rejection count = %d, want 1", instance.Metrics.RejectionCount)
	}
}

func TestApprovalGating(t *testing.T) {
	tmpl := chainTemplate()
	tmpl.Steps[2].RequiresApproval = true
	tmpl.ApprovalMatrix = &ApprovalMatrix{
		RequiresSequential: true,
		Levels: []ApprovalLevel{
			{Level: 1, Role: "quality_manager", Users: []string{"qm1"}},
			{Level: 2, Role: "plant_manager", Users: []string{"pm1"}},
		},
	}

	engine, _, _, _ := newTestEngine(t, tmpl)
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); err != nil {
		t.Fatalf("complete a: %v", err)
	}
	if _, err := engine.CompleteStep(ctx, id, "b", OutcomeDone, "", "eng2"); err != nil {
		t.Fatalf("complete b: %v", err)
	}

	// first approval leaves the step waiting on level 2
	instance, err = engine.CompleteStep(ctx, id, "c", OutcomeApproved, "looks good", "qm1")
	if err != nil {
		t.Fatalf("first approval: %v", err)
	}
	step := stepByID(t, instance, "c")
	if step.Status != StepStatusInProgress {
		t.Errorf("step c status after one approval = %s, want in_progress", step.Status)
	}
	if len(step.Approvals) != 1 || step.Approvals[0].Level != 1 {
		t.Errorf("approvals = %+v, want one decision at level 1", step.Approvals)
	}
	last := instance.History[len(instance.History)-1]
	if last.Action != EventPartialApproval {
		t.Errorf("last history action = %s, want %s", last.Action, EventPartialApproval)
	}

	// second approval satisfies the matrix and finishes the workflow
	instance, err = engine.CompleteStep(ctx, id, "c", OutcomeApproved, "approved", "pm1")
	if err != nil {
		t.Fatalf("second approval: %v", err)
	}
	if got := stepByID(t, instance, "c").Status; got != StepStatusCompleted {
		t.Errorf("step c status = %s, want completed", got)
	}
	if instance.Status != WorkflowStatusCompleted {
		t.Errorf("instance status = %s, want completed", instance.Status)
	}
}

func TestGetUserActiveTasks(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	if _, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{}); err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	tasks := engine.GetUserActiveTasks("eng1")
	if len(tasks) != 1 {
		t.Fatalf("eng1 has %d tasks, want 1", len(tasks))
	}
	if tasks[0].StepID != "a" {
		t.Errorf("task step = %s, want a", tasks[0].StepID)
	}
	if tasks[0].ModuleType != common_models.ModuleDefect {
		t.Errorf("task module = %s, want defect", tasks[0].ModuleType)
	}

	if tasks := engine.GetUserActiveTasks("eng2"); len(tasks) != 0 {
		t.Errorf("eng2 has %d tasks, want 0", len(tasks))
	}
}

func TestAutoStartFor(t *testing.T) {
	tmpl := chainTemplate()
	tmpl.AutoStart = &AutoStartRule{
		ModuleType: common_models.ModuleDefect,
		Condition:  "check",
	}

	engine, _, _, _ := newTestEngine(t, tmpl)
	ctx := context.Background()

	accept := func(script string, payload map[string]interface{}) (bool, error) {
		if script != "check" {
			t.Errorf("script = %q, want check", script)
		}
		return true, nil
	}
	reject := func(string, map[string]interface{}) (bool, error) { return false, nil }

	instance, err := engine.AutoStartFor(ctx, testContext(), SystemActor, accept)
	if err != nil {
		t.Fatalf("AutoStartFor: %v", err)
	}
	if instance == nil {
		t.Fatal("expected an instance")
	}
	if instance.InitiatedBy != SystemActor {
		t.Errorf("initiated by %s, want %s", instance.InitiatedBy, SystemActor)
	}

	if got, err := engine.AutoStartFor(ctx, testContext(), SystemActor, reject); err != nil || got != nil {
		t.Errorf("rejecting condition: instance = %v, err = %v, want nil, nil", got, err)
	}

	other := WorkflowContext{ModuleType: common_models.ModuleRisk, RecordID: "r1"}
	if got, err := engine.AutoStartFor(ctx, other, SystemActor, accept); err != nil || got != nil {
		t.Errorf("non-matching module: instance = %v, err = %v, want nil, nil", got, err)
	}
}

func TestLoadInstancesRestoresState(t *testing.T) {
	engine, repo, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	started, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}

	// a second engine sharing the repository sees the same instance
	store := NewTemplateStore()
	if err := store.Register(chainTemplate()); err != nil {
		t.Fatalf("register: %v", err)
	}
	cfg := &config.Config{WorkflowDueDays: 30}
	restored := NewEngine(store, repo, &fakeNotifier{}, testPool(), newFakeClock(), zap.NewNop(), cfg)
	if err := restored.LoadInstances(ctx); err != nil {
		t.Fatalf("LoadInstances: %v", err)
	}

	got, err := restored.GetInstance(started.ID.Hex())
	if err != nil {
		t.Fatalf("GetInstance after reload: %v", err)
	}
	if got.TemplateID != "chain" || got.Status != WorkflowStatusActive {
		t.Errorf("restored instance = %s/%s, want chain/active", got.TemplateID, got.Status)
	}
}

func TestConcurrentCompleteStepSingleWriter(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("losing writer got %v, want ErrInvalidState", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("%d writers succeeded, want exactly 1", succeeded)
	}

	final, err := engine.GetInstance(id)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got := stepByID(t, final, "a").Status; got != StepStatusCompleted {
		t.Errorf("step a status = %s, want completed", got)
	}
	completions := 0
	for _, entry := range final.History {
		if entry.Action == EventStepCompleted && entry.StepID == "a" {
			completions++
		}
	}
	if completions != 1 {
		t.Errorf("step a has %d completion entries, want 1", completions)
	}
}

func TestHoldAndResume(t *testing.T) {
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
	id := instance.ID.Hex()

	held, err := engine.HoldWorkflow(ctx, id, "alice", "awaiting supplier response")
	if err != nil {
		t.Fatalf("HoldWorkflow: %v", err)
	}
	if held.Status != WorkflowStatusOnHold {
		t.Fatalf("status = %s, want on_hold", held.Status)
	}
	last := held.History[len(held.History)-1]
	if last.Action != EventWorkflowHeld || last.NewState != string(WorkflowStatusOnHold) {
		t.Errorf("history entry = %+v, want %s transition", last, EventWorkflowHeld)
	}

	// held instances reject step work and double holds
	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("CompleteStep on held instance: err = %v, want ErrInvalidState", err)
	}
	if _, err := engine.HoldWorkflow(ctx, id, "alice", "again"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second hold: err = %v, want ErrInvalidState", err)
	}

	// escalation scans skip held instances even when overdue
	clock.advance(60 * 24 * time.Hour)
	events, err := engine.RunEscalationScan(ctx, clock.Now())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("held instance fired %d events, want 0", len(events))
	}
	if got := notifier.roleCount("quality_manager"); got != 0 {
		t.Errorf("quality_manager notified %d times while held, want 0", got)
	}

	resumed, err := engine.ResumeWorkflow(ctx, id, "alice")
	if err != nil {
		t.Fatalf("ResumeWorkflow: %v", err)
	}
	if resumed.Status != WorkflowStatusActive {
		t.Fatalf("status after resume = %s, want active", resumed.Status)
	}
	if _, err := engine.ResumeWorkflow(ctx, id, "alice"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second resume: err = %v, want ErrInvalidState", err)
	}

	if _, err := engine.CompleteStep(ctx, id, "a", OutcomeDone, "", "eng1"); err != nil {
		t.Errorf("CompleteStep after resume: %v", err)
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, chainTemplate())
	ctx := context.Background()

	instance, err := engine.StartWorkflow(ctx, "chain", testContext(), "alice", StartOptions{})
	if err != nil {
		t.Fatalf("StartWorkflow: %v", err)
	}
	id := instance.ID.Hex()
	prevLen := len(instance.History)
	prevFirst := instance.History[0]

	for _, step := range []string{"a", "b"} {
		updated, err := engine.CompleteStep(ctx, id, step, OutcomeDone, "", "eng1")
		if err != nil {
			t.Fatalf("complete %s: %v", step, err)
		}
		if len(updated.History) <= prevLen {
			t.Fatalf("history shrank after completing %s: %d -> %d", step, prevLen, len(updated.History))
		}
		if updated.History[0] != prevFirst {
			t.Errorf("first history entry changed after completing %s", step)
		}
		prevLen = len(updated.History)
	}
}
