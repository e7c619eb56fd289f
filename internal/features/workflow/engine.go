package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kademe-kys/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Clock abstracts time so tests can drive overdue and duration logic
// deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// Notifier delivers notifications on behalf of the engine. The engine
// only decides that a notification is owed and to whom; delivery
// failures are logged, never fatal to the workflow.
type Notifier interface {
	NotifyUser(ctx context.Context, userID, title, message, link string) error
	NotifyRole(ctx context.Context, role, title, message, link string) error
}

// History action labels and notification events.
const (
	EventWorkflowStarted   = "workflow_started"
	EventStepAssigned      = "step_assigned"
	EventStepCompleted     = "step_completed"
	EventStepRejected      = "step_rejected"
	EventPartialApproval   = "partial_approval"
	EventWorkflowCompleted = "workflow_completed"
	EventWorkflowCancelled = "workflow_cancelled"
	EventWorkflowHeld      = "workflow_on_hold"
	EventWorkflowResumed   = "workflow_resumed"
	EventEscalation        = "escalation"
)

// Outcomes accepted by CompleteStep.
const (
	OutcomeApproved = "approved"
	OutcomeDone     = "done"
	OutcomeRejected = "rejected"
)

const persistTimeout = 5 * time.Second
const notifyTimeout = 3 * time.Second

// SystemActor is recorded on transitions performed by the engine itself
// (automatic steps, escalation actions).
const SystemActor = "system"

type StartOptions struct {
	Title     string
	Priority  Priority
	DueInDays int // 0 means the configured default
}

// Engine owns every workflow instance mutation. Each instance is the
// unit of mutual exclusion: a per-instance lock serializes user calls
// and escalation scans touching the same instance, while distinct
// instances proceed in parallel.
type Engine struct {
	templates *TemplateStore
	repo      InstanceRepository
	notifier  Notifier
	pool      AssignmentPool
	clock     Clock
	logger    *zap.Logger
	dueDays   int

	mu        sync.RWMutex
	instances map[string]*WorkflowInstance
	locks     map[string]*sync.Mutex
}

func NewEngine(
	templates *TemplateStore,
	repo InstanceRepository,
	notifier Notifier,
	pool AssignmentPool,
	clock Clock,
	logger *zap.Logger,
	cfg *config.Config,
) *Engine {
	return &Engine{
		templates: templates,
		repo:      repo,
		notifier:  notifier,
		pool:      pool,
		clock:     clock,
		logger:    logger,
		dueDays:   cfg.WorkflowDueDays,
		instances: make(map[string]*WorkflowInstance),
		locks:     make(map[string]*sync.Mutex),
	}
}

// LoadInstances hydrates the in-memory state from storage. Called once
// at startup before the engine serves requests.
func (e *Engine) LoadInstances(ctx context.Context) error {
	stored, err := e.repo.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load workflow instances: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, instance := range stored {
		e.instances[instance.ID.Hex()] = instance
	}
	return nil
}

func (e *Engine) Templates() *TemplateStore { return e.templates }

// StartWorkflow instantiates a template against a business record.
// Dependency-free steps become in_progress immediately and get assigned.
func (e *Engine) StartWorkflow(ctx context.Context, templateID string, wfCtx WorkflowContext, initiatedBy string, opts StartOptions) (*WorkflowInstance, error) {
	tmpl, err := e.templates.Get(templateID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()

	priority := opts.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	dueDays := opts.DueInDays
	if dueDays <= 0 {
		dueDays = e.dueDays
	}
	// critical work gets half the usual window
	if priority == PriorityCritical {
		dueDays = (dueDays + 1) / 2
	}

	title := opts.Title
	if title == "" {
		title = tmpl.Name
	}

	instance := &WorkflowInstance{
		ID:            primitive.NewObjectID(),
		TemplateID:    tmpl.ID,
		Title:         title,
		Context:       wfCtx,
		InitiatedBy:   initiatedBy,
		InitiatedDate: now,
		DueDate:       now.AddDate(0, 0, dueDays),
		Status:        WorkflowStatusActive,
		Priority:      priority,
		Steps:         materializeSteps(tmpl),
	}

	appendHistory(instance, now, EventWorkflowStarted, initiatedBy, "",
		fmt.Sprintf("workflow %q started for %s/%s", tmpl.Name, wfCtx.ModuleType, wfCtx.RecordID), "", string(WorkflowStatusActive))

	assigned := e.activateReadySteps(ctx, instance, now)
	recomputeMetrics(instance, now)

	if err := e.persist(ctx, instance); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.instances[instance.ID.Hex()] = instance
	e.locks[instance.ID.Hex()] = &sync.Mutex{}
	e.mu.Unlock()

	e.notifyEvent(tmpl, EventWorkflowStarted, instance)
	e.notifyAssignments(instance, assigned)

	return instance.Clone(), nil
}

// CompleteStep records a user's outcome on an in_progress step and, on
// completion, activates every step whose dependencies are now satisfied.
// On failure the in-memory instance is left untouched.
func (e *Engine) CompleteStep(ctx context.Context, instanceID, stepID, outcome, comments, actor string) (*WorkflowInstance, error) {
	switch outcome {
	case OutcomeApproved, OutcomeDone, OutcomeRejected:
	default:
		return nil, fmt.Errorf("%w: unknown outcome %q", ErrInvalidState, outcome)
	}

	lock, err := e.lockFor(instanceID)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	e.mu.RLock()
	current := e.instances[instanceID]
	e.mu.RUnlock()
	if current == nil {
		return nil, ErrInstanceNotFound
	}
	if current.Terminal() || current.Status == WorkflowStatusOnHold {
		return nil, ErrInvalidState
	}

	tmpl, err := e.templates.Get(current.TemplateID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	instance := current.Clone()

	idx := stepIndex(instance, stepID)
	if idx < 0 {
		return nil, ErrStepNotFound
	}
	step := &instance.Steps[idx]
	if step.Status != StepStatusInProgress {
		return nil, ErrInvalidState
	}

	prevStatus := step.Status
	var assigned []assignment

	switch outcome {
	case OutcomeRejected:
		rejectStep(instance, idx, actor, comments, now)

	default: // approved / done
		if step.RequiresApproval && tmpl.ApprovalMatrix != nil {
			level := levelFor(tmpl.ApprovalMatrix, step.Approvals, actor)
			step.Approvals = append(step.Approvals, ApprovalDecision{
				Level:     level,
				UserID:    actor,
				Approved:  true,
				Comment:   comments,
				Timestamp: now,
			})

			result := evaluateApprovals(tmpl.ApprovalMatrix, step.Approvals)
			switch {
			case result.Rejected:
				rejectStep(instance, idx, actor, comments, now)
			case !result.Satisfied:
				appendHistory(instance, now, EventPartialApproval, actor, stepID,
					fmt.Sprintf("approval recorded at level %d, waiting on level %d", level, result.NextLevel),
					string(prevStatus), string(StepStatusInProgress))
			default:
				completeStep(instance, idx, actor, comments, now)
				assigned = e.activateReadySteps(ctx, instance, now)
				e.maybeFinish(instance, now, actor)
			}
		} else {
			completeStep(instance, idx, actor, comments, now)
			assigned = e.activateReadySteps(ctx, instance, now)
			e.maybeFinish(instance, now, actor)
		}
	}

	recomputeMetrics(instance, now)

	if err := e.persist(ctx, instance); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.instances[instanceID] = instance
	e.mu.Unlock()

	e.notifyAssignments(instance, assigned)
	if instance.Status == WorkflowStatusCompleted {
		e.notifyEvent(tmpl, EventWorkflowCompleted, instance)
	}

	return instance.Clone(), nil
}

// CancelWorkflow aborts an active instance. Terminal instances reject
// the call.
func (e *Engine) CancelWorkflow(ctx context.Context, instanceID, actor, reason string) (*WorkflowInstance, error) {
	lock, err := e.lockFor(instanceID)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	e.mu.RLock()
	current := e.instances[instanceID]
	e.mu.RUnlock()
	if current == nil {
		return nil, ErrInstanceNotFound
	}
	if current.Terminal() {
		return nil, ErrInvalidState
	}

	now := e.clock.Now()
	instance := current.Clone()

	prev := instance.Status
	instance.Status = WorkflowStatusCancelled
	completed := now
	instance.CompletedDate = &completed
	appendHistory(instance, now, EventWorkflowCancelled, actor, "", reason, string(prev), string(WorkflowStatusCancelled))
	recomputeMetrics(instance, now)

	if err := e.persist(ctx, instance); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.instances[instanceID] = instance
	e.mu.Unlock()

	return instance.Clone(), nil
}

// HoldWorkflow pauses an active instance. Held instances reject step
// completion and are skipped by escalation scans until resumed.
func (e *Engine) HoldWorkflow(ctx context.Context, instanceID, actor, reason string) (*WorkflowInstance, error) {
	lock, err := e.lockFor(instanceID)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	e.mu.RLock()
	current := e.instances[instanceID]
	e.mu.RUnlock()
	if current == nil {
		return nil, ErrInstanceNotFound
	}
	if current.Status != WorkflowStatusActive {
		return nil, ErrInvalidState
	}

	now := e.clock.Now()
	instance := current.Clone()

	prev := instance.Status
	instance.Status = WorkflowStatusOnHold
	appendHistory(instance, now, EventWorkflowHeld, actor, "", reason, string(prev), string(WorkflowStatusOnHold))
	recomputeMetrics(instance, now)

	if err := e.persist(ctx, instance); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.instances[instanceID] = instance
	e.mu.Unlock()

	return instance.Clone(), nil
}

// ResumeWorkflow reactivates an on-hold instance.
func (e *Engine) ResumeWorkflow(ctx context.Context, instanceID, actor string) (*WorkflowInstance, error) {
	lock, err := e.lockFor(instanceID)
	if err != nil {
		return nil, err
	}
	lock.Lock()
	defer lock.Unlock()

	e.mu.RLock()
	current := e.instances[instanceID]
	e.mu.RUnlock()
	if current == nil {
		return nil, ErrInstanceNotFound
	}
	if current.Status != WorkflowStatusOnHold {
		return nil, ErrInvalidState
	}

	now := e.clock.Now()
	instance := current.Clone()

	instance.Status = WorkflowStatusActive
	appendHistory(instance, now, EventWorkflowResumed, actor, "", "",
		string(WorkflowStatusOnHold), string(WorkflowStatusActive))
	recomputeMetrics(instance, now)

	if err := e.persist(ctx, instance); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.instances[instanceID] = instance
	e.mu.Unlock()

	return instance.Clone(), nil
}

func (e *Engine) GetInstance(id string) (*WorkflowInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, ok := e.instances[id]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	return instance.Clone(), nil
}

// ListInstances returns snapshots, optionally filtered by status.
func (e *Engine) ListInstances(status WorkflowStatus) []*WorkflowInstance {
	e.mu.RLock()
	defer e.mu.RUnlock()

	list := make([]*WorkflowInstance, 0, len(e.instances))
	for _, instance := range e.instances {
		if status != "" && instance.Status != status {
			continue
		}
		list = append(list, instance.Clone())
	}
	return list
}

// GetUserActiveTasks lists the in_progress steps assigned to a user
// across all active instances. Works on snapshots so no lock is held
// while formatting.
func (e *Engine) GetUserActiveTasks(userID string) []TaskSummary {
	snapshots := e.ListInstances(WorkflowStatusActive)

	tasks := []TaskSummary{}
	for _, instance := range snapshots {
		for _, step := range instance.Steps {
			if step.Status != StepStatusInProgress || step.AssignedTo != userID {
				continue
			}
			tasks = append(tasks, TaskSummary{
				InstanceID:   instance.ID.Hex(),
				WorkflowName: instance.Title,
				StepID:       step.ID,
				StepName:     step.Name,
				Description:  step.Description,
				DueDate:      step.DueDate,
				Priority:     instance.Priority,
				ModuleType:   instance.Context.ModuleType,
				RecordID:     instance.Context.RecordID,
			})
		}
	}
	return tasks
}

// AutoStartFor starts a workflow for a freshly created business record
// when a template's auto-start rule matches its module and condition.
// Returns nil when no template volunteers.
func (e *Engine) AutoStartFor(ctx context.Context, wfCtx WorkflowContext, actor string, condition func(script string, payload map[string]interface{}) (bool, error)) (*WorkflowInstance, error) {
	for _, tmpl := range e.templates.List() {
		rule := tmpl.AutoStart
		if rule == nil || rule.ModuleType != wfCtx.ModuleType {
			continue
		}
		if rule.Condition != "" && condition != nil {
			ok, err := condition(rule.Condition, wfCtx.Payload)
			if err != nil {
				e.logger.Warn("auto-start condition failed",
					zap.String("template_id", tmpl.ID), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}
		}
		return e.StartWorkflow(ctx, tmpl.ID, wfCtx, actor, StartOptions{})
	}
	return nil, nil
}

// --- internals ---

type assignment struct {
	stepID string
	userID string
}

func (e *Engine) lockFor(instanceID string) (*sync.Mutex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.instances[instanceID]; !ok {
		return nil, ErrInstanceNotFound
	}
	lock, ok := e.locks[instanceID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[instanceID] = lock
	}
	return lock, nil
}

func materializeSteps(tmpl *WorkflowTemplate) []InstanceStep {
	steps := make([]InstanceStep, len(tmpl.Steps))
	for i, def := range tmpl.Steps {
		def.RequiredActions = append([]string(nil), def.RequiredActions...)
		def.Dependencies = append([]string(nil), def.Dependencies...)
		steps[i] = InstanceStep{
			StepDefinition: def,
			Status:         StepStatusPending,
		}
	}
	return steps
}

// activateReadySteps moves every pending step whose dependencies are all
// completed or skipped into in_progress and assigns it.
func (e *Engine) activateReadySteps(ctx context.Context, instance *WorkflowInstance, now time.Time) []assignment {
	var assigned []assignment

	for i := range instance.Steps {
		step := &instance.Steps[i]
		if step.Status != StepStatusPending || !depsSatisfied(instance, step) {
			continue
		}

		step.Status = StepStatusInProgress
		started := now
		step.StartedDate = &started
		due := instance.DueDate
		step.DueDate = &due

		assignee, err := e.pool.NextCandidate(ctx, step.RequiredRole)
		if err != nil {
			e.logger.Warn("step left unassigned",
				zap.String("instance_id", instance.ID.Hex()),
				zap.String("step_id", step.ID),
				zap.String("role", step.RequiredRole),
				zap.Error(err))
		} else {
			step.AssignedTo = assignee
			assigned = append(assigned, assignment{stepID: step.ID, userID: assignee})
		}

		appendHistory(instance, now, EventStepAssigned, SystemActor, step.ID,
			fmt.Sprintf("step %q activated, assigned to %s", step.Name, step.AssignedTo),
			string(StepStatusPending), string(StepStatusInProgress))
	}

	return assigned
}

func depsSatisfied(instance *WorkflowInstance, step *InstanceStep) bool {
	for _, dep := range step.Dependencies {
		idx := stepIndex(instance, dep)
		if idx < 0 {
			return false
		}
		status := instance.Steps[idx].Status
		if status != StepStatusCompleted && status != StepStatusSkipped {
			return false
		}
	}
	return true
}

func completeStep(instance *WorkflowInstance, idx int, actor, comments string, now time.Time) {
	step := &instance.Steps[idx]
	prev := step.Status
	step.Status = StepStatusCompleted
	completed := now
	step.CompletedDate = &completed
	step.CompletedBy = actor
	if comments != "" {
		step.Comments = comments
	}
	appendHistory(instance, now, EventStepCompleted, actor, step.ID, comments,
		string(prev), string(StepStatusCompleted))
}

func rejectStep(instance *WorkflowInstance, idx int, actor, comments string, now time.Time) {
	step := &instance.Steps[idx]
	prev := step.Status
	step.Status = StepStatusRejected
	completed := now
	step.CompletedDate = &completed
	step.CompletedBy = actor
	if comments != "" {
		step.Comments = comments
	}
	instance.Metrics.RejectionCount++
	// the instance stays on this step; a human must re-trigger or escalate
	appendHistory(instance, now, EventStepRejected, actor, step.ID, comments,
		string(prev), string(StepStatusRejected))
}

// maybeFinish completes the instance when no pending or in_progress
// steps remain.
func (e *Engine) maybeFinish(instance *WorkflowInstance, now time.Time, actor string) {
	for _, step := range instance.Steps {
		if step.Status == StepStatusPending || step.Status == StepStatusInProgress {
			return
		}
	}
	prev := instance.Status
	instance.Status = WorkflowStatusCompleted
	completed := now
	instance.CompletedDate = &completed
	appendHistory(instance, now, EventWorkflowCompleted, actor, "", "all steps resolved",
		string(prev), string(WorkflowStatusCompleted))
}

func stepIndex(instance *WorkflowInstance, stepID string) int {
	for i := range instance.Steps {
		if instance.Steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

func appendHistory(instance *WorkflowInstance, now time.Time, action, actor, stepID, details, prev, next string) {
	instance.History = append(instance.History, HistoryEntry{
		Timestamp:     now,
		Action:        action,
		Actor:         actor,
		StepID:        stepID,
		Details:       details,
		PreviousState: prev,
		NewState:      next,
	})
}

func (e *Engine) persist(ctx context.Context, instance *WorkflowInstance) error {
	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := e.repo.Save(pctx, instance); err != nil {
		return fmt.Errorf("persist workflow instance %s: %w", instance.ID.Hex(), err)
	}
	return nil
}

func (e *Engine) notifyAssignments(instance *WorkflowInstance, assigned []assignment) {
	for _, a := range assigned {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		err := e.notifier.NotifyUser(ctx, a.userID,
			"New workflow task",
			fmt.Sprintf("You have been assigned step %q in %q", a.stepID, instance.Title),
			"/workflows/"+instance.ID.Hex())
		cancel()
		if err != nil {
			e.logger.Warn("assignment notification failed",
				zap.String("instance_id", instance.ID.Hex()),
				zap.String("user_id", a.userID),
				zap.Error(err))
		}
	}
}

func (e *Engine) notifyEvent(tmpl *WorkflowTemplate, event string, instance *WorkflowInstance) {
	for _, rule := range tmpl.NotificationRules {
		if rule.Event != event {
			continue
		}
		for _, role := range rule.Recipients {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			err := e.notifier.NotifyRole(ctx, role,
				instance.Title,
				fmt.Sprintf("workflow %q: %s", instance.Title, event),
				"/workflows/"+instance.ID.Hex())
			cancel()
			if err != nil {
				e.logger.Warn("event notification failed",
					zap.String("instance_id", instance.ID.Hex()),
					zap.String("event", event),
					zap.String("role", role),
					zap.Error(err))
			}
		}
	}
}
