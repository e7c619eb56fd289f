package workflow

import (
	"time"

	common_models "kademe-kys/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkflowStatus string

const (
	WorkflowStatusActive    WorkflowStatus = "active"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusCancelled WorkflowStatus = "cancelled"
	WorkflowStatusOnHold    WorkflowStatus = "on_hold"
)

type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusSkipped    StepStatus = "skipped"
	StepStatusRejected   StepStatus = "rejected"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type EscalationTrigger string

const (
	TriggerOverdue       EscalationTrigger = "overdue"
	TriggerNoAction      EscalationTrigger = "no_action"
	TriggerRejection     EscalationTrigger = "rejection"
	TriggerCriticalIssue EscalationTrigger = "critical_issue"
)

type EscalationAction string

const (
	ActionNotification EscalationAction = "notification"
	ActionReassignment EscalationAction = "reassignment"
	ActionAutoApproval EscalationAction = "auto_approval"
	ActionEscalation   EscalationAction = "escalation"
)

// StepDefinition is one step of a template. Dependencies reference other
// step IDs within the same template and must form a DAG.
type StepDefinition struct {
	ID               string   `bson:"id" json:"id"`
	Name             string   `bson:"name" json:"name"`
	Description      string   `bson:"description,omitempty" json:"description,omitempty"`
	RequiredRole     string   `bson:"required_role" json:"required_role"`
	RequiredActions  []string `bson:"required_actions,omitempty" json:"required_actions,omitempty"`
	Dependencies     []string `bson:"dependencies,omitempty" json:"dependencies,omitempty"`
	EscalationLevel  int      `bson:"escalation_level" json:"escalation_level"`
	IsAutomatic      bool     `bson:"is_automatic" json:"is_automatic"`
	RequiresApproval bool     `bson:"requires_approval" json:"requires_approval"` // gated by the template's approval matrix
}

type EscalationRule struct {
	ID          string            `bson:"id" json:"id"`
	Trigger     EscalationTrigger `bson:"trigger" json:"trigger"`
	TriggerDays int               `bson:"trigger_days" json:"trigger_days"`
	EscalateTo  string            `bson:"escalate_to" json:"escalate_to"` // target role
	Action      EscalationAction  `bson:"action" json:"action"`
	Active      bool              `bson:"active" json:"active"`
}

type NotificationRule struct {
	ID         string   `bson:"id" json:"id"`
	Event      string   `bson:"event" json:"event"` // workflow_started, step_assigned, step_completed, workflow_completed
	Recipients []string `bson:"recipients" json:"recipients"`
	Channel    string   `bson:"channel" json:"channel"`
	Template   string   `bson:"template" json:"template"`
}

type ApprovalLevel struct {
	Level int      `bson:"level" json:"level"`
	Role  string   `bson:"role" json:"role"`
	Users []string `bson:"users" json:"users"`
}

type ApprovalMatrix struct {
	Levels             []ApprovalLevel `bson:"levels" json:"levels"`
	RequiresSequential bool            `bson:"requires_sequential" json:"requires_sequential"`
	RequiresUnanimous  bool            `bson:"requires_unanimous" json:"requires_unanimous"`
}

// AutoStartRule lets a template volunteer itself for records of a module.
// Condition is an optional tengo script evaluated against the record payload.
type AutoStartRule struct {
	ModuleType common_models.ModuleType `bson:"module_type" json:"module_type"`
	Condition  string                   `bson:"condition,omitempty" json:"condition,omitempty"`
}

// WorkflowTemplate is an immutable process definition. It is registered
// once at startup (or loaded from storage) and never mutated afterwards.
type WorkflowTemplate struct {
	ID                string             `bson:"_id" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Category          string             `bson:"category" json:"category"`
	Version           string             `bson:"version" json:"version"`
	Steps             []StepDefinition   `bson:"steps" json:"steps"`
	EscalationRules   []EscalationRule   `bson:"escalation_rules,omitempty" json:"escalation_rules,omitempty"`
	NotificationRules []NotificationRule `bson:"notification_rules,omitempty" json:"notification_rules,omitempty"`
	ApprovalMatrix    *ApprovalMatrix    `bson:"approval_matrix,omitempty" json:"approval_matrix,omitempty"`
	AutoStart         *AutoStartRule     `bson:"auto_start,omitempty" json:"auto_start,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// WorkflowContext ties an instance to the business record that spawned it.
// Payload is stored and returned verbatim, never interpreted by the engine.
type WorkflowContext struct {
	ModuleType common_models.ModuleType `bson:"module_type" json:"module_type"`
	RecordID   string                   `bson:"record_id" json:"record_id"`
	Payload    map[string]interface{}   `bson:"payload,omitempty" json:"payload,omitempty"`
}

type ApprovalDecision struct {
	Level     int       `bson:"level" json:"level"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Approved  bool      `bson:"approved" json:"approved"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// InstanceStep is a materialized copy of a StepDefinition augmented with
// execution state. FiredRules holds escalation idempotency markers so a
// rule fires at most once per step.
type InstanceStep struct {
	StepDefinition `bson:",inline"`

	Status        StepStatus         `bson:"status" json:"status"`
	AssignedTo    string             `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	StartedDate   *time.Time         `bson:"started_date,omitempty" json:"started_date,omitempty"`
	DueDate       *time.Time         `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CompletedDate *time.Time         `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	CompletedBy   string             `bson:"completed_by,omitempty" json:"completed_by,omitempty"`
	Comments      string             `bson:"comments,omitempty" json:"comments,omitempty"`
	Approvals     []ApprovalDecision `bson:"approvals,omitempty" json:"approvals,omitempty"`
	FiredRules    []string           `bson:"fired_rules,omitempty" json:"fired_rules,omitempty"`
}

// HistoryEntry is an immutable audit record. Entries are only ever
// appended, never rewritten or deleted.
type HistoryEntry struct {
	Timestamp     time.Time `bson:"timestamp" json:"timestamp"`
	Action        string    `bson:"action" json:"action"`
	Actor         string    `bson:"actor" json:"actor"`
	StepID        string    `bson:"step_id,omitempty" json:"step_id,omitempty"`
	Details       string    `bson:"details,omitempty" json:"details,omitempty"`
	PreviousState string    `bson:"previous_state,omitempty" json:"previous_state,omitempty"`
	NewState      string    `bson:"new_state,omitempty" json:"new_state,omitempty"`
}

type WorkflowMetrics struct {
	TotalDuration   time.Duration            `bson:"total_duration" json:"total_duration"`
	StepDurations   map[string]time.Duration `bson:"step_durations,omitempty" json:"step_durations,omitempty"`
	EscalationCount int                      `bson:"escalation_count" json:"escalation_count"`
	RejectionCount  int                      `bson:"rejection_count" json:"rejection_count"`
	Efficiency      float64                  `bson:"efficiency" json:"efficiency"`
}

// WorkflowInstance is the live execution of a template against one
// business record. Instances mutate only through the engine and become
// immutable once Status reaches completed or cancelled.
type WorkflowInstance struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TemplateID    string             `bson:"template_id" json:"template_id"`
	Title         string             `bson:"title" json:"title"`
	Context       WorkflowContext    `bson:"context" json:"context"`
	InitiatedBy   string             `bson:"initiated_by" json:"initiated_by"`
	InitiatedDate time.Time          `bson:"initiated_date" json:"initiated_date"`
	DueDate       time.Time          `bson:"due_date" json:"due_date"`
	CompletedDate *time.Time         `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	Status        WorkflowStatus     `bson:"status" json:"status"`
	Priority      Priority           `bson:"priority" json:"priority"`
	Steps         []InstanceStep     `bson:"steps" json:"steps"`
	History       []HistoryEntry     `bson:"history" json:"history"`
	Metrics       WorkflowMetrics    `bson:"metrics" json:"metrics"`
}

// TaskSummary is a read-only projection of one in-progress step for the
// "my tasks" listing.
type TaskSummary struct {
	InstanceID   string                   `json:"instance_id"`
	WorkflowName string                   `json:"workflow_name"`
	StepID       string                   `json:"step_id"`
	StepName     string                   `json:"step_name"`
	Description  string                   `json:"description,omitempty"`
	DueDate      *time.Time               `json:"due_date,omitempty"`
	Priority     Priority                 `json:"priority"`
	ModuleType   common_models.ModuleType `json:"module_type"`
	RecordID     string                   `json:"record_id"`
}

// EscalationEvent describes one rule firing during a scan.
type EscalationEvent struct {
	InstanceID string           `json:"instance_id"`
	StepID     string           `json:"step_id"`
	RuleID     string           `json:"rule_id"`
	Action     EscalationAction `json:"action"`
	EscalateTo string           `json:"escalate_to"`
	Timestamp  time.Time        `json:"timestamp"`
	Details    string           `json:"details,omitempty"`
}

// Clone returns a deep copy so mutations can be staged and only swapped
// in after a successful persist.
func (w *WorkflowInstance) Clone() *WorkflowInstance {
	cp := *w

	if w.CompletedDate != nil {
		d := *w.CompletedDate
		cp.CompletedDate = &d
	}

	cp.Steps = make([]InstanceStep, len(w.Steps))
	for i, s := range w.Steps {
		cp.Steps[i] = s.clone()
	}

	cp.History = make([]HistoryEntry, len(w.History))
	copy(cp.History, w.History)

	if w.Context.Payload != nil {
		cp.Context.Payload = make(map[string]interface{}, len(w.Context.Payload))
		for k, v := range w.Context.Payload {
			cp.Context.Payload[k] = v
		}
	}

	if w.Metrics.StepDurations != nil {
		cp.Metrics.StepDurations = make(map[string]time.Duration, len(w.Metrics.StepDurations))
		for k, v := range w.Metrics.StepDurations {
			cp.Metrics.StepDurations[k] = v
		}
	}

	return &cp
}

func (s InstanceStep) clone() InstanceStep {
	cp := s

	cp.RequiredActions = append([]string(nil), s.RequiredActions...)
	cp.Dependencies = append([]string(nil), s.Dependencies...)
	cp.Approvals = append([]ApprovalDecision(nil), s.Approvals...)
	cp.FiredRules = append([]string(nil), s.FiredRules...)

	for _, ts := range []**time.Time{&cp.StartedDate, &cp.DueDate, &cp.CompletedDate} {
		if *ts != nil {
			d := **ts
			*ts = &d
		}
	}

	return cp
}

func (s *InstanceStep) hasFired(ruleID string) bool {
	for _, id := range s.FiredRules {
		if id == ruleID {
			return true
		}
	}
	return false
}

// Terminal reports whether the instance rejects further mutation.
func (w *WorkflowInstance) Terminal() bool {
	return w.Status == WorkflowStatusCompleted || w.Status == WorkflowStatusCancelled
}
