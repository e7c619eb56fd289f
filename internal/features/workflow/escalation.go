package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// RunEscalationScan walks every active instance, matches overdue and
// stalled steps against the owning template's escalation rules and fires
// each rule at most once per step. A failure on one instance never
// aborts the scan for the others; failures are collected and returned
// alongside the events that did fire.
func (e *Engine) RunEscalationScan(ctx context.Context, now time.Time) ([]EscalationEvent, error) {
	e.mu.RLock()
	ids := make([]string, 0, len(e.instances))
	for id, instance := range e.instances {
		if instance.Status == WorkflowStatusActive {
			ids = append(ids, id)
		}
	}
	e.mu.RUnlock()
	sort.Strings(ids)

	var events []EscalationEvent
	var errs []error

	for _, id := range ids {
		fired, err := e.escalateInstance(ctx, id, now)
		events = append(events, fired...)
		if err != nil {
			errs = append(errs, fmt.Errorf("instance %s: %w", id, err))
		}
	}

	return events, errors.Join(errs...)
}

// escalationNotice is a role notification owed by a fired rule. Notices
// are dispatched only after the fired markers are persisted, so a failed
// persist leaves nothing half-delivered.
type escalationNotice struct {
	role    string
	stepIdx int
	message string
}

func (e *Engine) escalateInstance(ctx context.Context, instanceID string, now time.Time) ([]EscalationEvent, error) {
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
	// the instance may have finished between the snapshot and the lock
	if current.Status != WorkflowStatusActive {
		return nil, nil
	}

	tmpl, err := e.templates.Get(current.TemplateID)
	if err != nil {
		return nil, err
	}

	rules := append([]EscalationRule(nil), tmpl.EscalationRules...)
	sort.Slice(rules, func(i, j int) bool { return rules[i].TriggerDays < rules[j].TriggerDays })

	instance := current.Clone()
	var events []EscalationEvent
	var assigned []assignment
	var notices []escalationNotice

	for i := range instance.Steps {
		step := &instance.Steps[i]
		for _, rule := range rules {
			if !rule.Active || step.hasFired(rule.ID) {
				continue
			}
			if !ruleTriggered(rule, instance, step, now) {
				continue
			}

			event, newAssigned, notice := e.fireRule(ctx, instance, i, rule, now)
			events = append(events, event)
			assigned = append(assigned, newAssigned...)
			if notice != nil {
				notices = append(notices, *notice)
			}
		}
	}

	if len(events) == 0 {
		return nil, nil
	}

	recomputeMetrics(instance, now)

	if err := e.persist(ctx, instance); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.instances[instanceID] = instance
	e.mu.Unlock()

	link := "/workflows/" + instance.ID.Hex()
	for _, n := range notices {
		e.notifyEscalation(n.role, instance, &instance.Steps[n.stepIdx], n.message, link)
	}
	e.notifyAssignments(instance, assigned)

	return events, nil
}

// ruleTriggered decides whether a rule's condition holds for a step.
func ruleTriggered(rule EscalationRule, instance *WorkflowInstance, step *InstanceStep, now time.Time) bool {
	switch rule.Trigger {
	case TriggerOverdue:
		if step.Status != StepStatusInProgress || step.DueDate == nil {
			return false
		}
		return daysBetween(*step.DueDate, now) >= rule.TriggerDays

	case TriggerNoAction:
		if step.Status != StepStatusInProgress || step.StartedDate == nil {
			return false
		}
		if len(step.Approvals) > 0 || step.Comments != "" {
			return false
		}
		return daysBetween(*step.StartedDate, now) >= rule.TriggerDays

	case TriggerRejection:
		return step.Status == StepStatusRejected

	case TriggerCriticalIssue:
		if instance.Priority != PriorityCritical || step.Status != StepStatusInProgress || step.StartedDate == nil {
			return false
		}
		return daysBetween(*step.StartedDate, now) >= rule.TriggerDays
	}
	return false
}

// fireRule executes a rule's action against a step, records the
// idempotency marker and the history entry, and bumps the metric.
// Notifications and fresh assignments are returned to the caller, not
// dispatched here; they go out once the marker is durable.
func (e *Engine) fireRule(ctx context.Context, instance *WorkflowInstance, stepIdx int, rule EscalationRule, now time.Time) (EscalationEvent, []assignment, *escalationNotice) {
	step := &instance.Steps[stepIdx]
	step.FiredRules = append(step.FiredRules, rule.ID)
	instance.Metrics.EscalationCount++

	prevStatus := step.Status

	event := EscalationEvent{
		InstanceID: instance.ID.Hex(),
		StepID:     step.ID,
		RuleID:     rule.ID,
		Action:     rule.Action,
		EscalateTo: rule.EscalateTo,
		Timestamp:  now,
	}

	var assigned []assignment
	var notice *escalationNotice

	switch rule.Action {
	case ActionNotification:
		notice = &escalationNotice{role: rule.EscalateTo, stepIdx: stepIdx, message: "step requires attention"}
		event.Details = "notified " + rule.EscalateTo

	case ActionReassignment:
		assignee, err := e.pool.NextCandidate(ctx, rule.EscalateTo)
		if err != nil {
			e.logger.Warn("escalation reassignment failed",
				zap.String("instance_id", instance.ID.Hex()),
				zap.String("step_id", step.ID),
				zap.Error(err))
			event.Details = "reassignment failed: " + err.Error()
		} else {
			prev := step.AssignedTo
			step.AssignedTo = assignee
			event.Details = fmt.Sprintf("reassigned from %s to %s", prev, assignee)
			notice = &escalationNotice{role: rule.EscalateTo, stepIdx: stepIdx, message: "step reassigned to you"}
		}

	case ActionAutoApproval:
		if step.IsAutomatic && step.Status == StepStatusInProgress {
			completeStep(instance, stepIdx, SystemActor, "auto-approved by escalation rule "+rule.ID, now)
			assigned = e.activateReadySteps(ctx, instance, now)
			e.maybeFinish(instance, now, SystemActor)
			event.Details = "auto-approved"
		} else {
			event.Details = "auto-approval skipped: step is not automatic"
		}

	case ActionEscalation:
		step.EscalationLevel++
		event.Details = fmt.Sprintf("escalation level raised to %d", step.EscalationLevel)
		notice = &escalationNotice{role: rule.EscalateTo, stepIdx: stepIdx, message: "step escalated to your role"}
	}

	appendHistory(instance, now, EventEscalation, SystemActor, step.ID,
		fmt.Sprintf("rule %s fired: %s", rule.ID, event.Details),
		string(prevStatus), string(step.Status))

	return event, assigned, notice
}

func (e *Engine) notifyEscalation(role string, instance *WorkflowInstance, step *InstanceStep, message, link string) {
	nctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	err := e.notifier.NotifyRole(nctx, role,
		"Workflow escalation: "+instance.Title,
		fmt.Sprintf("%s: step %q (%s)", message, step.Name, instance.Title),
		link)
	if err != nil {
		e.logger.Warn("escalation notification failed",
			zap.String("instance_id", instance.ID.Hex()),
			zap.String("step_id", step.ID),
			zap.String("role", role),
			zap.Error(err))
	}
}

// daysBetween reports full days from start to now, never negative.
func daysBetween(start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	return int(now.Sub(start).Hours() / 24)
}
