package workflow

import (
	common_models "kademe-kys/internal/common/models"
)

// BuiltinTemplates returns the process definitions shipped with the
// system: the 8D corrective action flow used by DÖF records and the
// risk remediation flow used by the risk register.
func BuiltinTemplates() []*WorkflowTemplate {
	return []*WorkflowTemplate{
		eightDTemplate(),
		riskRemediationTemplate(),
	}
}

func eightDTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		ID:       "dof-8d",
		Name:     "DÖF / 8D Corrective Action",
		Category: "corrective_action",
		Version:  "1.0",
		Steps: []StepDefinition{
			{
				ID:              "d1-team",
				Name:            "D1 - Establish Team",
				RequiredRole:    "quality_engineer",
				RequiredActions: []string{"identify team members", "assign team leader"},
			},
			{
				ID:              "d2-describe",
				Name:            "D2 - Describe Problem",
				RequiredRole:    "quality_engineer",
				RequiredActions: []string{"document problem statement", "collect evidence"},
				Dependencies:    []string{"d1-team"},
			},
			{
				ID:              "d3-containment",
				Name:            "D3 - Interim Containment",
				RequiredRole:    "production_lead",
				RequiredActions: []string{"define containment action", "verify containment"},
				Dependencies:    []string{"d2-describe"},
			},
			{
				ID:              "d4-root-cause",
				Name:            "D4 - Root Cause Analysis",
				RequiredRole:    "quality_engineer",
				RequiredActions: []string{"5-why analysis", "fishbone diagram"},
				Dependencies:    []string{"d2-describe"},
			},
			{
				ID:              "d5-actions",
				Name:            "D5 - Corrective Actions",
				RequiredRole:    "quality_engineer",
				RequiredActions: []string{"define permanent corrective actions"},
				Dependencies:    []string{"d3-containment", "d4-root-cause"},
			},
			{
				ID:              "d6-implement",
				Name:            "D6 - Implement & Validate",
				RequiredRole:    "production_lead",
				RequiredActions: []string{"implement actions", "validate effectiveness"},
				Dependencies:    []string{"d5-actions"},
			},
			{
				ID:               "d7-prevent",
				Name:             "D7 - Prevent Recurrence",
				RequiredRole:     "quality_manager",
				RequiredActions:  []string{"update FMEA", "update control plan"},
				Dependencies:     []string{"d6-implement"},
				RequiresApproval: true,
			},
			{
				ID:              "d8-close",
				Name:            "D8 - Closure",
				RequiredRole:    "quality_manager",
				Dependencies:    []string{"d7-prevent"},
				EscalationLevel: 1,
				IsAutomatic:     true,
			},
		},
		EscalationRules: []EscalationRule{
			{ID: "8d-overdue-notify", Trigger: TriggerOverdue, TriggerDays: 3, EscalateTo: "quality_manager", Action: ActionNotification, Active: true},
			{ID: "8d-overdue-escalate", Trigger: TriggerOverdue, TriggerDays: 7, EscalateTo: "plant_manager", Action: ActionEscalation, Active: true},
			{ID: "8d-stalled-reassign", Trigger: TriggerNoAction, TriggerDays: 5, EscalateTo: "quality_engineer", Action: ActionReassignment, Active: true},
			{ID: "8d-rejection-notify", Trigger: TriggerRejection, TriggerDays: 0, EscalateTo: "quality_manager", Action: ActionNotification, Active: true},
			{ID: "8d-closure-auto", Trigger: TriggerOverdue, TriggerDays: 10, EscalateTo: "quality_manager", Action: ActionAutoApproval, Active: true},
		},
		NotificationRules: []NotificationRule{
			{ID: "8d-started", Event: EventWorkflowStarted, Recipients: []string{"quality_manager"}, Channel: "in_app", Template: "workflow_started"},
			{ID: "8d-completed", Event: EventWorkflowCompleted, Recipients: []string{"quality_manager"}, Channel: "in_app", Template: "workflow_completed"},
		},
		ApprovalMatrix: &ApprovalMatrix{
			Levels: []ApprovalLevel{
				{Level: 1, Role: "quality_manager", Users: nil},
				{Level: 2, Role: "plant_manager", Users: nil},
			},
			RequiresSequential: true,
			RequiresUnanimous:  false,
		},
		AutoStart: &AutoStartRule{
			ModuleType: common_models.ModuleDOF,
		},
	}
}

func riskRemediationTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		ID:       "risk-remediation",
		Name:     "Risk Remediation",
		Category: "risk",
		Version:  "1.0",
		Steps: []StepDefinition{
			{
				ID:              "assess",
				Name:            "Assess Risk",
				RequiredRole:    "quality_engineer",
				RequiredActions: []string{"score severity and likelihood"},
			},
			{
				ID:              "plan",
				Name:            "Plan Mitigation",
				RequiredRole:    "quality_engineer",
				RequiredActions: []string{"define mitigation actions", "set target date"},
				Dependencies:    []string{"assess"},
			},
			{
				ID:               "approve-plan",
				Name:             "Approve Mitigation Plan",
				RequiredRole:     "quality_manager",
				Dependencies:     []string{"plan"},
				RequiresApproval: true,
			},
			{
				ID:           "implement",
				Name:         "Implement Mitigation",
				RequiredRole: "production_lead",
				Dependencies: []string{"approve-plan"},
			},
			{
				ID:           "verify",
				Name:         "Verify Residual Risk",
				RequiredRole: "quality_manager",
				Dependencies: []string{"implement"},
				IsAutomatic:  true,
			},
		},
		EscalationRules: []EscalationRule{
			{ID: "risk-overdue-notify", Trigger: TriggerOverdue, TriggerDays: 5, EscalateTo: "quality_manager", Action: ActionNotification, Active: true},
			{ID: "risk-critical", Trigger: TriggerCriticalIssue, TriggerDays: 1, EscalateTo: "plant_manager", Action: ActionEscalation, Active: true},
		},
		ApprovalMatrix: &ApprovalMatrix{
			Levels: []ApprovalLevel{
				{Level: 1, Role: "quality_manager", Users: nil},
			},
			RequiresSequential: true,
			RequiresUnanimous:  true,
		},
		AutoStart: &AutoStartRule{
			ModuleType: common_models.ModuleRisk,
			// only high scoring risks spawn a remediation flow automatically
			Condition:  `result := record.severity * record.likelihood >= 12`,
		},
	}
}
