package workflow

import (
	"errors"
	"testing"
)

func validTemplate(id string) *WorkflowTemplate {
	return &WorkflowTemplate{
		ID:   id,
		Name: "Valid",
		Steps: []StepDefinition{
			{ID: "s1", Name: "Start", RequiredRole: "quality_engineer"},
			{ID: "s2", Name: "Finish", RequiredRole: "quality_manager", Dependencies: []string{"s1"}},
		},
	}
}

func TestRegisterRejectsMalformedTemplates(t *testing.T) {
	tests := []struct {
		name string
		tmpl *WorkflowTemplate
	}{
		{
			"missing id",
			&WorkflowTemplate{Steps: []StepDefinition{{ID: "s1"}}},
		},
		{
			"no steps",
			&WorkflowTemplate{ID: "empty"},
		},
		{
			"empty step id",
			&WorkflowTemplate{ID: "bad-step", Steps: []StepDefinition{{Name: "unnamed"}}},
		},
		{
			"duplicate step id",
			&WorkflowTemplate{ID: "dup", Steps: []StepDefinition{
				{ID: "s1"}, {ID: "s1"},
			}},
		},
		{
			"dangling dependency",
			&WorkflowTemplate{ID: "dangling", Steps: []StepDefinition{
				{ID: "s1", Dependencies: []string{"ghost"}},
			}},
		},
		{
			"dependency cycle",
			&WorkflowTemplate{ID: "cycle", Steps: []StepDefinition{
				{ID: "s1", Dependencies: []string{"s3"}},
				{ID: "s2", Dependencies: []string{"s1"}},
				{ID: "s3", Dependencies: []string{"s2"}},
			}},
		},
		{
			"self dependency",
			&WorkflowTemplate{ID: "self", Steps: []StepDefinition{
				{ID: "s1", Dependencies: []string{"s1"}},
			}},
		},
		{
			"negative trigger days",
			&WorkflowTemplate{
				ID:    "neg-trigger",
				Steps: []StepDefinition{{ID: "s1"}},
				EscalationRules: []EscalationRule{
					{ID: "r1", Trigger: TriggerOverdue, TriggerDays: -1, Active: true},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewTemplateStore()
			err := store.Register(tt.tmpl)
			if err == nil {
				t.Fatal("expected registration to fail")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("err = %v, want *ValidationError", err)
			}
			if len(store.List()) != 0 {
				t.Error("failed registration changed the store")
			}
		})
	}
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	store := NewTemplateStore()

	if err := store.Register(validTemplate("t1")); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := store.Register(validTemplate("t1")); !errors.Is(err, ErrDuplicateTemplate) {
		t.Errorf("second register: err = %v, want ErrDuplicateTemplate", err)
	}
	if len(store.List()) != 1 {
		t.Errorf("store holds %d templates, want 1", len(store.List()))
	}
}

func TestGetAndList(t *testing.T) {
	store := NewTemplateStore()
	for _, id := range []string{"t1", "t2"} {
		if err := store.Register(validTemplate(id)); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	got, err := store.Get("t2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "t2" {
		t.Errorf("Get returned %s, want t2", got.ID)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("Get missing: err = %v, want ErrTemplateNotFound", err)
	}

	if got := len(store.List()); got != 2 {
		t.Errorf("List returned %d templates, want 2", got)
	}
}

func TestBuiltinTemplatesRegisterCleanly(t *testing.T) {
	store := NewTemplateStore()
	for _, tmpl := range BuiltinTemplates() {
		if err := store.Register(tmpl); err != nil {
			t.Errorf("builtin %s failed validation: %v", tmpl.ID, err)
		}
	}
	for _, id := range []string{"dof-8d", "risk-remediation"} {
		if _, err := store.Get(id); err != nil {
			t.Errorf("builtin template %s missing: %v", id, err)
		}
	}
}
