package workflow

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TemplateStore holds registered process definitions. Templates are
// validated once at registration and read-only afterwards.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*WorkflowTemplate
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]*WorkflowTemplate),
	}
}

// Register validates and installs a template. A failed validation leaves
// the store unchanged.
func (s *TemplateStore) Register(t *WorkflowTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID]; exists {
		return ErrDuplicateTemplate
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.templates[t.ID] = t
	return nil
}

func (s *TemplateStore) Get(id string) (*WorkflowTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

func (s *TemplateStore) List() []*WorkflowTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*WorkflowTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		list = append(list, t)
	}
	return list
}

// LoadFrom installs every template the repository knows about, then the
// built-in definitions for anything not yet stored. Called once at startup.
func (s *TemplateStore) LoadFrom(ctx context.Context, repo TemplateRepository, logger *zap.Logger) error {
	stored, err := repo.LoadAll(ctx)
	if err != nil {
		return err
	}

	for _, t := range stored {
		if err := s.Register(t); err != nil {
			logger.Warn("skipping stored workflow template",
				zap.String("template_id", t.ID), zap.Error(err))
		}
	}

	for _, t := range BuiltinTemplates() {
		if _, err := s.Get(t.ID); err == nil {
			continue
		}
		if err := s.Register(t); err != nil {
			logger.Warn("skipping builtin workflow template",
				zap.String("template_id", t.ID), zap.Error(err))
			continue
		}
		if err := repo.Save(ctx, t); err != nil {
			logger.Warn("failed to persist builtin workflow template",
				zap.String("template_id", t.ID), zap.Error(err))
		}
	}

	return nil
}

// validateTemplate checks structural soundness: non-empty id and steps,
// unique step ids, no dangling dependency references, and an acyclic
// dependency graph.
func validateTemplate(t *WorkflowTemplate) error {
	if t == nil || t.ID == "" {
		return &ValidationError{Reason: "missing template id"}
	}
	if len(t.Steps) == 0 {
		return &ValidationError{TemplateID: t.ID, Reason: "template has no steps"}
	}

	ids := make(map[string]bool, len(t.Steps))
	for _, step := range t.Steps {
		if step.ID == "" {
			return &ValidationError{TemplateID: t.ID, Reason: "step with empty id"}
		}
		if ids[step.ID] {
			return &ValidationError{TemplateID: t.ID, Reason: "duplicate step id " + step.ID}
		}
		ids[step.ID] = true
	}

	deps := make(map[string][]string, len(t.Steps))
	for _, step := range t.Steps {
		for _, dep := range step.Dependencies {
			if !ids[dep] {
				return &ValidationError{TemplateID: t.ID, Reason: "step " + step.ID + " depends on undefined step " + dep}
			}
			deps[step.ID] = append(deps[step.ID], dep)
		}
	}

	// DFS cycle detection over the dependency graph
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(t.Steps))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case visiting:
			return false
		case done:
			return true
		}
		state[id] = visiting
		for _, dep := range deps[id] {
			if !visit(dep) {
				return false
			}
		}
		state[id] = done
		return true
	}

	for _, step := range t.Steps {
		if !visit(step.ID) {
			return &ValidationError{TemplateID: t.ID, Reason: "dependency cycle involving step " + step.ID}
		}
	}

	for _, rule := range t.EscalationRules {
		if rule.TriggerDays < 0 {
			return &ValidationError{TemplateID: t.ID, Reason: "escalation rule " + rule.ID + " has negative trigger days"}
		}
	}

	return nil
}
