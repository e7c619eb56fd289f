package dof

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/internal/features/workflow"
	"kademe-kys/pkg/utils"
)

// EightDTemplateID is the workflow template a record is opened against.
const EightDTemplateID = "dof-8d"

type DOFService interface {
	CreateRecord(ctx context.Context, record *DOFRecord) error
	GetRecord(ctx context.Context, id string) (*DOFRecord, error)
	ListRecords(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]DOFRecord, int64, error)
	UpdateRecord(ctx context.Context, id string, record *DOFRecord) error
	OpenWorkflow(ctx context.Context, id string, priority workflow.Priority) (*workflow.WorkflowInstance, error)
	CloseRecord(ctx context.Context, id string) (*DOFRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

type DOFServiceImpl struct {
	Repo         DOFRepository
	AuditService audit.AuditService
	Engine       *workflow.Engine
}

func NewDOFService(repo DOFRepository, auditService audit.AuditService, engine *workflow.Engine) DOFService {
	return &DOFServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Engine:       engine,
	}
}

func actorFrom(ctx context.Context) string {
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		return claims.UserID
	}
	return "system"
}

func (s *DOFServiceImpl) CreateRecord(ctx context.Context, record *DOFRecord) error {
	if record.Title == "" {
		return errors.New("title is required")
	}
	if record.Type == "" {
		record.Type = "corrective"
	}

	now := time.Now().UTC()
	record.Status = "open"
	record.OpenedBy = actorFrom(ctx)
	record.OpenedAt = now
	record.CreatedAt = now
	record.UpdatedAt = now

	if record.Number == "" {
		count, err := s.Repo.Count(ctx, nil)
		if err != nil {
			return err
		}
		record.Number = fmt.Sprintf("DOF-%d-%04d", now.Year(), count+1)
	}

	if err := s.Repo.Create(ctx, record); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(common_models.ModuleDOF), record.ID.Hex(), nil)
	return nil
}

func (s *DOFServiceImpl) GetRecord(ctx context.Context, id string) (*DOFRecord, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *DOFServiceImpl) ListRecords(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]DOFRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *DOFServiceImpl) UpdateRecord(ctx context.Context, id string, record *DOFRecord) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("record not found")
	}
	if existing.Status == "closed" {
		return errors.New("record is closed")
	}

	record.Status = existing.Status
	record.WorkflowID = existing.WorkflowID
	record.ClosedAt = existing.ClosedAt
	record.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, id, record); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleDOF), id, map[string]common_models.Change{
		"title": {Old: existing.Title, New: record.Title},
	})
	return nil
}

// OpenWorkflow starts the eight discipline workflow for a record and
// links the instance back to it.
func (s *DOFServiceImpl) OpenWorkflow(ctx context.Context, id string, priority workflow.Priority) (*workflow.WorkflowInstance, error) {
	record, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("record not found")
	}
	if record.WorkflowID != "" {
		return nil, errors.New("record already has a workflow")
	}
	if record.Status == "closed" {
		return nil, errors.New("record is closed")
	}

	wfCtx := workflow.WorkflowContext{
		ModuleType: common_models.ModuleDOF,
		RecordID:   record.ID.Hex(),
		Payload: map[string]interface{}{
			"number":     record.Number,
			"type":       record.Type,
			"department": record.Department,
		},
	}

	instance, err := s.Engine.StartWorkflow(ctx, EightDTemplateID, wfCtx, actorFrom(ctx), workflow.StartOptions{
		Title:    fmt.Sprintf("%s: %s", record.Number, record.Title),
		Priority: priority,
	})
	if err != nil {
		return nil, err
	}

	record.Status = "workflow_active"
	record.WorkflowID = instance.ID.Hex()
	record.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, id, record); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionWorkflow, string(common_models.ModuleDOF), id, map[string]common_models.Change{
		"workflow_id": {Old: nil, New: record.WorkflowID},
	})
	return instance, nil
}

func (s *DOFServiceImpl) CloseRecord(ctx context.Context, id string) (*DOFRecord, error) {
	record, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.New("record not found")
	}
	if record.Status == "closed" {
		return record, nil
	}

	// A record with a live workflow closes through the workflow, not here.
	if record.WorkflowID != "" {
		if instance, err := s.Engine.GetInstance(record.WorkflowID); err == nil && !instance.Terminal() {
			return nil, errors.New("workflow is still active")
		}
	}

	now := time.Now().UTC()
	prev := record.Status
	record.Status = "closed"
	record.ClosedAt = &now
	record.UpdatedAt = now

	if err := s.Repo.Update(ctx, id, record); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleDOF), id, map[string]common_models.Change{
		"status": {Old: prev, New: record.Status},
	})
	return record, nil
}

func (s *DOFServiceImpl) DeleteRecord(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(common_models.ModuleDOF), id, nil)
	return nil
}
