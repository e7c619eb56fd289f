package defect

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/internal/features/workflow"
	"kademe-kys/pkg/condition"
	"kademe-kys/pkg/utils"

	"go.uber.org/zap"
)

type DefectService interface {
	CreateDefect(ctx context.Context, defect *Defect) error
	GetDefect(ctx context.Context, id string) (*Defect, error)
	ListDefects(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Defect, int64, error)
	UpdateDefect(ctx context.Context, id string, defect *Defect) error
	ChangeStatus(ctx context.Context, id string, status DefectStatus) (*Defect, error)
	DeleteDefect(ctx context.Context, id string) error
}

type DefectServiceImpl struct {
	Repo         DefectRepository
	AuditService audit.AuditService
	Engine       *workflow.Engine
	Logger       *zap.Logger
}

func NewDefectService(repo DefectRepository, auditService audit.AuditService, engine *workflow.Engine, logger *zap.Logger) DefectService {
	return &DefectServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Engine:       engine,
		Logger:       logger,
	}
}

func actorFrom(ctx context.Context) string {
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		return claims.UserID
	}
	return "system"
}

func (d *Defect) payload() map[string]interface{} {
	return map[string]interface{}{
		"severity":  string(d.Severity),
		"status":    string(d.Status),
		"unit":      d.Unit,
		"part_code": d.PartCode,
	}
}

func (s *DefectServiceImpl) CreateDefect(ctx context.Context, defect *Defect) error {
	if defect.Title == "" {
		return errors.New("title is required")
	}
	if defect.Severity == "" {
		defect.Severity = SeverityMedium
	}

	now := time.Now().UTC()
	defect.Status = StatusOpen
	defect.DetectedBy = actorFrom(ctx)
	if defect.DetectedAt.IsZero() {
		defect.DetectedAt = now
	}
	defect.CreatedAt = now
	defect.UpdatedAt = now

	if err := s.Repo.Create(ctx, defect); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(common_models.ModuleDefect), defect.ID.Hex(), nil)

	// A template auto-start rule may pick the record up. Failure here
	// never fails the create.
	wfCtx := workflow.WorkflowContext{
		ModuleType: common_models.ModuleDefect,
		RecordID:   defect.ID.Hex(),
		Payload:    defect.payload(),
	}
	instance, err := s.Engine.AutoStartFor(ctx, wfCtx, workflow.SystemActor, condition.Evaluate)
	if err != nil {
		s.Logger.Warn("defect workflow auto-start failed",
			zap.String("defect_id", defect.ID.Hex()),
			zap.Error(err))
		return nil
	}
	if instance != nil {
		defect.WorkflowID = instance.ID.Hex()
		defect.UpdatedAt = time.Now().UTC()
		if err := s.Repo.Update(ctx, defect.ID.Hex(), defect); err != nil {
			s.Logger.Warn("failed to link workflow to defect",
				zap.String("defect_id", defect.ID.Hex()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *DefectServiceImpl) GetDefect(ctx context.Context, id string) (*Defect, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *DefectServiceImpl) ListDefects(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Defect, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *DefectServiceImpl) UpdateDefect(ctx context.Context, id string, defect *Defect) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("defect not found")
	}

	// Status changes go through ChangeStatus so the flow stays valid.
	defect.Status = existing.Status
	defect.ResolvedAt = existing.ResolvedAt
	defect.WorkflowID = existing.WorkflowID
	defect.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, id, defect); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleDefect), id, map[string]common_models.Change{
		"severity": {Old: existing.Severity, New: defect.Severity},
		"title":    {Old: existing.Title, New: defect.Title},
	})
	return nil
}

func (s *DefectServiceImpl) ChangeStatus(ctx context.Context, id string, status DefectStatus) (*Defect, error) {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("defect not found")
	}

	if !canTransition(existing.Status, status) {
		return nil, fmt.Errorf("cannot transition defect from %s to %s", existing.Status, status)
	}

	prev := existing.Status
	existing.Status = status
	existing.UpdatedAt = time.Now().UTC()
	if status == StatusResolved {
		now := time.Now().UTC()
		existing.ResolvedAt = &now
	}

	if err := s.Repo.Update(ctx, id, existing); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleDefect), id, map[string]common_models.Change{
		"status": {Old: prev, New: status},
	})
	return existing, nil
}

func (s *DefectServiceImpl) DeleteDefect(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(common_models.ModuleDefect), id, nil)
	return nil
}
