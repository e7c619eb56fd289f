package risk

import (
	"context"
	"errors"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/internal/features/workflow"
	"kademe-kys/pkg/condition"
	"kademe-kys/pkg/utils"

	"go.uber.org/zap"
)

type RiskService interface {
	CreateRisk(ctx context.Context, entry *RiskEntry) error
	GetRisk(ctx context.Context, id string) (*RiskEntry, error)
	ListRisks(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]RiskEntry, int64, error)
	UpdateRisk(ctx context.Context, id string, entry *RiskEntry) error
	DeleteRisk(ctx context.Context, id string) error
}

type RiskServiceImpl struct {
	Repo         RiskRepository
	AuditService audit.AuditService
	Engine       *workflow.Engine
	Logger       *zap.Logger
}

func NewRiskService(repo RiskRepository, auditService audit.AuditService, engine *workflow.Engine, logger *zap.Logger) RiskService {
	return &RiskServiceImpl{
		Repo:         repo,
		AuditService: auditService,
		Engine:       engine,
		Logger:       logger,
	}
}

func validateScales(entry *RiskEntry) error {
	if entry.Severity < 1 || entry.Severity > 5 {
		return errors.New("severity must be between 1 and 5")
	}
	if entry.Likelihood < 1 || entry.Likelihood > 5 {
		return errors.New("likelihood must be between 1 and 5")
	}
	return nil
}

func (e *RiskEntry) payload() map[string]interface{} {
	return map[string]interface{}{
		"severity":   e.Severity,
		"likelihood": e.Likelihood,
		"score":      e.Score,
		"category":   e.Category,
		"unit":       e.Unit,
	}
}

func (s *RiskServiceImpl) CreateRisk(ctx context.Context, entry *RiskEntry) error {
	if entry.Title == "" {
		return errors.New("title is required")
	}
	if err := validateScales(entry); err != nil {
		return err
	}

	now := time.Now().UTC()
	entry.Score = entry.Severity * entry.Likelihood
	entry.Status = "open"
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		entry.CreatedBy = claims.UserID
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.Repo.Create(ctx, entry); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(common_models.ModuleRisk), entry.ID.Hex(), nil)

	// High scoring risks trigger a remediation workflow through the
	// template auto-start rule. The create succeeds either way.
	wfCtx := workflow.WorkflowContext{
		ModuleType: common_models.ModuleRisk,
		RecordID:   entry.ID.Hex(),
		Payload:    entry.payload(),
	}
	instance, err := s.Engine.AutoStartFor(ctx, wfCtx, workflow.SystemActor, condition.Evaluate)
	if err != nil {
		s.Logger.Warn("risk workflow auto-start failed",
			zap.String("risk_id", entry.ID.Hex()),
			zap.Error(err))
		return nil
	}
	if instance != nil {
		entry.WorkflowID = instance.ID.Hex()
		entry.Status = "mitigating"
		entry.UpdatedAt = time.Now().UTC()
		if err := s.Repo.Update(ctx, entry.ID.Hex(), entry); err != nil {
			s.Logger.Warn("failed to link workflow to risk",
				zap.String("risk_id", entry.ID.Hex()),
				zap.Error(err))
		}
	}
	return nil
}

func (s *RiskServiceImpl) GetRisk(ctx context.Context, id string) (*RiskEntry, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *RiskServiceImpl) ListRisks(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]RiskEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *RiskServiceImpl) UpdateRisk(ctx context.Context, id string, entry *RiskEntry) error {
	if err := validateScales(entry); err != nil {
		return err
	}

	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("risk not found")
	}

	entry.Score = entry.Severity * entry.Likelihood
	entry.WorkflowID = existing.WorkflowID
	entry.UpdatedAt = time.Now().UTC()

	if err := s.Repo.Update(ctx, id, entry); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleRisk), id, map[string]common_models.Change{
		"score":  {Old: existing.Score, New: entry.Score},
		"status": {Old: existing.Status, New: entry.Status},
	})
	return nil
}

func (s *RiskServiceImpl) DeleteRisk(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(common_models.ModuleRisk), id, nil)
	return nil
}
