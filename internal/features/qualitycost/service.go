package qualitycost

import (
	"context"
	"errors"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/pkg/utils"
)

type CostService interface {
	CreateEntry(ctx context.Context, entry *CostEntry) error
	CreateEntries(ctx context.Context, entries []CostEntry) (int, error)
	GetEntry(ctx context.Context, id string) (*CostEntry, error)
	ListEntries(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]CostEntry, int64, error)
	SummarizeByUnit(ctx context.Context, filter map[string]interface{}) ([]UnitSummary, error)
	UpdateEntry(ctx context.Context, id string, entry *CostEntry) error
	DeleteEntry(ctx context.Context, id string) error
}

type CostServiceImpl struct {
	Repo         CostRepository
	AuditService audit.AuditService
}

func NewCostService(repo CostRepository, auditService audit.AuditService) CostService {
	return &CostServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func validateEntry(entry *CostEntry) error {
	if entry.Type == "" {
		return errors.New("cost type is required")
	}
	if entry.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if entry.Unit == "" {
		return errors.New("unit is required")
	}
	return nil
}

func (s *CostServiceImpl) CreateEntry(ctx context.Context, entry *CostEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	now := time.Now().UTC()
	if entry.IncurredAt.IsZero() {
		entry.IncurredAt = now
	}
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		entry.CreatedBy = claims.UserID
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.Repo.Create(ctx, entry); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(common_models.ModuleQualityCost), entry.ID.Hex(), nil)
	return nil
}

// CreateEntries is the bulk path used by the Excel importer. Entries that
// fail validation are skipped; the count of inserted rows is returned.
func (s *CostServiceImpl) CreateEntries(ctx context.Context, entries []CostEntry) (int, error) {
	now := time.Now().UTC()
	valid := make([]CostEntry, 0, len(entries))
	for _, e := range entries {
		if validateEntry(&e) != nil {
			continue
		}
		if e.IncurredAt.IsZero() {
			e.IncurredAt = now
		}
		e.CreatedAt = now
		e.UpdatedAt = now
		valid = append(valid, e)
	}

	inserted, err := s.Repo.CreateMany(ctx, valid)
	if err != nil {
		return inserted, err
	}

	if inserted > 0 {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionImport, string(common_models.ModuleQualityCost), "", nil)
	}
	return inserted, nil
}

func (s *CostServiceImpl) GetEntry(ctx context.Context, id string) (*CostEntry, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *CostServiceImpl) ListEntries(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]CostEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *CostServiceImpl) SummarizeByUnit(ctx context.Context, filter map[string]interface{}) ([]UnitSummary, error) {
	return s.Repo.SummarizeByUnit(ctx, filter)
}

func (s *CostServiceImpl) UpdateEntry(ctx context.Context, id string, entry *CostEntry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}

	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("cost entry not found")
	}

	entry.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, id, entry); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleQualityCost), id, map[string]common_models.Change{
		"amount": {Old: existing.Amount, New: entry.Amount},
		"type":   {Old: existing.Type, New: entry.Type},
	})
	return nil
}

func (s *CostServiceImpl) DeleteEntry(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(common_models.ModuleQualityCost), id, nil)
	return nil
}
