package supplier

import (
	"context"
	"errors"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SupplierService interface {
	CreateSupplier(ctx context.Context, supplier *Supplier) error
	GetSupplier(ctx context.Context, id string) (*Supplier, error)
	ListSuppliers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Supplier, int64, error)
	UpdateSupplier(ctx context.Context, id string, supplier *Supplier) error
	RecordAudit(ctx context.Context, id string, supplierAudit *SupplierAudit) error
	ReportNonconformity(ctx context.Context, id string, nc *Nonconformity) error
	CloseNonconformity(ctx context.Context, id, ncID string) error
	DeleteSupplier(ctx context.Context, id string) error
}

type SupplierServiceImpl struct {
	Repo         SupplierRepository
	AuditService audit.AuditService
}

func NewSupplierService(repo SupplierRepository, auditService audit.AuditService) SupplierService {
	return &SupplierServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func actorFrom(ctx context.Context) string {
	if claims, ok := ctx.Value(utils.UserClaimsKey).(*utils.UserClaims); ok && claims != nil {
		return claims.UserID
	}
	return "system"
}

func (s *SupplierServiceImpl) CreateSupplier(ctx context.Context, supplier *Supplier) error {
	if supplier.Name == "" || supplier.Code == "" {
		return errors.New("name and code are required")
	}

	existing, err := s.Repo.FindByCode(ctx, supplier.Code)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("supplier code already in use")
	}

	now := time.Now().UTC()
	if supplier.Status == "" {
		supplier.Status = StatusConditional
	}
	supplier.CreatedAt = now
	supplier.UpdatedAt = now

	if err := s.Repo.Create(ctx, supplier); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(common_models.ModuleSupplier), supplier.ID.Hex(), nil)
	return nil
}

func (s *SupplierServiceImpl) GetSupplier(ctx context.Context, id string) (*Supplier, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *SupplierServiceImpl) ListSuppliers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Supplier, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *SupplierServiceImpl) UpdateSupplier(ctx context.Context, id string, supplier *Supplier) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errors.New("supplier not found")
	}

	supplier.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, id, supplier); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleSupplier), id, map[string]common_models.Change{
		"status": {Old: existing.Status, New: supplier.Status},
		"name":   {Old: existing.Name, New: supplier.Name},
	})
	return nil
}

func (s *SupplierServiceImpl) RecordAudit(ctx context.Context, id string, supplierAudit *SupplierAudit) error {
	if supplierAudit.Score < 0 || supplierAudit.Score > 100 {
		return errors.New("score must be between 0 and 100")
	}

	now := time.Now().UTC()
	supplierAudit.ID = primitive.NewObjectID()
	supplierAudit.Auditor = actorFrom(ctx)
	if supplierAudit.AuditDate.IsZero() {
		supplierAudit.AuditDate = now
	}
	supplierAudit.CreatedAt = now

	if err := s.Repo.PushAudit(ctx, id, *supplierAudit); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleSupplier), id, map[string]common_models.Change{
		"audit_score": {Old: nil, New: supplierAudit.Score},
	})
	return nil
}

func (s *SupplierServiceImpl) ReportNonconformity(ctx context.Context, id string, nc *Nonconformity) error {
	if nc.Description == "" {
		return errors.New("description is required")
	}
	if nc.Severity == "" {
		nc.Severity = "medium"
	}

	nc.ID = primitive.NewObjectID()
	nc.Open = true
	nc.ReportedBy = actorFrom(ctx)
	nc.ReportedAt = time.Now().UTC()

	if err := s.Repo.PushNonconformity(ctx, id, *nc); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleSupplier), id, map[string]common_models.Change{
		"nonconformity": {Old: nil, New: nc.Description},
	})
	return nil
}

func (s *SupplierServiceImpl) CloseNonconformity(ctx context.Context, id, ncID string) error {
	oid, err := primitive.ObjectIDFromHex(ncID)
	if err != nil {
		return err
	}
	if err := s.Repo.CloseNonconformity(ctx, id, oid); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleSupplier), id, map[string]common_models.Change{
		"nonconformity_closed": {Old: nil, New: ncID},
	})
	return nil
}

func (s *SupplierServiceImpl) DeleteSupplier(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(common_models.ModuleSupplier), id, nil)
	return nil
}
