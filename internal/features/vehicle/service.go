package vehicle

import (
	"context"
	"errors"
	"fmt"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/pkg/utils"
)

type VehicleService interface {
	CreateVehicle(ctx context.Context, vehicle *Vehicle) error
	GetVehicle(ctx context.Context, id string) (*Vehicle, error)
	ListVehicles(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Vehicle, int64, error)
	MoveState(ctx context.Context, id string, to VehicleState, note string) (*Vehicle, error)
	Warnings(ctx context.Context) ([]Warning, error)
	DeleteVehicle(ctx context.Context, id string) error
}

type VehicleServiceImpl struct {
	Repo         VehicleRepository
	AuditService audit.AuditService
}

func NewVehicleService(repo VehicleRepository, auditService audit.AuditService) VehicleService {
	return &VehicleServiceImpl{
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

func (s *VehicleServiceImpl) CreateVehicle(ctx context.Context, vehicle *Vehicle) error {
	if vehicle.SerialNumber == "" {
		return errors.New("serial number is required")
	}

	existing, err := s.Repo.FindBySerial(ctx, vehicle.SerialNumber)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("serial number already registered")
	}

	now := time.Now().UTC()
	vehicle.State = StateProduction
	vehicle.StateSince = now
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if err := s.Repo.Create(ctx, vehicle); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, string(common_models.ModuleVehicle), vehicle.ID.Hex(), nil)
	return nil
}

func (s *VehicleServiceImpl) GetVehicle(ctx context.Context, id string) (*Vehicle, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *VehicleServiceImpl) ListVehicles(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]Vehicle, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *VehicleServiceImpl) MoveState(ctx context.Context, id string, to VehicleState, note string) (*Vehicle, error) {
	vehicle, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vehicle == nil {
		return nil, errors.New("vehicle not found")
	}

	if !canMove(vehicle.State, to) {
		return nil, fmt.Errorf("cannot move vehicle from %s to %s", vehicle.State, to)
	}

	now := time.Now().UTC()
	change := StateChange{
		From:      vehicle.State,
		To:        to,
		ChangedBy: actorFrom(ctx),
		ChangedAt: now,
		Note:      note,
	}

	prev := vehicle.State
	vehicle.State = to
	vehicle.StateSince = now
	vehicle.History = append(vehicle.History, change)
	vehicle.UpdatedAt = now

	if err := s.Repo.Update(ctx, id, vehicle); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, string(common_models.ModuleVehicle), id, map[string]common_models.Change{
		"state": {Old: prev, New: to},
	})
	return vehicle, nil
}

// Warnings lists unshipped vehicles that have overstayed their current
// state threshold.
func (s *VehicleServiceImpl) Warnings(ctx context.Context) ([]Warning, error) {
	vehicles, err := s.Repo.ListUnshipped(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	warnings := make([]Warning, 0)
	for _, v := range vehicles {
		threshold, ok := warnThreshold[v.State]
		if !ok {
			continue
		}
		inState := now.Sub(v.StateSince)
		if inState >= threshold {
			warnings = append(warnings, Warning{
				VehicleID:    v.ID.Hex(),
				SerialNumber: v.SerialNumber,
				State:        v.State,
				InStateFor:   inState.Round(time.Hour).String(),
				Threshold:    threshold.String(),
			})
		}
	}
	return warnings, nil
}

func (s *VehicleServiceImpl) DeleteVehicle(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, string(common_models.ModuleVehicle), id, nil)
	return nil
}
