package user

import (
	"context"
	"errors"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	CreateUser(ctx context.Context, user *common_models.User, password string) error
	GetUser(ctx context.Context, id string) (*common_models.User, error)
	ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]common_models.User, int64, error)
	UpdateUser(ctx context.Context, id string, user *common_models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type UserServiceImpl struct {
	Repo         UserRepository
	AuditService audit.AuditService
}

func NewUserService(repo UserRepository, auditService audit.AuditService) UserService {
	return &UserServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, user *common_models.User, password string) error {
	existing, err := s.Repo.FindByUsername(ctx, user.Username)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.ID = primitive.NewObjectID()
	user.Password = string(hash)
	if user.Status == "" {
		user.Status = "active"
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	if err := s.Repo.Create(ctx, user); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "users", user.ID.Hex(), map[string]common_models.Change{
		"username": {New: user.Username},
		"roles":    {New: user.Roles},
	})
	return nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id string) (*common_models.User, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, filter map[string]interface{}, page, limit int64) ([]common_models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, id string, user *common_models.User) error {
	old, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if old == nil {
		return errors.New("user not found")
	}

	user.UpdatedAt = time.Now()
	if err := s.Repo.Update(ctx, id, user); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "users", id, map[string]common_models.Change{
		"roles":  {Old: old.Roles, New: user.Roles},
		"status": {Old: old.Status, New: user.Status},
	})
	return nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "users", id, nil)
	return nil
}
