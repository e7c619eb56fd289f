package auth

import (
	"context"
	"errors"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/features/audit"
	"kademe-kys/internal/features/user"
	"kademe-kys/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService interface {
	Register(ctx context.Context, username, password, email string) (*common_models.User, error)
	Login(ctx context.Context, username, password string) (string, *common_models.User, error)
}

type AuthServiceImpl struct {
	UserRepo     user.UserRepository
	AuditService audit.AuditService
}

func NewAuthService(userRepo user.UserRepository, auditService audit.AuditService) AuthService {
	return &AuthServiceImpl{
		UserRepo:     userRepo,
		AuditService: auditService,
	}
}

// Register creates an account with the default viewer role. Role upgrades go
// through the user management endpoints.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password, email string) (*common_models.User, error) {
	existing, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("username already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newUser := &common_models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Password:  string(hashed),
		Email:     email,
		Status:    "active",
		Roles:     []string{"viewer"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "users", newUser.ID.Hex(), nil)

	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *common_models.User, error) {
	u, err := s.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if u == nil || u.Status != "active" {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(u.ID, u.Roles)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	u.LastLogin = &now
	_ = s.UserRepo.TouchLastLogin(ctx, u.ID.Hex(), now)

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionLogin, "users", u.ID.Hex(), nil)

	return token, u, nil
}
