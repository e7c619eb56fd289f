package main

import (
	"context"
	"time"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/internal/config"
	"kademe-kys/internal/database"
	"kademe-kys/internal/features/user"
	"kademe-kys/internal/features/workflow"
	"kademe-kys/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	Username   string
	Password   string
	Email      string
	Department string
	Roles      []string
}

var defaultUsers = []seedUser{
	{Username: "admin", Password: "admin123", Email: "admin@kademe.local", Department: "IT", Roles: []string{"admin", "quality_manager"}},
	{Username: "qm", Password: "qm123", Email: "qm@kademe.local", Department: "Quality", Roles: []string{"quality_manager"}},
	{Username: "engineer1", Password: "eng123", Email: "engineer1@kademe.local", Department: "Quality", Roles: []string{"quality_engineer"}},
	{Username: "engineer2", Password: "eng123", Email: "engineer2@kademe.local", Department: "Quality", Roles: []string{"quality_engineer"}},
	{Username: "plant", Password: "plant123", Email: "plant@kademe.local", Department: "Production", Roles: []string{"plant_manager"}},
}

// Seed creates the default users and persists the builtin workflow
// templates so they can be customized later.
func Seed(
	lc fx.Lifecycle,
	userRepo user.UserRepository,
	templateRepo workflow.TemplateRepository,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				logger.Info("Seeding database")

				now := time.Now().UTC()
				for _, su := range defaultUsers {
					existing, err := userRepo.FindByUsername(ctx, su.Username)
					if err != nil {
						logger.Error("lookup failed", zap.String("username", su.Username), zap.Error(err))
						continue
					}
					if existing != nil {
						logger.Info("user exists, skipping", zap.String("username", su.Username))
						continue
					}

					hashed, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
					if err != nil {
						logger.Error("hash failed", zap.String("username", su.Username), zap.Error(err))
						continue
					}

					u := &common_models.User{
						ID:         primitive.NewObjectID(),
						Username:   su.Username,
						Password:   string(hashed),
						Email:      su.Email,
						Department: su.Department,
						Status:     "active",
						Roles:      su.Roles,
						CreatedAt:  now,
						UpdatedAt:  now,
					}
					if err := userRepo.Create(ctx, u); err != nil {
						logger.Error("create failed", zap.String("username", su.Username), zap.Error(err))
						continue
					}
					logger.Info("created user", zap.String("username", su.Username))
				}

				for _, tmpl := range workflow.BuiltinTemplates() {
					if err := templateRepo.Save(ctx, tmpl); err != nil {
						logger.Error("template save failed", zap.String("template_id", tmpl.ID), zap.Error(err))
						continue
					}
					logger.Info("saved workflow template", zap.String("template_id", tmpl.ID))
				}

				logger.Info("Seeding complete")
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			user.NewUserRepository,
			workflow.NewTemplateRepository,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
