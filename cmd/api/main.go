package main

import (
	"context"
	"fmt"
	"log"

	common_api "kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/database"
	"kademe-kys/internal/features/audit"
	"kademe-kys/internal/features/auth"
	"kademe-kys/internal/features/defect"
	"kademe-kys/internal/features/dof"
	"kademe-kys/internal/features/importer"
	"kademe-kys/internal/features/notification"
	"kademe-kys/internal/features/qualitycost"
	"kademe-kys/internal/features/risk"
	"kademe-kys/internal/features/supplier"
	"kademe-kys/internal/features/user"
	"kademe-kys/internal/features/vehicle"
	"kademe-kys/internal/features/workflow"
	"kademe-kys/internal/logger"
	"kademe-kys/internal/middleware"
	"kademe-kys/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d routes\n", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeWorkflowEngine installs templates and hydrates instances
// before the server starts taking traffic.
func InitializeWorkflowEngine(
	lc fx.Lifecycle,
	store *workflow.TemplateStore,
	templateRepo workflow.TemplateRepository,
	engine *workflow.Engine,
	logger *zap.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.LoadFrom(ctx, templateRepo, logger); err != nil {
				return err
			}
			return engine.LoadInstances(ctx)
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			// Repositories
			audit.NewAuditRepository,
			user.NewUserRepository,
			notification.NewNotificationRepository,
			workflow.NewTemplateRepository,
			workflow.NewInstanceRepository,
			qualitycost.NewCostRepository,
			defect.NewDefectRepository,
			supplier.NewSupplierRepository,
			risk.NewRiskRepository,
			vehicle.NewVehicleRepository,
			dof.NewDOFRepository,

			// Workflow engine plumbing
			workflow.NewTemplateStore,
			workflow.SystemClock,
			workflow.NewRoleBasedPool,
			workflow.NewEngine,
			workflow.NewEscalationScheduler,
			notification.NewHub,

			// Services
			audit.NewAuditService,
			auth.NewAuthService,
			user.NewUserService,
			notification.NewNotificationService,
			qualitycost.NewCostService,
			defect.NewDefectService,
			supplier.NewSupplierService,
			risk.NewRiskService,
			vehicle.NewVehicleService,
			dof.NewDOFService,
			importer.NewImportService,

			// Interface adapters to satisfy Fx
			func(r user.UserRepository) audit.UserFinder { return r },
			func(r user.UserRepository) notification.UserFinder { return r },
			func(r user.UserRepository) workflow.RoleMemberFinder { return r },
			func(p *workflow.RoleBasedPool) workflow.AssignmentPool { return p },
			func(s notification.NotificationService) workflow.Notifier { return s },

			// Controllers
			audit.NewAuditController,
			auth.NewAuthController,
			user.NewUserController,
			notification.NewNotificationController,
			workflow.NewWorkflowController,
			qualitycost.NewCostController,
			defect.NewDefectController,
			supplier.NewSupplierController,
			risk.NewRiskController,
			vehicle.NewVehicleController,
			dof.NewDOFController,
			importer.NewImportController,

			// API routes
			AsRoute(audit.NewAuditApi),
			AsRoute(auth.NewAuthApi),
			AsRoute(user.NewUserApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(qualitycost.NewCostApi),
			AsRoute(defect.NewDefectApi),
			AsRoute(supplier.NewSupplierApi),
			AsRoute(risk.NewRiskApi),
			AsRoute(vehicle.NewVehicleApi),
			AsRoute(dof.NewDOFApi),
			AsRoute(importer.NewImportApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			InitializeWorkflowEngine,
			workflow.StartEscalationScheduler,
			StartServer,
		),
	)

	app.Run()
}
