// Package server builds the fiber application and its routes.
package server

import (
	"context"
	"strings"
	"time"

	"telecom-erp-backend/internal/admin"
	"telecom-erp-backend/internal/audit"
	"telecom-erp-backend/internal/auth"
	"telecom-erp-backend/internal/config"
	"telecom-erp-backend/internal/dashboard"
	"telecom-erp-backend/internal/database"
	"telecom-erp-backend/internal/httpx"
	"telecom-erp-backend/internal/logger"
	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/sales"
	"telecom-erp-backend/internal/scope"
	"telecom-erp-backend/internal/settlement"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoreDirectory serves the store index and drops it when stores change.
type StoreDirectory interface {
	Index(ctx context.Context) (scope.StoreIndex, error)
	Invalidate(ctx context.Context)
}

type Deps struct {
	Config     *config.Config
	Log        *zap.Logger
	Stores     StoreDirectory
	Calculator *settlement.Calculator
}

func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: httpx.ErrorHandler(d.Log),
		BodyLimit:    16 * 1024 * 1024,
	})

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: logger.RequestIDLocal,
	}))
	app.Use(logger.Middleware(d.Log))
	app.Use(logger.Recovery(d.Log))

	corsOrigins := strings.Split(d.Config.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	register(app, d)
	return app
}

func register(app *fiber.App, d Deps) {
	cfg := d.Config
	dash := dashboard.Deps{Config: cfg, Calculator: d.Calculator, Stores: d.Stores}
	hqOnly := auth.RequireRole(models.RoleHeadquarters, models.RoleDeveloper)

	api := app.Group("/api")
	api.Get("/health", healthHandler())

	// Public auth
	api.Post("/auth/register-headquarters", auth.RegisterHeadquartersHandler())
	api.Post("/auth/login", loginLimiter(), auth.LoginHandler(cfg))

	// Protected: user reloaded and scope resolved on every request
	protected := api.Group("", auth.JWTMiddleware(cfg), auth.ScopeMiddleware(d.Stores))
	protected.Get("/auth/me", auth.MeHandler())

	// Organization
	protected.Get("/stores", admin.ListStoresHandler())
	protected.Get("/stores/:id", admin.GetStoreHandler())
	protected.Get("/goals", admin.ListGoalsHandler())

	adminRoutes := protected.Group("/admin", hqOnly)
	adminRoutes.Post("/branches", admin.CreateBranchHandler())
	adminRoutes.Get("/branches", admin.ListBranchesHandler())
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler())
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler())
	adminRoutes.Post("/stores", admin.CreateStoreHandler(d.Stores))
	adminRoutes.Put("/stores/:id", admin.UpdateStoreHandler(d.Stores))
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Put("/goals", admin.UpsertGoalHandler())

	// Sales
	protected.Post("/sales", sales.CreateSaleHandler(d.Calculator))
	protected.Get("/sales", sales.ListSalesHandler(cfg))
	protected.Post("/sales/import", sales.ImportSalesHandler(d.Calculator))
	protected.Post("/sales/recompute", hqOnly, sales.RecomputeHandler(d.Calculator))
	protected.Get("/sales/:id", sales.GetSaleHandler())

	// Statistics
	protected.Get("/dashboard/overview", dashboard.OverviewHandler(dash))
	protected.Get("/dashboard/sales-trend", dashboard.SalesTrendHandler(dash))
	protected.Get("/dashboard/dealer-performance", dashboard.DealerPerformanceHandler(dash))
	protected.Get("/stores/:id/statistics", dashboard.StoreStatisticsHandler(dash))
	protected.Get("/stores/:id/statistics/export", dashboard.ExportStoreStatisticsHandler(dash))

	// Audit
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())
}

func healthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := database.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			logger.FromCtx(c).Warn("health check failed", zap.Error(err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "database unavailable")
		}
		return httpx.OK(c, fiber.Map{"status": "ok"})
	}
}

// loginLimiter throttles password guessing per client IP.
func loginLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
		},
	})
}
