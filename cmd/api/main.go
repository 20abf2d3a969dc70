package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"go-admin-console/internal/config"
	"go-admin-console/internal/handler"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/service"
	"go-admin-console/internal/session"
	"go-admin-console/internal/ws"
	"go-admin-console/pkg/cache"
	"go-admin-console/pkg/database"
	"go-admin-console/pkg/jwt"
	applog "go-admin-console/pkg/logger"
)

func main() {
	// 1. Load Env
	cfg, envFound, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := applog.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	if !envFound {
		zlog.Warn(".env file not found, relying on system env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	logLevel := gormlogger.Warn
	if cfg.DBLogSQL {
		logLevel = gormlogger.Info
	}
	db, err := database.ConnectDB(cfg.DSN(), zlog, logLevel)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	if err := repository.AutoMigrate(db); err != nil {
		zlog.Fatal("migration failed", zap.Error(err))
	}
	store := repository.NewStore(db)

	// 3. Seed the system role, the policy document and the protected admin
	if err := seed(ctx, store, cfg, zlog); err != nil {
		zlog.Fatal("seeding failed", zap.Error(err))
	}

	// 4. Sessions and WebSocket Hub
	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		zlog.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisClient.Close()

	wsHub := ws.NewHub(zlog)
	go wsHub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	deps := service.Deps{
		Store:    store,
		Sessions: session.NewStore(redisClient, cfg.SessionPrefix),
		Notifier: wsHub,
	}
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTIssuer)

	authService := service.NewAuthService(deps, tokens, service.AuthOptions{
		TOTPIssuer:      cfg.TOTPIssuer,
		SecondFactorTTL: cfg.SecondFactorTTL,
	})
	adminService := service.NewAdminService(deps)
	roleService := service.NewRoleService(deps)
	policyService := service.NewPolicyService(deps)
	auditService := service.NewAuditService(deps)

	handlers := handler.Handlers{
		Auth:   handler.NewAuthHandler(authService, zlog),
		Admins: handler.NewAdminHandler(adminService, zlog),
		Roles:  handler.NewRoleHandler(roleService, zlog),
		Policy: handler.NewPolicyHandler(policyService, zlog),
		Logs:   handler.NewLogHandler(auditService, zlog),
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.Register(app, handlers, handler.RouteConfig{
		Authenticator: authService,
		LoginLimiter:  middleware.NewIPLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
		Hub:           wsHub,
	})

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(fmt.Sprintf(":%s", cfg.Port)); err != nil {
			zlog.Panic("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zlog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zlog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zlog.Info("server exited")
}
