package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pos-api/internal/config"
	"go-pos-api/internal/handler"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"
	"go-pos-api/internal/ws"
	"go-pos-api/pkg/database"
	"go-pos-api/pkg/jwt"
	"go-pos-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	// 1. Load Env
	cfg, err := config.Load(*envFile)
	if err != nil {
		panic(err)
	}

	log := logger.Must(logger.New(!cfg.IsProduction()))
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	// 2. Setup Database
	db, err := database.Open(cfg.Database, logger.Named(log, "db"))
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(logger.Named(log, "ws"))
	go wsHub.Run()
	defer wsHub.Stop()

	// 4. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	stockRepo := repository.NewStockRepo(db)
	ledger := service.NewStockLedger(stockRepo)
	invoiceRepo := repository.NewInvoiceRepo(db)
	reportRepo := repository.NewReportRepo(db)
	purchaseRepo := repository.NewPurchaseRepo(db)
	userRepo := repository.NewUserRepo(db)

	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	saleService := service.NewSaleService(
		db,
		ledger,
		service.NewInvoiceWriter(invoiceRepo),
		invoiceRepo,
		wsHub,
		cfg.Server.SaleTimeout,
		logger.Named(log, "sale"),
	)
	dashService := service.NewDashboardService(reportRepo, logger.Named(log, "dashboard"))
	invoiceService := service.NewInvoiceService(invoiceRepo, logger.Named(log, "invoice"))
	catalogService := service.NewCatalogService(db, productRepo, ledger, purchaseRepo, wsHub, logger.Named(log, "catalog"))
	authService := service.NewAuthService(userRepo, tokens, logger.Named(log, "auth"))

	// 5. Seed default admin
	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = authService.SeedAdmin(seedCtx, cfg.Seed)
	cancel()
	if err != nil {
		log.Warn("failed to seed admin user", zap.Error(err))
	}

	httpLog := logger.Named(log, "http")
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, httpLog),
		Role:      handler.NewRoleHandler(),
		Sale:      handler.NewSaleHandler(saleService, httpLog),
		Invoice:   handler.NewInvoiceHandler(invoiceService, httpLog),
		Dashboard: handler.NewDashboardHandler(dashService, httpLog),
		Product:   handler.NewProductHandler(catalogService, httpLog),
		Health:    handler.NewHealthHandler(sqlDB, httpLog),
		Hub:       wsHub,
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.Server.AppName,
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New())

	// 7. Routes
	handler.Register(app, handlers, authService)

	// 8. Graceful Shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}
