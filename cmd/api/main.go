package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/db"
	"github.com/freelancehub/backend/internal/events"
	"github.com/freelancehub/backend/internal/gateway"
	apphttp "github.com/freelancehub/backend/internal/http"
	"github.com/freelancehub/backend/internal/http/handlers"
	"github.com/freelancehub/backend/internal/repositories"
	"github.com/freelancehub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	projectRepo := repositories.NewProjectRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	withdrawalRepo := repositories.NewWithdrawalRepo(pool)
	messageRepo := repositories.NewMessageRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Payment gateway
	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey, log)

	// Services
	escrowService := services.NewEscrowService(pool, ledgerRepo, projectRepo, messageRepo, auditRepo, publisher, cfg, log)
	paymentService := services.NewPaymentService(pool, paymentRepo, userRepo, projectRepo, auditRepo, gw, publisher, cfg, log)
	withdrawalService := services.NewWithdrawalService(pool, ledgerRepo, withdrawalRepo, auditRepo, gw, publisher, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, userRepo, log)
	userHandler := handlers.NewUserHandler(userRepo, ledgerRepo, log)
	escrowHandler := handlers.NewEscrowHandler(escrowService, messageRepo, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, log)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, escrowHandler, paymentHandler, withdrawalHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
