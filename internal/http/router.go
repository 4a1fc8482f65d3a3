package http

import (
	"time"

	"github.com/freelancehub/backend/internal/config"
	"github.com/freelancehub/backend/internal/http/handlers"
	"github.com/freelancehub/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	escrowHandler *handlers.EscrowHandler,
	paymentHandler *handlers.PaymentHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/sso", authHandler.SSOAuth)

	// Gateway redirect landing (public — the user arrives here from the
	// provider's checkout page, before any JWT exists)
	api.Get("/payments/callback", paymentHandler.Callback)

	// Rate-limited endpoints
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Get("/me/ledger", userHandler.GetMyLedger)

	// Escrow
	protected.Post("/projects/:id/escrow/deposit", escrowHandler.Deposit)
	protected.Post("/projects/:id/escrow/release", escrowHandler.ManualRelease)
	protected.Post("/projects/:id/escrow/refund", escrowHandler.Refund)
	protected.Post("/projects/:id/milestones/:milestoneId/release", escrowHandler.ReleaseMilestone)
	protected.Get("/projects/:id/escrow", escrowHandler.GetSummary)
	protected.Get("/projects/:id/ledger", escrowHandler.GetLedger)
	protected.Get("/projects/:id/messages", escrowHandler.GetMessages)

	// Payments
	protected.Post("/payments/tier-upgrade", paymentHandler.StartTierUpgrade)
	protected.Post("/payments/project-publication", paymentHandler.StartProjectPublication)
	protected.Get("/payments", paymentHandler.ListMyPayments)
	protected.Get("/payments/:txRef", paymentHandler.GetPayment)

	// Withdrawals
	protected.Post("/withdrawals", withdrawalHandler.Create)
	protected.Get("/withdrawals", withdrawalHandler.ListMy)

	// Admin
	admin := protected.Group("/admin", middleware.AdminMiddleware())
	admin.Get("/withdrawals", withdrawalHandler.ListQueue)
	admin.Post("/withdrawals/:id/approve", withdrawalHandler.Approve)
	admin.Post("/withdrawals/:id/reject", withdrawalHandler.Reject)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
