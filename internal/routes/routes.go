package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kinpay/kinpay/internal/account"
	"github.com/kinpay/kinpay/internal/cards"
	"github.com/kinpay/kinpay/internal/config"
	"github.com/kinpay/kinpay/internal/middleware"
	"github.com/kinpay/kinpay/internal/notification"
	"github.com/kinpay/kinpay/internal/principal"
	"github.com/kinpay/kinpay/internal/transfer"
	"github.com/kinpay/kinpay/internal/txlog"
	"github.com/kinpay/kinpay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. Store, Log and
// Principals are built in main (Postgres in production, in-memory in tests).
type Deps struct {
	Cfg        config.Config
	DB         *pgxpool.Pool
	Cache      *redis.Client
	Store      account.Store
	Log        txlog.Log
	Principals principal.Repository
	Inbox      *notification.Inbox
	Logger     *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Store == nil || d.Log == nil || d.Principals == nil {
		return fmt.Errorf("store, transaction log and principal repository are required")
	}
	if !isDev(d.Cfg.AppEnv) && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	inbox := d.Inbox
	if inbox == nil {
		inbox = notification.NewInbox(notification.NewLoggerNotifier(d.Logger))
	}

	provider := principal.NewJWTProvider(d.Cfg.JWTSecret, d.Principals)
	transferSvc := transfer.NewService(d.Store, d.Log, d.Principals, inbox, d.Logger)
	cardSvc := cards.NewService(d.Store, nil)

	transferHandler := transfer.NewHandler(transferSvc, d.Log)
	cardHandler := cards.NewHandler(cardSvc)
	walletHandler := wallet.NewHandler(d.Store)
	notificationHandler := notification.NewHandler(inbox)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.Authenticate(provider))
	rateLimiter := middleware.TransferRateLimit(d.Cache, 10)

	RegisterTransferRoutes(protected, transferHandler, rateLimiter)
	RegisterCardRoutes(protected, cardHandler)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterNotificationRoutes(protected, notificationHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
