package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/atm/internal/atm"
	"github.com/congo-pay/atm/internal/auth"
	"github.com/congo-pay/atm/internal/config"
	"github.com/congo-pay/atm/internal/ledger"
	"github.com/congo-pay/atm/internal/lockout"
	"github.com/congo-pay/atm/internal/logging"
	"github.com/congo-pay/atm/internal/middleware"
	"github.com/congo-pay/atm/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Cache  *redis.Client
	Logger *slog.Logger
	// Ledger is created from Cfg when nil.
	Ledger *ledger.Ledger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Outside of dev the lockout and idempotency state must survive restarts.
	if !d.Cfg.IsDev() && d.Cache == nil {
		return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	l := d.Ledger
	if l == nil {
		var opts []ledger.Option
		if d.Cfg.PINHashCost > 0 {
			opts = append(opts, ledger.WithPINCost(d.Cfg.PINHashCost))
		}
		l = ledger.New(opts...)
	}

	RegisterHealthRoutes(app, d, l)

	notifier := notification.Fanout{notification.NewLoggerNotifier(d.Logger), notification.NewInbox(d.Cfg.InboxSize)}
	atmSvc := atm.NewService(l, notifier, d.Logger)
	sessions := auth.NewService(d.Cfg.SessionSecret, d.Cfg.SessionTTL)

	var counter lockout.Counter
	if d.Cache != nil {
		counter = lockout.NewRedisCounter(d.Cache, d.Cfg.LockoutWindow)
	} else {
		counter = lockout.NewMemoryCounter(d.Cfg.LockoutWindow)
	}

	sessionMW := middleware.SessionAuth(sessions)
	lockoutMW := middleware.LoginLockout(counter, d.Cfg.MaxLoginAttempts, d.Logger)
	idempotentMW := middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAccountRoutes(api, atm.NewHandler(atmSvc), sessionMW, idempotentMW)
	RegisterSessionRoutes(api, auth.NewHandler(atmSvc, sessions), lockoutMW, sessionMW)

	return nil
}
