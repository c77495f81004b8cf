package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/atm/internal/config"
	"github.com/congo-pay/atm/internal/middleware"
	"github.com/congo-pay/atm/internal/routes"
)

// Server owns the ATM HTTP surface. cache may be nil in development, in which
// case lockout counters live in memory and idempotency is disabled.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	logger *slog.Logger
}

func New(cfg config.Config, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: !cfg.IsDev(),
		ErrorHandler:          jsonErrors(logger),
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, logger: logger}, nil
}

// App exposes the Fiber app so tests can drive it with app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled or the listener fails, then drains
// in-flight requests for at most cfg.ShutdownPeriod.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.cfg.Address())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "grace", s.cfg.ShutdownPeriod.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownPeriod)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}

// jsonErrors renders every error as {"error": ..., "request_id": ...}.
// Messages of 5xx errors stay in the log.
func jsonErrors(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		message := http.StatusText(code)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= http.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "request failed",
				"method", c.Method(), "path", c.Path(), "status", code, "error", err)
			message = http.StatusText(code)
		}
		return c.Status(code).JSON(fiber.Map{
			"error":      message,
			"request_id": middleware.RequestIDFrom(c),
		})
	}
}
