package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/atm/internal/lockout"
)

// LoginLockout refuses logins from a client after maxFailures consecutive
// failed attempts. Each attempt is counted before the credentials are checked;
// a successful login resets the count and a request rejected for any reason
// other than bad credentials hands its attempt back.
func LoginLockout(counter lockout.Counter, maxFailures int, logger *slog.Logger) fiber.Handler {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	return func(c *fiber.Ctx) error {
		if counter == nil {
			return c.Next()
		}
		ctx := c.UserContext()
		key := c.IP()

		n, err := counter.Attempt(ctx, key)
		if err != nil {
			logger.Error("lockout reservation failed", slog.String("client", key), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "lockout store failure")
		}
		if n > maxFailures {
			return fiber.NewError(http.StatusTooManyRequests, "too many unsuccessful login attempts")
		}

		err = c.Next()

		var fe *fiber.Error
		switch {
		case err == nil && c.Response().StatusCode() < http.StatusBadRequest:
			if err := counter.Reset(ctx, key); err != nil {
				logger.Warn("lockout reset failed", slog.String("client", key), slog.Any("error", err))
			}
		case errors.As(err, &fe) && fe.Code == http.StatusUnauthorized:
			if n == maxFailures {
				logger.Warn("client locked out", slog.String("client", key), slog.Int("failures", n))
			}
		default:
			if rerr := counter.Release(ctx, key); rerr != nil {
				logger.Warn("lockout release failed", slog.String("client", key), slog.Any("error", rerr))
			}
		}
		return err
	}
}
