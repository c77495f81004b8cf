package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/atm/internal/atm"
	"github.com/congo-pay/atm/internal/auth"
)

// SessionAuth validates bearer session tokens and stores the username in
// c.Locals(atm.SessionUserKey).
func SessionAuth(sessions *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		username, err := sessions.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		c.Locals(atm.SessionUserKey, username)
		return c.Next()
	}
}
