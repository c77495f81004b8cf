package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/atm/internal/auth"
)

// RegisterSessionRoutes wires login and logout endpoints.
func RegisterSessionRoutes(r fiber.Router, h *auth.Handler, lockout, session fiber.Handler) {
	if lockout != nil {
		r.Post("/sessions", lockout, h.Login)
	} else {
		r.Post("/sessions", h.Login)
	}
	r.Delete("/sessions", session, h.Logout)
}
