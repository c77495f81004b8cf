package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/atm/internal/atm"
)

// RegisterAccountRoutes wires registration and the session account endpoints.
// Money-moving routes sit behind the idempotency middleware.
func RegisterAccountRoutes(r fiber.Router, h *atm.Handler, session, idempotent fiber.Handler) {
	r.Post("/accounts", h.Register)

	r.Get("/account", session, h.Balance)
	r.Get("/account/transactions", session, h.History)
	r.Get("/account/notifications", session, h.Notifications)
	r.Post("/account/deposits", session, idempotent, h.Deposit)
	r.Post("/account/withdrawals", session, idempotent, h.Withdraw)
	r.Post("/account/transfers", session, idempotent, h.Transfer)
}
