package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/atm/internal/atm"
	"github.com/congo-pay/atm/internal/ledger"
	"github.com/congo-pay/atm/internal/validate"
)

// Handler exposes login and logout endpoints.
type Handler struct {
	atm      *atm.Service
	sessions *Service
}

func NewHandler(svc *atm.Service, sessions *Service) *Handler {
	return &Handler{atm: svc, sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	PIN      string `json:"pin" validate:"required"`
}

type loginResponse struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login validates credentials and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.atm.Login(c.UserContext(), atm.Credentials{Username: req.Username, Password: req.Password, PIN: req.PIN})
	if err != nil {
		if errors.Is(err, ledger.ErrAuthenticationFailed) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	session, err := h.sessions.Issue(acct.Username())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		Username:    session.Username,
		AccessToken: session.Token,
		ExpiresIn:   session.ExpiresIn(time.Now()),
	})
}

// Logout revokes every token of the session's user.
func (h *Handler) Logout(c *fiber.Ctx) error {
	username, _ := c.Locals(atm.SessionUserKey).(string)
	if username == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	h.sessions.Revoke(username)
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
