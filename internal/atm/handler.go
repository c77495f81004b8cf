package atm

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/atm/internal/ledger"
	"github.com/congo-pay/atm/internal/notification"
	"github.com/congo-pay/atm/internal/validate"
)

// Handler exposes account endpoints over HTTP.
type Handler struct {
	service *Service
}

// NewHandler constructs an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,atm_username"`
	Password string `json:"password" validate:"required,atm_password"`
	PIN      string `json:"pin" validate:"required,atm_pin"`
}

// Amounts accept both JSON numbers and decimal strings.
type amountRequest struct {
	Amount json.Number `json:"amount" validate:"required,atm_amount"`
}

type transferRequest struct {
	Recipient string      `json:"recipient" validate:"required"`
	Amount    json.Number `json:"amount" validate:"required,atm_amount"`
}

type accountResponse struct {
	Username  string          `json:"username"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type receiptResponse struct {
	TransactionID string          `json:"transaction_id"`
	Kind          ledger.Kind     `json:"kind"`
	Counterparty  string          `json:"counterparty,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	CompletedAt   time.Time       `json:"completed_at"`
}

type transactionResponse struct {
	ID           string          `json:"id"`
	Kind         ledger.Kind     `json:"kind"`
	Counterparty string          `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Timestamp    time.Time       `json:"timestamp"`
	Display      string          `json:"display"`
}

// Register creates an account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acct, err := h.service.Register(c.UserContext(), Credentials{Username: req.Username, Password: req.Password, PIN: req.PIN})
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(accountResponse{
		Username:  acct.Username(),
		Balance:   acct.Balance(),
		CreatedAt: acct.CreatedAt(),
	})
}

// Balance returns the session account's balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	acct, err := h.sessionAccount(c)
	if err != nil {
		return err
	}
	bal := h.service.Balance(acct)
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"username":  bal.Username,
		"balance":   bal.Amount,
		"timestamp": bal.AsOf,
	})
}

// History lists the session account's transactions, oldest first.
func (h *Handler) History(c *fiber.Ctx) error {
	acct, err := h.sessionAccount(c)
	if err != nil {
		return err
	}
	history := h.service.History(acct)
	out := make([]transactionResponse, 0, len(history))
	for _, tx := range history {
		out = append(out, transactionResponse{
			ID:           tx.ID,
			Kind:         tx.Kind,
			Counterparty: tx.Counterparty,
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			Timestamp:    tx.Timestamp,
			Display:      tx.String(),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"username":     acct.Username(),
		"transactions": out,
	})
}

// Notifications returns and clears the session account's pending notices.
func (h *Handler) Notifications(c *fiber.Ctx) error {
	acct, err := h.sessionAccount(c)
	if err != nil {
		return err
	}
	messages := h.service.Notifications(acct)
	if messages == nil {
		messages = []notification.Message{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"username":      acct.Username(),
		"notifications": messages,
	})
}

// Deposit credits the session account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	acct, err := h.sessionAccount(c)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c)
	if err != nil {
		return err
	}
	receipt, err := h.service.Deposit(c.UserContext(), acct, amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(toReceiptResponse(receipt))
}

// Withdraw debits the session account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	acct, err := h.sessionAccount(c)
	if err != nil {
		return err
	}
	amount, err := parseAmount(c)
	if err != nil {
		return err
	}
	receipt, err := h.service.Withdraw(c.UserContext(), acct, amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(toReceiptResponse(receipt))
}

// Transfer sends funds from the session account to another account.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	acct, err := h.sessionAccount(c)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := validate.Amount(req.Amount.String())
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.Transfer(c.UserContext(), acct, req.Recipient, amount)
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(http.StatusCreated).JSON(toReceiptResponse(receipt))
}

func (h *Handler) sessionAccount(c *fiber.Ctx) (*ledger.Account, error) {
	username, _ := c.Locals(SessionUserKey).(string)
	if username == "" {
		return nil, fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	acct, err := h.service.Account(c.UserContext(), username)
	if err != nil {
		// Token outlived its account, e.g. across a restart with a fixed secret.
		return nil, fiber.NewError(http.StatusUnauthorized, "session account not found")
	}
	return acct, nil
}

func parseAmount(c *fiber.Ctx) (decimal.Decimal, error) {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return decimal.Zero, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return decimal.Zero, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := validate.Amount(req.Amount.String())
	if err != nil {
		return decimal.Zero, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return amount, nil
}

func toReceiptResponse(r Receipt) receiptResponse {
	return receiptResponse{
		TransactionID: r.TransactionID,
		Kind:          r.Kind,
		Counterparty:  r.Counterparty,
		Amount:        r.Amount,
		Balance:       r.Balance,
		CompletedAt:   r.CompletedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidCredentialFormat),
		errors.Is(err, ledger.ErrSameAccountTransfer):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrAuthenticationFailed):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ledger.ErrRecipientNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateUsername), errors.Is(err, ledger.ErrInsufficientFunds):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
