package atm

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/atm/internal/notification"
)

func setupHandlerApp(t *testing.T) *fiber.App {
	t.Helper()
	h := NewHandler(newTestService(notification.NewInbox(10)))
	app := fiber.New()
	session := func(c *fiber.Ctx) error {
		c.Locals(SessionUserKey, c.Get("X-Test-User"))
		return c.Next()
	}
	app.Post("/accounts", h.Register)
	app.Get("/account", session, h.Balance)
	app.Get("/account/transactions", session, h.History)
	app.Get("/account/notifications", session, h.Notifications)
	app.Post("/account/deposits", session, h.Deposit)
	app.Post("/account/withdrawals", session, h.Withdraw)
	app.Post("/account/transfers", session, h.Transfer)
	return app
}

func call(t *testing.T, app *fiber.App, method, path, user, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

const (
	aliceBody = `{"username":"alice","password":"Abcd12!","pin":"a1@bc"}`
	bobBody   = `{"username":"bob01","password":"Efgh34!","pin":"b2!cd"}`
)

func TestHandlerRegister(t *testing.T) {
	app := setupHandlerApp(t)

	status, body := call(t, app, fiber.MethodPost, "/accounts", "", aliceBody)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201 got %d", status)
	}
	if body["username"] != "alice" || body["balance"] != "0" {
		t.Fatalf("unexpected body: %v", body)
	}

	if status, _ := call(t, app, fiber.MethodPost, "/accounts", "", aliceBody); status != fiber.StatusConflict {
		t.Fatalf("duplicate: expected 409 got %d", status)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/accounts", "", `{"username":"abcd","password":"Abcd12!","pin":"a1@bc"}`); status != fiber.StatusBadRequest {
		t.Fatalf("short username: expected 400 got %d", status)
	}
	if status, _ := call(t, app, fiber.MethodPost, "/accounts", "", `{"username":"carol","password":"abcd12!","pin":"a1@bc"}`); status != fiber.StatusBadRequest {
		t.Fatalf("weak password: expected 400 got %d", status)
	}
}

func TestHandlerMoneyFlow(t *testing.T) {
	app := setupHandlerApp(t)
	call(t, app, fiber.MethodPost, "/accounts", "", aliceBody)
	call(t, app, fiber.MethodPost, "/accounts", "", bobBody)

	status, receipt := call(t, app, fiber.MethodPost, "/account/deposits", "alice", `{"amount":100}`)
	if status != fiber.StatusCreated {
		t.Fatalf("deposit: expected 201 got %d", status)
	}
	if receipt["kind"] != "deposit" || receipt["balance"] != "100" {
		t.Fatalf("unexpected deposit receipt: %v", receipt)
	}

	status, receipt = call(t, app, fiber.MethodPost, "/account/transfers", "alice", `{"recipient":"bob01","amount":"40"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("transfer: expected 201 got %d", status)
	}
	if receipt["balance"] != "60" || receipt["counterparty"] != "bob01" {
		t.Fatalf("unexpected transfer receipt: %v", receipt)
	}

	_, bal := call(t, app, fiber.MethodGet, "/account", "bob01", "")
	if bal["balance"] != "40" {
		t.Fatalf("expected bob balance 40, got %v", bal["balance"])
	}

	_, history := call(t, app, fiber.MethodGet, "/account/transactions", "bob01", "")
	txs, ok := history["transactions"].([]any)
	if !ok || len(txs) != 1 {
		t.Fatalf("expected one transaction for bob, got %v", history["transactions"])
	}
	entry := txs[0].(map[string]any)
	if entry["kind"] != "transfer_in" || !strings.HasSuffix(entry["display"].(string), "Transfer from alice: $40.00") {
		t.Fatalf("unexpected history entry: %v", entry)
	}

	_, inbox := call(t, app, fiber.MethodGet, "/account/notifications", "bob01", "")
	notes, ok := inbox["notifications"].([]any)
	if !ok || len(notes) != 1 {
		t.Fatalf("expected one notification for bob, got %v", inbox["notifications"])
	}
	if note := notes[0].(map[string]any); note["kind"] != "transfer_received" || note["body"] != "You received $40.00 from alice" {
		t.Fatalf("unexpected notification: %v", note)
	}
	_, inbox = call(t, app, fiber.MethodGet, "/account/notifications", "bob01", "")
	if notes, _ := inbox["notifications"].([]any); len(notes) != 0 {
		t.Fatalf("notifications must be cleared once read, got %v", notes)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	app := setupHandlerApp(t)
	call(t, app, fiber.MethodPost, "/accounts", "", aliceBody)
	call(t, app, fiber.MethodPost, "/account/deposits", "alice", `{"amount":"10"}`)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"insufficient", "/account/withdrawals", `{"amount":"10.01"}`, fiber.StatusConflict},
		{"zero", "/account/deposits", `{"amount":"0"}`, fiber.StatusBadRequest},
		{"negative", "/account/withdrawals", `{"amount":-5}`, fiber.StatusBadRequest},
		{"not a number", "/account/deposits", `{"amount":"ten"}`, fiber.StatusBadRequest},
		{"missing amount", "/account/deposits", `{}`, fiber.StatusBadRequest},
		{"scientific string", "/account/deposits", `{"amount":"1e50000000"}`, fiber.StatusBadRequest},
		{"scientific number", "/account/deposits", `{"amount":1e50000000}`, fiber.StatusBadRequest},
		{"sub-cent", "/account/deposits", `{"amount":"0.001"}`, fiber.StatusBadRequest},
		{"over max", "/account/deposits", `{"amount":"1000000000.01"}`, fiber.StatusBadRequest},
		{"scientific transfer", "/account/transfers", `{"recipient":"alice","amount":"1e9"}`, fiber.StatusBadRequest},
		{"self transfer", "/account/transfers", `{"recipient":"alice","amount":"1"}`, fiber.StatusBadRequest},
		{"unknown recipient", "/account/transfers", `{"recipient":"nobody","amount":"1"}`, fiber.StatusNotFound},
	}
	for _, tc := range cases {
		if status, _ := call(t, app, fiber.MethodPost, tc.path, "alice", tc.body); status != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.status, status)
		}
	}

	_, bal := call(t, app, fiber.MethodGet, "/account", "alice", "")
	if bal["balance"] != "10" {
		t.Fatalf("failed operations must not change the balance, got %v", bal["balance"])
	}
}

func TestHandlerRequiresSessionAccount(t *testing.T) {
	app := setupHandlerApp(t)

	if status, _ := call(t, app, fiber.MethodGet, "/account", "", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("no session: expected 401 got %d", status)
	}
	if status, _ := call(t, app, fiber.MethodGet, "/account", "ghost", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("unknown account: expected 401 got %d", status)
	}
}
