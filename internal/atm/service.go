package atm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/atm/internal/ledger"
	"github.com/congo-pay/atm/internal/logging"
	"github.com/congo-pay/atm/internal/notification"
)

// SessionUserKey is the fiber.Ctx local holding the authenticated username.
const SessionUserKey = "session_username"

// Service is the session-facing entry point to the ledger used by both the
// console and the HTTP shells.
type Service struct {
	ledger   *ledger.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService wires a ledger with a notifier and logger. A nil notifier disables
// notifications.
func NewService(l *ledger.Ledger, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{ledger: l, notifier: notifier, logger: logger}
}

// Credentials are the three secrets a user types at the ATM.
type Credentials struct {
	Username string
	Password string
	PIN      string
}

// Receipt is the outcome of a balance-changing operation.
type Receipt struct {
	TransactionID string
	Kind          ledger.Kind
	Counterparty  string
	Amount        decimal.Decimal
	Balance       decimal.Decimal
	CompletedAt   time.Time
}

// Balance is a point-in-time view of an account balance.
type Balance struct {
	Username string
	Amount   decimal.Decimal
	AsOf     time.Time
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, creds Credentials) (*ledger.Account, error) {
	acct, err := s.ledger.CreateAccount(creds.Username, creds.Password, creds.PIN)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateUsername) || errors.Is(err, ledger.ErrInvalidCredentialFormat) {
			s.logger.InfoContext(ctx, "register rejected", "username", creds.Username, "reason", err.Error())
			return nil, err
		}
		s.logger.ErrorContext(ctx, "register failed", "username", creds.Username, "error", err)
		return nil, fmt.Errorf("register %s: %w", creds.Username, err)
	}
	s.logger.InfoContext(ctx, "account created", "username", acct.Username())
	return acct, nil
}

// Login authenticates a user and returns the session's account.
func (s *Service) Login(ctx context.Context, creds Credentials) (*ledger.Account, error) {
	acct, err := s.ledger.Authenticate(creds.Username, creds.Password, creds.PIN)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed", "username", creds.Username)
		return nil, err
	}
	s.logger.InfoContext(ctx, "login succeeded", "username", acct.Username())
	return acct, nil
}

// NotifyLockout tells username that logins were locked after repeated failures.
func (s *Service) NotifyLockout(ctx context.Context, username string, attempts int) {
	s.logger.WarnContext(ctx, "login locked out", "username", username, "attempts", attempts)
	if s.notifier == nil || username == "" {
		return
	}
	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindLoginLockout,
		Destination: username,
		Body:        fmt.Sprintf("Login locked after %d unsuccessful attempts", attempts),
	}); err != nil {
		s.logger.WarnContext(ctx, "lockout notification failed", "username", username, "error", err)
	}
}

// Account resolves the account of an already authenticated session.
func (s *Service) Account(_ context.Context, username string) (*ledger.Account, error) {
	return s.ledger.Lookup(username)
}

// Deposit credits the session account.
func (s *Service) Deposit(ctx context.Context, acct *ledger.Account, amount decimal.Decimal) (Receipt, error) {
	tx, err := acct.Deposit(amount)
	if err != nil {
		return Receipt{}, err
	}
	s.logger.InfoContext(ctx, "deposit completed", "username", acct.Username(), "amount", amount.String(), "transaction_id", tx.ID)
	return toReceipt(tx), nil
}

// Withdraw debits the session account.
func (s *Service) Withdraw(ctx context.Context, acct *ledger.Account, amount decimal.Decimal) (Receipt, error) {
	tx, err := acct.Withdraw(amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			s.logger.InfoContext(ctx, "withdrawal declined", "username", acct.Username(), "amount", amount.String())
		}
		return Receipt{}, err
	}
	s.logger.InfoContext(ctx, "withdrawal completed", "username", acct.Username(), "amount", amount.String(), "transaction_id", tx.ID)
	return toReceipt(tx), nil
}

// Transfer moves funds from the session account to recipient and notifies the recipient.
func (s *Service) Transfer(ctx context.Context, acct *ledger.Account, recipient string, amount decimal.Decimal) (Receipt, error) {
	tx, err := s.ledger.Transfer(acct.Username(), recipient, amount)
	if err != nil {
		s.logger.InfoContext(ctx, "transfer declined", "username", acct.Username(), "recipient", recipient, "amount", amount.String(), "reason", err.Error())
		return Receipt{}, err
	}
	s.logger.InfoContext(ctx, "transfer completed", "username", acct.Username(), "recipient", recipient, "amount", amount.String(), "transaction_id", tx.ID)

	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: recipient,
			Body:        fmt.Sprintf("You received $%s from %s", amount.StringFixed(2), acct.Username()),
		}); err != nil {
			s.logger.WarnContext(ctx, "transfer notification failed", "recipient", recipient, "error", err)
		}
	}
	return toReceipt(tx), nil
}

// Balance returns the current balance of the session account.
func (s *Service) Balance(acct *ledger.Account) Balance {
	return Balance{Username: acct.Username(), Amount: acct.Balance(), AsOf: time.Now().UTC()}
}

// History returns the session account's transactions, oldest first.
func (s *Service) History(acct *ledger.Account) []ledger.Transaction {
	return acct.History()
}

// Notifications hands out the session account's pending notices. They are
// only kept when the service's notifier is a notification.Drainer.
func (s *Service) Notifications(acct *ledger.Account) []notification.Message {
	d, ok := s.notifier.(notification.Drainer)
	if !ok {
		return nil
	}
	return d.Drain(acct.Username())
}

func toReceipt(tx ledger.Transaction) Receipt {
	return Receipt{
		TransactionID: tx.ID,
		Kind:          tx.Kind,
		Counterparty:  tx.Counterparty,
		Amount:        tx.Amount,
		Balance:       tx.BalanceAfter,
		CompletedAt:   tx.Timestamp,
	}
}
