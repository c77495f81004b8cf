package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/atm/internal/credential"
	"github.com/congo-pay/atm/internal/validate"
)

// Account is one user's balance, credentials and transaction log. All methods
// are safe for concurrent use.
type Account struct {
	mu           sync.Mutex
	username     string
	creds        credential.Store
	balance      decimal.Decimal
	transactions []Transaction
	createdAt    time.Time
	now          func() time.Time
}

func newAccount(username string, creds credential.Store, now func() time.Time) *Account {
	return &Account{
		username:  username,
		creds:     creds,
		balance:   decimal.Zero,
		createdAt: now(),
		now:       now,
	}
}

// Username returns the immutable account identifier.
func (a *Account) Username() string {
	return a.username
}

// CreatedAt returns the registration time.
func (a *Account) CreatedAt() time.Time {
	return a.createdAt
}

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// History returns a copy of the transaction log, oldest first.
func (a *Account) History() []Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Transaction, len(a.transactions))
	copy(out, a.transactions)
	return out
}

// Deposit adds amount to the balance and records a Deposit.
func (a *Account) Deposit(amount decimal.Decimal) (Transaction, error) {
	if !validate.ValidAmount(amount) {
		return Transaction{}, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	return a.record(KindDeposit, "", amount), nil
}

// Withdraw removes amount from the balance and records a Withdrawal. The
// account is left untouched when the balance cannot cover amount.
func (a *Account) Withdraw(amount decimal.Decimal) (Transaction, error) {
	if !validate.ValidAmount(amount) {
		return Transaction{}, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amount.GreaterThan(a.balance) {
		return Transaction{}, ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount)
	return a.record(KindWithdrawal, "", amount), nil
}

func (a *Account) verify(password, pin string) bool {
	return a.creds.Verify(password, pin)
}

// transferOut moves amount to recipient and records both legs. Caller must
// hold both accounts' locks.
func (a *Account) transferOut(recipient *Account, amount decimal.Decimal) (Transaction, error) {
	if amount.GreaterThan(a.balance) {
		return Transaction{}, ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount)
	recipient.balance = recipient.balance.Add(amount)

	out := a.record(KindTransferOut, recipient.username, amount)
	recipient.record(KindTransferIn, a.username, amount)
	return out, nil
}

// record appends a transaction reflecting the current balance. Caller must hold a.mu.
func (a *Account) record(kind Kind, counterparty string, amount decimal.Decimal) Transaction {
	tx := Transaction{
		ID:           uuid.NewString(),
		Kind:         kind,
		Counterparty: counterparty,
		Amount:       amount,
		BalanceAfter: a.balance,
		Timestamp:    a.now(),
	}
	a.transactions = append(a.transactions, tx)
	return tx
}
