package ledger

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/atm/internal/credential"
	"github.com/congo-pay/atm/internal/validate"
)

// Ledger owns every account and mediates transfers between them. The zero
// value is not usable; construct one with New.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	hasher   credential.Hasher
	now      func() time.Time
}

// Option customises a Ledger.
type Option func(*Ledger)

// WithPINCost sets the bcrypt cost used for PIN hashes.
func WithPINCost(cost int) Option {
	return func(l *Ledger) { l.hasher.Cost = cost }
}

// WithClock overrides the clock used to stamp accounts and transactions.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[string]*Account),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CreateAccount registers a zero-balance account. An existing account with the
// same username is never modified.
func (l *Ledger) CreateAccount(username, password, pin string) (*Account, error) {
	if !validate.Username(username) || !validate.Password(password) || !validate.PIN(pin) {
		return nil, ErrInvalidCredentialFormat
	}

	l.mu.RLock()
	_, exists := l.accounts[username]
	l.mu.RUnlock()
	if exists {
		return nil, ErrDuplicateUsername
	}

	// Hash outside the write lock; bcrypt is slow.
	creds, err := l.hasher.New(password, pin)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[username]; exists {
		return nil, ErrDuplicateUsername
	}
	acct := newAccount(username, creds, l.now)
	l.accounts[username] = acct
	return acct, nil
}

// Authenticate returns the account when username exists and both password and
// PIN match.
func (l *Ledger) Authenticate(username, password, pin string) (*Account, error) {
	l.mu.RLock()
	acct, ok := l.accounts[username]
	l.mu.RUnlock()
	if !ok || !acct.verify(password, pin) {
		return nil, ErrAuthenticationFailed
	}
	return acct, nil
}

// Lookup returns the account registered under username.
func (l *Ledger) Lookup(username string) (*Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, ok := l.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// Len returns the number of registered accounts.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}

// Transfer moves amount from sender to recipient and returns the sender's
// TransferOut record. Either both balances and both logs change, or nothing does.
func (l *Ledger) Transfer(sender, recipient string, amount decimal.Decimal) (Transaction, error) {
	if !validate.ValidAmount(amount) {
		return Transaction{}, ErrInvalidAmount
	}
	if sender == recipient {
		return Transaction{}, ErrSameAccountTransfer
	}

	l.mu.RLock()
	from, okFrom := l.accounts[sender]
	to, okTo := l.accounts[recipient]
	l.mu.RUnlock()
	if !okFrom {
		return Transaction{}, ErrAccountNotFound
	}
	if !okTo {
		return Transaction{}, ErrRecipientNotFound
	}

	// Lock in username order so opposing transfers cannot deadlock.
	first, second := from, to
	if second.username < first.username {
		first, second = second, first
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	return from.transferOut(to, amount)
}
