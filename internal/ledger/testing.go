package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets an account's balance without writing
// a transaction record.
func SeedBalance(a *Account, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = amount
}
