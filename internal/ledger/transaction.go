package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a balance-affecting event.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdrawal  Kind = "withdrawal"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
)

const displayTimeLayout = "2006-01-02 15:04:05"

// Transaction is an immutable record of one balance mutation. Amount is always
// positive; the direction is carried by Kind.
type Transaction struct {
	ID           string
	Kind         Kind
	Counterparty string
	Amount       decimal.Decimal
	BalanceAfter decimal.Decimal
	Timestamp    time.Time
}

// Label renders the kind the way the ATM prints it.
func (t Transaction) Label() string {
	switch t.Kind {
	case KindDeposit:
		return "Deposit"
	case KindWithdrawal:
		return "Withdrawal"
	case KindTransferOut:
		return "Transfer to " + t.Counterparty
	case KindTransferIn:
		return "Transfer from " + t.Counterparty
	default:
		return string(t.Kind)
	}
}

// String formats the record as "[YYYY-MM-DD HH:MM:SS] <kind>: $<amount>".
func (t Transaction) String() string {
	return fmt.Sprintf("[%s] %s: $%s", t.Timestamp.Format(displayTimeLayout), t.Label(), t.Amount.StringFixed(2))
}
