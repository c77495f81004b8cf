package ledger

import (
	"errors"
	"testing"
	"time"
)

func TestAccount_DepositAppendsOneRecord(t *testing.T) {
	l := newTestLedger()
	acct := mustCreate(t, l, "alice", "Abcd12!", "a1@bc")

	for i, amount := range []string{"10", "0.25", "99.75"} {
		before := acct.Balance()
		tx, err := acct.Deposit(dec(amount))
		if err != nil {
			t.Fatalf("deposit %s: %v", amount, err)
		}
		if !acct.Balance().Equal(before.Add(dec(amount))) {
			t.Fatalf("expected %s, got %s", before.Add(dec(amount)), acct.Balance())
		}
		history := acct.History()
		if len(history) != i+1 {
			t.Fatalf("expected %d records, got %d", i+1, len(history))
		}
		if history[i].ID != tx.ID || tx.Kind != KindDeposit || !tx.Amount.Equal(dec(amount)) {
			t.Fatalf("unexpected record %+v", tx)
		}
	}
	if !acct.Balance().Equal(dec("110")) {
		t.Fatalf("expected 110, got %s", acct.Balance())
	}
}

func TestAccount_DepositRejectsInvalidAmounts(t *testing.T) {
	l := newTestLedger()
	acct := mustCreate(t, l, "alice", "Abcd12!", "a1@bc")

	for _, amount := range []string{"0", "-10", "1e50000000", "0.001", "1000000000.01"} {
		if _, err := acct.Deposit(dec(amount)); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("deposit %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if !acct.Balance().IsZero() || len(acct.History()) != 0 {
		t.Fatal("rejected deposits must not mutate the account")
	}
}

func TestAccount_Withdraw(t *testing.T) {
	l := newTestLedger()
	acct := mustCreate(t, l, "alice", "Abcd12!", "a1@bc")
	SeedBalance(acct, dec("100"))

	if _, err := acct.Withdraw(dec("100.01")); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !acct.Balance().Equal(dec("100")) || len(acct.History()) != 0 {
		t.Fatal("failed withdrawal must not mutate the account")
	}

	tx, err := acct.Withdraw(dec("30"))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if tx.Kind != KindWithdrawal || !tx.BalanceAfter.Equal(dec("70")) {
		t.Fatalf("unexpected record %+v", tx)
	}

	if _, err := acct.Withdraw(dec("70")); err != nil {
		t.Fatalf("withdraw whole balance: %v", err)
	}
	if !acct.Balance().IsZero() {
		t.Fatalf("expected zero, got %s", acct.Balance())
	}
	if _, err := acct.Withdraw(dec("-1")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAccount_HistoryIsACopy(t *testing.T) {
	l := newTestLedger()
	acct := mustCreate(t, l, "alice", "Abcd12!", "a1@bc")
	if _, err := acct.Deposit(dec("5")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	history := acct.History()
	history[0].Amount = dec("5000")
	if !acct.History()[0].Amount.Equal(dec("5")) {
		t.Fatal("history mutated through returned slice")
	}
}

func TestTransaction_String(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := []struct {
		tx   Transaction
		want string
	}{
		{Transaction{Kind: KindDeposit, Amount: dec("100"), Timestamp: at}, "[2024-01-02 03:04:05] Deposit: $100.00"},
		{Transaction{Kind: KindWithdrawal, Amount: dec("2.5"), Timestamp: at}, "[2024-01-02 03:04:05] Withdrawal: $2.50"},
		{Transaction{Kind: KindTransferOut, Counterparty: "bob01", Amount: dec("40"), Timestamp: at}, "[2024-01-02 03:04:05] Transfer to bob01: $40.00"},
		{Transaction{Kind: KindTransferIn, Counterparty: "alice", Amount: dec("40"), Timestamp: at}, "[2024-01-02 03:04:05] Transfer from alice: $40.00"},
	}
	for _, tc := range cases {
		if got := tc.tx.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
