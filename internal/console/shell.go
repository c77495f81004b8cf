// Package console runs the interactive ATM menus over a line-oriented terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/atm/internal/atm"
	"github.com/congo-pay/atm/internal/ledger"
	"github.com/congo-pay/atm/internal/validate"
)

// ErrLockedOut is returned by Run after too many consecutive failed logins.
var ErrLockedOut = errors.New("too many unsuccessful login attempts")

const defaultMaxAttempts = 3

// Shell reads whitespace-separated tokens from in and writes prompts to out.
type Shell struct {
	svc         *atm.Service
	in          *bufio.Scanner
	out         io.Writer
	maxAttempts int
}

// New builds a shell. maxAttempts <= 0 means three attempts.
func New(svc *atm.Service, in io.Reader, out io.Writer, maxAttempts int) *Shell {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	sc := bufio.NewScanner(in)
	sc.Split(bufio.ScanWords)
	return &Shell{svc: svc, in: sc, out: out, maxAttempts: maxAttempts}
}

// Run shows the main menu until the user exits or input ends. It returns
// ErrLockedOut when a login runs out of attempts.
func (s *Shell) Run(ctx context.Context) error {
	for {
		s.println("\nWelcome to the ATM Simulator!")
		s.println("1. Create Account")
		s.println("2. Log In")
		s.println("0. Exit")

		choice, err := s.readInt("Enter your choice: ")
		if err != nil {
			return eofAsExit(err)
		}
		switch choice {
		case 1:
			err = s.register(ctx)
		case 2:
			err = s.login(ctx)
		case 0:
			s.println("Thank you for using the ATM Simulator. Goodbye!")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return eofAsExit(err)
		}
	}
}

func (s *Shell) register(ctx context.Context) error {
	s.println("Create a new account")

	var creds atm.Credentials
	for {
		username, err := s.readToken("\nEnter username: ")
		if err != nil {
			return err
		}
		if validate.Username(username) {
			creds.Username = username
			break
		}
		s.println("NOTE: " + validate.UsernameRule)
	}

	password, err := s.readConfirmed("\nEnter password: ", "Confirm password: ", validate.Password, validate.PasswordRule)
	if err != nil {
		return err
	}
	creds.Password = password

	pin, err := s.readConfirmed("\nEnter PIN: ", "Confirm PIN: ", validate.PIN, validate.PINRule)
	if err != nil {
		return err
	}
	creds.PIN = pin

	_, err = s.svc.Register(ctx, creds)
	switch {
	case err == nil:
		s.println("Account created successfully!")
	case errors.Is(err, ledger.ErrDuplicateUsername):
		s.println("Account with that username already exists. Please choose a different username.")
	default:
		return err
	}
	return nil
}

// readConfirmed re-prompts until the value is valid and typed the same twice.
func (s *Shell) readConfirmed(prompt, confirmPrompt string, valid func(string) bool, rule string) (string, error) {
	for {
		value, err := s.readToken(prompt)
		if err != nil {
			return "", err
		}
		confirmed, err := s.readToken(confirmPrompt)
		if err != nil {
			return "", err
		}
		if valid(value) && value == confirmed {
			return value, nil
		}
		s.println("NOTE: " + rule)
	}
}

func (s *Shell) login(ctx context.Context) error {
	var lastUsername string
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.println("Log into your account")
		var creds atm.Credentials
		var err error
		if creds.Username, err = s.readToken("Enter username: "); err != nil {
			return err
		}
		if creds.Password, err = s.readToken("Enter password: "); err != nil {
			return err
		}
		if creds.PIN, err = s.readToken("Enter PIN: "); err != nil {
			return err
		}

		acct, err := s.svc.Login(ctx, creds)
		if err == nil {
			s.printNotifications(acct)
			return s.session(ctx, acct)
		}
		if !errors.Is(err, ledger.ErrAuthenticationFailed) {
			return err
		}
		lastUsername = creds.Username
		s.println("Invalid username, password, or PIN. Please try again.")
	}

	s.svc.NotifyLockout(ctx, lastUsername, s.maxAttempts)
	s.println("Too many unsuccessful login attempts. Exiting the ATM Simulator.")
	return ErrLockedOut
}

func (s *Shell) session(ctx context.Context, acct *ledger.Account) error {
	for {
		s.println("\nWelcome, " + acct.Username() + "!")
		s.println("1. Deposit")
		s.println("2. Withdraw")
		s.println("3. Transfer Funds")
		s.println("4. View Balance")
		s.println("5. View Transaction History")
		s.println("0. Log Out")

		choice, err := s.readInt("Enter your choice: ")
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			err = s.deposit(ctx, acct)
		case 2:
			err = s.withdraw(ctx, acct)
		case 3:
			err = s.transfer(ctx, acct)
		case 4:
			s.printBalance(acct)
		case 5:
			s.printHistory(acct)
		case 0:
			s.println("Logged out.")
			return nil
		default:
			s.println("Invalid choice. Please try again.")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Shell) deposit(ctx context.Context, acct *ledger.Account) error {
	amount, err := s.readAmount("Enter the amount to deposit: ")
	if err != nil {
		return err
	}
	receipt, err := s.svc.Deposit(ctx, acct, amount)
	if err != nil {
		return err
	}
	s.printf("Deposit successful. Current balance: $%s\n", receipt.Balance.StringFixed(2))
	return nil
}

func (s *Shell) withdraw(ctx context.Context, acct *ledger.Account) error {
	amount, err := s.readAmount("Enter the amount to withdraw: ")
	if err != nil {
		return err
	}
	receipt, err := s.svc.Withdraw(ctx, acct, amount)
	switch {
	case err == nil:
		s.printf("Withdrawal successful. Current balance: $%s\n", receipt.Balance.StringFixed(2))
	case errors.Is(err, ledger.ErrInsufficientFunds):
		s.println("Insufficient funds. Please try again with a lower amount.")
	default:
		return err
	}
	return nil
}

func (s *Shell) transfer(ctx context.Context, acct *ledger.Account) error {
	recipient, err := s.readToken("Enter the recipient's username: ")
	if err != nil {
		return err
	}
	if _, err := s.svc.Account(ctx, recipient); err != nil {
		s.println("Recipient account not found. Please check the username and try again.")
		return nil
	}
	if recipient == acct.Username() {
		s.println("Cannot transfer funds to the same account. Please enter a different recipient.")
		return nil
	}
	amount, err := s.readAmount("Enter the amount to transfer: ")
	if err != nil {
		return err
	}

	receipt, err := s.svc.Transfer(ctx, acct, recipient, amount)
	switch {
	case err == nil:
		s.printf("Transfer successful. Current balance: $%s\n", receipt.Balance.StringFixed(2))
	case errors.Is(err, ledger.ErrInsufficientFunds):
		s.println("Insufficient funds. Please try again with a lower amount.")
	case errors.Is(err, ledger.ErrRecipientNotFound):
		s.println("Recipient account not found. Please check the username and try again.")
	case errors.Is(err, ledger.ErrSameAccountTransfer):
		s.println("Cannot transfer funds to the same account. Please enter a different recipient.")
	default:
		return err
	}
	return nil
}

func (s *Shell) printBalance(acct *ledger.Account) {
	s.printf("Current balance: $%s\n", s.svc.Balance(acct).Amount.StringFixed(2))
}

func (s *Shell) printNotifications(acct *ledger.Account) {
	messages := s.svc.Notifications(acct)
	if len(messages) == 0 {
		return
	}
	s.printf("\nYou have %d new notification(s):\n", len(messages))
	for _, m := range messages {
		s.println("- " + m.Body)
	}
}

func (s *Shell) printHistory(acct *ledger.Account) {
	history := s.svc.History(acct)
	if len(history) == 0 {
		s.println("No transaction history available.")
		return
	}
	s.println("Transaction History for " + acct.Username() + ":")
	for _, tx := range history {
		s.println(tx.String())
	}
}

func (s *Shell) readToken(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.in.Text(), nil
}

func (s *Shell) readInt(prompt string) (int, error) {
	for {
		tok, err := s.readToken(prompt)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(tok)
		if err == nil {
			return n, nil
		}
		s.println("Invalid input. Please enter a valid integer.")
	}
}

func (s *Shell) readAmount(prompt string) (decimal.Decimal, error) {
	for {
		tok, err := s.readToken(prompt)
		if err != nil {
			return decimal.Zero, err
		}
		amount, err := validate.Amount(tok)
		if err == nil {
			return amount, nil
		}
		s.println("Invalid input. Please enter a positive amount with at most 2 decimals, up to " + validate.MaxAmount.String() + ".")
	}
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func eofAsExit(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
