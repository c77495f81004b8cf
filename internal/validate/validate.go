// Package validate holds the syntactic rules for ATM credentials and amounts.
package validate

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	minUsernameLen = 5
	minPasswordLen = 5
	pinLen         = 5

	// Specials is the only set of non-alphanumeric characters allowed in
	// passwords and PINs.
	Specials = "@$!%*?&"
)

// Rule messages shown by shells when re-prompting.
const (
	UsernameRule = "username should have at least 5 characters, using only lowercase letters and digits"
	PasswordRule = "password should have at least 5 characters including at least one uppercase letter, one lowercase letter, one numeric digit, and one special character (" + Specials + ")"
	PINRule      = "PIN should have exactly 5 characters with at least one letter, one numeric digit, and one special character (" + Specials + ")"
)

// ErrInvalidAmount is returned by Amount for malformed or out-of-range input.
var ErrInvalidAmount = errors.New("amount must be a positive number with at most 2 decimals, up to 1000000000")

const (
	maxAmountInput = 32
	// Cents are the smallest unit.
	maxAmountScale = 2
	// Exponent of MaxAmount; larger exponents are rejected before any arithmetic.
	maxAmountExponent = 9
)

// MaxAmount caps a single deposit, withdrawal or transfer.
var MaxAmount = decimal.New(1, maxAmountExponent)

type classes struct {
	upper, lower, digit, special, other bool
}

func classify(s string) classes {
	var c classes
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= '0' && r <= '9':
			c.digit = true
		case strings.ContainsRune(Specials, r):
			c.special = true
		default:
			c.other = true
		}
	}
	return c
}

// Username reports whether s is lowercase alphanumeric with at least 5 characters.
func Username(s string) bool {
	if len(s) < minUsernameLen {
		return false
	}
	c := classify(s)
	return !c.upper && !c.special && !c.other
}

// Password reports whether s mixes upper, lower, digit and special characters
// and contains nothing else.
func Password(s string) bool {
	if len(s) < minPasswordLen {
		return false
	}
	c := classify(s)
	return c.upper && c.lower && c.digit && c.special && !c.other
}

// PIN reports whether s is exactly 5 characters holding a letter, a digit and
// a special character.
func PIN(s string) bool {
	if len(s) != pinLen {
		return false
	}
	c := classify(s)
	return (c.upper || c.lower) && c.digit && c.special && !c.other
}

// Amount parses a positive decimal amount typed by a user. Scientific
// notation is refused.
func Amount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountInput || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !ValidAmount(d) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidAmount reports whether d is positive, has at most two decimals and
// does not exceed MaxAmount. The exponent is checked first so oversized
// values never reach a comparison.
func ValidAmount(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxAmountScale || exp > maxAmountExponent {
		return false
	}
	return d.IsPositive() && !d.GreaterThan(MaxAmount)
}
