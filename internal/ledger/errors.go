package ledger

import "errors"

var (
	// ErrDuplicateUsername occurs when registering a username that is already taken.
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidCredentialFormat occurs when a username, password or PIN fails
	// the validation rules.
	ErrInvalidCredentialFormat = errors.New("invalid credential format")

	// ErrAuthenticationFailed hides whether the username or the credentials were wrong.
	ErrAuthenticationFailed = errors.New("invalid username, password, or PIN")

	// ErrInsufficientFunds occurs when the source account cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccountTransfer occurs when sender and recipient are the same account.
	ErrSameAccountTransfer = errors.New("cannot transfer funds to the same account")

	// ErrRecipientNotFound occurs when the transfer recipient is not registered.
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrAccountNotFound occurs when looking up an unknown username.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAmount occurs for non-positive amounts, sub-cent amounts and
	// amounts above validate.MaxAmount.
	ErrInvalidAmount = errors.New("invalid amount")
)
