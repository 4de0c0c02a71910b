package ledger

import "errors"

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("adjustment amount must be non-zero")
	ErrInvalidReference  = errors.New("adjustment reference must not be empty")
	ErrAccountNotFound   = errors.New("account not found")
)
