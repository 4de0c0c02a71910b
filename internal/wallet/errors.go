package wallet

import "errors"

var (
	ErrBelowMinimum          = errors.New("amount below configured minimum")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrMissingMethodDetails  = errors.New("required payout method details missing")
	ErrDuplicateSubmission   = errors.New("a request with this reference already exists")
	ErrRequestNotFound       = errors.New("request not found")
	ErrRequestAlreadySettled = errors.New("request already settled")
	ErrNotRequestOwner       = errors.New("request belongs to another account")
)
