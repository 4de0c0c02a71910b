package storage

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateReference = errors.New("reference already applied")
	ErrDuplicateRequest   = errors.New("request with this reference already exists")
	ErrAlreadyClaimed     = errors.New("referral bonus already claimed")
	ErrStaleAccount       = errors.New("account version conflict")
	ErrConflict           = errors.New("status transition conflict")
)
