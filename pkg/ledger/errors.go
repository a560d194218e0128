package ledger

import "errors"

var (
	ErrNetwork            = errors.New("network error")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrTransactionExpired = errors.New("transaction expired")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidAccount     = errors.New("account is not owned by the token program")
)
