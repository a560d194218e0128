package orchestrator

import (
	"context"
	"errors"

	"github.com/hashgraph-online/spl-token-manager-go/pkg/ledger"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/wallet"
)

type Kind string

const (
	KindWalletUnavailable   Kind = "wallet_unavailable"
	KindWalletRejected      Kind = "wallet_rejected"
	KindSigningRejected     Kind = "signing_rejected"
	KindNetworkError        Kind = "network_error"
	KindTransactionFailed   Kind = "transaction_failed"
	KindTransactionExpired  Kind = "transaction_expired"
	KindInsufficientFunds   Kind = "insufficient_funds"
	KindInvalidAmount       Kind = "invalid_amount"
	KindInvalidAddress      Kind = "invalid_address"
	KindNoMint              Kind = "no_mint"
	KindOperationInProgress Kind = "operation_in_progress"
	KindNotConnected        Kind = "not_connected"
	KindCancelled           Kind = "cancelled"
	KindInternal            Kind = "internal"
)

// Error is the classified failure of an orchestrated step.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf classifies err using the gateway sentinels.
func KindOf(err error) Kind {
	var classified *Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &classified):
		return classified.Kind
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, wallet.ErrWalletUnavailable):
		return KindWalletUnavailable
	case errors.Is(err, wallet.ErrWalletRejected):
		return KindWalletRejected
	case errors.Is(err, wallet.ErrSigningRejected):
		return KindSigningRejected
	case errors.Is(err, ledger.ErrTransactionExpired):
		return KindTransactionExpired
	case errors.Is(err, ledger.ErrTransactionFailed), errors.Is(err, ledger.ErrInvalidAccount):
		return KindTransactionFailed
	case errors.Is(err, ledger.ErrInvalidAddress):
		return KindInvalidAddress
	case errors.Is(err, ledger.ErrNetwork):
		return KindNetworkError
	default:
		return KindInternal
	}
}
