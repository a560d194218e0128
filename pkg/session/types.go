package session

import (
	"github.com/gagliardetto/solana-go"
)

// Handle is an open ledger connection. It is opaque to the session.
type Handle interface {
	Close() error
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type OperationResult struct {
	Operation string
	Status    Status
	Message   string
	// ErrorCode classifies a failure; empty on success.
	ErrorCode            string
	TransactionSignature string
	ExplorerURL          string
}

// MintRecord describes the mint created in this session. AssociatedAccount
// is the zero key when the mint was created but its token account could
// not be resolved.
type MintRecord struct {
	Mint              solana.PublicKey
	AssociatedAccount solana.PublicKey
	Decimals          uint8
	Name              string
	Symbol            string
}

// HasAssociatedAccount reports whether the record can be used to mint or
// transfer.
func (r MintRecord) HasAssociatedAccount() bool {
	return !r.AssociatedAccount.IsZero()
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Connected     bool
	Account       solana.PublicKey
	Handle        Handle
	Balance       uint64
	BalanceKnown  bool
	Mint          *MintRecord
	LastResult    *OperationResult
	LastSignature string
}
