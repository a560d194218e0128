package wallet

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrWalletRejected    = errors.New("wallet connection rejected")
	ErrSigningRejected   = errors.New("transaction signing rejected")
)

// Gateway is the contract the orchestrator uses to reach the wallet.
type Gateway interface {
	Connect(ctx context.Context) (solana.PublicKey, error)
	// Disconnect is idempotent and never fails.
	Disconnect(ctx context.Context)
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}
