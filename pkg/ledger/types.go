package ledger

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// BlockReference anchors a transaction. The transaction stops being
// eligible for inclusion once the block height passes LastValidBlockHeight.
type BlockReference struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Signer signs transactions on behalf of the fee payer. The wallet gateway
// satisfies it.
type Signer interface {
	SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}

// Gateway is the ledger contract consumed by the orchestrator. A Gateway is
// also the session's connection handle and must be closed when released.
type Gateway interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockReference(ctx context.Context) (BlockReference, error)
	MintRentExemption(ctx context.Context) (uint64, error)
	SubmitSignedTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	ConfirmTransaction(ctx context.Context, signature solana.Signature, reference BlockReference) error
	GetOrCreateAssociatedAccount(
		ctx context.Context,
		payer solana.PublicKey,
		signer Signer,
		owner solana.PublicKey,
		mint solana.PublicKey,
	) (solana.PublicKey, error)
	Close() error
}

// Dialer opens a Gateway for the configured cluster.
type Dialer func(ctx context.Context) (Gateway, error)

// RPC is the subset of the Solana JSON-RPC client the package relies on.
// *rpc.Client satisfies it.
type RPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	Close() error
}

type Config struct {
	Cluster string
	// RPCURL overrides the cluster's public endpoint.
	RPCURL     string
	Commitment rpc.CommitmentType
	// RequestsPerSecond caps outgoing calls; zero disables limiting.
	RequestsPerSecond float64
	PollInterval      time.Duration
	Logger            *zap.Logger
	// RPC replaces the JSON-RPC client, mainly for tests.
	RPC RPC
}
