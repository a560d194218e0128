package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hashgraph-online/spl-token-manager-go/pkg/ledger"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/session"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/shared"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/wallet"
)

const (
	OperationConnect    = "connect"
	OperationDisconnect = "disconnect"
	OperationCreateMint = "create_mint"
	OperationMintTo     = "mint_to"
	OperationTransfer   = "transfer"

	DefaultDecimals uint8 = 9

	failurePrefix = "Error: "
)

// DefaultMinCreateBalance covers the two account creations of create-mint.
var DefaultMinCreateBalance = shared.SOLToLamports(0.005)

var pendingMessages = map[string]string{
	OperationConnect:    "Connecting wallet...",
	OperationDisconnect: "Disconnecting wallet...",
	OperationCreateMint: "Creating token...",
	OperationMintTo:     "Minting tokens...",
	OperationTransfer:   "Sending tokens...",
}

type category int

const (
	categoryConnection category = iota
	categoryToken
	categoryCount
)

type Config struct {
	Cluster string
	// MinCreateBalance is the lamport balance required before create-mint.
	MinCreateBalance uint64
	// Decimals of created mints; nil selects DefaultDecimals.
	Decimals *uint8
	// AccountRetry governs associated token account resolution.
	AccountRetry RetryPolicy
	Logger       *zap.Logger
	Registerer   prometheus.Registerer
}

// TokenDraft carries the create form fields. They are kept with the mint
// record for display and are not written on chain.
type TokenDraft struct {
	Name   string
	Symbol string
}

type Orchestrator struct {
	wallet  wallet.Gateway
	dial    ledger.Dialer
	session *session.Holder
	cluster string

	minCreateBalance uint64
	decimals         uint8
	accountRetry     RetryPolicy

	busy    [categoryCount]atomic.Bool
	logger  *zap.Logger
	metrics *metrics
}

// New creates a new Orchestrator.
func New(walletGateway wallet.Gateway, dial ledger.Dialer, config Config) (*Orchestrator, error) {
	if walletGateway == nil {
		return nil, fmt.Errorf("wallet gateway is required")
	}
	if dial == nil {
		return nil, fmt.Errorf("ledger dialer is required")
	}
	cluster, err := shared.NormalizeCluster(config.Cluster)
	if err != nil {
		return nil, err
	}

	minCreateBalance := config.MinCreateBalance
	if minCreateBalance == 0 {
		minCreateBalance = DefaultMinCreateBalance
	}
	decimals := DefaultDecimals
	if config.Decimals != nil {
		decimals = *config.Decimals
	}
	accountRetry := config.AccountRetry
	if accountRetry.MaxAttempts <= 0 {
		accountRetry = DefaultRetryPolicy()
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	collected, err := newMetrics(config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &Orchestrator{
		wallet:           walletGateway,
		dial:             dial,
		session:          session.NewHolder(),
		cluster:          cluster,
		minCreateBalance: minCreateBalance,
		decimals:         decimals,
		accountRetry:     accountRetry,
		logger:           logger.With(zap.String("component", "orchestrator")),
		metrics:          collected,
	}, nil
}

// Snapshot returns a copy of the current session state.
func (o *Orchestrator) Snapshot() session.Snapshot {
	return o.session.Snapshot()
}

// DisplayBalance renders the session balance in whole native units, or an
// empty string while the balance is unknown.
func (o *Orchestrator) DisplayBalance() string {
	balance, known := o.session.Balance()
	if !known {
		return ""
	}
	return shared.FormatSOL(balance)
}

func (o *Orchestrator) acquire(categories ...category) (func(), bool) {
	acquired := make([]category, 0, len(categories))
	release := func() {
		for _, held := range acquired {
			o.busy[held].Store(false)
		}
	}
	for _, wanted := range categories {
		if !o.busy[wanted].CompareAndSwap(false, true) {
			release()
			return nil, false
		}
		acquired = append(acquired, wanted)
	}
	return release, true
}

// run executes one operation under its busy flags and converts the outcome
// into the single result recorded on the session.
func (o *Orchestrator) run(
	ctx context.Context,
	operation string,
	categories []category,
	step func(ctx context.Context) (session.OperationResult, error),
) session.OperationResult {
	started := time.Now()

	release, ok := o.acquire(categories...)
	if !ok {
		result := o.failure(operation, newError(KindOperationInProgress, "another operation is already in progress"), session.OperationResult{})
		o.metrics.observe(operation, string(result.Status), KindOperationInProgress, time.Since(started))
		return result
	}
	defer release()

	o.session.RecordResult(session.OperationResult{
		Operation: operation,
		Status:    session.StatusPending,
		Message:   pendingMessages[operation],
	})

	result, err := step(ctx)
	if err != nil {
		result = o.failure(operation, err, result)
	} else {
		result.Operation = operation
		result.Status = session.StatusSuccess
		result.ExplorerURL = o.explorerURL(result.TransactionSignature)
		o.logger.Info(
			"operation succeeded",
			zap.String("operation", operation),
			zap.String("signature", shared.ShortSignature(result.TransactionSignature)),
		)
	}

	o.session.RecordResult(result)
	o.metrics.observe(operation, string(result.Status), Kind(result.ErrorCode), time.Since(started))
	return result
}

// failure builds a failure result. partial may carry a signature for
// on-chain steps that completed before err.
func (o *Orchestrator) failure(operation string, err error, partial session.OperationResult) session.OperationResult {
	kind := KindOf(err)
	o.logger.Warn(
		"operation failed",
		zap.String("operation", operation),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)

	result := session.OperationResult{
		Operation:            operation,
		Status:               session.StatusFailure,
		Message:              failurePrefix + err.Error(),
		ErrorCode:            string(kind),
		TransactionSignature: partial.TransactionSignature,
	}
	result.ExplorerURL = o.explorerURL(result.TransactionSignature)
	return result
}

// explorerURL links well-formed signatures only.
func (o *Orchestrator) explorerURL(signature string) string {
	if !shared.IsTransactionSignature(signature) {
		return ""
	}
	return shared.ExplorerTransactionURL(signature, o.cluster)
}

func (o *Orchestrator) connection() (solana.PublicKey, ledger.Gateway, error) {
	account, handle, connected := o.session.Connection()
	if !connected {
		return solana.PublicKey{}, nil, newError(KindNotConnected, "wallet not connected")
	}
	gateway, ok := handle.(ledger.Gateway)
	if !ok || gateway == nil {
		return solana.PublicKey{}, nil, newError(KindNotConnected, "ledger connection unavailable")
	}
	return account, gateway, nil
}

// sendAndConfirm anchors, signs, co-signs, submits and confirms one
// transaction paid for by the connected account.
func (o *Orchestrator) sendAndConfirm(
	ctx context.Context,
	gateway ledger.Gateway,
	payer solana.PublicKey,
	instructions []solana.Instruction,
	coSigners ...solana.PrivateKey,
) (solana.Signature, error) {
	reference, err := gateway.GetLatestBlockReference(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	tx, err := ledger.BuildTransaction(instructions, payer, reference)
	if err != nil {
		return solana.Signature{}, err
	}
	signed, err := o.wallet.SignTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, err
	}
	for _, key := range coSigners {
		if err := ledger.CoSign(signed, key); err != nil {
			return solana.Signature{}, err
		}
	}
	signature, err := gateway.SubmitSignedTransaction(ctx, signed)
	if err != nil {
		return solana.Signature{}, err
	}
	if err := gateway.ConfirmTransaction(ctx, signature, reference); err != nil {
		return signature, err
	}
	return signature, nil
}

// refreshBalance re-reads the balance and stores it while the session is
// still connected to account.
func (o *Orchestrator) refreshBalance(ctx context.Context, gateway ledger.Gateway, account solana.PublicKey) (uint64, error) {
	balance, err := gateway.GetBalance(ctx, account)
	if err != nil {
		return 0, err
	}
	if current, _, connected := o.session.Connection(); connected && current.Equals(account) {
		o.session.SetBalance(balance)
	}
	return balance, nil
}

func (o *Orchestrator) resolveAssociatedAccount(
	ctx context.Context,
	gateway ledger.Gateway,
	payer solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (solana.PublicKey, error) {
	var resolved solana.PublicKey
	err := o.accountRetry.Do(ctx, func(attempt int) error {
		address, err := gateway.GetOrCreateAssociatedAccount(ctx, payer, o.wallet, owner, mint)
		if err != nil {
			if kind := KindOf(err); kind == KindSigningRejected || kind == KindCancelled {
				return Permanent(err)
			}
			return err
		}
		resolved = address
		return nil
	}, func(attempt int, err error) {
		o.metrics.retried("associated_account")
		o.logger.Warn(
			"associated account resolution failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("owner", owner.String()),
			zap.String("mint", mint.String()),
			zap.Error(err),
		)
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	return resolved, nil
}

// ParseAmount parses a positive integer amount in the token's smallest
// unit.
func ParseAmount(raw string) (uint64, error) {
	candidate := strings.TrimSpace(raw)
	amount, err := strconv.ParseUint(candidate, 10, 64)
	if err != nil || amount == 0 {
		return 0, newError(KindInvalidAmount, fmt.Sprintf("invalid amount %q: must be a positive whole number", candidate))
	}
	return amount, nil
}
