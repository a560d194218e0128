package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hashgraph-online/spl-token-manager-go/pkg/shared"
)

const defaultPollInterval = 500 * time.Millisecond

type Client struct {
	rpc          RPC
	cluster      string
	commitment   rpc.CommitmentType
	limiter      *rate.Limiter
	pollInterval time.Duration
	logger       *zap.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient creates a new Client.
func NewClient(config Config) (*Client, error) {
	cluster, err := shared.NormalizeCluster(config.Cluster)
	if err != nil {
		return nil, err
	}

	rpcClient := config.RPC
	if rpcClient == nil {
		endpoint := strings.TrimSpace(config.RPCURL)
		if endpoint == "" {
			endpoint, err = shared.ClusterRPCURL(cluster)
			if err != nil {
				return nil, err
			}
		}
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			return nil, fmt.Errorf("invalid RPC URL %q: scheme must be http or https", endpoint)
		}
		rpcClient = rpc.New(endpoint)
	}

	commitment := config.Commitment
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		rpc:          rpcClient,
		cluster:      cluster,
		commitment:   commitment,
		limiter:      limiter,
		pollInterval: pollInterval,
		logger:       logger.With(zap.String("component", "ledger"), zap.String("cluster", cluster)),
	}, nil
}

// NewDialer returns a Dialer that opens a fresh Client per session.
func NewDialer(config Config) Dialer {
	return func(ctx context.Context) (Gateway, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return NewClient(config)
	}
}

func (c *Client) Cluster() string {
	return c.cluster
}

func (c *Client) Close() error {
	return c.rpc.Close()
}

// GetBalance returns the account balance in lamports.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	result, err := c.rpc.GetBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to fetch balance: %v", ErrNetwork, err)
	}
	if result == nil {
		return 0, fmt.Errorf("%w: empty balance response", ErrNetwork)
	}
	return result.Value, nil
}

// GetLatestBlockReference returns the blockhash and validity height used to
// anchor a new transaction.
func (c *Client) GetLatestBlockReference(ctx context.Context) (BlockReference, error) {
	if err := c.wait(ctx); err != nil {
		return BlockReference{}, err
	}
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return BlockReference{}, fmt.Errorf("%w: failed to fetch latest blockhash: %v", ErrNetwork, err)
	}
	if result == nil || result.Value == nil {
		return BlockReference{}, fmt.Errorf("%w: empty blockhash response", ErrNetwork)
	}
	return BlockReference{
		Blockhash:            result.Value.Blockhash,
		LastValidBlockHeight: result.Value.LastValidBlockHeight,
	}, nil
}

// MintRentExemption returns the minimum balance a mint account needs to be
// rent exempt.
func (c *Client) MintRentExemption(ctx context.Context) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, MintAccountSize, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to fetch rent exemption: %v", ErrNetwork, err)
	}
	return lamports, nil
}

// SubmitSignedTransaction broadcasts a fully signed transaction and returns
// its signature without waiting for inclusion.
func (c *Client) SubmitSignedTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if tx == nil {
		return solana.Signature{}, fmt.Errorf("transaction is required")
	}
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	signature, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: failed to submit transaction: %v", ErrNetwork, err)
	}
	c.logger.Debug("transaction submitted", zap.String("signature", signature.String()))
	return signature, nil
}

// ConfirmTransaction polls the signature status until the transaction is
// confirmed, fails, or the block height passes the reference's validity
// height.
func (c *Client) ConfirmTransaction(ctx context.Context, signature solana.Signature, reference BlockReference) error {
	for attempt := 1; ; attempt++ {
		if err := c.wait(ctx); err != nil {
			return err
		}
		statuses, err := c.rpc.GetSignatureStatuses(ctx, false, signature)
		if err != nil {
			return fmt.Errorf("%w: failed to fetch signature status: %v", ErrNetwork, err)
		}
		if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
			}
			if reachedCommitment(status.ConfirmationStatus, c.commitment) {
				c.logger.Debug(
					"transaction confirmed",
					zap.String("signature", signature.String()),
					zap.Int("attempt", attempt),
				)
				return nil
			}
		}

		if err := c.wait(ctx); err != nil {
			return err
		}
		height, err := c.rpc.GetBlockHeight(ctx, c.commitment)
		if err != nil {
			return fmt.Errorf("%w: failed to fetch block height: %v", ErrNetwork, err)
		}
		if height > reference.LastValidBlockHeight {
			return fmt.Errorf(
				"%w: block height %d exceeded last valid height %d",
				ErrTransactionExpired,
				height,
				reference.LastValidBlockHeight,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// GetOrCreateAssociatedAccount returns the associated token account for
// (owner, mint), creating it with payer funding when it does not exist.
func (c *Client) GetOrCreateAssociatedAccount(
	ctx context.Context,
	payer solana.PublicKey,
	signer Signer,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (solana.PublicKey, error) {
	address, err := AssociatedAccountAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	exists, err := c.tokenAccountExists(ctx, address)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if exists {
		return address, nil
	}
	if signer == nil {
		return solana.PublicKey{}, fmt.Errorf("signer is required to create associated account %s", address)
	}

	reference, err := c.GetLatestBlockReference(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	tx, err := BuildTransaction(
		[]solana.Instruction{CreateAssociatedAccountInstruction(payer, owner, mint)},
		payer,
		reference,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}
	signed, err := signer.SignTransaction(ctx, tx)
	if err != nil {
		return solana.PublicKey{}, err
	}

	signature, submitErr := c.SubmitSignedTransaction(ctx, signed)
	if submitErr == nil {
		submitErr = c.ConfirmTransaction(ctx, signature, reference)
	}
	if submitErr != nil {
		// Another process may have created the account first.
		if raced, checkErr := c.tokenAccountExists(ctx, address); checkErr == nil && raced {
			return address, nil
		}
		return solana.PublicKey{}, submitErr
	}

	c.logger.Debug(
		"associated account created",
		zap.String("account", address.String()),
		zap.String("owner", owner.String()),
		zap.String("mint", mint.String()),
	)
	return address, nil
}

func (c *Client) tokenAccountExists(ctx context.Context, address solana.PublicKey) (bool, error) {
	if err := c.wait(ctx); err != nil {
		return false, err
	}
	info, err := c.rpc.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: c.commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to fetch account %s: %v", ErrNetwork, address, err)
	}
	if info == nil || info.Value == nil {
		return false, nil
	}
	if !info.Value.Owner.Equals(solana.TokenProgramID) {
		return false, fmt.Errorf("%w: %s", ErrInvalidAccount, address)
	}
	return true, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return ctx.Err()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrNetwork, err)
	}
	return nil
}

func reachedCommitment(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return true
	case rpc.ConfirmationStatusConfirmed:
		return commitment != rpc.CommitmentFinalized
	case rpc.ConfirmationStatusProcessed:
		return commitment == rpc.CommitmentProcessed
	default:
		return false
	}
}
