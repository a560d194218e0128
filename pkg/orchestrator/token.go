package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/hashgraph-online/spl-token-manager-go/pkg/ledger"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/session"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/shared"
)

// CreateMint creates a new SPL token mint owned by the connected account
// and resolves the account's associated token account for it.
func (o *Orchestrator) CreateMint(ctx context.Context, draft TokenDraft) session.OperationResult {
	return o.run(ctx, OperationCreateMint, []category{categoryToken}, func(ctx context.Context) (session.OperationResult, error) {
		return o.createMint(ctx, draft)
	})
}

func (o *Orchestrator) createMint(ctx context.Context, draft TokenDraft) (session.OperationResult, error) {
	account, gateway, err := o.connection()
	if err != nil {
		return session.OperationResult{}, err
	}
	if balance, _ := o.session.Balance(); balance < o.minCreateBalance {
		return session.OperationResult{}, newError(KindInsufficientFunds, fmt.Sprintf(
			"insufficient balance %s SOL: at least %s SOL is required to create a token",
			shared.FormatSOL(balance),
			shared.FormatSOL(o.minCreateBalance),
		))
	}

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return session.OperationResult{}, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	mint := mintKey.PublicKey()

	rent, err := gateway.MintRentExemption(ctx)
	if err != nil {
		return session.OperationResult{}, err
	}

	instructions := ledger.CreateMintInstructions(account, mint, account, o.decimals, rent)
	signature, err := o.sendAndConfirm(ctx, gateway, account, instructions, mintKey)
	if err != nil {
		return session.OperationResult{TransactionSignature: signatureString(signature)}, err
	}
	o.logger.Info(
		"mint created",
		zap.String("mint", mint.String()),
		zap.String("signature", shared.ShortSignature(signature.String())),
	)

	record := session.MintRecord{
		Mint:     mint,
		Decimals: o.decimals,
		Name:     strings.TrimSpace(draft.Name),
		Symbol:   strings.TrimSpace(draft.Symbol),
	}
	partial := session.OperationResult{TransactionSignature: signature.String()}

	associated, err := o.resolveAssociatedAccount(ctx, gateway, account, account, mint)
	if err != nil {
		o.storeMint(account, record)
		return partial, fmt.Errorf("mint %s was created but its token account could not be resolved: %w", mint, err)
	}
	record.AssociatedAccount = associated
	o.storeMint(account, record)

	if _, err := o.refreshBalance(ctx, gateway, account); err != nil {
		return partial, fmt.Errorf("mint %s was created but the balance could not be refreshed: %w", mint, err)
	}

	return session.OperationResult{
		Message:              fmt.Sprintf("Token created successfully! Mint Address: %s", mint),
		TransactionSignature: signature.String(),
	}, nil
}

// MintTo mints amount base units of the session's mint into the connected
// account's associated token account.
func (o *Orchestrator) MintTo(ctx context.Context, amount string) session.OperationResult {
	return o.run(ctx, OperationMintTo, []category{categoryToken}, func(ctx context.Context) (session.OperationResult, error) {
		return o.mintTo(ctx, amount)
	})
}

func (o *Orchestrator) mintTo(ctx context.Context, rawAmount string) (session.OperationResult, error) {
	record, err := o.requireMint()
	if err != nil {
		return session.OperationResult{}, err
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return session.OperationResult{}, err
	}
	account, gateway, err := o.connection()
	if err != nil {
		return session.OperationResult{}, err
	}

	record, err = o.ensureAssociatedAccount(ctx, gateway, account, record)
	if err != nil {
		return session.OperationResult{}, err
	}

	instruction := ledger.MintToInstruction(amount, record.Mint, record.AssociatedAccount, account)
	signature, err := o.sendAndConfirm(ctx, gateway, account, []solana.Instruction{instruction})
	if err != nil {
		return session.OperationResult{TransactionSignature: signatureString(signature)}, err
	}

	if _, err := o.refreshBalance(ctx, gateway, account); err != nil {
		return session.OperationResult{TransactionSignature: signature.String()}, err
	}
	return session.OperationResult{
		Message:              "Tokens minted successfully!",
		TransactionSignature: signature.String(),
	}, nil
}

// Transfer moves amount base units from the session's token account to the
// recipient's associated token account, creating it when needed.
func (o *Orchestrator) Transfer(ctx context.Context, recipient string, amount string) session.OperationResult {
	return o.run(ctx, OperationTransfer, []category{categoryToken}, func(ctx context.Context) (session.OperationResult, error) {
		return o.transfer(ctx, recipient, amount)
	})
}

func (o *Orchestrator) transfer(ctx context.Context, rawRecipient string, rawAmount string) (session.OperationResult, error) {
	record, err := o.requireMint()
	if err != nil {
		return session.OperationResult{}, err
	}
	recipient, err := ledger.ParseAddress(rawRecipient)
	if err != nil {
		return session.OperationResult{}, newError(KindInvalidAddress, err.Error())
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return session.OperationResult{}, err
	}
	account, gateway, err := o.connection()
	if err != nil {
		return session.OperationResult{}, err
	}

	record, err = o.ensureAssociatedAccount(ctx, gateway, account, record)
	if err != nil {
		return session.OperationResult{}, err
	}
	destination, err := gateway.GetOrCreateAssociatedAccount(ctx, account, o.wallet, recipient, record.Mint)
	if err != nil {
		return session.OperationResult{}, err
	}

	instruction := ledger.TransferInstruction(amount, record.AssociatedAccount, destination, account)
	signature, err := o.sendAndConfirm(ctx, gateway, account, []solana.Instruction{instruction})
	if err != nil {
		return session.OperationResult{TransactionSignature: signatureString(signature)}, err
	}

	if _, err := o.refreshBalance(ctx, gateway, account); err != nil {
		return session.OperationResult{TransactionSignature: signature.String()}, err
	}
	return session.OperationResult{
		Message:              "Tokens sent successfully!",
		TransactionSignature: signature.String(),
	}, nil
}

func (o *Orchestrator) requireMint() (session.MintRecord, error) {
	record, ok := o.session.Mint()
	if !ok {
		return session.MintRecord{}, newError(KindNoMint, "create a token first")
	}
	return record, nil
}

// ensureAssociatedAccount resolves the token account of a mint whose
// creation finished without one.
func (o *Orchestrator) ensureAssociatedAccount(
	ctx context.Context,
	gateway ledger.Gateway,
	account solana.PublicKey,
	record session.MintRecord,
) (session.MintRecord, error) {
	if record.HasAssociatedAccount() {
		return record, nil
	}
	associated, err := o.resolveAssociatedAccount(ctx, gateway, account, account, record.Mint)
	if err != nil {
		return record, err
	}
	record.AssociatedAccount = associated
	o.storeMint(account, record)
	return record, nil
}

func (o *Orchestrator) storeMint(account solana.PublicKey, record session.MintRecord) {
	if current, _, connected := o.session.Connection(); connected && current.Equals(account) {
		o.session.SetMint(record)
		return
	}
	o.logger.Warn("session changed during operation, mint record dropped", zap.String("mint", record.Mint.String()))
}

func signatureString(signature solana.Signature) string {
	if signature.IsZero() {
		return ""
	}
	return signature.String()
}
