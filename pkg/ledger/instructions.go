package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
)

// MintAccountSize is the byte length of an SPL token mint account.
const MintAccountSize = 82

// CreateMintInstructions funds a new mint account from payer and
// initializes it with the given decimals and mint authority. The mint has
// no freeze authority.
func CreateMintInstructions(
	payer solana.PublicKey,
	mint solana.PublicKey,
	authority solana.PublicKey,
	decimals uint8,
	rentLamports uint64,
) []solana.Instruction {
	createAccount := system.NewCreateAccountInstruction(
		rentLamports,
		MintAccountSize,
		solana.TokenProgramID,
		payer,
		mint,
	).Build()

	initializeMint := token.NewInitializeMintInstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(authority).
		SetMintAccount(mint).
		SetSysVarRentPubkeyAccount(solana.SysVarRentPubkey).
		Build()

	return []solana.Instruction{createAccount, initializeMint}
}

func MintToInstruction(
	amount uint64,
	mint solana.PublicKey,
	destination solana.PublicKey,
	authority solana.PublicKey,
) solana.Instruction {
	return token.NewMintToInstruction(amount, mint, destination, authority, nil).Build()
}

func TransferInstruction(
	amount uint64,
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
) solana.Instruction {
	return token.NewTransferInstruction(amount, source, destination, owner, nil).Build()
}

func CreateAssociatedAccountInstruction(
	payer solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}

// AssociatedAccountAddress derives the associated token account for
// (owner, mint).
func AssociatedAccountAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive associated account: %w", err)
	}
	return address, nil
}

// BuildTransaction assembles an unsigned transaction anchored to the block
// reference with payer as fee payer.
func BuildTransaction(
	instructions []solana.Instruction,
	payer solana.PublicKey,
	reference BlockReference,
) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}
	tx, err := solana.NewTransaction(instructions, reference.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}
	return tx, nil
}

// CoSign adds key's signature to tx in the slot reserved for its public key,
// keeping any signatures already present.
func CoSign(tx *solana.Transaction, key solana.PrivateKey) error {
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}
	signer := key.PublicKey()
	required := int(tx.Message.Header.NumRequiredSignatures)

	index := -1
	for position := 0; position < required && position < len(tx.Message.AccountKeys); position++ {
		if tx.Message.AccountKeys[position].Equals(signer) {
			index = position
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%s is not a required signer of the transaction", signer)
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to serialize transaction message: %w", err)
	}
	signature, err := key.Sign(message)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if len(tx.Signatures) < required {
		signatures := make([]solana.Signature, required)
		copy(signatures, tx.Signatures)
		tx.Signatures = signatures
	}
	tx.Signatures[index] = signature
	return nil
}
