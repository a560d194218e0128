package ledger

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// ParseAddress parses a base58 account address.
func ParseAddress(raw string) (solana.PublicKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: address is required", ErrInvalidAddress)
	}
	address, err := solana.PublicKeyFromBase58(candidate)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, candidate, err)
	}
	return address, nil
}
