package shared

import (
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"
)

// DisplayDecimals is the number of fractional digits used when rendering
// native balances.
const DisplayDecimals = 6

// LamportsToSOL converts a smallest-unit amount into whole native units.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL)
}

// SOLToLamports converts whole native units into lamports, rounding to the
// nearest lamport. Negative input yields zero.
func SOLToLamports(sol float64) uint64 {
	if sol <= 0 || math.IsNaN(sol) {
		return 0
	}
	return uint64(math.Round(sol * float64(solana.LAMPORTS_PER_SOL)))
}

// FormatSOL renders a lamport amount in whole native units with
// DisplayDecimals fractional digits.
func FormatSOL(lamports uint64) string {
	return fmt.Sprintf("%.*f", DisplayDecimals, LamportsToSOL(lamports))
}
