// Package ledger wraps the Solana JSON-RPC client used by the token
// manager. It queries balances and block references, submits signed
// transactions, polls for confirmation within a transaction's validity
// window and resolves associated token accounts, creating them on demand.
//
// The package also builds the SPL token instructions the orchestrator
// sequences: mint account creation and initialization, mint-to and
// transfer.
package ledger
