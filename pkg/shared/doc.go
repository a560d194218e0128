// Package shared provides common utilities used across the SPL Token
// Manager SDK for Go. It includes cluster normalization, environment
// configuration loading, native unit conversion and explorer link helpers.
//
// This package is typically used internally by the ledger, wallet and
// orchestrator packages but is also available for presentation layers that
// need to render balances and transaction signatures the same way.
//
// # Environment Variables
//
// ClusterConfigFromEnv reads SOLANA_CLUSTER, SOLANA_RPC_URL,
// WALLET_BRIDGE_URL and SOLANA_RPC_RPS, loading a .env file from the
// working directory or any parent when present.
package shared
