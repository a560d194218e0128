// The SPL Token Manager SDK for Go orchestrates wallet-signed token
// operations on Solana. It connects a browser wallet through a local bridge,
// creates SPL token mints, mints supply into the owner's associated token
// account and transfers tokens to other accounts, reporting every step as a
// single operation result.
//
// # Packages
//
//   - orchestrator: connect, disconnect, create-mint, mint-to and transfer
//   - session: the in-memory session state and operation results
//   - wallet: the wallet gateway and its HTTP bridge client
//   - ledger: the Solana RPC gateway, instruction builders and confirmation
//   - shared: cluster configuration, unit conversion and explorer links
//
// # Configuration
//
// SOLANA_CLUSTER selects devnet, testnet or mainnet-beta. SOLANA_RPC_URL,
// WALLET_BRIDGE_URL and SOLANA_RPC_RPS override the defaults. A .env file in
// the working directory or the module root is loaded when present.
//
// # Installation
//
//	go get github.com/hashgraph-online/spl-token-manager-go@latest
package spl_token_manager_go
