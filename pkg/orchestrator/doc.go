// Package orchestrator sequences the user-facing token manager operations:
// connecting a wallet, creating an SPL token mint, minting supply to the
// session's token account and transferring tokens to another account.
//
// Each operation runs its steps in order against the wallet and ledger
// gateways and reports a single session.OperationResult. A failing step
// aborts the remaining steps. Steps that already landed on chain are not
// rolled back, so a result may describe a partial success, for example a
// mint that was created but whose associated token account could not be
// resolved.
//
// At most one operation per category runs at a time. A second trigger is
// rejected with KindOperationInProgress rather than queued.
package orchestrator
