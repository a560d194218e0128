package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hashgraph-online/spl-token-manager-go/pkg/session"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/shared"
)

// Connect authorises the wallet, opens a ledger connection and loads the
// balance. On failure the session is left fully cleared.
func (o *Orchestrator) Connect(ctx context.Context) session.OperationResult {
	return o.run(ctx, OperationConnect, []category{categoryConnection, categoryToken}, o.connect)
}

func (o *Orchestrator) connect(ctx context.Context) (session.OperationResult, error) {
	if account, _, connected := o.session.Connection(); connected {
		balance, _ := o.session.Balance()
		return session.OperationResult{
			Message: fmt.Sprintf("Wallet %s already connected. Balance: %s SOL", account, shared.FormatSOL(balance)),
		}, nil
	}

	account, err := o.wallet.Connect(ctx)
	if err != nil {
		o.releaseSession(ctx, false)
		return session.OperationResult{}, err
	}

	gateway, err := o.dial(ctx)
	if err != nil {
		o.wallet.Disconnect(ctx)
		o.releaseSession(ctx, false)
		return session.OperationResult{}, err
	}

	balance, err := gateway.GetBalance(ctx, account)
	if err != nil {
		_ = gateway.Close()
		o.wallet.Disconnect(ctx)
		o.releaseSession(ctx, false)
		return session.OperationResult{}, err
	}
	if balance == 0 {
		o.logger.Warn("connected account has no funds", zap.String("account", account.String()))
	}

	o.session.SetConnected(account, gateway, balance)
	o.logger.Info(
		"wallet connected",
		zap.String("account", account.String()),
		zap.Uint64("lamports", balance),
	)
	return session.OperationResult{
		Message: fmt.Sprintf("Connected %s. Balance: %s SOL", account, shared.FormatSOL(balance)),
	}, nil
}

// Disconnect tears down the wallet authorisation and releases the ledger
// connection. It always succeeds.
func (o *Orchestrator) Disconnect(ctx context.Context) session.OperationResult {
	return o.run(ctx, OperationDisconnect, []category{categoryConnection}, func(ctx context.Context) (session.OperationResult, error) {
		o.releaseSession(ctx, true)
		return session.OperationResult{Message: "Wallet disconnected"}, nil
	})
}

func (o *Orchestrator) releaseSession(ctx context.Context, disconnectWallet bool) {
	if disconnectWallet {
		o.wallet.Disconnect(ctx)
	}
	if handle := o.session.Clear(); handle != nil {
		if err := handle.Close(); err != nil {
			o.logger.Debug("failed to close ledger connection", zap.Error(err))
		}
	}
}
