package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/hashgraph-online/spl-token-manager-go/pkg/ledger"
	"github.com/hashgraph-online/spl-token-manager-go/pkg/wallet"
)

const feePerSignature = 5_000

type stubWallet struct {
	mu sync.Mutex

	key          solana.PrivateKey
	connectErr   error
	signErr      error
	signGate     chan struct{}
	signEntered  chan struct{}
	connects     int
	disconnects  int
	signRequests int
}

func newStubWallet() *stubWallet {
	return &stubWallet{key: solana.NewWallet().PrivateKey}
}

func (w *stubWallet) Connect(ctx context.Context) (solana.PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connects++
	if w.connectErr != nil {
		return solana.PublicKey{}, w.connectErr
	}
	return w.key.PublicKey(), nil
}

func (w *stubWallet) Disconnect(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.disconnects++
}

func (w *stubWallet) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	w.mu.Lock()
	w.signRequests++
	gate := w.signGate
	entered := w.signEntered
	signErr := w.signErr
	w.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if signErr != nil {
		return nil, signErr
	}
	if err := ledger.CoSign(tx, w.key); err != nil {
		return nil, fmt.Errorf("%w: %v", wallet.ErrSigningRejected, err)
	}
	return tx, nil
}

type stubLedger struct {
	mu sync.Mutex

	balance        uint64
	balanceErr     error
	rent           uint64
	confirmErr     error
	ataFailures    int
	ataErr         error
	closed         bool
	submitted      []*solana.Transaction
	nextSignature  byte
	balanceCalls   int
	referenceCalls int
	rentCalls      int
	submitCalls    int
	confirmCalls   int
	ataCalls       int
	ataOwners      []solana.PublicKey
}

func newStubLedger(balance uint64) *stubLedger {
	return &stubLedger{balance: balance, rent: 1_461_600}
}

func (l *stubLedger) dialer() ledger.Dialer {
	return func(ctx context.Context) (ledger.Gateway, error) {
		return l, nil
	}
}

func (l *stubLedger) totalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceCalls + l.referenceCalls + l.rentCalls + l.submitCalls + l.confirmCalls + l.ataCalls
}

func (l *stubLedger) resetCounters() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balanceCalls, l.referenceCalls, l.rentCalls = 0, 0, 0
	l.submitCalls, l.confirmCalls, l.ataCalls = 0, 0, 0
	l.ataOwners = nil
}

func (l *stubLedger) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balanceCalls++
	if l.balanceErr != nil {
		return 0, l.balanceErr
	}
	return l.balance, nil
}

func (l *stubLedger) GetLatestBlockReference(ctx context.Context) (ledger.BlockReference, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.referenceCalls++
	return ledger.BlockReference{Blockhash: solana.Hash{byte(l.referenceCalls)}, LastValidBlockHeight: 1_000}, nil
}

func (l *stubLedger) MintRentExemption(ctx context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rentCalls++
	return l.rent, nil
}

func (l *stubLedger) SubmitSignedTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.submitCalls++
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ledger.ErrTransactionFailed, err)
	}
	l.submitted = append(l.submitted, tx)
	fee := uint64(len(tx.Signatures)) * feePerSignature
	if l.balance >= fee {
		l.balance -= fee
	}
	l.nextSignature++
	return solana.Signature{l.nextSignature, 0xAB}, nil
}

func (l *stubLedger) ConfirmTransaction(ctx context.Context, signature solana.Signature, reference ledger.BlockReference) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.confirmCalls++
	return l.confirmErr
}

func (l *stubLedger) GetOrCreateAssociatedAccount(
	ctx context.Context,
	payer solana.PublicKey,
	signer ledger.Signer,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (solana.PublicKey, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ataCalls++
	l.ataOwners = append(l.ataOwners, owner)
	if l.ataErr != nil {
		return solana.PublicKey{}, l.ataErr
	}
	if l.ataFailures > 0 {
		l.ataFailures--
		return solana.PublicKey{}, fmt.Errorf("%w: account not yet visible", ledger.ErrNetwork)
	}
	return ledger.AssociatedAccountAddress(owner, mint)
}

func (l *stubLedger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func newTestOrchestrator(t *testing.T, walletGateway *stubWallet, ledgerGateway *stubLedger) *Orchestrator {
	t.Helper()
	orchestrator, err := New(walletGateway, ledgerGateway.dialer(), Config{
		AccountRetry: RetryPolicy{MaxAttempts: DefaultRetryAttempts},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return orchestrator
}
