package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type fakeRPC struct {
	mu sync.Mutex

	balance      uint64
	balanceErr   error
	blockhash    solana.Hash
	lastValid    uint64
	rent         uint64
	sendErr      error
	sent         []*solana.Transaction
	statuses     []*rpc.SignatureStatusesResult
	statusCalls  int
	blockHeight  uint64
	accountCalls int
	accounts     []*rpc.Account
	closed       bool
}

func (f *fakeRPC) GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return &rpc.GetBalanceResult{Value: f.balance}, nil
}

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{Blockhash: f.blockhash, LastValidBlockHeight: f.lastValid},
	}, nil
}

func (f *fakeRPC) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error) {
	if dataSize != MintAccountSize {
		return 0, errors.New("unexpected data size")
	}
	return f.rent, nil
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return solana.Signature{1, 2, 3}, nil
}

func (f *fakeRPC) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	index := f.statusCalls
	f.statusCalls++
	if index >= len(f.statuses) {
		index = len(f.statuses) - 1
	}
	var status *rpc.SignatureStatusesResult
	if index >= 0 {
		status = f.statuses[index]
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{status}}, nil
}

func (f *fakeRPC) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	return f.blockHeight, nil
}

func (f *fakeRPC) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	index := f.accountCalls
	f.accountCalls++
	if index >= len(f.accounts) {
		index = len(f.accounts) - 1
	}
	if index < 0 || f.accounts[index] == nil {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: f.accounts[index]}, nil
}

func (f *fakeRPC) Close() error {
	f.closed = true
	return nil
}

type recordingSigner struct {
	key   solana.PrivateKey
	calls int
	err   error
}

func (s *recordingSigner) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if err := CoSign(tx, s.key); err != nil {
		return nil, err
	}
	return tx, nil
}

func newTestClient(t *testing.T, fake *fakeRPC) *Client {
	t.Helper()
	client, err := NewClient(Config{RPC: fake, PollInterval: time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func confirmed() *rpc.SignatureStatusesResult {
	return &rpc.SignatureStatusesResult{ConfirmationStatus: rpc.ConfirmationStatusConfirmed}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{Cluster: "badnet"}); err == nil {
		t.Fatal("expected error for unsupported cluster")
	}
	if _, err := NewClient(Config{RPCURL: "ws://api.devnet.solana.com"}); err == nil {
		t.Fatal("expected error for non-http RPC URL")
	}

	client, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Cluster() != "devnet" {
		t.Fatalf("expected devnet, got %q", client.Cluster())
	}
	if client.commitment != rpc.CommitmentConfirmed {
		t.Fatalf("expected confirmed commitment, got %q", client.commitment)
	}
}

func TestNewDialer(t *testing.T) {
	fake := &fakeRPC{balance: 7}
	dial := NewDialer(Config{RPC: fake})

	gateway, err := dial(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	balance, err := gateway.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	if err != nil || balance != 7 {
		t.Fatalf("unexpected balance %d, err %v", balance, err)
	}
	if err := gateway.Close(); err != nil || !fake.closed {
		t.Fatal("expected Close to reach the RPC client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dial(ctx); err == nil {
		t.Fatal("expected cancelled context to fail")
	}
}

func TestGetBalanceNetworkError(t *testing.T) {
	client := newTestClient(t, &fakeRPC{balanceErr: errors.New("connection refused")})

	_, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestGetLatestBlockReferenceAndRent(t *testing.T) {
	fake := &fakeRPC{blockhash: solana.Hash{9}, lastValid: 150, rent: 1_461_600}
	client := newTestClient(t, fake)

	reference, err := client.GetLatestBlockReference(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reference.Blockhash != fake.blockhash || reference.LastValidBlockHeight != 150 {
		t.Fatalf("unexpected reference %+v", reference)
	}

	rent, err := client.MintRentExemption(context.Background())
	if err != nil || rent != 1_461_600 {
		t.Fatalf("unexpected rent %d, err %v", rent, err)
	}
}

func TestConfirmTransactionAfterPolling(t *testing.T) {
	fake := &fakeRPC{
		statuses:    []*rpc.SignatureStatusesResult{nil, {ConfirmationStatus: rpc.ConfirmationStatusProcessed}, confirmed()},
		blockHeight: 10,
	}
	client := newTestClient(t, fake)

	err := client.ConfirmTransaction(context.Background(), solana.Signature{1}, BlockReference{LastValidBlockHeight: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.statusCalls != 3 {
		t.Fatalf("expected 3 status polls, got %d", fake.statusCalls)
	}
}

func TestConfirmTransactionFailed(t *testing.T) {
	fake := &fakeRPC{
		statuses: []*rpc.SignatureStatusesResult{{
			ConfirmationStatus: rpc.ConfirmationStatusConfirmed,
			Err:                map[string]any{"InstructionError": []any{0, "Custom"}},
		}},
	}
	client := newTestClient(t, fake)

	err := client.ConfirmTransaction(context.Background(), solana.Signature{1}, BlockReference{LastValidBlockHeight: 100})
	if !errors.Is(err, ErrTransactionFailed) {
		t.Fatalf("expected ErrTransactionFailed, got %v", err)
	}
}

func TestConfirmTransactionExpires(t *testing.T) {
	fake := &fakeRPC{
		statuses:    []*rpc.SignatureStatusesResult{nil},
		blockHeight: 151,
	}
	client := newTestClient(t, fake)

	err := client.ConfirmTransaction(context.Background(), solana.Signature{1}, BlockReference{LastValidBlockHeight: 150})
	if !errors.Is(err, ErrTransactionExpired) {
		t.Fatalf("expected ErrTransactionExpired, got %v", err)
	}
}

func TestConfirmTransactionHonoursContext(t *testing.T) {
	fake := &fakeRPC{statuses: []*rpc.SignatureStatusesResult{nil}, blockHeight: 1}
	client := newTestClient(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := client.ConfirmTransaction(ctx, solana.Signature{1}, BlockReference{LastValidBlockHeight: 1_000})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestGetOrCreateAssociatedAccountExisting(t *testing.T) {
	fake := &fakeRPC{accounts: []*rpc.Account{{Owner: solana.TokenProgramID}}}
	client := newTestClient(t, fake)
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	signer := &recordingSigner{}

	address, err := client.GetOrCreateAssociatedAccount(context.Background(), owner, signer, owner, mint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected, _ := AssociatedAccountAddress(owner, mint)
	if !address.Equals(expected) {
		t.Fatalf("expected %s, got %s", expected, address)
	}
	if signer.calls != 0 || len(fake.sent) != 0 {
		t.Fatal("existing account should not trigger a transaction")
	}
}

func TestGetOrCreateAssociatedAccountCreates(t *testing.T) {
	payer := solana.NewWallet()
	fake := &fakeRPC{
		accounts:    []*rpc.Account{nil},
		statuses:    []*rpc.SignatureStatusesResult{confirmed()},
		lastValid:   100,
		blockHeight: 10,
	}
	client := newTestClient(t, fake)
	signer := &recordingSigner{key: payer.PrivateKey}
	mint := solana.NewWallet().PublicKey()

	address, err := client.GetOrCreateAssociatedAccount(context.Background(), payer.PublicKey(), signer, payer.PublicKey(), mint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if address.IsZero() {
		t.Fatal("expected derived address")
	}
	if signer.calls != 1 || len(fake.sent) != 1 {
		t.Fatalf("expected one signed submission, got %d signs and %d sends", signer.calls, len(fake.sent))
	}
	if err := fake.sent[0].VerifySignatures(); err != nil {
		t.Fatalf("expected a valid payer signature: %v", err)
	}
}

func TestGetOrCreateAssociatedAccountRace(t *testing.T) {
	payer := solana.NewWallet()
	fake := &fakeRPC{
		accounts: []*rpc.Account{nil, {Owner: solana.TokenProgramID}},
		sendErr:  errors.New("already in use"),
	}
	client := newTestClient(t, fake)

	_, err := client.GetOrCreateAssociatedAccount(
		context.Background(),
		payer.PublicKey(),
		&recordingSigner{key: payer.PrivateKey},
		payer.PublicKey(),
		solana.NewWallet().PublicKey(),
	)
	if err != nil {
		t.Fatalf("expected the concurrently created account to be returned, got %v", err)
	}
}

func TestGetOrCreateAssociatedAccountFailures(t *testing.T) {
	payer := solana.NewWallet()
	mint := solana.NewWallet().PublicKey()

	wrongOwner := newTestClient(t, &fakeRPC{accounts: []*rpc.Account{{Owner: solana.SystemProgramID}}})
	if _, err := wrongOwner.GetOrCreateAssociatedAccount(context.Background(), payer.PublicKey(), nil, payer.PublicKey(), mint); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}

	noSigner := newTestClient(t, &fakeRPC{accounts: []*rpc.Account{nil}})
	if _, err := noSigner.GetOrCreateAssociatedAccount(context.Background(), payer.PublicKey(), nil, payer.PublicKey(), mint); err == nil {
		t.Fatal("expected error without signer")
	}

	sendFails := newTestClient(t, &fakeRPC{accounts: []*rpc.Account{nil}, sendErr: errors.New("boom")})
	_, err := sendFails.GetOrCreateAssociatedAccount(
		context.Background(),
		payer.PublicKey(),
		&recordingSigner{key: payer.PrivateKey},
		payer.PublicKey(),
		mint,
	)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestRateLimitedClient(t *testing.T) {
	client, err := NewClient(Config{RPC: &fakeRPC{balance: 3}, RequestsPerSecond: 1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
