package session

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

type Holder struct {
	mu            sync.RWMutex
	account       solana.PublicKey
	handle        Handle
	connected     bool
	balance       uint64
	balanceKnown  bool
	mint          *MintRecord
	lastResult    *OperationResult
	lastSignature string
}

// NewHolder creates an empty, disconnected session.
func NewHolder() *Holder {
	return &Holder{}
}

// SetConnected populates the account, handle and balance together.
func (h *Holder) SetConnected(account solana.PublicKey, handle Handle, balance uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.account = account
	h.handle = handle
	h.connected = true
	h.balance = balance
	h.balanceKnown = true
}

// SetBalance updates the balance of a connected session. It is a no-op when
// the session is disconnected.
func (h *Holder) SetBalance(balance uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return
	}
	h.balance = balance
	h.balanceKnown = true
}

// Clear drops the connection, balance and mint record and returns the
// handle that was held so the caller can release it. The last successful
// signature and result are kept.
func (h *Holder) Clear() Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle := h.handle
	h.account = solana.PublicKey{}
	h.handle = nil
	h.connected = false
	h.balance = 0
	h.balanceKnown = false
	h.mint = nil
	return handle
}

func (h *Holder) SetMint(record MintRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	copied := record
	h.mint = &copied
}

// Mint returns the current mint record, if any.
func (h *Holder) Mint() (MintRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.mint == nil {
		return MintRecord{}, false
	}
	return *h.mint, true
}

// Connection returns the connected account and handle.
func (h *Holder) Connection() (solana.PublicKey, Handle, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.account, h.handle, h.connected
}

// Balance returns the last known balance in lamports.
func (h *Holder) Balance() (uint64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.balance, h.balanceKnown
}

// RecordResult stores the latest operation result. A successful result
// carrying a signature replaces the remembered signature; failures leave
// it untouched.
func (h *Holder) RecordResult(result OperationResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	copied := result
	h.lastResult = &copied
	if result.Status == StatusSuccess && result.TransactionSignature != "" {
		h.lastSignature = result.TransactionSignature
	}
}

func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snapshot := Snapshot{
		Connected:     h.connected,
		Account:       h.account,
		Handle:        h.handle,
		Balance:       h.balance,
		BalanceKnown:  h.balanceKnown,
		LastSignature: h.lastSignature,
	}
	if h.mint != nil {
		mint := *h.mint
		snapshot.Mint = &mint
	}
	if h.lastResult != nil {
		result := *h.lastResult
		snapshot.LastResult = &result
	}
	return snapshot
}
