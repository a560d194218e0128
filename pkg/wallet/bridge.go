package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// userRejectedCode is the EIP-1193 style code providers return when the
// user dismisses a prompt.
const userRejectedCode = 4001

type BridgeClient struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string

	mu        sync.Mutex
	publicKey solana.PublicKey
	connected bool
}

var _ Gateway = (*BridgeClient)(nil)

type bridgeStatusError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *bridgeStatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("wallet bridge request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("wallet bridge request failed with status %d: %s", e.StatusCode, e.Message)
}

func (e *bridgeStatusError) userRejected() bool {
	return e.Code == userRejectedCode || e.StatusCode == http.StatusForbidden
}

// NewBridgeClient creates a new BridgeClient.
func NewBridgeClient(config BridgeConfig) (*BridgeClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("wallet bridge URL is required")
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet bridge URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid wallet bridge URL: scheme must be http or https")
	}
	if strings.TrimSpace(parsedBaseURL.Host) == "" {
		return nil, fmt.Errorf("invalid wallet bridge URL: host is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		// Wallet prompts wait on a human, so the timeout is generous.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	headers := map[string]string{}
	for key, value := range config.Headers {
		headers[key] = value
	}

	return &BridgeClient{
		baseURL:    strings.TrimRight(parsedBaseURL.String(), "/"),
		httpClient: httpClient,
		headers:    headers,
	}, nil
}

func (c *BridgeClient) BaseURL() string {
	return c.baseURL
}

// Provider reports whether a wallet provider is injected in the bridged page.
func (c *BridgeClient) Provider(ctx context.Context) (ProviderInfo, error) {
	var info ProviderInfo
	if err := c.doJSON(ctx, http.MethodGet, "/provider", nil, &info); err != nil {
		return ProviderInfo{}, err
	}
	return info, nil
}

// Connect asks the wallet to authorise this page and returns the account's
// public key.
func (c *BridgeClient) Connect(ctx context.Context) (solana.PublicKey, error) {
	info, err := c.Provider(ctx)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
	if !info.Available {
		return solana.PublicKey{}, fmt.Errorf("%w: Phantom wallet not detected, install the extension from https://phantom.app/", ErrWalletUnavailable)
	}
	if !info.IsPhantom {
		return solana.PublicKey{}, fmt.Errorf("%w: please use the Phantom wallet extension", ErrWalletUnavailable)
	}

	var response connectResponse
	if err := c.doJSON(ctx, http.MethodPost, "/connect", struct{}{}, &response); err != nil {
		var statusErr *bridgeStatusError
		if errors.As(err, &statusErr) && statusErr.userRejected() {
			return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrWalletRejected, statusErr.Message)
		}
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}

	publicKey, err := solana.PublicKeyFromBase58(strings.TrimSpace(response.PublicKey))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: wallet returned an invalid public key: %v", ErrWalletUnavailable, err)
	}

	c.mu.Lock()
	c.publicKey = publicKey
	c.connected = true
	c.mu.Unlock()

	return publicKey, nil
}

// Disconnect tears down the authorisation. Bridge errors are ignored.
func (c *BridgeClient) Disconnect(ctx context.Context) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.publicKey = solana.PublicKey{}
	c.mu.Unlock()

	if !wasConnected {
		return
	}
	_ = c.doJSON(ctx, http.MethodPost, "/disconnect", struct{}{}, nil)
}

// SignTransaction sends the serialized transaction to the wallet and
// returns the transaction carrying the wallet's signature.
func (c *BridgeClient) SignTransaction(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	if tx == nil {
		return nil, fmt.Errorf("%w: transaction is required", ErrSigningRejected)
	}

	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return nil, fmt.Errorf("%w: wallet is not connected", ErrSigningRejected)
	}

	encoded, err := EncodeTransaction(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}

	var response signResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sign-transaction", signRequest{Transaction: encoded}, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}

	signed, err := DecodeTransaction(response.Transaction)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
	}
	return signed, nil
}

// EncodeTransaction serializes a transaction to base64 wire format. Missing
// signatures are written as zeroed placeholders.
func EncodeTransaction(tx *solana.Transaction) (string, error) {
	padded := *tx
	required := int(tx.Message.Header.NumRequiredSignatures)
	if len(padded.Signatures) < required {
		signatures := make([]solana.Signature, required)
		copy(signatures, tx.Signatures)
		padded.Signatures = signatures
	}

	payload, err := padded.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeTransaction parses a base64 wire-format transaction.
func DecodeTransaction(encoded string) (*solana.Transaction, error) {
	payload, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("transaction payload is empty")
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return tx, nil
}

func (c *BridgeClient) doJSON(ctx context.Context, method, path string, body any, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode wallet bridge request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("wallet bridge request failed: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read wallet bridge response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		statusErr := &bridgeStatusError{StatusCode: response.StatusCode}
		var decoded errorResponse
		if json.Unmarshal(responseBody, &decoded) == nil {
			statusErr.Code = decoded.Code
			statusErr.Message = decoded.Message
		}
		if statusErr.Message == "" {
			statusErr.Message = strings.TrimSpace(string(responseBody))
		}
		return statusErr
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(responseBody, target); err != nil {
		return fmt.Errorf("failed to decode wallet bridge response: %w", err)
	}
	return nil
}
