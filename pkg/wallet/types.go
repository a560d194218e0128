package wallet

import (
	"net/http"
)

type BridgeConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Headers    map[string]string
}

// ProviderInfo describes the injected provider as reported by the bridge.
type ProviderInfo struct {
	Available bool   `json:"available"`
	IsPhantom bool   `json:"isPhantom"`
	Name      string `json:"name,omitempty"`
}

type connectResponse struct {
	PublicKey string `json:"publicKey"`
}

type signRequest struct {
	Transaction string `json:"transaction"`
}

type signResponse struct {
	Transaction string `json:"transaction"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
