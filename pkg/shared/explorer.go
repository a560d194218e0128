package shared

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	explorerBaseURL   = "https://explorer.solana.com"
	shortSignatureCut = 8
	signatureLength   = 64
)

// ExplorerTransactionURL returns the block explorer link for a transaction
// signature on the given cluster.
func ExplorerTransactionURL(signature, cluster string) string {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ""
	}
	link := fmt.Sprintf("%s/tx/%s", explorerBaseURL, url.PathEscape(signature))
	normalized, err := NormalizeCluster(cluster)
	if err != nil || normalized == ClusterMainnetBeta {
		return link
	}
	return link + "?cluster=" + normalized
}

// ShortSignature truncates a signature to its first and last eight
// characters joined by an ellipsis. Short inputs are returned unchanged.
func ShortSignature(signature string) string {
	signature = strings.TrimSpace(signature)
	if len(signature) <= 2*shortSignatureCut {
		return signature
	}
	return signature[:shortSignatureCut] + "..." + signature[len(signature)-shortSignatureCut:]
}

// IsTransactionSignature reports whether the value decodes to a 64-byte
// base58 signature.
func IsTransactionSignature(signature string) bool {
	decoded, err := base58.Decode(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return len(decoded) == signatureLength
}
