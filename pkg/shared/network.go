package shared

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

const (
	ClusterDevnet      = "devnet"
	ClusterTestnet     = "testnet"
	ClusterMainnetBeta = "mainnet-beta"
)

// NormalizeCluster maps user input onto a supported cluster name.
// An empty value selects devnet.
func NormalizeCluster(cluster string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(cluster))
	if normalized == "" {
		return ClusterDevnet, nil
	}

	switch normalized {
	case ClusterDevnet, ClusterTestnet, ClusterMainnetBeta:
		return normalized, nil
	case "mainnet":
		return ClusterMainnetBeta, nil
	default:
		return "", fmt.Errorf("unsupported cluster %q", cluster)
	}
}

// ClusterRPCURL returns the public JSON-RPC endpoint for a cluster.
func ClusterRPCURL(cluster string) (string, error) {
	normalized, err := NormalizeCluster(cluster)
	if err != nil {
		return "", err
	}

	switch normalized {
	case ClusterMainnetBeta:
		return rpc.MainNetBeta_RPC, nil
	case ClusterTestnet:
		return rpc.TestNet_RPC, nil
	default:
		return rpc.DevNet_RPC, nil
	}
}
