package shared

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const DefaultWalletBridgeURL = "http://127.0.0.1:7420"

type ClusterConfig struct {
	Cluster         string
	RPCURL          string
	WalletBridgeURL string
	// RequestsPerSecond caps outgoing RPC calls; zero disables limiting.
	RequestsPerSecond float64
}

var dotenvLoadOnce sync.Once

// ClusterConfigFromEnv resolves the cluster, RPC endpoint and wallet bridge
// address from the environment.
func ClusterConfigFromEnv() (ClusterConfig, error) {
	loadDotEnvIfPresent()

	cluster, err := NormalizeCluster(firstNonEmptyEnv("SOLANA_CLUSTER", "CLUSTER"))
	if err != nil {
		return ClusterConfig{}, err
	}

	rpcURL := firstNonEmptyEnv("SOLANA_RPC_URL", "RPC_URL")
	switch cluster {
	case ClusterDevnet:
		if scoped := firstNonEmptyEnv("DEVNET_SOLANA_RPC_URL", "DEVNET_RPC_URL"); scoped != "" {
			rpcURL = scoped
		}
	case ClusterTestnet:
		if scoped := firstNonEmptyEnv("TESTNET_SOLANA_RPC_URL", "TESTNET_RPC_URL"); scoped != "" {
			rpcURL = scoped
		}
	}
	if rpcURL == "" {
		rpcURL, err = ClusterRPCURL(cluster)
		if err != nil {
			return ClusterConfig{}, err
		}
	}

	bridgeURL := firstNonEmptyEnv("WALLET_BRIDGE_URL")
	if bridgeURL == "" {
		bridgeURL = DefaultWalletBridgeURL
	}

	rps := 0.0
	if raw := firstNonEmptyEnv("SOLANA_RPC_RPS"); raw != "" {
		rps, err = strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return ClusterConfig{}, fmt.Errorf("SOLANA_RPC_RPS must be a non-negative number")
		}
	}

	return ClusterConfig{
		Cluster:           cluster,
		RPCURL:            rpcURL,
		WalletBridgeURL:   bridgeURL,
		RequestsPerSecond: rps,
	}, nil
}

func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		startPaths := make([]string, 0, 2)

		if cwd, err := os.Getwd(); err == nil {
			startPaths = append(startPaths, cwd)
		}
		if _, currentFile, _, ok := runtime.Caller(0); ok {
			startPaths = append(startPaths, filepath.Dir(currentFile))
		}

		seenCandidates := make(map[string]struct{})
		for _, start := range startPaths {
			current := start
			for {
				candidate := filepath.Join(current, ".env")
				if _, exists := seenCandidates[candidate]; !exists {
					seenCandidates[candidate] = struct{}{}
					if _, statErr := os.Stat(candidate); statErr == nil {
						loadDotEnvFile(candidate)
						return
					}
				}

				parent := filepath.Dir(current)
				if parent == current {
					break
				}
				current = parent
			}
		}
	})
}

func loadDotEnvFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	loadedAny := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, value, ok := parseDotEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, alreadySet := os.LookupEnv(key); alreadySet {
			continue
		}
		if setErr := os.Setenv(key, value); setErr == nil {
			loadedAny = true
		}
	}

	return loadedAny
}

func parseDotEnvLine(raw string) (string, string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if !isValidEnvKey(key) {
		return "", "", false
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		first := value[0]
		last := value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}

func isValidEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for index, character := range key {
		if (character >= 'A' && character <= 'Z') ||
			(character >= 'a' && character <= 'z') ||
			(index > 0 && character >= '0' && character <= '9') ||
			character == '_' {
			continue
		}
		return false
	}
	return true
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}
