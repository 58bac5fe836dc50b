package shared

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	NetworkLocalnet = "localnet"
	NetworkDevnet   = "devnet"
	NetworkMainnet  = "mainnet"
)

const (
	LocalnetRPCURL         = "http://127.0.0.1:8899"
	LocalnetCompressionURL = "http://127.0.0.1:8784"
	LocalnetProverURL      = "http://127.0.0.1:3001"
)

// NormalizeNetwork performs the requested operation.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkDevnet, nil
	}

	switch normalized {
	case NetworkLocalnet, "localhost", "local":
		return NetworkLocalnet, nil
	case NetworkDevnet:
		return NetworkDevnet, nil
	case NetworkMainnet, "mainnet-beta":
		return NetworkMainnet, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// RPCEndpoint returns the ledger RPC URL for the network. Devnet and mainnet
// go through Helius, which serves the compression methods on the same URL.
func RPCEndpoint(network string, apiKey string) (string, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return "", err
	}

	switch normalized {
	case NetworkLocalnet:
		return LocalnetRPCURL, nil
	case NetworkMainnet:
		return heliusURL("mainnet", apiKey)
	default:
		return heliusURL("devnet", apiKey)
	}
}

// CompressionEndpoint returns the compression indexer URL for the network.
func CompressionEndpoint(network string, apiKey string) (string, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return "", err
	}
	if normalized == NetworkLocalnet {
		return LocalnetCompressionURL, nil
	}
	return RPCEndpoint(normalized, apiKey)
}

// WebsocketEndpoint derives the pubsub URL from an RPC URL: http becomes ws,
// https becomes wss and an explicit port is bumped by one.
func WebsocketEndpoint(rpcURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rpcURL))
	if err != nil {
		return "", fmt.Errorf("invalid RPC URL: %w", err)
	}

	converted := true
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
		converted = false
	default:
		return "", fmt.Errorf("invalid RPC URL: scheme must be http or https")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid RPC URL: host is required")
	}

	if port := parsed.Port(); port != "" && converted {
		number, convErr := strconv.Atoi(port)
		if convErr == nil {
			parsed.Host = net.JoinHostPort(parsed.Hostname(), strconv.Itoa(number+1))
		}
	}

	return parsed.String(), nil
}

// ExplorerTxURL returns a Solana Explorer link for a transaction signature.
func ExplorerTxURL(signature string, network string) string {
	base := fmt.Sprintf("https://explorer.solana.com/tx/%s", signature)
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return base
	}

	switch normalized {
	case NetworkMainnet:
		return base
	case NetworkLocalnet:
		return base + "?cluster=custom&customUrl=" + url.QueryEscape("http://localhost:8899")
	default:
		return base + "?cluster=devnet"
	}
}

func heliusURL(cluster string, apiKey string) (string, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return "", fmt.Errorf("API_KEY is required for %s", cluster)
	}
	return fmt.Sprintf("https://%s.helius-rpc.com?api-key=%s", cluster, url.QueryEscape(key)), nil
}
