package shared

import (
	"strings"
	"testing"
)

func TestNormalizeNetworkAliases(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"", NetworkDevnet},
		{"DEVNET", NetworkDevnet},
		{"  localnet  ", NetworkLocalnet},
		{"localhost", NetworkLocalnet},
		{"Mainnet", NetworkMainnet},
		{"mainnet-beta", NetworkMainnet},
	}

	for _, tc := range cases {
		result, err := NormalizeNetwork(tc.input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.input, err)
		}
		if result != tc.expected {
			t.Fatalf("expected %q for input %q, got %q", tc.expected, tc.input, result)
		}
	}
}

func TestNormalizeNetworkUnsupported(t *testing.T) {
	if _, err := NormalizeNetwork("testnet"); err == nil {
		t.Fatal("expected error for unsupported network")
	}
}

func TestRPCEndpointLocalnet(t *testing.T) {
	endpoint, err := RPCEndpoint("localnet", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endpoint != LocalnetRPCURL {
		t.Fatalf("unexpected endpoint: %s", endpoint)
	}
}

func TestRPCEndpointDevnetRequiresAPIKey(t *testing.T) {
	if _, err := RPCEndpoint("devnet", " "); err == nil {
		t.Fatal("expected error without API key")
	}

	endpoint, err := RPCEndpoint("devnet", "abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endpoint != "https://devnet.helius-rpc.com?api-key=abc" {
		t.Fatalf("unexpected endpoint: %s", endpoint)
	}
}

func TestCompressionEndpoint(t *testing.T) {
	local, err := CompressionEndpoint("localnet", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != LocalnetCompressionURL {
		t.Fatalf("unexpected localnet compression endpoint: %s", local)
	}

	mainnet, err := CompressionEndpoint("mainnet", "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mainnet != "https://mainnet.helius-rpc.com?api-key=k" {
		t.Fatalf("unexpected mainnet compression endpoint: %s", mainnet)
	}
}

func TestWebsocketEndpoint(t *testing.T) {
	local, err := WebsocketEndpoint(LocalnetRPCURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if local != "ws://127.0.0.1:8900" {
		t.Fatalf("unexpected websocket endpoint: %s", local)
	}

	remote, err := WebsocketEndpoint("https://devnet.helius-rpc.com?api-key=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote != "wss://devnet.helius-rpc.com?api-key=abc" {
		t.Fatalf("unexpected websocket endpoint: %s", remote)
	}

	same, err := WebsocketEndpoint("ws://127.0.0.1:8900")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same != "ws://127.0.0.1:8900" {
		t.Fatalf("expected websocket URL unchanged, got %s", same)
	}

	if _, err := WebsocketEndpoint("ftp://example.com"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func TestExplorerTxURL(t *testing.T) {
	if got := ExplorerTxURL("sig", "devnet"); got != "https://explorer.solana.com/tx/sig?cluster=devnet" {
		t.Fatalf("unexpected devnet URL: %s", got)
	}
	if got := ExplorerTxURL("sig", "mainnet"); got != "https://explorer.solana.com/tx/sig" {
		t.Fatalf("unexpected mainnet URL: %s", got)
	}
	if got := ExplorerTxURL("sig", "localnet"); !strings.Contains(got, "cluster=custom") {
		t.Fatalf("unexpected localnet URL: %s", got)
	}
}
