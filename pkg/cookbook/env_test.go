package cookbook

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lightprotocol/token-cookbook-go/internal/rpctest"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

// newTestEnv returns an Env talking to server. On devnet the payer keypair is
// written to a temporary file and returned.
func newTestEnv(t *testing.T, server *rpctest.Server, network string) (*Env, *bytes.Buffer, solana.PrivateKey) {
	t.Helper()

	payer, err := shared.NewKeypair()
	require.NoError(t, err)
	keypairPath := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, shared.WriteKeypair(keypairPath, payer))

	config, err := shared.NewConfig(shared.Config{
		Network:           network,
		RPCURL:            server.URL,
		CompressionRPCURL: server.URL,
		KeypairPath:       keypairPath,
		LogLevel:          "disabled",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	env, err := NewEnv(config, &out)
	require.NoError(t, err)
	return env, &out, payer
}

func TestEnvPayerLocalnet(t *testing.T) {
	server := rpctest.NewServer(t)
	env, out, stored := newTestEnv(t, server, shared.NetworkLocalnet)
	require.True(t, env.Localnet())

	payer, err := env.Payer(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, stored.PublicKey(), payer.PublicKey())
	require.Equal(t, "Payer: "+payer.PublicKey().String()+"\n", out.String())

	airdrops := server.Calls("requestAirdrop")
	require.Len(t, airdrops, 1)
	require.Contains(t, string(airdrops[0]), payer.PublicKey().String())
	require.Contains(t, string(airdrops[0]), "10000000000")
}

func TestEnvPayerDevnet(t *testing.T) {
	server := rpctest.NewServer(t)
	env, out, stored := newTestEnv(t, server, shared.NetworkDevnet)
	require.False(t, env.Localnet())

	payer, err := env.Payer(context.Background())
	require.NoError(t, err)
	require.Equal(t, stored.PublicKey(), payer.PublicKey())
	require.Empty(t, out.String())
	require.Empty(t, server.Calls("requestAirdrop"))
}

func TestEnvPayerDevnetMissingKeypair(t *testing.T) {
	server := rpctest.NewServer(t)
	env, _, _ := newTestEnv(t, server, shared.NetworkDevnet)
	env.Config.KeypairPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := env.Payer(context.Background())
	require.Error(t, err)
}

func TestEnvKeypair(t *testing.T) {
	server := rpctest.NewServer(t)
	env, _, _ := newTestEnv(t, server, shared.NetworkLocalnet)

	owner, err := env.Keypair(context.Background())
	require.NoError(t, err)
	airdrops := server.Calls("requestAirdrop")
	require.Len(t, airdrops, 1)
	require.Contains(t, string(airdrops[0]), owner.PublicKey().String())
	require.Contains(t, string(airdrops[0]), "1000000000")

	devnetServer := rpctest.NewServer(t)
	devnet, _, _ := newTestEnv(t, devnetServer, shared.NetworkDevnet)
	_, err = devnet.Keypair(context.Background())
	require.NoError(t, err)
	require.Empty(t, devnetServer.Calls("requestAirdrop"))
}

func TestEnvExplorerURL(t *testing.T) {
	server := rpctest.NewServer(t)
	env, _, _ := newTestEnv(t, server, shared.NetworkDevnet)

	var signature solana.Signature
	signature[0] = 7
	url := env.ExplorerURL(signature)
	require.True(t, strings.HasPrefix(url, "https://explorer.solana.com/tx/"+signature.String()))
	require.True(t, strings.HasSuffix(url, "?cluster=devnet"))
}
