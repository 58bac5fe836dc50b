package cookbook

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

const (
	payerAirdropLamports = 10 * solana.LAMPORTS_PER_SOL
	ownerAirdropLamports = 1 * solana.LAMPORTS_PER_SOL
)

// Env is everything a recipe needs: the resolved configuration, the
// clients sharing one RPC connection and the writer results are printed to.
type Env struct {
	Config     shared.Config
	RPC        *rpc.Client
	Compressed *compressedtoken.Client
	Token      *ctoken.Client
	Out        io.Writer
	Logger     zerolog.Logger
}

// NewEnv creates a new Env. Results go to out (stdout when nil), logs to
// stderr.
func NewEnv(config shared.Config, out io.Writer) (*Env, error) {
	if out == nil {
		out = os.Stdout
	}
	logger := shared.NewLogger(config.LogLevel, os.Stderr)

	rpcClient, err := rpc.NewClient(rpc.Config{
		Network:        config.Network,
		APIKey:         config.APIKey,
		RPCURL:         config.RPCURL,
		CompressionURL: config.CompressionRPCURL,
		WebsocketURL:   config.WebsocketURL,
		Logger:         &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}

	tokenClient := ctoken.NewClient(rpcClient)
	return &Env{
		Config:     config,
		RPC:        rpcClient,
		Compressed: tokenClient.Compressed(),
		Token:      tokenClient,
		Out:        out,
		Logger:     logger,
	}, nil
}

// Localnet reports whether the recipe talks to a local test validator.
func (e *Env) Localnet() bool {
	return e.Config.Network == shared.NetworkLocalnet
}

// Payer returns the fee payer. On localnet a fresh keypair is generated and
// airdropped 10 SOL; elsewhere the keypair at Config.KeypairPath is loaded.
func (e *Env) Payer(ctx context.Context) (solana.PrivateKey, error) {
	if !e.Localnet() {
		payer, err := shared.LoadKeypair(e.Config.KeypairPath)
		if err != nil {
			return nil, err
		}
		e.Logger.Debug().Str("payer", payer.PublicKey().String()).Msg("loaded payer")
		return payer, nil
	}

	payer, err := e.fund(ctx, payerAirdropLamports)
	if err != nil {
		return nil, err
	}
	e.Println("Payer:", payer.PublicKey())
	return payer, nil
}

// Keypair returns a new keypair, airdropped 1 SOL on localnet.
func (e *Env) Keypair(ctx context.Context) (solana.PrivateKey, error) {
	if !e.Localnet() {
		return shared.NewKeypair()
	}
	return e.fund(ctx, ownerAirdropLamports)
}

func (e *Env) fund(ctx context.Context, lamports uint64) (solana.PrivateKey, error) {
	key, err := shared.NewKeypair()
	if err != nil {
		return nil, err
	}
	signature, err := e.RPC.RequestAirdropAndConfirm(ctx, key.PublicKey(), lamports)
	if err != nil {
		return nil, err
	}
	e.Logger.Debug().
		Str("address", key.PublicKey().String()).
		Uint64("lamports", lamports).
		Str("signature", signature.String()).
		Msg("airdrop confirmed")
	return key, nil
}

// Println writes one line of recipe output.
func (e *Env) Println(values ...any) {
	fmt.Fprintln(e.Out, values...)
}

// Printf writes formatted recipe output.
func (e *Env) Printf(format string, values ...any) {
	fmt.Fprintf(e.Out, format, values...)
}

// ExplorerURL links a signature on the explorer of the configured network.
func (e *Env) ExplorerURL(signature solana.Signature) string {
	return shared.ExplorerTxURL(signature.String(), e.Config.Network)
}
