package cookbook

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

// Main runs the named recipe with configuration from the environment and
// exits 1 on failure. It is the whole body of every examples/ program.
func Main(name string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := Run(ctx, name, os.Stdout)
	stop()
	if err != nil {
		PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// Run looks up the named recipe, resolves its configuration from the
// environment and runs it.
func Run(ctx context.Context, name string, out io.Writer) error {
	recipe, err := Lookup(name)
	if err != nil {
		return err
	}
	config, err := shared.ConfigFromEnvWithDefault(recipe.Network)
	if err != nil {
		return err
	}
	return Execute(ctx, recipe, config, out)
}

// Execute runs recipe against config.
func Execute(ctx context.Context, recipe Recipe, config shared.Config, out io.Writer) error {
	env, err := NewEnv(config, out)
	if err != nil {
		return err
	}

	env.Logger.Info().Str("recipe", recipe.Name).Str("network", config.Network).Msg("running recipe")
	if err := recipe.Run(ctx, env); err != nil {
		return fmt.Errorf("%s: %w", recipe.Name, err)
	}
	env.Logger.Debug().Str("recipe", recipe.Name).Msg("recipe finished")
	return nil
}

// PrintError writes err and the program logs attached to it.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", err)
	logs := rpc.LogsFromError(err)
	if len(logs) == 0 {
		return
	}
	fmt.Fprintln(w, "Logs:")
	for _, line := range logs {
		fmt.Fprintln(w, "  "+line)
	}
}
