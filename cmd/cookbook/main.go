// Command cookbook lists and runs the compressed token recipes.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lightprotocol/token-cookbook-go/pkg/cookbook"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

func main() {
	shared.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		cookbook.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
