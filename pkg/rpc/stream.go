package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// ProgramTransaction is one successful transaction mentioning a program.
type ProgramTransaction struct {
	Signature solana.Signature
	Slot      uint64
	Logs      []string
}

type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }

func (e *handlerError) Unwrap() error { return e.err }

// StreamProgramTransactions subscribes to transactions mentioning program and
// calls handler for each successful one until ctx is cancelled or handler
// returns an error. Failed transactions are skipped.
//
// Failing to subscribe the first time is returned. Once a subscription has
// been established, connection and subscription errors are logged and the
// stream resubscribes after the configured retry delay.
func (c *Client) StreamProgramTransactions(
	ctx context.Context,
	program solana.PublicKey,
	handler func(ProgramTransaction) error,
) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	subscribedOnce := false
	for {
		subscribed, err := c.streamProgramLogs(ctx, program, handler)
		if ctx.Err() != nil {
			return nil
		}
		var failed *handlerError
		if errors.As(err, &failed) {
			return failed.err
		}
		subscribedOnce = subscribedOnce || subscribed
		if !subscribedOnce {
			return err
		}

		c.logger.Warn().Err(err).Str("program", program.String()).Dur("retry_in", c.streamRetryDelay).Msg("stream error")
		timer := time.NewTimer(c.streamRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// streamProgramLogs runs one subscription until it fails. It reports whether
// the subscription was established.
func (c *Client) streamProgramLogs(
	ctx context.Context,
	program solana.PublicKey,
	handler func(ProgramTransaction) error,
) (bool, error) {
	client, err := ws.Connect(ctx, c.websocketURL)
	if err != nil {
		return false, fmt.Errorf("failed to connect to %s: %w", c.websocketURL, err)
	}
	defer client.Close()

	subscription, err := client.LogsSubscribeMentions(program, c.commitment)
	if err != nil {
		return false, fmt.Errorf("failed to subscribe to %s logs: %w", program, err)
	}
	defer subscription.Unsubscribe()

	c.logger.Info().Str("program", program.String()).Msg("listening for transactions")

	for {
		result, err := subscription.Recv(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return true, nil
			}
			return true, fmt.Errorf("log subscription failed: %w", err)
		}
		if result == nil || result.Value.Err != nil {
			continue
		}

		if err := handler(ProgramTransaction{
			Signature: result.Value.Signature,
			Slot:      result.Context.Slot,
			Logs:      result.Value.Logs,
		}); err != nil {
			return true, &handlerError{err: err}
		}
	}
}
