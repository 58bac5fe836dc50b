package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

type SendOptions struct {
	SkipPreflight bool
	Commitment    solanarpc.CommitmentType
}

// BuildAndSignTx assembles a transaction paid by payer and signs it with
// payer and every extra signer.
func BuildAndSignTx(
	instructions []solana.Instruction,
	payer solana.PrivateKey,
	blockhash solana.Hash,
	signers ...solana.PrivateKey,
) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("at least one instruction is required")
	}
	if err := payer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid payer: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	keys := map[solana.PublicKey]solana.PrivateKey{payer.PublicKey(): payer}
	for _, signer := range signers {
		if err := signer.Validate(); err != nil {
			return nil, fmt.Errorf("invalid signer: %w", err)
		}
		keys[signer.PublicKey()] = signer
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if signer, ok := keys[key]; ok {
			return &signer
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return tx, nil
}

// SendTransaction submits a signed transaction without waiting.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, options SendOptions) (solana.Signature, error) {
	commitment := options.Commitment
	if commitment == "" {
		commitment = c.commitment
	}

	var expected solana.Signature
	if len(tx.Signatures) > 0 {
		expected = tx.Signatures[0]
	}

	signature, err := c.solana.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
		SkipPreflight:       options.SkipPreflight,
		PreflightCommitment: commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", asTransactionError(err, expected))
	}

	c.logger.Debug().Str("signature", signature.String()).Msg("transaction sent")
	return signature, nil
}

// SendAndConfirmTx submits a signed transaction and waits for confirmation.
func (c *Client) SendAndConfirmTx(ctx context.Context, tx *solana.Transaction, options SendOptions) (solana.Signature, error) {
	signature, err := c.SendTransaction(ctx, tx, options)
	if err != nil {
		return solana.Signature{}, err
	}

	commitment := options.Commitment
	if commitment == "" {
		commitment = c.commitment
	}
	if err := c.ConfirmTransaction(ctx, signature, commitment); err != nil {
		return signature, err
	}
	return signature, nil
}

// SendAndConfirm builds, signs, submits and confirms a transaction.
func (c *Client) SendAndConfirm(
	ctx context.Context,
	instructions []solana.Instruction,
	payer solana.PrivateKey,
	signers ...solana.PrivateKey,
) (solana.Signature, error) {
	return c.SendAndConfirmWithOptions(ctx, instructions, SendOptions{}, payer, signers...)
}

// SendAndConfirmWithOptions performs the requested operation.
func (c *Client) SendAndConfirmWithOptions(
	ctx context.Context,
	instructions []solana.Instruction,
	options SendOptions,
	payer solana.PrivateKey,
	signers ...solana.PrivateKey,
) (solana.Signature, error) {
	blockhash, err := c.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := BuildAndSignTx(instructions, payer, blockhash, signers...)
	if err != nil {
		return solana.Signature{}, err
	}

	return c.SendAndConfirmTx(ctx, tx, options)
}

// ConfirmTransaction polls signature statuses until commitment is reached.
func (c *Client) ConfirmTransaction(ctx context.Context, signature solana.Signature, commitment solanarpc.CommitmentType) error {
	if commitment == "" {
		commitment = c.commitment
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.solana.GetSignatureStatuses(timeoutCtx, false, signature)
		switch {
		case err == nil && result != nil && len(result.Value) > 0 && result.Value[0] != nil:
			status := result.Value[0]
			if status.Err != nil {
				return &TransactionError{Signature: signature, Err: status.Err}
			}
			if commitmentReached(status.ConfirmationStatus, commitment) {
				c.logger.Debug().
					Str("signature", signature.String()).
					Str("status", string(status.ConfirmationStatus)).
					Msg("transaction confirmed")
				return nil
			}
		case err != nil && !errors.Is(err, solanarpc.ErrNotFound) && timeoutCtx.Err() == nil:
			return fmt.Errorf("failed to get signature status: %w", err)
		}

		select {
		case <-timeoutCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
		case <-ticker.C:
		}
	}
}

// RequestAirdropAndConfirm funds address with lamports from the faucet.
func (c *Client) RequestAirdropAndConfirm(ctx context.Context, address solana.PublicKey, lamports uint64) (solana.Signature, error) {
	signature, err := c.solana.RequestAirdrop(ctx, address, lamports, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("airdrop to %s failed: %w", address, err)
	}
	if err := c.ConfirmTransaction(ctx, signature, solanarpc.CommitmentConfirmed); err != nil {
		return signature, err
	}
	return signature, nil
}

func commitmentReached(status solanarpc.ConfirmationStatusType, commitment solanarpc.CommitmentType) bool {
	rank := map[string]int{
		string(solanarpc.ConfirmationStatusProcessed): 1,
		string(solanarpc.ConfirmationStatusConfirmed): 2,
		string(solanarpc.ConfirmationStatusFinalized): 3,
	}

	required, ok := rank[string(commitment)]
	if !ok {
		required = rank[string(solanarpc.ConfirmationStatusConfirmed)]
	}
	return rank[string(status)] >= required
}
