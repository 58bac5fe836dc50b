package cookbook

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

func delegateApprove(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}
	owner, err := env.Keypair(ctx)
	if err != nil {
		return err
	}
	mintAuthority, err := shared.NewKeypair()
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, mintAuthority.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{owner.PublicKey()}, mintAuthority, []uint64{1000}); err != nil {
		return err
	}
	env.Println("Minted 1000 compressed tokens to owner")

	delegate, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	env.Println("Delegate:", delegate.PublicKey())

	signature, err := env.Compressed.Approve(ctx, payer, mint, 500, owner, delegate.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Approved delegation of 500 tokens")
	env.Println("Transaction:", signature)

	delegated, err := env.RPC.GetCompressedTokenAccountsByDelegate(ctx, delegate.PublicKey(), rpc.TokenAccountsOptions{Mint: &mint})
	if err != nil {
		return err
	}
	env.Println("Delegated accounts:", len(delegated.Items))
	return nil
}

func delegateRevoke(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
	if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{payer.PublicKey()}, payer, []uint64{1000}); err != nil {
		return err
	}

	delegate, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	if _, err := env.Compressed.Approve(ctx, payer, mint, 500, payer, delegate.PublicKey()); err != nil {
		return err
	}

	delegated, err := env.RPC.GetCompressedTokenAccountsByDelegate(ctx, delegate.PublicKey(), rpc.TokenAccountsOptions{Mint: &mint})
	if err != nil {
		return err
	}
	signature, err := env.Compressed.Revoke(ctx, payer, delegated.Items, payer)
	if err != nil {
		return err
	}

	env.Println("Tx:", signature)
	return nil
}
