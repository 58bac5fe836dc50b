package cookbook

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

func transferInterface(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newLightMint(ctx, env, payer, nil)
	if err != nil {
		return err
	}

	sender, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	senderAta, _, err := env.Token.CreateAtaInterface(ctx, payer, mint, sender.PublicKey())
	if err != nil {
		return err
	}
	if _, err := env.Token.MintToInterface(ctx, payer, mint, senderAta, payer, 1_000_000_000); err != nil {
		return err
	}

	recipient, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	recipientAta, _, err := env.Token.CreateAtaInterface(ctx, payer, mint, recipient.PublicKey())
	if err != nil {
		return err
	}

	signature, err := env.Token.TransferInterface(ctx, payer, mint, recipientAta, sender, 500_000_000)
	if err != nil {
		return err
	}

	env.Println("Tx:", signature)
	return nil
}

func wrap(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	splAta, err := env.Compressed.CreateAssociatedTokenAccount(ctx, payer, mint, payer.PublicKey())
	if err != nil {
		return err
	}
	if err := fundSPLAccount(ctx, env, payer, mint, payer, payer, splAta, 1000); err != nil {
		return err
	}

	ata, _, err := env.Token.CreateAtaInterfaceIdempotent(ctx, payer, mint, payer.PublicKey())
	if err != nil {
		return err
	}

	signature, err := env.Token.Wrap(ctx, payer, splAta, ata, payer, mint, 500)
	if err != nil {
		return err
	}

	env.Println("Wrapped 500 tokens to c-token ATA:", ata)
	env.Println("Tx:", signature)
	return nil
}

func unwrap(ctx context.Context, env *Env) error {
	setup, err := newColdSetup(ctx, env, 1000)
	if err != nil {
		return err
	}

	// The cold balance is loaded into the light token ATA before unwrapping.
	signature, err := env.Token.Unwrap(ctx, setup.payer, setup.splAta, setup.owner, setup.mint, 500)
	if err != nil {
		return err
	}

	env.Println("Unwrapped 500 tokens to SPL ATA")
	env.Println("Transaction:", signature)
	return nil
}

// lightAtaWithBalance creates a light mint and an ATA of a new owner holding
// amount. It returns the mint, the owner and the ATA.
func lightAtaWithBalance(
	ctx context.Context,
	env *Env,
	payer solana.PrivateKey,
	amount uint64,
) (solana.PublicKey, solana.PrivateKey, solana.PublicKey, error) {
	mintSigner, err := shared.NewKeypair()
	if err != nil {
		return solana.PublicKey{}, nil, solana.PublicKey{}, err
	}
	mint, err := newLightMint(ctx, env, payer, &mintSigner)
	if err != nil {
		return solana.PublicKey{}, nil, solana.PublicKey{}, err
	}
	env.Println("Mint:", mint)

	owner, err := shared.NewKeypair()
	if err != nil {
		return solana.PublicKey{}, nil, solana.PublicKey{}, err
	}
	if _, _, err := env.Token.CreateAtaInterface(ctx, payer, mint, owner.PublicKey()); err != nil {
		return solana.PublicKey{}, nil, solana.PublicKey{}, err
	}
	ata := ctoken.GetAssociatedTokenAddressInterface(mint, owner.PublicKey())
	if _, err := env.Token.MintToInterface(ctx, payer, mint, ata, payer, amount); err != nil {
		return solana.PublicKey{}, nil, solana.PublicKey{}, err
	}
	return mint, owner, ata, nil
}
