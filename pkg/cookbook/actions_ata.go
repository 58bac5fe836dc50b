package cookbook

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

func createAta(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mintSigner, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	mint, err := newLightMint(ctx, env, payer, &mintSigner)
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	owner, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	ata, signature, err := env.Token.CreateAtaInterface(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return err
	}

	env.Println("ATA created for:", owner.PublicKey())
	env.Println("ATA address:", ata)
	env.Println("Transaction:", signature)
	return nil
}

func createAtaInterface(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	owner, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	ata, _, err := env.Token.CreateAtaInterfaceIdempotent(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return err
	}
	env.Println("ATA created for:", owner.PublicKey())
	env.Println("ATA address:", ata)

	again, _, err := env.Token.CreateAtaInterfaceIdempotent(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Second create returned the same ATA:", again.Equals(ata))
	return nil
}

func loadAta(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{payer.PublicKey()}, payer, []uint64{1000}); err != nil {
		return err
	}

	ata := ctoken.GetAssociatedTokenAddressInterface(mint, payer.PublicKey())
	signature, err := env.Token.LoadAta(ctx, payer, ata, payer, mint)
	if errors.Is(err, ctoken.ErrNothingToLoad) {
		env.Println("Nothing to load")
		return nil
	}
	if err != nil {
		return err
	}

	env.Println("Loaded tokens to hot balance")
	env.Println("Tx:", signature)
	return nil
}
