package cookbook

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

func createMint(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	metadata := ctoken.CreateTokenMetadata("Example Token", "EXT", "https://example.com/metadata.json")
	result, err := env.Token.CreateMintInterface(ctx, payer, payer, nil, mintDecimals, ctoken.CreateMintOptions{
		Metadata: &metadata,
	})
	if err != nil {
		return err
	}

	env.Println("Mint:", result.Mint)
	env.Println("Tx:", result.Signature)
	return nil
}

func createMintInterface(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	result, err := env.Token.CreateMintInterface(ctx, payer, payer, nil, mintDecimals, ctoken.CreateMintOptions{
		TokenProgram: solana.Token2022ProgramID,
	})
	if err != nil {
		return err
	}
	env.Println("Mint:", result.Mint)
	env.Println("Token program:", solana.Token2022ProgramID)
	env.Println("Tx:", result.Signature)

	infos, err := env.Token.GetSplInterfaceInfos(ctx, result.Mint)
	if err != nil {
		return err
	}
	pool, err := firstInitializedPool(infos)
	if err != nil {
		return err
	}
	env.Println("SPL interface PDA:", pool.TokenPoolPDA)
	return nil
}

func mintTo(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	recipients := []solana.PublicKey{payer.PublicKey()}
	for i := 0; i < 2; i++ {
		recipient, err := shared.NewKeypair()
		if err != nil {
			return err
		}
		recipients = append(recipients, recipient.PublicKey())
	}
	amounts := []uint64{1_000_000_000, 2_000_000_000, 3_000_000_000}

	signature, err := env.Compressed.MintTo(ctx, payer, mint, recipients, payer, amounts)
	if err != nil {
		return err
	}

	env.Printf("Minted %s tokens to %d recipients\n", shared.FormatAmount(sumTokenAmounts(amounts), mintDecimals), len(recipients))
	env.Println("Tx:", signature)
	return nil
}

func mintToInterface(ctx context.Context, env *Env) error {
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
	env.Println("Mint created:", mint)

	recipient, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	destination, _, err := env.Token.CreateAtaInterface(ctx, payer, mint, recipient.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Recipient ATA created for:", recipient.PublicKey())

	const amount = 1_000_000_000
	signature, err := env.Token.MintToInterface(ctx, payer, mint, destination, payer, amount)
	if err != nil {
		return err
	}

	env.Println("Minted tokens:", amount)
	env.Println("Transaction:", signature)
	return nil
}
