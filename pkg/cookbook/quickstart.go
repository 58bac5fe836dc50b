package cookbook

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

type quickstartSummary struct {
	Payer            string `json:"payer"`
	Mint             string `json:"mint"`
	Recipient        string `json:"recipient"`
	RecipientAta     string `json:"recipientAta"`
	RecipientBalance string `json:"recipientBalance"`
	CreateMintTx     string `json:"createMintTx"`
	MintTx           string `json:"mintTx"`
}

func quickstart(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	created, err := env.Token.CreateMintInterface(ctx, payer, payer, nil, mintDecimals, ctoken.CreateMintOptions{})
	if err != nil {
		return err
	}

	recipient, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	recipientAta, err := env.Token.GetOrCreateAtaInterface(ctx, payer, created.Mint, recipient.PublicKey(), &recipient)
	if err != nil {
		return err
	}

	mintSignature, err := env.Token.MintToInterface(ctx, payer, created.Mint, recipientAta.Address, payer, 1_000_000_000)
	if err != nil {
		return err
	}

	recipientAta, err = env.Token.GetAtaInterface(ctx, recipientAta.Address, recipient.PublicKey(), created.Mint)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(quickstartSummary{
		Payer:            payer.PublicKey().String(),
		Mint:             created.Mint.String(),
		Recipient:        recipient.PublicKey().String(),
		RecipientAta:     recipientAta.Address.String(),
		RecipientBalance: strconv.FormatUint(recipientAta.Amount(), 10),
		CreateMintTx:     created.Signature.String(),
		MintTx:           mintSignature.String(),
	}, "", "  ")
	if err != nil {
		return err
	}
	env.Println(string(encoded))
	return nil
}

func devnetQuickstart(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}
	if !env.Localnet() {
		env.Println("Payer:", payer.PublicKey())
	}

	env.Println("\nCreating SPL mint with token pool for compression...")
	created, err := env.Compressed.CreateMint(ctx, payer, payer.PublicKey(), mintDecimals, nil)
	if err != nil {
		return err
	}
	env.Printf("Mint address: %s\n", created.Mint)
	env.Printf("Create mint tx: %s\n", env.ExplorerURL(created.Signature))

	env.Println("\nMinting compressed tokens...")
	const amount = 1_000_000_000
	signature, err := env.Compressed.MintTo(ctx, payer, created.Mint, []solana.PublicKey{payer.PublicKey()}, payer, []uint64{amount})
	if err != nil {
		return err
	}
	env.Printf("Minted %s token\n", shared.FormatAmount(amount, mintDecimals))
	env.Printf("Mint tx: %s\n", env.ExplorerURL(signature))

	accounts, err := env.RPC.GetAllCompressedTokenAccountsByOwner(ctx, payer.PublicKey(), &created.Mint)
	if err != nil {
		return err
	}
	env.Println("\nCompressed token accounts:", len(accounts))
	env.Println("Balance:", shared.FormatAmount(totalTokenAmount(accounts), mintDecimals), "tokens")
	return nil
}
