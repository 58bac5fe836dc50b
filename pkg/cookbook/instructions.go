package cookbook

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

// withComputeBudget prepends a compute unit limit to instructions.
func withComputeBudget(units uint32, instructions ...solana.Instruction) ([]solana.Instruction, error) {
	budget, err := compressedtoken.ComputeUnitLimitInstruction(units)
	if err != nil {
		return nil, err
	}
	return append([]solana.Instruction{budget}, instructions...), nil
}

func createAtaInstruction(ctx context.Context, env *Env) error {
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
	ata := ctoken.GetAssociatedTokenAddressInterface(mint, owner.PublicKey())
	env.Println("Owner:", owner.PublicKey())
	env.Println("ATA address:", ata)

	instruction, err := ctoken.CreateAssociatedTokenAccountInterfaceInstruction(
		payer.PublicKey(),
		ata,
		owner.PublicKey(),
		mint,
		ctoken.ProgramID,
	)
	if err != nil {
		return err
	}
	instructions, err := withComputeBudget(100_000, instruction)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirm(ctx, instructions, payer)
	if err != nil {
		return err
	}

	env.Println("ATA created")
	env.Println("Transaction:", signature)
	return nil
}

func createMintInstruction(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mintSigner, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	addressTree := compressedtoken.BatchAddressTreeInfo
	stateTree, err := compressedtoken.SelectStateTreeInfo(env.Compressed.StateTrees(), 0)
	if err != nil {
		return err
	}
	mint, _, err := ctoken.FindMintAddress(mintSigner.PublicKey())
	if err != nil {
		return err
	}

	proof, err := env.RPC.GetValidityProof(ctx, nil, []rpc.AddressWithTree{{
		Address: ctoken.DeriveAddress(mint.Bytes(), addressTree.Tree, ctoken.ProgramID),
		Tree:    addressTree.Tree,
		Queue:   addressTree.Queue,
	}})
	if err != nil {
		return err
	}

	metadata := ctoken.CreateTokenMetadata("Example Token", "EXT", "https://example.com/metadata.json")
	instruction, err := ctoken.CreateMintInstruction(
		mintSigner.PublicKey(),
		mintDecimals,
		payer.PublicKey(),
		nil,
		payer.PublicKey(),
		proof,
		addressTree,
		stateTree,
		&metadata,
	)
	if err != nil {
		return err
	}
	instructions, err := withComputeBudget(500_000, instruction)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirmWithOptions(ctx, instructions, rpc.SendOptions{SkipPreflight: true}, payer, mintSigner)
	if err != nil {
		return err
	}

	env.Println("Mint:", mint)
	env.Println("Tx:", signature)
	return nil
}

func mintToInstruction(ctx context.Context, env *Env) error {
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
	env.Println("Recipient ATA created:", destination)

	info, err := env.Token.GetMintInterface(ctx, mint)
	if err != nil {
		return err
	}
	var proof *rpc.ValidityProof
	if info.MerkleContext != nil {
		proof, err = env.RPC.GetValidityProof(ctx, []rpc.Hash{info.MerkleContext.Hash}, nil)
		if err != nil {
			return err
		}
	}

	const amount = 1_000_000_000
	instruction, err := ctoken.CreateMintToInterfaceInstruction(info, destination, payer.PublicKey(), payer.PublicKey(), amount, proof)
	if err != nil {
		return err
	}
	instructions, err := withComputeBudget(500_000, instruction)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirm(ctx, instructions, payer)
	if err != nil {
		return err
	}

	env.Println("Minted tokens:", amount)
	env.Println("Transaction:", signature)
	return nil
}

func transferInterfaceInstruction(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, sender, senderAta, err := lightAtaWithBalance(ctx, env, payer, 1_000_000_000)
	if err != nil {
		return err
	}
	env.Println("Sender ATA:", senderAta)

	recipient, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	recipientAta, _, err := env.Token.CreateAtaInterface(ctx, payer, mint, recipient.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Recipient ATA:", recipientAta)

	const amount = 500_000_000
	instruction, err := ctoken.CreateTransferInterfaceInstruction(senderAta, recipientAta, sender.PublicKey(), amount)
	if err != nil {
		return err
	}
	instructions, err := withComputeBudget(10_000, instruction)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirm(ctx, instructions, payer, sender)
	if err != nil {
		return err
	}

	env.Printf("Transferred %s tokens\n", shared.FormatAmount(amount, mintDecimals))
	env.Println("Transaction:", signature)
	return nil
}

func wrapInstruction(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
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

	infos, err := env.Token.GetSplInterfaceInfos(ctx, mint)
	if err != nil {
		return err
	}
	pool, err := firstInitializedPool(infos)
	if err != nil {
		return err
	}

	instruction, err := ctoken.CreateWrapInstruction(splAta, ata, payer.PublicKey(), mint, 500, pool, payer.PublicKey())
	if err != nil {
		return err
	}
	instructions, err := withComputeBudget(200_000, instruction)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirm(ctx, instructions, payer)
	if err != nil {
		return err
	}

	env.Println("Tx:", signature)
	return nil
}

func unwrapInstruction(ctx context.Context, env *Env) error {
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

	ata := ctoken.GetAssociatedTokenAddressInterface(mint, payer.PublicKey())
	if _, err := env.Token.LoadAta(ctx, payer, ata, payer, mint); err != nil {
		return err
	}
	splAta, err := env.Compressed.CreateAssociatedTokenAccount(ctx, payer, mint, payer.PublicKey())
	if err != nil {
		return err
	}

	infos, err := env.Token.GetSplInterfaceInfos(ctx, mint)
	if err != nil {
		return err
	}
	pool, err := firstInitializedPool(infos)
	if err != nil {
		return err
	}

	instruction, err := ctoken.CreateUnwrapInstruction(ata, splAta, payer.PublicKey(), mint, 500, pool, payer.PublicKey())
	if err != nil {
		return err
	}
	instructions, err := withComputeBudget(200_000, instruction)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirm(ctx, instructions, payer)
	if err != nil {
		return err
	}

	env.Println("Tx:", signature)
	return nil
}

func loadAtaInstruction(ctx context.Context, env *Env) error {
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

	ata := ctoken.GetAssociatedTokenAddressInterface(mint, payer.PublicKey())
	load, err := env.Token.CreateLoadAtaInstructions(ctx, ata, payer.PublicKey(), mint, payer.PublicKey())
	if err != nil {
		return err
	}
	if len(load) == 0 {
		env.Println("Nothing to load")
		return nil
	}

	instructions, err := withComputeBudget(500_000, load...)
	if err != nil {
		return err
	}
	signature, err := env.RPC.SendAndConfirm(ctx, instructions, payer)
	if err != nil {
		return err
	}

	env.Println("Tx:", signature)
	return nil
}
