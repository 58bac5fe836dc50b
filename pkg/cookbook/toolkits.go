package cookbook

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

const recentTransactions = 5

// paymentSetup is a light mint, a payer ATA holding 1000 and an empty
// recipient ATA.
type paymentSetup struct {
	payer        solana.PrivateKey
	mint         solana.PublicKey
	sourceAta    ctoken.AccountInterface
	recipient    solana.PrivateKey
	recipientAta ctoken.AccountInterface
}

func newPaymentSetup(ctx context.Context, env *Env) (paymentSetup, error) {
	payer, err := env.Payer(ctx)
	if err != nil {
		return paymentSetup{}, err
	}

	mint, err := newLightMint(ctx, env, payer, nil)
	if err != nil {
		return paymentSetup{}, err
	}
	sourceAta, err := env.Token.GetOrCreateAtaInterface(ctx, payer, mint, payer.PublicKey(), &payer)
	if err != nil {
		return paymentSetup{}, err
	}
	if _, err := env.Token.MintToInterface(ctx, payer, mint, sourceAta.Address, payer, 1000); err != nil {
		return paymentSetup{}, err
	}

	recipient, err := shared.NewKeypair()
	if err != nil {
		return paymentSetup{}, err
	}
	recipientAta, err := env.Token.GetOrCreateAtaInterface(ctx, payer, mint, recipient.PublicKey(), &recipient)
	if err != nil {
		return paymentSetup{}, err
	}

	return paymentSetup{
		payer:        payer,
		mint:         mint,
		sourceAta:    sourceAta,
		recipient:    recipient,
		recipientAta: recipientAta,
	}, nil
}

func paymentsSend(ctx context.Context, env *Env) error {
	setup, err := newPaymentSetup(ctx, env)
	if err != nil {
		return err
	}

	signature, err := env.Token.TransferInterface(ctx, setup.payer, setup.mint, setup.recipientAta.Address, setup.payer, 100)
	if err != nil {
		return err
	}

	env.Println("Tx:", signature)
	return nil
}

func paymentsGetBalance(ctx context.Context, env *Env) error {
	setup, err := newPaymentSetup(ctx, env)
	if err != nil {
		return err
	}

	if _, err := env.Token.TransferInterface(ctx, setup.payer, setup.mint, setup.recipientAta.Address, setup.payer, 100); err != nil {
		return err
	}

	account, err := env.Token.GetAtaInterface(ctx, setup.recipientAta.Address, setup.recipient.PublicKey(), setup.mint)
	if err != nil {
		return err
	}
	env.Println("Recipient's balance:", account.Amount())
	env.Println("Hot balance:", account.HotAmount)
	env.Println("Cold balance:", account.ColdAmount)
	return nil
}

func paymentsGetHistory(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}
	owner, err := env.Keypair(ctx)
	if err != nil {
		return err
	}
	recipient, err := env.Keypair(ctx)
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
	if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{owner.PublicKey()}, mintAuthority, []uint64{1000}); err != nil {
		return err
	}
	if _, err := env.Token.GetOrCreateAtaInterface(ctx, payer, mint, owner.PublicKey(), &owner); err != nil {
		return err
	}
	destination, err := env.Token.GetOrCreateAtaInterface(ctx, payer, mint, recipient.PublicKey(), &recipient)
	if err != nil {
		return err
	}

	for _, amount := range []uint64{100, 200} {
		if _, err := env.Token.TransferInterface(ctx, payer, mint, destination.Address, owner, amount); err != nil {
			return err
		}
	}

	history, err := env.RPC.GetSignaturesForOwnerInterface(ctx, owner.PublicKey())
	if err != nil {
		return err
	}
	printHistory(env, history)
	return nil
}

func printHistory(env *Env, history rpc.SignaturesForOwner) {
	env.Println("=== Transaction History ===")
	env.Println("Total signatures:", len(history.Signatures))
	env.Println("On-chain txs:", len(history.Solana))
	env.Println("Compressed txs:", len(history.Compressed))

	env.Println("\n=== Recent Transactions ===")
	for index, info := range history.Signatures {
		if index == recentTransactions {
			break
		}
		env.Println(info.Signature)
	}
}

func paymentsWrapFromSPL(ctx context.Context, env *Env) error {
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

	splAta, err := env.Compressed.CreateAssociatedTokenAccount(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return err
	}
	env.Println("SPL ATA:", splAta)

	if err := fundSPLAccount(ctx, env, payer, mint, mintAuthority, owner, splAta, 1000); err != nil {
		return err
	}
	before, err := env.Compressed.GetSPLTokenAccount(ctx, splAta)
	if err != nil {
		return err
	}
	env.Println("SPL balance before wrap:", before.Amount)

	ata, _, err := env.Token.CreateAtaInterfaceIdempotent(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return err
	}
	env.Println("C-token ATA:", ata)

	signature, err := env.Token.Wrap(ctx, payer, splAta, ata, owner, mint, 500)
	if err != nil {
		return err
	}
	env.Println("\n=== Wrapped 500 tokens ===")
	env.Println("Transaction:", signature)

	after, err := env.Compressed.GetSPLTokenAccount(ctx, splAta)
	if err != nil {
		return err
	}
	env.Println("\nSPL balance after:", after.Amount)
	env.Println("C-token ATA now has 500 tokens ready for payments")
	return nil
}

func paymentsUnwrapToSPL(ctx context.Context, env *Env) error {
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
	account, err := env.Token.GetOrCreateAtaInterface(ctx, payer, mint, owner.PublicKey(), &owner)
	if err != nil {
		return err
	}
	env.Println("C-token ATA:", account.Address)
	env.Println("C-token balance:", account.Amount())

	splAta, err := env.Compressed.CreateAssociatedTokenAccount(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return err
	}
	env.Println("\nSPL ATA:", splAta)

	signature, err := env.Token.Unwrap(ctx, payer, splAta, owner, mint, 500)
	if err != nil {
		return err
	}
	env.Println("\n=== Unwrapped 500 tokens ===")
	env.Println("Transaction:", signature)

	balance, err := env.Compressed.GetSPLTokenAccount(ctx, splAta)
	if err != nil {
		return err
	}
	env.Println("\nSPL balance (ready for CEX):", balance.Amount)
	return nil
}

func streamCtokenTransactions(ctx context.Context, env *Env) error {
	env.Printf("Connected to %s (%s) ...\n\n", env.RPC.WebsocketURL(), env.Config.Network)
	env.Println("Listening for transactions ...")
	env.Println()

	return env.RPC.StreamProgramTransactions(ctx, ctoken.ProgramID, func(tx rpc.ProgramTransaction) error {
		env.Printf("Transaction: %s\n\n", env.ExplorerURL(tx.Signature))
		return nil
	})
}
