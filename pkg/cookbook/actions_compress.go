package cookbook

import (
	"context"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

// coldSetup is a mint with compressed tokens minted to owner and an empty
// SPL ATA of owner.
type coldSetup struct {
	payer  solana.PrivateKey
	owner  solana.PrivateKey
	mint   solana.PublicKey
	splAta solana.PublicKey
}

func newColdSetup(ctx context.Context, env *Env, amount uint64) (coldSetup, error) {
	payer, err := env.Payer(ctx)
	if err != nil {
		return coldSetup{}, err
	}
	owner, err := env.Keypair(ctx)
	if err != nil {
		return coldSetup{}, err
	}
	mintAuthority, err := shared.NewKeypair()
	if err != nil {
		return coldSetup{}, err
	}

	mint, err := newSPLMint(ctx, env, payer, mintAuthority.PublicKey())
	if err != nil {
		return coldSetup{}, err
	}
	env.Println("Mint:", mint)

	if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{owner.PublicKey()}, mintAuthority, []uint64{amount}); err != nil {
		return coldSetup{}, err
	}
	env.Printf("Minted %d compressed tokens\n", amount)

	splAta, err := env.Compressed.CreateAssociatedTokenAccount(ctx, payer, mint, owner.PublicKey())
	if err != nil {
		return coldSetup{}, err
	}
	env.Println("SPL ATA:", splAta)

	return coldSetup{payer: payer, owner: owner, mint: mint, splAta: splAta}, nil
}

func compress(ctx context.Context, env *Env) error {
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
	env.Println("Funded SPL ATA with 1000 tokens")

	recipient, err := shared.NewKeypair()
	if err != nil {
		return err
	}
	signature, err := env.Compressed.Compress(ctx, payer, mint, []uint64{500}, owner, splAta, []solana.PublicKey{recipient.PublicKey()})
	if err != nil {
		return err
	}

	env.Println("Compressed 500 tokens to cold storage")
	env.Println("Recipient:", recipient.PublicKey())
	env.Println("Transaction:", signature)
	return nil
}

func compressBatch(ctx context.Context, env *Env) error {
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
	if err := fundSPLAccount(ctx, env, payer, mint, payer, payer, splAta, 10000); err != nil {
		return err
	}

	amounts := []uint64{100, 200, 300, 400, 500}
	recipients := make([]solana.PublicKey, 0, len(amounts))
	for range amounts {
		recipient, err := shared.NewKeypair()
		if err != nil {
			return err
		}
		recipients = append(recipients, recipient.PublicKey())
	}

	signature, err := env.Compressed.Compress(ctx, payer, mint, amounts, payer, splAta, recipients)
	if err != nil {
		return err
	}

	formatted := make([]string, 0, len(amounts))
	for _, amount := range amounts {
		formatted = append(formatted, strconv.FormatUint(amount, 10))
	}
	env.Printf("Batch compressed to %d recipients\n", len(recipients))
	env.Println("Amounts:", strings.Join(formatted, ", "))
	env.Println("Tx:", signature)
	return nil
}

func decompress(ctx context.Context, env *Env) error {
	setup, err := newColdSetup(ctx, env, 1000)
	if err != nil {
		return err
	}

	signature, err := env.Compressed.Decompress(ctx, setup.payer, setup.mint, 500, setup.owner, setup.splAta, nil)
	if err != nil {
		return err
	}

	env.Println("Decompressed 500 tokens to SPL ATA")
	env.Println("Transaction:", signature)
	return nil
}

func decompressWithTokenPool(ctx context.Context, env *Env) error {
	setup, err := newColdSetup(ctx, env, 1000)
	if err != nil {
		return err
	}

	infos, err := compressedtoken.GetTokenPoolInfos(ctx, env.RPC, setup.mint)
	if err != nil {
		return err
	}
	env.Println("Token pools found:", len(infos))

	const amount = 500
	pools, err := compressedtoken.SelectTokenPoolInfosForDecompression(infos, amount)
	if err != nil {
		return err
	}
	env.Println("Selected pools:", len(pools))

	signature, err := env.Compressed.Decompress(ctx, setup.payer, setup.mint, amount, setup.owner, setup.splAta, pools)
	if err != nil {
		return err
	}

	env.Println("Decompressed 500 tokens to SPL ATA")
	env.Println("Transaction:", signature)
	return nil
}

func decompressWithInterfacePDA(ctx context.Context, env *Env) error {
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
	splAta, err := env.Compressed.CreateAssociatedTokenAccount(ctx, payer, mint, payer.PublicKey())
	if err != nil {
		return err
	}

	const amount = 500
	infos, err := env.Token.GetSplInterfaceInfos(ctx, mint)
	if err != nil {
		return err
	}
	selected, err := compressedtoken.SelectTokenPoolInfosForDecompression(infos, amount)
	if err != nil {
		return err
	}

	signature, err := env.Compressed.Decompress(ctx, payer, mint, amount, payer, splAta, selected)
	if err != nil {
		return err
	}

	env.Printf("Decompressed %d tokens\n", amount)
	env.Println("Tx:", signature)
	return nil
}

func mergeTokenAccounts(ctx context.Context, env *Env) error {
	payer, err := env.Payer(ctx)
	if err != nil {
		return err
	}

	mint, err := newSPLMint(ctx, env, payer, payer.PublicKey())
	if err != nil {
		return err
	}
	env.Println("Mint:", mint)

	env.Println("Minting 5 times to create multiple accounts...")
	for i := 0; i < 5; i++ {
		if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{payer.PublicKey()}, payer, []uint64{100}); err != nil {
			return err
		}
	}
	env.Println("Minted 500 total tokens across 5 accounts")

	before, err := env.RPC.GetAllCompressedTokenAccountsByOwner(ctx, payer.PublicKey(), &mint)
	if err != nil {
		return err
	}
	env.Println("Accounts before merge:", len(before))

	signature, err := env.Compressed.MergeTokenAccounts(ctx, payer, mint, payer)
	if err != nil {
		return err
	}
	env.Println("Merged token accounts")
	env.Println("Transaction:", signature)

	after, err := env.RPC.GetAllCompressedTokenAccountsByOwner(ctx, payer.PublicKey(), &mint)
	if err != nil {
		return err
	}
	env.Println("Accounts after merge:", len(after))

	totalBefore := totalTokenAmount(before)
	totalAfter := totalTokenAmount(after)
	env.Println("Total balance before:", totalBefore)
	env.Println("Total balance after:", totalAfter)
	env.Println("Balance preserved:", totalBefore == totalAfter)
	return nil
}

func totalTokenAmount(accounts []rpc.TokenAccount) uint64 {
	var total uint64
	for _, account := range accounts {
		total += uint64(account.TokenData.Amount)
	}
	return total
}
