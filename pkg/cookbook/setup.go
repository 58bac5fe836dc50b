package cookbook

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/ctoken"
)

const mintDecimals = 9

// newSPLMint creates an SPL mint with a registered token pool.
func newSPLMint(ctx context.Context, env *Env, payer solana.PrivateKey, authority solana.PublicKey) (solana.PublicKey, error) {
	result, err := env.Compressed.CreateMint(ctx, payer, authority, mintDecimals, nil)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return result.Mint, nil
}

// newLightMint creates a light mint with payer as mint authority.
func newLightMint(ctx context.Context, env *Env, payer solana.PrivateKey, signer *solana.PrivateKey) (solana.PublicKey, error) {
	result, err := env.Token.CreateMintInterface(ctx, payer, payer, nil, mintDecimals, ctoken.CreateMintOptions{
		MintSigner: signer,
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	return result.Mint, nil
}

// fundSPLAccount mints amount compressed to owner and decompresses it into
// the SPL account splAta.
func fundSPLAccount(
	ctx context.Context,
	env *Env,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	authority solana.PrivateKey,
	owner solana.PrivateKey,
	splAta solana.PublicKey,
	amount uint64,
) error {
	if _, err := env.Compressed.MintTo(ctx, payer, mint, []solana.PublicKey{owner.PublicKey()}, authority, []uint64{amount}); err != nil {
		return err
	}
	_, err := env.Compressed.Decompress(ctx, payer, mint, amount, owner, splAta, nil)
	return err
}

func firstInitializedPool(infos []compressedtoken.TokenPoolInfo) (compressedtoken.TokenPoolInfo, error) {
	for _, info := range infos {
		if info.IsInitialized {
			return info, nil
		}
	}
	return compressedtoken.TokenPoolInfo{}, fmt.Errorf("no SPL interface found")
}

func sumTokenAmounts(amounts []uint64) uint64 {
	var total uint64
	for _, amount := range amounts {
		total += amount
	}
	return total
}
