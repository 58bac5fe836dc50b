package compressedtoken

import (
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ProgramID                   = solana.MustPublicKeyFromBase58("cTokenmWW8bLPjZEBAUgYy3zKxQZW6VKi7bqNFEVv3m")
	LightSystemProgramID        = solana.MustPublicKeyFromBase58("SySTEM1eSU2p4BGQfQpimFEWWSC1XDFeun3Nqzz3rT7")
	AccountCompressionProgramID = solana.MustPublicKeyFromBase58("compr6CUsB5m2jS4Y3831ztGSTnDpnKJTKS95d64XVq")
	NoopProgramID               = solana.MustPublicKeyFromBase58("noopb9bkMVfRPU8AsbpTUg8AQkHtKwMYZiFUjNRtMmV")
	RegisteredProgramPDA        = solana.MustPublicKeyFromBase58("35hkDgaAKwMCaxRz2ocSZ6NaUrtKkyNqU6c4RV3tYJRh")
)

const (
	// MaxTokenPools is the number of pool PDAs a mint can register.
	MaxTokenPools = 5

	poolSeed         = "pool"
	cpiAuthoritySeed = "cpi_authority"
)

var (
	discriminatorCreateTokenPool = anchorDiscriminator("create_token_pool")
	discriminatorAddTokenPool    = anchorDiscriminator("add_token_pool")
	discriminatorMintTo          = anchorDiscriminator("mint_to")
	discriminatorTransfer        = anchorDiscriminator("transfer")
	discriminatorApprove         = anchorDiscriminator("approve")
	discriminatorRevoke          = anchorDiscriminator("revoke")
)

func anchorDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}

// CPIAuthorityPDA returns the signer PDA the program uses for pool transfers
// and light system CPIs.
func CPIAuthorityPDA() solana.PublicKey {
	address, _, err := solana.FindProgramAddress([][]byte{[]byte(cpiAuthoritySeed)}, ProgramID)
	if err != nil {
		panic(fmt.Sprintf("derive cpi authority: %v", err))
	}
	return address
}

// AccountCompressionAuthority returns the light system program's authority
// over the account compression program.
func AccountCompressionAuthority() solana.PublicKey {
	address, _, err := solana.FindProgramAddress([][]byte{[]byte(cpiAuthoritySeed)}, LightSystemProgramID)
	if err != nil {
		panic(fmt.Sprintf("derive account compression authority: %v", err))
	}
	return address
}

// TokenPoolPDA derives the pool account holding compressed supply of mint.
// Index 0 uses the bare seed; indices 1..4 append the index byte.
func TokenPoolPDA(mint solana.PublicKey, index uint8) (solana.PublicKey, uint8, error) {
	if index >= MaxTokenPools {
		return solana.PublicKey{}, 0, fmt.Errorf("token pool index %d out of range", index)
	}
	seeds := [][]byte{[]byte(poolSeed), mint.Bytes()}
	if index > 0 {
		seeds = append(seeds, []byte{index})
	}
	return solana.FindProgramAddress(seeds, ProgramID)
}
