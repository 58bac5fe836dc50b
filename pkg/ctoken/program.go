package ctoken

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/sha3"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// ProgramID is the light token program. Light token accounts, light mints and
// compressed token accounts are all owned by it.
var ProgramID = compressedtoken.ProgramID

const (
	discriminatorTransfer            byte = 3
	discriminatorCreateATA           byte = 100
	discriminatorTransfer2           byte = 101
	discriminatorCreateATAIdempotent byte = 102
	discriminatorMintAction          byte = 103

	mintSeed = "compressed_mint"
)

// FindMintAddress derives the light mint PDA of mintSigner.
func FindMintAddress(mintSigner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(mintSeed), mintSigner.Bytes()}, ProgramID)
}

// GetAssociatedTokenAddressInterface derives the light token ATA of owner for
// mint. The same address serves light mints and SPL mints.
func GetAssociatedTokenAddressInterface(mint, owner solana.PublicKey) solana.PublicKey {
	address, _, err := associatedTokenAddress(mint, owner)
	if err != nil {
		panic(fmt.Sprintf("derive light token ata: %v", err))
	}
	return address
}

func associatedTokenAddress(mint, owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{owner.Bytes(), ProgramID.Bytes(), mint.Bytes()}, ProgramID)
}

// GetAssociatedTokenAddressForProgram derives the ATA of owner under
// tokenProgram: the light token program or an SPL token program.
func GetAssociatedTokenAddressForProgram(mint, owner, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	if tokenProgram.Equals(ProgramID) {
		address, _, err := associatedTokenAddress(mint, owner)
		return address, err
	}
	address, _, err := solana.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	return address, err
}

// DeriveAddress derives the compressed account address of seed in
// addressTree. The hash is truncated below the bn254 field size by zeroing
// the first byte.
func DeriveAddress(seed []byte, addressTree, programID solana.PublicKey) rpc.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(seed)
	hasher.Write(addressTree.Bytes())
	hasher.Write(programID.Bytes())
	hasher.Write([]byte{255})

	var out rpc.Hash
	copy(out[:], hasher.Sum(nil))
	out[0] = 0
	return out
}

// MintAddress returns the compressed address of the light mint at mint.
func MintAddress(mint solana.PublicKey) rpc.Hash {
	return DeriveAddress(mint.Bytes(), compressedtoken.BatchAddressTreeInfo.Tree, ProgramID)
}

func isSPLTokenProgram(program solana.PublicKey) bool {
	return program.Equals(solana.TokenProgramID) || program.Equals(solana.Token2022ProgramID)
}
