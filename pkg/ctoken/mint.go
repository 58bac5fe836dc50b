package ctoken

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

var ErrMintNotFound = errors.New("mint not found")

// CompressedMint is the account data of a light mint.
type CompressedMint struct {
	SplMint         solana.PublicKey
	Supply          uint64
	Decimals        uint8
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
	Metadata        *TokenMetadata
}

// Encode serializes the mint with borsh.
func (m CompressedMint) Encode() ([]byte, error) {
	w := compressedtoken.NewBorshWriter()
	m.encode(w)
	return w.Bytes()
}

func (m CompressedMint) encode(w *compressedtoken.BorshWriter) {
	w.PublicKey(m.SplMint)
	w.U64(m.Supply)
	w.U8(m.Decimals)
	w.OptionalPublicKey(m.MintAuthority)
	w.OptionalPublicKey(m.FreezeAuthority)
	if w.Option(m.Metadata != nil) {
		m.Metadata.encode(w)
	}
}

// DecodeCompressedMint parses light mint account data.
func DecodeCompressedMint(data []byte) (CompressedMint, error) {
	r := compressedtoken.NewBorshReader(data)
	mint := CompressedMint{
		SplMint:         r.PublicKey(),
		Supply:          r.U64(),
		Decimals:        r.U8(),
		MintAuthority:   r.OptionalPublicKey(),
		FreezeAuthority: r.OptionalPublicKey(),
	}
	if r.Option() {
		metadata := decodeTokenMetadata(r)
		mint.Metadata = &metadata
	}
	if err := r.Err(); err != nil {
		return CompressedMint{}, fmt.Errorf("failed to decode light mint: %w", err)
	}
	return mint, nil
}

// MintMerkleContext locates the compressed account of a light mint.
type MintMerkleContext struct {
	Hash         rpc.Hash
	Address      rpc.Hash
	Tree         compressedtoken.StateTreeInfo
	LeafIndex    uint32
	ProveByIndex bool
}

// MintInterface describes a mint regardless of where it lives: an SPL or
// Token-2022 mint account, or a light mint stored compressed.
type MintInterface struct {
	Mint            solana.PublicKey
	ProgramID       solana.PublicKey
	Decimals        uint8
	Supply          uint64
	MintAuthority   *solana.PublicKey
	FreezeAuthority *solana.PublicKey
	Metadata        *TokenMetadata
	MerkleContext   *MintMerkleContext
}

// IsLight reports whether the mint is a compressed light mint.
func (m MintInterface) IsLight() bool {
	return m.MerkleContext != nil
}

func (m MintInterface) compressed() CompressedMint {
	return CompressedMint{
		SplMint:         m.Mint,
		Supply:          m.Supply,
		Decimals:        m.Decimals,
		MintAuthority:   m.MintAuthority,
		FreezeAuthority: m.FreezeAuthority,
		Metadata:        m.Metadata,
	}
}

func getMintInterface(ctx context.Context, client *rpc.Client, mint solana.PublicKey) (MintInterface, error) {
	info, err := client.GetAccountInfo(ctx, mint)
	if err != nil {
		return MintInterface{}, err
	}
	if info != nil && isSPLTokenProgram(info.Owner) {
		return decodeSPLMint(mint, info)
	}

	address := MintAddress(mint)
	account, err := client.GetCompressedAccount(ctx, &address, nil)
	if err != nil {
		return MintInterface{}, fmt.Errorf("failed to get light mint %s: %w", mint, err)
	}
	if account == nil || account.Data == nil {
		return MintInterface{}, fmt.Errorf("%w: %s", ErrMintNotFound, mint)
	}

	data, err := base64.StdEncoding.DecodeString(account.Data.Data)
	if err != nil {
		return MintInterface{}, fmt.Errorf("invalid light mint data: %w", err)
	}
	decoded, err := DecodeCompressedMint(data)
	if err != nil {
		return MintInterface{}, err
	}

	return MintInterface{
		Mint:            mint,
		ProgramID:       ProgramID,
		Decimals:        decoded.Decimals,
		Supply:          decoded.Supply,
		MintAuthority:   decoded.MintAuthority,
		FreezeAuthority: decoded.FreezeAuthority,
		Metadata:        decoded.Metadata,
		MerkleContext: &MintMerkleContext{
			Hash:         account.Hash,
			Address:      address,
			Tree:         compressedtoken.StateTreeInfoFor(*account),
			LeafIndex:    account.LeafIndex,
			ProveByIndex: account.ProveByIndex,
		},
	}, nil
}

func decodeSPLMint(mint solana.PublicKey, info *rpc.AccountInfo) (MintInterface, error) {
	if len(info.Data) < token.MINT_SIZE {
		return MintInterface{}, fmt.Errorf("mint %s has %d bytes of data", mint, len(info.Data))
	}
	var decoded token.Mint
	if err := bin.NewBinDecoder(info.Data[:token.MINT_SIZE]).Decode(&decoded); err != nil {
		return MintInterface{}, fmt.Errorf("failed to decode mint %s: %w", mint, err)
	}
	return MintInterface{
		Mint:            mint,
		ProgramID:       info.Owner,
		Decimals:        decoded.Decimals,
		Supply:          decoded.Supply,
		MintAuthority:   decoded.MintAuthority,
		FreezeAuthority: decoded.FreezeAuthority,
	}, nil
}
