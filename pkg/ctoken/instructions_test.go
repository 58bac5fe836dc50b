package ctoken

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

func instructionData(t *testing.T, instruction solana.Instruction) []byte {
	t.Helper()
	data, err := instruction.Data()
	require.NoError(t, err)
	return data
}

func testPool(t *testing.T, mint solana.PublicKey) compressedtoken.TokenPoolInfo {
	t.Helper()
	pda, bump, err := compressedtoken.TokenPoolPDA(mint, 0)
	require.NoError(t, err)
	return compressedtoken.TokenPoolInfo{
		Mint:          mint,
		TokenPoolPDA:  pda,
		TokenProgram:  solana.TokenProgramID,
		Bump:          bump,
		IsInitialized: true,
		Balance:       1_000,
	}
}

func TestCreateAssociatedTokenAccountInterfaceInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ata := GetAssociatedTokenAddressInterface(mint, owner)
	_, bump, err := associatedTokenAddress(mint, owner)
	require.NoError(t, err)

	instruction, err := CreateAssociatedTokenAccountInterfaceInstruction(payer, ata, owner, mint, ProgramID)
	require.NoError(t, err)
	require.Equal(t, ProgramID, instruction.ProgramID())
	require.Equal(t, []byte{discriminatorCreateATA, bump, 0}, instructionData(t, instruction))

	accounts := instruction.Accounts()
	require.Len(t, accounts, 5)
	require.Equal(t, owner, accounts[0].PublicKey)
	require.Equal(t, payer, accounts[2].PublicKey)
	require.True(t, accounts[2].IsSigner)
	require.Equal(t, ata, accounts[3].PublicKey)
	require.True(t, accounts[3].IsWritable)

	idempotent, err := CreateAssociatedTokenAccountInterfaceIdempotentInstruction(payer, ata, owner, mint, ProgramID)
	require.NoError(t, err)
	require.Equal(t, discriminatorCreateATAIdempotent, instructionData(t, idempotent)[0])

	_, err = CreateAssociatedTokenAccountInterfaceInstruction(payer, solana.NewWallet().PublicKey(), owner, mint, ProgramID)
	require.ErrorContains(t, err, "does not match")
}

func TestCreateAssociatedTokenAccountInterfaceInstructionSPL(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ata, err := GetAssociatedTokenAddressForProgram(mint, owner, solana.Token2022ProgramID)
	require.NoError(t, err)

	instruction, err := CreateAssociatedTokenAccountInterfaceIdempotentInstruction(payer, ata, owner, mint, solana.Token2022ProgramID)
	require.NoError(t, err)
	require.Equal(t, solana.SPLAssociatedTokenAccountProgramID, instruction.ProgramID())
	require.Equal(t, []byte{1}, instructionData(t, instruction))

	accounts := instruction.Accounts()
	require.Len(t, accounts, 6)
	require.Equal(t, ata, accounts[1].PublicKey)
	require.Equal(t, solana.Token2022ProgramID, accounts[5].PublicKey)

	_, err = CreateAssociatedTokenAccountInterfaceInstruction(payer, ata, owner, mint, solana.NewWallet().PublicKey())
	require.ErrorContains(t, err, "unsupported token program")
}

func TestCreateTransferInterfaceInstruction(t *testing.T) {
	source := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	instruction, err := CreateTransferInterfaceInstruction(source, destination, owner, 1_500)
	require.NoError(t, err)

	data := instructionData(t, instruction)
	require.Len(t, data, 9)
	require.Equal(t, discriminatorTransfer, data[0])
	require.Equal(t, uint64(1_500), binary.LittleEndian.Uint64(data[1:]))

	accounts := instruction.Accounts()
	require.Len(t, accounts, 3)
	require.True(t, accounts[0].IsWritable)
	require.True(t, accounts[1].IsWritable)
	require.True(t, accounts[2].IsSigner)
	require.False(t, accounts[2].IsWritable)

	_, err = CreateTransferInterfaceInstruction(source, destination, owner, 0)
	require.ErrorIs(t, err, compressedtoken.ErrInvalidAmount)
	_, err = CreateTransferInterfaceInstruction(source, source, owner, 1)
	require.Error(t, err)
}

func TestCreateWrapInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	source := solana.NewWallet().PublicKey()
	destination := GetAssociatedTokenAddressInterface(mint, owner)
	pool := testPool(t, mint)

	instruction, err := CreateWrapInstruction(source, destination, owner, mint, 250, pool, payer)
	require.NoError(t, err)

	data := instructionData(t, instruction)
	require.Len(t, data, 57)
	require.Equal(t, discriminatorTransfer2, data[0])
	require.Equal(t, byte(1), data[9])
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[10:14]))

	// compress from the SPL account into the pool
	require.Equal(t, byte(CompressionModeCompress), data[14])
	require.Equal(t, uint64(250), binary.LittleEndian.Uint64(data[15:23]))
	require.Equal(t, []byte{0, 2, 1, 4, 0, pool.Bump}, data[23:29])

	// decompress into the light token account
	require.Equal(t, byte(CompressionModeDecompress), data[29])
	require.Equal(t, uint64(250), binary.LittleEndian.Uint64(data[30:38]))
	require.Equal(t, []byte{0, 3, 0, 0, 0, 0}, data[38:44])

	accounts := instruction.Accounts()
	require.Len(t, accounts, 8)
	require.Equal(t, compressedtoken.CPIAuthorityPDA(), accounts[0].PublicKey)
	require.Equal(t, payer, accounts[1].PublicKey)
	require.Equal(t, owner, accounts[3].PublicKey)
	require.True(t, accounts[3].IsSigner)
	require.Equal(t, pool.TokenPoolPDA, accounts[6].PublicKey)
	require.True(t, accounts[6].IsWritable)

	_, err = CreateWrapInstruction(source, destination, owner, mint, 0, pool, payer)
	require.ErrorIs(t, err, compressedtoken.ErrInvalidAmount)

	pool.IsInitialized = false
	_, err = CreateWrapInstruction(source, destination, owner, mint, 1, pool, payer)
	require.ErrorIs(t, err, compressedtoken.ErrNoInitializedPool)
}

func TestCreateUnwrapInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	source := GetAssociatedTokenAddressInterface(mint, owner)
	destination := solana.NewWallet().PublicKey()
	pool := testPool(t, mint)

	instruction, err := CreateUnwrapInstruction(source, destination, owner, mint, 75, pool, payer)
	require.NoError(t, err)

	data := instructionData(t, instruction)
	require.Equal(t, []byte{0, 2, 1, 0, 0, 0}, data[23:29])
	require.Equal(t, []byte{0, 3, 0, 4, 0, pool.Bump}, data[38:44])
}

func TestCreateLoadInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	ata := GetAssociatedTokenAddressInterface(mint, owner)
	tree := compressedtoken.DefaultStateTreeInfos[0]

	accounts := make([]rpc.TokenAccount, 0, 2)
	for index, amount := range []uint64{30, 12} {
		queue := tree.Queue
		accounts = append(accounts, rpc.TokenAccount{
			Account: rpc.CompressedAccount{
				Hash:      rpc.Hash{byte(index + 1)},
				Tree:      tree.Tree,
				Queue:     &queue,
				LeafIndex: uint32(index + 7),
			},
			TokenData: rpc.TokenData{Mint: mint, Owner: owner, Amount: rpc.Amount(amount)},
		})
	}
	proof := &rpc.ValidityProof{
		CompressedProof: &rpc.CompressedProof{
			A: make([]byte, 32),
			B: make([]byte, 64),
			C: make([]byte, 32),
		},
		RootIndices: []uint16{4, 5},
	}

	instruction, err := CreateLoadInstruction(payer, ata, owner, mint, accounts, proof)
	require.NoError(t, err)

	data := instructionData(t, instruction)
	require.Equal(t, discriminatorTransfer2, data[0])
	// outputs of v1 trees go to the first packed account, the tree
	require.Equal(t, byte(0), data[5])
	require.Equal(t, byte(1), data[9])
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[10:14]))
	require.Equal(t, byte(CompressionModeDecompress), data[14])
	require.Equal(t, uint64(42), binary.LittleEndian.Uint64(data[15:23]))
	require.Equal(t, byte(3), data[24])

	// proof option and 128 proof bytes, then two inputs
	require.Equal(t, byte(1), data[29])
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[158:162]))
	require.Equal(t, uint64(30), binary.LittleEndian.Uint64(data[163:171]))

	metas := instruction.Accounts()
	require.Len(t, metas, 7+5)
	require.Equal(t, compressedtoken.LightSystemProgramID, metas[0].PublicKey)
	require.Equal(t, tree.Tree, metas[7].PublicKey)
	require.Equal(t, ata, metas[10].PublicKey)
	require.Equal(t, tree.Queue, metas[11].PublicKey)

	_, err = CreateLoadInstruction(payer, ata, owner, mint, nil, proof)
	require.ErrorIs(t, err, compressedtoken.ErrNoCompressedTokens)

	accounts[1].TokenData.Owner = solana.NewWallet().PublicKey()
	_, err = CreateLoadInstruction(payer, ata, owner, mint, accounts, proof)
	require.ErrorContains(t, err, "does not belong")
}

func TestCreateMintToInterfaceInstructionSPL(t *testing.T) {
	mint := MintInterface{
		Mint:      solana.NewWallet().PublicKey(),
		ProgramID: solana.Token2022ProgramID,
		Decimals:  6,
	}
	destination := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	instruction, err := CreateMintToInterfaceInstruction(mint, destination, authority, authority, 500, nil)
	require.NoError(t, err)
	require.Equal(t, solana.Token2022ProgramID, instruction.ProgramID())

	data := instructionData(t, instruction)
	require.Equal(t, byte(7), data[0])
	require.Equal(t, uint64(500), binary.LittleEndian.Uint64(data[1:9]))

	accounts := instruction.Accounts()
	require.Equal(t, mint.Mint, accounts[0].PublicKey)
	require.Equal(t, destination, accounts[1].PublicKey)
	require.True(t, accounts[2].IsSigner)
}

func TestCreateMintToInterfaceInstructionLight(t *testing.T) {
	authority := solana.NewWallet().PublicKey()
	mint := MintInterface{
		Mint:          solana.NewWallet().PublicKey(),
		ProgramID:     ProgramID,
		Decimals:      9,
		Supply:        10,
		MintAuthority: &authority,
		MerkleContext: &MintMerkleContext{
			Address:   rpc.Hash{0, 9},
			Tree:      compressedtoken.DefaultStateTreeInfos[0],
			LeafIndex: 4,
		},
	}
	destination := GetAssociatedTokenAddressInterface(mint.Mint, solana.NewWallet().PublicKey())
	payer := solana.NewWallet().PublicKey()

	_, err := CreateMintToInterfaceInstruction(mint, destination, authority, payer, 5, nil)
	require.ErrorContains(t, err, "validity proof")

	proof := &rpc.ValidityProof{
		CompressedProof: &rpc.CompressedProof{A: make([]byte, 32), B: make([]byte, 64), C: make([]byte, 32)},
		RootIndices:     []uint16{11},
	}
	instruction, err := CreateMintToInterfaceInstruction(mint, destination, authority, payer, 5, proof)
	require.NoError(t, err)
	require.Equal(t, ProgramID, instruction.ProgramID())

	data := instructionData(t, instruction)
	require.Equal(t, discriminatorMintAction, data[0])
	// no create_mint, leaf index, prove by index, root index, address
	require.Equal(t, byte(0), data[1])
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[2:6]))
	require.Equal(t, byte(0), data[6])
	require.Equal(t, uint16(11), binary.LittleEndian.Uint16(data[7:9]))
	require.Equal(t, mint.MerkleContext.Address[:], data[9:41])

	accounts := instruction.Accounts()
	// v1 trees write outputs to the tree itself
	require.Len(t, accounts, 8+3)
	require.Equal(t, authority, accounts[1].PublicKey)
	require.True(t, accounts[1].IsSigner)
	require.Equal(t, destination, accounts[10].PublicKey)
	require.True(t, accounts[10].IsWritable)

	_, err = CreateMintToInterfaceInstruction(mint, destination, authority, payer, 0, proof)
	require.ErrorIs(t, err, compressedtoken.ErrInvalidAmount)
}

func TestCreateMintInstruction(t *testing.T) {
	signer := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	payer := solana.NewWallet().PublicKey()
	metadata := CreateTokenMetadata("Example Token", "EXT", "https://example.com/metadata.json")
	proof := &rpc.ValidityProof{
		CompressedProof: &rpc.CompressedProof{A: make([]byte, 32), B: make([]byte, 64), C: make([]byte, 32)},
		RootIndices:     []uint16{3},
	}

	instruction, err := CreateMintInstruction(
		signer,
		9,
		authority,
		nil,
		payer,
		proof,
		compressedtoken.BatchAddressTreeInfo,
		compressedtoken.DefaultStateTreeInfos[0],
		&metadata,
	)
	require.NoError(t, err)

	mint, bump, err := FindMintAddress(signer)
	require.NoError(t, err)
	address := MintAddress(mint)

	data := instructionData(t, instruction)
	require.Equal(t, discriminatorMintAction, data[0])
	require.Equal(t, byte(1), data[1])
	require.Equal(t, bump, data[2])
	require.Equal(t, uint16(3), binary.LittleEndian.Uint16(data[3:5]))
	require.Equal(t, address[:], data[12:44])
	require.Equal(t, mint[:], data[46:78])

	accounts := instruction.Accounts()
	require.Len(t, accounts, 9+2)
	require.Equal(t, signer, accounts[1].PublicKey)
	require.True(t, accounts[1].IsSigner)
	require.Equal(t, compressedtoken.BatchAddressTreeInfo.Tree, accounts[10].PublicKey)

	_, err = CreateMintInstruction(signer, 9, authority, nil, payer, nil,
		compressedtoken.BatchAddressTreeInfo, compressedtoken.DefaultStateTreeInfos[0], nil)
	require.Error(t, err)

	invalid := CreateTokenMetadata("", "EXT", "")
	_, err = CreateMintInstruction(signer, 9, authority, nil, payer, proof,
		compressedtoken.BatchAddressTreeInfo, compressedtoken.DefaultStateTreeInfos[0], &invalid)
	require.ErrorContains(t, err, "name is required")
}
