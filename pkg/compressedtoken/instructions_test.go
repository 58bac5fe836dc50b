package compressedtoken

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

func instructionData(t *testing.T, instruction solana.Instruction) []byte {
	t.Helper()
	data, err := instruction.Data()
	require.NoError(t, err)
	return data
}

func initializedPool(mint solana.PublicKey, index uint8) TokenPoolInfo {
	pool, bump, _ := TokenPoolPDA(mint, index)
	return TokenPoolInfo{
		Mint:          mint,
		TokenPoolPDA:  pool,
		TokenProgram:  solana.TokenProgramID,
		PoolIndex:     index,
		Bump:          bump,
		IsInitialized: true,
		Balance:       1_000,
	}
}

func proofFor(count int) *rpc.ValidityProof {
	proof := &rpc.ValidityProof{
		CompressedProof: &rpc.CompressedProof{
			A: make(rpc.ByteArray, 32),
			B: make(rpc.ByteArray, 64),
			C: make(rpc.ByteArray, 32),
		},
		RootIndices: make([]uint16, count),
	}
	for index := range proof.RootIndices {
		proof.RootIndices[index] = uint16(10 + index)
	}
	return proof
}

func TestAnchorDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("global:mint_to"))
	require.Equal(t, sum[:8], discriminatorMintTo[:])

	seen := map[[8]byte]bool{}
	for _, discriminator := range [][8]byte{
		discriminatorCreateTokenPool,
		discriminatorAddTokenPool,
		discriminatorMintTo,
		discriminatorTransfer,
		discriminatorApprove,
		discriminatorRevoke,
	} {
		require.False(t, seen[discriminator])
		seen[discriminator] = true
	}
}

func TestCreateTokenPoolInstruction(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	instruction, err := CreateTokenPoolInstruction(payer, mint, solana.TokenProgramID)
	require.NoError(t, err)
	require.Equal(t, ProgramID, instruction.ProgramID())
	require.Equal(t, discriminatorCreateTokenPool[:], instructionData(t, instruction))

	accounts := instruction.Accounts()
	pool, _, _ := TokenPoolPDA(mint, 0)
	require.Len(t, accounts, 6)
	require.Equal(t, payer, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.Equal(t, pool, accounts[1].PublicKey)
	require.Equal(t, mint, accounts[3].PublicKey)
	require.Equal(t, CPIAuthorityPDA(), accounts[5].PublicKey)
}

func TestAddTokenPoolInstruction(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	_, err := AddTokenPoolInstruction(solana.NewWallet().PublicKey(), mint, solana.TokenProgramID, 0)
	require.Error(t, err)

	instruction, err := AddTokenPoolInstruction(solana.NewWallet().PublicKey(), mint, solana.TokenProgramID, 2)
	require.NoError(t, err)
	data := instructionData(t, instruction)
	require.Equal(t, discriminatorAddTokenPool[:], data[:8])
	require.Equal(t, byte(2), data[8])

	previous, _, _ := TokenPoolPDA(mint, 1)
	require.Equal(t, previous, instruction.Accounts()[2].PublicKey)
}

func TestMintToInstructionLayout(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	recipients := []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()}

	instruction, err := MintToInstruction(MintToParams{
		FeePayer:        solana.NewWallet().PublicKey(),
		Authority:       solana.NewWallet().PublicKey(),
		Mint:            mint,
		Recipients:      recipients,
		Amounts:         []uint64{7},
		OutputStateTree: DefaultStateTreeInfos[0],
		TokenPool:       initializedPool(mint, 0),
	})
	require.NoError(t, err)

	data := instructionData(t, instruction)
	require.Equal(t, discriminatorMintTo[:], data[:8])
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[8:12]))
	require.Equal(t, recipients[0][:], data[12:44])
	require.Equal(t, recipients[1][:], data[44:76])
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[76:80]))
	require.Equal(t, uint64(7), binary.LittleEndian.Uint64(data[80:88]))
	require.Equal(t, uint64(7), binary.LittleEndian.Uint64(data[88:96]))
	require.Equal(t, byte(0), data[96])
	require.Len(t, data, 97)

	accounts := instruction.Accounts()
	require.Len(t, accounts, 15)
	require.True(t, accounts[1].IsSigner)
	require.Equal(t, DefaultStateTreeInfos[0].Tree, accounts[11].PublicKey)
	require.True(t, accounts[11].IsWritable)
}

func TestMintToInstructionValidation(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	base := MintToParams{
		Mint:            mint,
		Recipients:      []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()},
		Amounts:         []uint64{1, 2, 3},
		OutputStateTree: DefaultStateTreeInfos[0],
		TokenPool:       initializedPool(mint, 0),
	}
	_, err := MintToInstruction(base)
	require.Error(t, err)

	base.Amounts = []uint64{0}
	_, err = MintToInstruction(base)
	require.ErrorIs(t, err, ErrInvalidAmount)

	base.Amounts = []uint64{1}
	base.TokenPool.IsInitialized = false
	_, err = MintToInstruction(base)
	require.ErrorIs(t, err, ErrNoInitializedPool)
}

func TestTransferInstructionOutputs(t *testing.T) {
	inputs := tokenAccounts(300, 200)
	recipient := solana.NewWallet().PublicKey()

	instruction, err := TransferInstruction(TransferParams{
		Payer:           solana.NewWallet().PublicKey(),
		InputAccounts:   inputs,
		Proof:           proofFor(2),
		Recipient:       recipient,
		Amount:          450,
		OutputStateTree: DefaultStateTreeInfos[0],
	})
	require.NoError(t, err)

	data := instructionData(t, instruction)
	require.Equal(t, discriminatorTransfer[:], data[:8])
	payloadLength := binary.LittleEndian.Uint32(data[8:12])
	require.Equal(t, int(payloadLength), len(data)-12)

	payload := data[12:]
	require.Equal(t, byte(1), payload[0])
	offset := 1 + 128
	require.Equal(t, inputs[0].TokenData.Mint[:], payload[offset:offset+32])
	offset += 32
	// no delegated transfer
	require.Equal(t, byte(0), payload[offset])
	offset++
	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(payload[offset:offset+4]))
	offset += 4

	// amount, delegate none, tree, queue, leaf, prove by index, root, lamports, tlv
	const inputSize = 8 + 1 + 1 + 1 + 4 + 1 + 2 + 1 + 1
	first := payload[offset : offset+inputSize]
	require.Equal(t, uint64(300), binary.LittleEndian.Uint64(first[0:8]))
	require.Equal(t, byte(0), first[8])
	require.Equal(t, byte(0), first[9])
	require.Equal(t, byte(1), first[10])
	require.Equal(t, uint16(10), binary.LittleEndian.Uint16(first[16:18]))
	offset += 2 * inputSize

	require.Equal(t, uint32(2), binary.LittleEndian.Uint32(payload[offset:offset+4]))
	offset += 4
	require.Equal(t, recipient[:], payload[offset:offset+32])
	require.Equal(t, uint64(450), binary.LittleEndian.Uint64(payload[offset+32:offset+40]))
	const outputSize = 32 + 8 + 1 + 1 + 1
	change := payload[offset+outputSize : offset+2*outputSize]
	require.Equal(t, inputs[0].TokenData.Owner[:], change[0:32])
	require.Equal(t, uint64(50), binary.LittleEndian.Uint64(change[32:40]))

	accounts := instruction.Accounts()
	require.Len(t, accounts, 13+2)
	require.Equal(t, inputs[0].TokenData.Owner, accounts[1].PublicKey)
	require.True(t, accounts[1].IsSigner)
	require.Equal(t, ProgramID, accounts[9].PublicKey)
	require.Equal(t, DefaultStateTreeInfos[0].Tree, accounts[13].PublicKey)
	require.Equal(t, DefaultStateTreeInfos[0].Queue, accounts[14].PublicKey)
	require.True(t, accounts[13].IsWritable)
}

func TestTransferInstructionExactAmountHasNoChange(t *testing.T) {
	instruction, err := TransferInstruction(TransferParams{
		Payer:           solana.NewWallet().PublicKey(),
		InputAccounts:   tokenAccounts(100),
		Proof:           proofFor(1),
		Recipient:       solana.NewWallet().PublicKey(),
		Amount:          100,
		OutputStateTree: DefaultStateTreeInfos[0],
	})
	require.NoError(t, err)

	payload := instructionData(t, instruction)[12:]
	offset := 1 + 128 + 32 + 1 + 4 + 20
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(payload[offset:offset+4]))
}

func TestTransferInstructionValidation(t *testing.T) {
	_, err := TransferInstruction(TransferParams{InputAccounts: tokenAccounts(10), Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = TransferInstruction(TransferParams{Amount: 1})
	require.ErrorIs(t, err, ErrNoCompressedTokens)

	_, err = TransferInstruction(TransferParams{InputAccounts: tokenAccounts(10), Proof: proofFor(1), Amount: 11})
	var balanceErr *InsufficientBalanceError
	require.ErrorAs(t, err, &balanceErr)

	mixed := tokenAccounts(10, 10)
	mixed[1].TokenData.Mint = solana.NewWallet().PublicKey()
	_, err = TransferInstruction(TransferParams{InputAccounts: mixed, Proof: proofFor(2), Amount: 5})
	require.Error(t, err)
}

func TestInstructionAmountOverflow(t *testing.T) {
	_, err := TransferInstruction(TransferParams{
		Payer:           solana.NewWallet().PublicKey(),
		InputAccounts:   tokenAccounts(math.MaxUint64, 10),
		Proof:           proofFor(2),
		Recipient:       solana.NewWallet().PublicKey(),
		Amount:          20,
		OutputStateTree: DefaultStateTreeInfos[0],
	})
	require.ErrorIs(t, err, ErrAmountOverflow)

	mint := solana.NewWallet().PublicKey()
	_, err = CompressInstruction(CompressParams{
		Payer:           solana.NewWallet().PublicKey(),
		Owner:           solana.NewWallet().PublicKey(),
		Source:          solana.NewWallet().PublicKey(),
		Mint:            mint,
		Recipients:      []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()},
		Amounts:         []uint64{math.MaxUint64, 1},
		OutputStateTree: DefaultStateTreeInfos[1],
		TokenPool:       initializedPool(mint, 0),
	})
	require.ErrorIs(t, err, ErrAmountOverflow)
}

func TestCompressInstruction(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	source := solana.NewWallet().PublicKey()
	pool := initializedPool(mint, 3)

	instruction, err := CompressInstruction(CompressParams{
		Payer:           solana.NewWallet().PublicKey(),
		Owner:           solana.NewWallet().PublicKey(),
		Source:          source,
		Mint:            mint,
		Recipients:      []solana.PublicKey{solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()},
		Amounts:         []uint64{100, 200},
		OutputStateTree: DefaultStateTreeInfos[1],
		TokenPool:       pool,
	})
	require.NoError(t, err)

	accounts := instruction.Accounts()
	require.Equal(t, pool.TokenPoolPDA, accounts[9].PublicKey)
	require.Equal(t, source, accounts[10].PublicKey)
	require.Equal(t, solana.TokenProgramID, accounts[11].PublicKey)
	require.Equal(t, DefaultStateTreeInfos[1].Tree, accounts[13].PublicKey)

	data := instructionData(t, instruction)
	// is_compress, Some(300), no cpi context, no lamports tree, no tx hash
	tail := data[len(data)-13:]
	require.Equal(t, byte(1), tail[0])
	require.Equal(t, byte(1), tail[1])
	require.Equal(t, uint64(300), binary.LittleEndian.Uint64(tail[2:10]))
	require.Equal(t, []byte{0, 0, 0}, tail[10:])
}

func TestDecompressInstructionAppendsExtraPools(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	inputs := tokenAccounts(500, 500)
	for index := range inputs {
		inputs[index].TokenData.Mint = mint
	}
	pools := []TokenPoolInfo{initializedPool(mint, 0), initializedPool(mint, 2)}
	destination := solana.NewWallet().PublicKey()

	instruction, err := DecompressInstruction(DecompressParams{
		Payer:           solana.NewWallet().PublicKey(),
		InputAccounts:   inputs,
		Proof:           proofFor(2),
		Destination:     destination,
		Amount:          700,
		TokenPools:      pools,
		OutputStateTree: DefaultStateTreeInfos[0],
	})
	require.NoError(t, err)

	accounts := instruction.Accounts()
	require.Equal(t, pools[0].TokenPoolPDA, accounts[9].PublicKey)
	require.Equal(t, destination, accounts[10].PublicKey)
	last := accounts[len(accounts)-1]
	require.Equal(t, pools[1].TokenPoolPDA, last.PublicKey)
	require.True(t, last.IsWritable)

	data := instructionData(t, instruction)
	tail := data[len(data)-13:]
	require.Equal(t, byte(0), tail[0])
	require.Equal(t, uint64(700), binary.LittleEndian.Uint64(tail[2:10]))

	_, err = DecompressInstruction(DecompressParams{InputAccounts: inputs, Amount: 1})
	require.ErrorIs(t, err, ErrNoTokenPool)
}

func TestApproveAndRevokeInstructions(t *testing.T) {
	inputs := tokenAccounts(400)
	delegate := solana.NewWallet().PublicKey()

	approve, err := ApproveInstruction(ApproveParams{
		Payer:           solana.NewWallet().PublicKey(),
		InputAccounts:   inputs,
		Proof:           proofFor(1),
		Delegate:        delegate,
		Amount:          150,
		OutputStateTree: DefaultStateTreeInfos[0],
	})
	require.NoError(t, err)
	data := instructionData(t, approve)
	require.Equal(t, discriminatorApprove[:], data[:8])
	require.Len(t, approve.Accounts(), 10+2)

	// delegate, amount, delegate tree, change tree, no lamports
	tail := data[len(data)-43:]
	require.Equal(t, delegate[:], tail[0:32])
	require.Equal(t, uint64(150), binary.LittleEndian.Uint64(tail[32:40]))
	require.Equal(t, []byte{0, 0, 0}, tail[40:])

	delegated := tokenAccounts(150)
	delegated[0].TokenData.Delegate = &delegate
	revoke, err := RevokeInstruction(RevokeParams{
		Payer:           solana.NewWallet().PublicKey(),
		InputAccounts:   delegated,
		Proof:           &rpc.ValidityProof{RootIndices: []uint16{0}},
		OutputStateTree: DefaultStateTreeInfos[0],
	})
	require.NoError(t, err)
	data = instructionData(t, revoke)
	require.Equal(t, discriminatorRevoke[:], data[:8])
	// zero proof is written when proving by index
	require.Equal(t, make([]byte, 128), data[12:140])

	accounts := revoke.Accounts()
	require.Len(t, accounts, 10+3)
	require.Equal(t, delegate, accounts[len(accounts)-1].PublicKey)
	require.False(t, accounts[len(accounts)-1].IsWritable)
}

func TestProofFromRPC(t *testing.T) {
	proof, err := ProofFromRPC(nil)
	require.NoError(t, err)
	require.Nil(t, proof)

	proof, err = ProofFromRPC(proofFor(1))
	require.NoError(t, err)
	require.NotNil(t, proof)

	_, err = ProofFromRPC(&rpc.ValidityProof{CompressedProof: &rpc.CompressedProof{A: make(rpc.ByteArray, 3)}})
	require.Error(t, err)
}
