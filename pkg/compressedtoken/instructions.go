package compressedtoken

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// CreateTokenPoolInstruction registers pool 0 for an existing mint.
func CreateTokenPoolInstruction(feePayer, mint, tokenProgram solana.PublicKey) (solana.Instruction, error) {
	pool, _, err := TokenPoolPDA(mint, 0)
	if err != nil {
		return nil, err
	}
	data, err := anchorData(discriminatorCreateTokenPool, nil, false)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(feePayer).WRITE().SIGNER(),
		solana.Meta(pool).WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(mint).WRITE(),
		solana.Meta(tokenProgram),
		solana.Meta(CPIAuthorityPDA()),
	}, data), nil
}

// AddTokenPoolInstruction registers an additional pool at index.
func AddTokenPoolInstruction(feePayer, mint, tokenProgram solana.PublicKey, index uint8) (solana.Instruction, error) {
	if index == 0 {
		return nil, fmt.Errorf("pool 0 is created with CreateTokenPoolInstruction")
	}
	pool, _, err := TokenPoolPDA(mint, index)
	if err != nil {
		return nil, err
	}
	previous, _, err := TokenPoolPDA(mint, index-1)
	if err != nil {
		return nil, err
	}

	data, err := anchorData(discriminatorAddTokenPool, []byte{index}, false)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(feePayer).WRITE().SIGNER(),
		solana.Meta(pool).WRITE(),
		solana.Meta(previous),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(mint).WRITE(),
		solana.Meta(tokenProgram),
		solana.Meta(CPIAuthorityPDA()),
	}, data), nil
}

type MintToParams struct {
	FeePayer        solana.PublicKey
	Authority       solana.PublicKey
	Mint            solana.PublicKey
	Recipients      []solana.PublicKey
	Amounts         []uint64
	OutputStateTree StateTreeInfo
	TokenPool       TokenPoolInfo
}

// MintToInstruction mints compressed tokens to every recipient through the
// selected pool.
func MintToInstruction(params MintToParams) (solana.Instruction, error) {
	amounts, err := broadcastAmounts(params.Recipients, params.Amounts)
	if err != nil {
		return nil, err
	}
	if !params.TokenPool.IsInitialized {
		return nil, ErrNoInitializedPool
	}

	w := NewBorshWriter()
	w.Length(len(params.Recipients))
	for _, recipient := range params.Recipients {
		w.PublicKey(recipient)
	}
	w.Length(len(amounts))
	for _, amount := range amounts {
		w.U64(amount)
	}
	// lamports
	w.Option(false)
	payload, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	data, err := anchorData(discriminatorMintTo, payload, false)
	if err != nil {
		return nil, err
	}

	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(params.FeePayer).WRITE().SIGNER(),
		solana.Meta(params.Authority).SIGNER(),
		solana.Meta(CPIAuthorityPDA()),
		solana.Meta(params.Mint).WRITE(),
		solana.Meta(params.TokenPool.TokenPoolPDA).WRITE(),
		solana.Meta(params.TokenPool.TokenProgram),
		solana.Meta(LightSystemProgramID),
		solana.Meta(RegisteredProgramPDA),
		solana.Meta(NoopProgramID),
		solana.Meta(AccountCompressionAuthority()),
		solana.Meta(AccountCompressionProgramID),
		solana.Meta(params.OutputStateTree.OutputAccount()).WRITE(),
		solana.Meta(ProgramID),
		solana.Meta(solana.SystemProgramID),
		// sol pool is unused
		solana.Meta(ProgramID),
	}, data), nil
}

// transferAccounts is the fixed account prefix of transfer-family
// instructions. Absent optional accounts are passed as the program id.
type transferAccounts struct {
	FeePayer     solana.PublicKey
	Authority    solana.PublicKey
	TokenPool    *solana.PublicKey
	TokenAccount *solana.PublicKey
	TokenProgram *solana.PublicKey
}

func (a transferAccounts) metas() solana.AccountMetaSlice {
	optional := func(key *solana.PublicKey, writable bool) *solana.AccountMeta {
		if key == nil {
			return solana.Meta(ProgramID)
		}
		return solana.NewAccountMeta(*key, writable, false)
	}

	return solana.AccountMetaSlice{
		solana.Meta(a.FeePayer).WRITE().SIGNER(),
		solana.Meta(a.Authority).SIGNER(),
		solana.Meta(CPIAuthorityPDA()),
		solana.Meta(LightSystemProgramID),
		solana.Meta(RegisteredProgramPDA),
		solana.Meta(NoopProgramID),
		solana.Meta(AccountCompressionAuthority()),
		solana.Meta(AccountCompressionProgramID),
		solana.Meta(ProgramID),
		optional(a.TokenPool, true),
		optional(a.TokenAccount, true),
		optional(a.TokenProgram, false),
		solana.Meta(solana.SystemProgramID),
	}
}

type transferPayload struct {
	Proof                      *CompressedProof
	Mint                       solana.PublicKey
	Inputs                     []inputTokenData
	Outputs                    []outputTokenData
	IsCompress                 bool
	CompressOrDecompressAmount *uint64
}

func (p transferPayload) encode() ([]byte, error) {
	w := NewBorshWriter()
	w.OptionalProof(p.Proof)
	w.PublicKey(p.Mint)
	// delegated transfer
	w.Option(false)
	writeInputs(w, p.Inputs)
	writeOutputs(w, p.Outputs)
	w.Bool(p.IsCompress)
	w.OptionalU64(p.CompressOrDecompressAmount)
	// cpi context
	w.Option(false)
	// lamports change account tree index
	w.Option(false)
	// with transaction hash
	w.Bool(false)
	return w.Bytes()
}

type TransferParams struct {
	Payer           solana.PublicKey
	InputAccounts   []rpc.TokenAccount
	Proof           *rpc.ValidityProof
	Recipient       solana.PublicKey
	Amount          uint64
	OutputStateTree StateTreeInfo
}

// TransferInstruction moves amount from the input accounts to recipient and
// returns the change to the input owner.
func TransferInstruction(params TransferParams) (solana.Instruction, error) {
	if params.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	mint, owner, err := commonMintAndOwner(params.InputAccounts)
	if err != nil {
		return nil, err
	}
	total, err := sumAmounts(params.InputAccounts)
	if err != nil {
		return nil, err
	}
	if total < params.Amount {
		return nil, &InsufficientBalanceError{Required: params.Amount, Available: total}
	}

	packed := NewPackedAccounts()
	inputs, err := packInputs(packed, params.InputAccounts, params.Proof)
	if err != nil {
		return nil, err
	}
	treeIndex := packed.Insert(params.OutputStateTree.OutputAccount(), true)

	outputs := []outputTokenData{{Owner: params.Recipient, Amount: params.Amount, TreeIndex: treeIndex}}
	if change := total - params.Amount; change > 0 {
		outputs = append(outputs, outputTokenData{Owner: owner, Amount: change, TreeIndex: treeIndex})
	}

	proof, err := ProofFromRPC(params.Proof)
	if err != nil {
		return nil, err
	}
	return buildTransfer(transferAccounts{FeePayer: params.Payer, Authority: owner}, packed, transferPayload{
		Proof:   proof,
		Mint:    mint,
		Inputs:  inputs,
		Outputs: outputs,
	})
}

type CompressParams struct {
	Payer           solana.PublicKey
	Owner           solana.PublicKey
	Source          solana.PublicKey
	Mint            solana.PublicKey
	Recipients      []solana.PublicKey
	Amounts         []uint64
	OutputStateTree StateTreeInfo
	TokenPool       TokenPoolInfo
}

// CompressInstruction moves SPL tokens from Source into the pool and creates
// one compressed account per recipient.
func CompressInstruction(params CompressParams) (solana.Instruction, error) {
	amounts, err := broadcastAmounts(params.Recipients, params.Amounts)
	if err != nil {
		return nil, err
	}
	if !params.TokenPool.IsInitialized {
		return nil, ErrNoInitializedPool
	}

	packed := NewPackedAccounts()
	treeIndex := packed.Insert(params.OutputStateTree.OutputAccount(), true)

	outputs := make([]outputTokenData, 0, len(amounts))
	var total uint64
	for position, amount := range amounts {
		outputs = append(outputs, outputTokenData{
			Owner:     params.Recipients[position],
			Amount:    amount,
			TreeIndex: treeIndex,
		})
		if total, err = CheckedAdd(total, amount); err != nil {
			return nil, err
		}
	}

	pool := params.TokenPool.TokenPoolPDA
	source := params.Source
	tokenProgram := params.TokenPool.TokenProgram
	return buildTransfer(transferAccounts{
		FeePayer:     params.Payer,
		Authority:    params.Owner,
		TokenPool:    &pool,
		TokenAccount: &source,
		TokenProgram: &tokenProgram,
	}, packed, transferPayload{
		Mint:                       params.Mint,
		Outputs:                    outputs,
		IsCompress:                 true,
		CompressOrDecompressAmount: &total,
	})
}

type DecompressParams struct {
	Payer           solana.PublicKey
	InputAccounts   []rpc.TokenAccount
	Proof           *rpc.ValidityProof
	Destination     solana.PublicKey
	Amount          uint64
	TokenPools      []TokenPoolInfo
	OutputStateTree StateTreeInfo
}

// DecompressInstruction releases amount from the pools into Destination. The
// first pool is the primary one; the others are appended as remaining
// accounts.
func DecompressInstruction(params DecompressParams) (solana.Instruction, error) {
	if params.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	if len(params.TokenPools) == 0 {
		return nil, ErrNoTokenPool
	}
	mint, owner, err := commonMintAndOwner(params.InputAccounts)
	if err != nil {
		return nil, err
	}
	total, err := sumAmounts(params.InputAccounts)
	if err != nil {
		return nil, err
	}
	if total < params.Amount {
		return nil, &InsufficientBalanceError{Required: params.Amount, Available: total}
	}

	packed := NewPackedAccounts()
	inputs, err := packInputs(packed, params.InputAccounts, params.Proof)
	if err != nil {
		return nil, err
	}

	outputs := make([]outputTokenData, 0, 1)
	if change := total - params.Amount; change > 0 {
		treeIndex := packed.Insert(params.OutputStateTree.OutputAccount(), true)
		outputs = append(outputs, outputTokenData{Owner: owner, Amount: change, TreeIndex: treeIndex})
	}
	for _, pool := range params.TokenPools[1:] {
		packed.Insert(pool.TokenPoolPDA, true)
	}

	proof, err := ProofFromRPC(params.Proof)
	if err != nil {
		return nil, err
	}
	amount := params.Amount
	pool := params.TokenPools[0].TokenPoolPDA
	destination := params.Destination
	tokenProgram := params.TokenPools[0].TokenProgram
	return buildTransfer(transferAccounts{
		FeePayer:     params.Payer,
		Authority:    owner,
		TokenPool:    &pool,
		TokenAccount: &destination,
		TokenProgram: &tokenProgram,
	}, packed, transferPayload{
		Proof:                      proof,
		Mint:                       mint,
		Inputs:                     inputs,
		Outputs:                    outputs,
		CompressOrDecompressAmount: &amount,
	})
}

func buildTransfer(accounts transferAccounts, packed *PackedAccounts, payload transferPayload) (solana.Instruction, error) {
	if err := packed.Check(); err != nil {
		return nil, err
	}
	encoded, err := payload.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}
	data, err := anchorData(discriminatorTransfer, encoded, true)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, append(accounts.metas(), packed.Metas()...), data), nil
}

type ApproveParams struct {
	Payer           solana.PublicKey
	InputAccounts   []rpc.TokenAccount
	Proof           *rpc.ValidityProof
	Delegate        solana.PublicKey
	Amount          uint64
	OutputStateTree StateTreeInfo
}

// ApproveInstruction delegates amount of the input accounts to Delegate. The
// program writes a delegated account and a change account.
func ApproveInstruction(params ApproveParams) (solana.Instruction, error) {
	if params.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	mint, owner, err := commonMintAndOwner(params.InputAccounts)
	if err != nil {
		return nil, err
	}
	total, err := sumAmounts(params.InputAccounts)
	if err != nil {
		return nil, err
	}
	if total < params.Amount {
		return nil, &InsufficientBalanceError{Required: params.Amount, Available: total}
	}

	packed := NewPackedAccounts()
	inputs, err := packInputs(packed, params.InputAccounts, params.Proof)
	if err != nil {
		return nil, err
	}
	treeIndex := packed.Insert(params.OutputStateTree.OutputAccount(), true)

	proof, err := ProofFromRPC(params.Proof)
	if err != nil {
		return nil, err
	}

	w := NewBorshWriter()
	writeRequiredProof(w, proof)
	w.PublicKey(mint)
	writeInputs(w, inputs)
	// cpi context
	w.Option(false)
	w.PublicKey(params.Delegate)
	w.U64(params.Amount)
	w.U8(treeIndex)
	w.U8(treeIndex)
	// delegate lamports
	w.Option(false)

	return buildGeneric(discriminatorApprove, w, params.Payer, owner, packed)
}

type RevokeParams struct {
	Payer           solana.PublicKey
	InputAccounts   []rpc.TokenAccount
	Proof           *rpc.ValidityProof
	OutputStateTree StateTreeInfo
}

// RevokeInstruction merges the delegated input accounts into one account
// without a delegate.
func RevokeInstruction(params RevokeParams) (solana.Instruction, error) {
	mint, owner, err := commonMintAndOwner(params.InputAccounts)
	if err != nil {
		return nil, err
	}

	packed := NewPackedAccounts()
	inputs, err := packInputs(packed, params.InputAccounts, params.Proof)
	if err != nil {
		return nil, err
	}
	treeIndex := packed.Insert(params.OutputStateTree.OutputAccount(), true)

	proof, err := ProofFromRPC(params.Proof)
	if err != nil {
		return nil, err
	}

	w := NewBorshWriter()
	writeRequiredProof(w, proof)
	w.PublicKey(mint)
	writeInputs(w, inputs)
	// cpi context
	w.Option(false)
	w.U8(treeIndex)

	return buildGeneric(discriminatorRevoke, w, params.Payer, owner, packed)
}

// writeRequiredProof writes a zero proof when every input is proven by index.
func writeRequiredProof(w *BorshWriter, proof *CompressedProof) {
	if proof == nil {
		proof = &CompressedProof{}
	}
	w.Proof(*proof)
}

func buildGeneric(
	discriminator [8]byte,
	w *BorshWriter,
	payer solana.PublicKey,
	authority solana.PublicKey,
	packed *PackedAccounts,
) (solana.Instruction, error) {
	if err := packed.Check(); err != nil {
		return nil, err
	}
	encoded, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	data, err := anchorData(discriminator, encoded, true)
	if err != nil {
		return nil, err
	}

	metas := solana.AccountMetaSlice{
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(authority).SIGNER(),
		solana.Meta(CPIAuthorityPDA()),
		solana.Meta(LightSystemProgramID),
		solana.Meta(RegisteredProgramPDA),
		solana.Meta(NoopProgramID),
		solana.Meta(AccountCompressionAuthority()),
		solana.Meta(AccountCompressionProgramID),
		solana.Meta(ProgramID),
		solana.Meta(solana.SystemProgramID),
	}
	return solana.NewInstruction(ProgramID, append(metas, packed.Metas()...), data), nil
}

func commonMintAndOwner(accounts []rpc.TokenAccount) (solana.PublicKey, solana.PublicKey, error) {
	if len(accounts) == 0 {
		return solana.PublicKey{}, solana.PublicKey{}, ErrNoCompressedTokens
	}
	mint := accounts[0].TokenData.Mint
	owner := accounts[0].TokenData.Owner
	for _, account := range accounts[1:] {
		if !account.TokenData.Mint.Equals(mint) {
			return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("input accounts span mints %s and %s", mint, account.TokenData.Mint)
		}
		if !account.TokenData.Owner.Equals(owner) {
			return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("input accounts span owners %s and %s", owner, account.TokenData.Owner)
		}
	}
	return mint, owner, nil
}

// broadcastAmounts pairs amounts with recipients. A single amount applies to
// every recipient.
func broadcastAmounts(recipients []solana.PublicKey, amounts []uint64) ([]uint64, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	if len(amounts) == 1 && len(recipients) > 1 {
		broadcast := make([]uint64, len(recipients))
		for index := range broadcast {
			broadcast[index] = amounts[0]
		}
		amounts = broadcast
	}
	if len(amounts) != len(recipients) {
		return nil, fmt.Errorf("got %d amounts for %d recipients", len(amounts), len(recipients))
	}
	for _, amount := range amounts {
		if amount == 0 {
			return nil, ErrInvalidAmount
		}
	}
	return amounts, nil
}
