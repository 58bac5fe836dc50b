package ctoken

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// CreateAssociatedTokenAccountInterfaceInstruction creates the ATA of owner
// under programID, which is the light token program or an SPL token program.
func CreateAssociatedTokenAccountInterfaceInstruction(
	payer solana.PublicKey,
	associatedToken solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	programID solana.PublicKey,
) (solana.Instruction, error) {
	return createAssociatedTokenAccount(payer, associatedToken, owner, mint, programID, false)
}

// CreateAssociatedTokenAccountInterfaceIdempotentInstruction is like
// CreateAssociatedTokenAccountInterfaceInstruction but succeeds when the
// account already exists.
func CreateAssociatedTokenAccountInterfaceIdempotentInstruction(
	payer solana.PublicKey,
	associatedToken solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	programID solana.PublicKey,
) (solana.Instruction, error) {
	return createAssociatedTokenAccount(payer, associatedToken, owner, mint, programID, true)
}

func createAssociatedTokenAccount(
	payer solana.PublicKey,
	associatedToken solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	programID solana.PublicKey,
	idempotent bool,
) (solana.Instruction, error) {
	if programID.IsZero() {
		programID = ProgramID
	}

	if isSPLTokenProgram(programID) {
		expected, err := GetAssociatedTokenAddressForProgram(mint, owner, programID)
		if err != nil {
			return nil, err
		}
		if !expected.Equals(associatedToken) {
			return nil, fmt.Errorf("associated token %s does not match derived %s", associatedToken, expected)
		}
		data := []byte{0}
		if idempotent {
			data[0] = 1
		}
		return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(associatedToken).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(programID),
		}, data), nil
	}

	if !programID.Equals(ProgramID) {
		return nil, fmt.Errorf("unsupported token program %s", programID)
	}
	expected, bump, err := associatedTokenAddress(mint, owner)
	if err != nil {
		return nil, err
	}
	if !expected.Equals(associatedToken) {
		return nil, fmt.Errorf("associated token %s does not match derived %s", associatedToken, expected)
	}

	discriminator := discriminatorCreateATA
	if idempotent {
		discriminator = discriminatorCreateATAIdempotent
	}
	// no compressible config
	data := []byte{discriminator, bump, 0}
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(owner),
		solana.Meta(mint),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(associatedToken).WRITE(),
		solana.Meta(solana.SystemProgramID),
	}, data), nil
}

// CreateTransferInterfaceInstruction moves hot balance between two light
// token accounts.
func CreateTransferInterfaceInstruction(source, destination, owner solana.PublicKey, amount uint64) (solana.Instruction, error) {
	if amount == 0 {
		return nil, compressedtoken.ErrInvalidAmount
	}
	if source.Equals(destination) {
		return nil, fmt.Errorf("source and destination are the same account %s", source)
	}

	w := compressedtoken.NewBorshWriter()
	w.U8(discriminatorTransfer)
	w.U64(amount)
	data, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{
		solana.Meta(source).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	}, data), nil
}

// CompressionMode selects the direction of a Compression entry.
type CompressionMode uint8

const (
	CompressionModeCompress   CompressionMode = 0
	CompressionModeDecompress CompressionMode = 1
)

// Compression moves balance between a token account and compressed or pooled
// balance. Pool fields are set when the account is an SPL account.
type Compression struct {
	Mode              CompressionMode
	Amount            uint64
	Mint              uint8
	SourceOrRecipient uint8
	Authority         uint8
	PoolAccountIndex  uint8
	PoolIndex         uint8
	Bump              uint8
}

func (c Compression) encode(w *compressedtoken.BorshWriter) {
	w.U8(uint8(c.Mode))
	w.U64(c.Amount)
	w.U8(c.Mint)
	w.U8(c.SourceOrRecipient)
	w.U8(c.Authority)
	w.U8(c.PoolAccountIndex)
	w.U8(c.PoolIndex)
	w.U8(c.Bump)
}

type transfer2Input struct {
	Owner        uint8
	Amount       uint64
	Delegate     *uint8
	Mint         uint8
	Version      uint8
	TreeIndex    uint8
	QueueIndex   uint8
	LeafIndex    uint32
	ProveByIndex bool
	RootIndex    uint16
}

func (i transfer2Input) encode(w *compressedtoken.BorshWriter) {
	w.U8(i.Owner)
	w.U64(i.Amount)
	w.Bool(i.Delegate != nil)
	if i.Delegate != nil {
		w.U8(*i.Delegate)
	} else {
		w.U8(0)
	}
	w.U8(i.Mint)
	w.U8(i.Version)
	w.U8(i.TreeIndex)
	w.U8(i.QueueIndex)
	w.U32(i.LeafIndex)
	w.Bool(i.ProveByIndex)
	w.U16(i.RootIndex)
}

type transfer2Params struct {
	Payer        solana.PublicKey
	Packed       *compressedtoken.PackedAccounts
	Proof        *compressedtoken.CompressedProof
	Inputs       []transfer2Input
	OutputQueue  uint8
	Compressions []Compression
}

func buildTransfer2(params transfer2Params) (solana.Instruction, error) {
	if err := params.Packed.Check(); err != nil {
		return nil, err
	}

	w := compressedtoken.NewBorshWriter()
	w.U8(discriminatorTransfer2)
	// with transaction hash, lamports change tree, lamports change owner
	w.Bool(false)
	w.Bool(false)
	w.U8(0)
	w.U8(0)
	w.U8(params.OutputQueue)
	// max top up
	w.U16(0)
	// cpi context
	w.Option(false)
	if w.Option(len(params.Compressions) > 0) {
		w.Length(len(params.Compressions))
		for _, compression := range params.Compressions {
			compression.encode(w)
		}
	}
	w.OptionalProof(params.Proof)
	w.Length(len(params.Inputs))
	for _, input := range params.Inputs {
		input.encode(w)
	}
	// no compressed outputs
	w.Length(0)
	// lamports and tlv, in and out
	w.Option(false)
	w.Option(false)
	w.Option(false)
	w.Option(false)
	data, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer2: %w", err)
	}

	var metas solana.AccountMetaSlice
	if len(params.Inputs) == 0 {
		metas = solana.AccountMetaSlice{
			solana.Meta(compressedtoken.CPIAuthorityPDA()),
			solana.Meta(params.Payer).WRITE().SIGNER(),
		}
	} else {
		metas = solana.AccountMetaSlice{
			solana.Meta(compressedtoken.LightSystemProgramID),
			solana.Meta(params.Payer).WRITE().SIGNER(),
			solana.Meta(compressedtoken.CPIAuthorityPDA()),
			solana.Meta(compressedtoken.RegisteredProgramPDA),
			solana.Meta(compressedtoken.AccountCompressionAuthority()),
			solana.Meta(compressedtoken.AccountCompressionProgramID),
			solana.Meta(solana.SystemProgramID),
		}
	}
	return solana.NewInstruction(ProgramID, append(metas, params.Packed.Metas()...), data), nil
}

// CreateWrapInstruction moves amount from the SPL account source into the
// pool and credits the light token account destination.
func CreateWrapInstruction(
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	amount uint64,
	pool compressedtoken.TokenPoolInfo,
	payer solana.PublicKey,
) (solana.Instruction, error) {
	if amount == 0 {
		return nil, compressedtoken.ErrInvalidAmount
	}
	if !pool.IsInitialized {
		return nil, compressedtoken.ErrNoInitializedPool
	}

	packed := compressedtoken.NewPackedAccounts()
	mintIndex := packed.Insert(mint, false)
	ownerIndex := packed.InsertSigner(owner, false)
	sourceIndex := packed.Insert(source, true)
	destinationIndex := packed.Insert(destination, true)
	poolIndex := packed.Insert(pool.TokenPoolPDA, true)
	packed.Insert(pool.TokenProgram, false)

	return buildTransfer2(transfer2Params{
		Payer:  payer,
		Packed: packed,
		Compressions: []Compression{
			{
				Mode:              CompressionModeCompress,
				Amount:            amount,
				Mint:              mintIndex,
				SourceOrRecipient: sourceIndex,
				Authority:         ownerIndex,
				PoolAccountIndex:  poolIndex,
				PoolIndex:         pool.PoolIndex,
				Bump:              pool.Bump,
			},
			{
				Mode:              CompressionModeDecompress,
				Amount:            amount,
				Mint:              mintIndex,
				SourceOrRecipient: destinationIndex,
			},
		},
	})
}

// CreateUnwrapInstruction moves amount from the light token account source
// out of the pool into the SPL account destination.
func CreateUnwrapInstruction(
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	amount uint64,
	pool compressedtoken.TokenPoolInfo,
	payer solana.PublicKey,
) (solana.Instruction, error) {
	return CreateUnwrapInstructionFromPools(source, destination, owner, mint, amount, []compressedtoken.TokenPoolInfo{pool}, payer)
}

// CreateUnwrapInstructionFromPools is CreateUnwrapInstruction drawing on
// several pools. With one pool the whole amount leaves it. With more, each
// pool in order gives up to its balance, and their combined balance must
// cover amount.
func CreateUnwrapInstructionFromPools(
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	amount uint64,
	pools []compressedtoken.TokenPoolInfo,
	payer solana.PublicKey,
) (solana.Instruction, error) {
	if amount == 0 {
		return nil, compressedtoken.ErrInvalidAmount
	}
	if len(pools) == 0 {
		return nil, compressedtoken.ErrNoTokenPool
	}
	for _, pool := range pools {
		if !pool.IsInitialized {
			return nil, compressedtoken.ErrNoInitializedPool
		}
	}
	shares, err := splitAcrossPools(amount, pools)
	if err != nil {
		return nil, err
	}

	packed := compressedtoken.NewPackedAccounts()
	mintIndex := packed.Insert(mint, false)
	ownerIndex := packed.InsertSigner(owner, false)
	sourceIndex := packed.Insert(source, true)
	destinationIndex := packed.Insert(destination, true)

	compressions := []Compression{{
		Mode:              CompressionModeCompress,
		Amount:            amount,
		Mint:              mintIndex,
		SourceOrRecipient: sourceIndex,
		Authority:         ownerIndex,
	}}
	for index, pool := range pools {
		if shares[index] == 0 {
			continue
		}
		poolIndex := packed.Insert(pool.TokenPoolPDA, true)
		compressions = append(compressions, Compression{
			Mode:              CompressionModeDecompress,
			Amount:            shares[index],
			Mint:              mintIndex,
			SourceOrRecipient: destinationIndex,
			PoolAccountIndex:  poolIndex,
			PoolIndex:         pool.PoolIndex,
			Bump:              pool.Bump,
		})
	}
	packed.Insert(pools[0].TokenProgram, false)

	return buildTransfer2(transfer2Params{
		Payer:        payer,
		Packed:       packed,
		Compressions: compressions,
	})
}

func splitAcrossPools(amount uint64, pools []compressedtoken.TokenPoolInfo) ([]uint64, error) {
	if len(pools) == 1 {
		return []uint64{amount}, nil
	}

	shares := make([]uint64, len(pools))
	remaining := amount
	var available uint64
	for index, pool := range pools {
		available += pool.Balance
		share := min(pool.Balance, remaining)
		shares[index] = share
		remaining -= share
	}
	if remaining > 0 {
		return nil, &compressedtoken.InsufficientBalanceError{Required: amount, Available: available}
	}
	return shares, nil
}

// CreateLoadInstruction decompresses the cold accounts into the light token
// account ata. Every account must belong to owner and mint.
func CreateLoadInstruction(
	payer solana.PublicKey,
	ata solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	accounts []rpc.TokenAccount,
	proof *rpc.ValidityProof,
) (solana.Instruction, error) {
	if len(accounts) == 0 {
		return nil, compressedtoken.ErrNoCompressedTokens
	}
	if len(accounts) > compressedtoken.DefaultMaxInputs {
		return nil, fmt.Errorf("cannot load more than %d accounts in one instruction", compressedtoken.DefaultMaxInputs)
	}
	if proof != nil && len(proof.RootIndices) < len(accounts) {
		return nil, fmt.Errorf("proof has %d root indices for %d inputs", len(proof.RootIndices), len(accounts))
	}

	packed := compressedtoken.NewPackedAccounts()
	first := compressedtoken.StateTreeInfoFor(accounts[0].Account)
	outputQueue := packed.Insert(first.OutputAccount(), true)
	mintIndex := packed.Insert(mint, false)
	ownerIndex := packed.InsertSigner(owner, false)
	ataIndex := packed.Insert(ata, true)

	inputs := make([]transfer2Input, 0, len(accounts))
	var total uint64
	for position, account := range accounts {
		if !account.TokenData.Mint.Equals(mint) || !account.TokenData.Owner.Equals(owner) {
			return nil, fmt.Errorf("compressed account %s does not belong to owner %s and mint %s", account.Account.Hash, owner, mint)
		}
		info := compressedtoken.StateTreeInfoFor(account.Account)
		input := transfer2Input{
			Owner:        ownerIndex,
			Amount:       uint64(account.TokenData.Amount),
			Mint:         mintIndex,
			Version:      tokenDataVersion(info.TreeType),
			TreeIndex:    packed.Insert(info.Tree, true),
			QueueIndex:   packed.Insert(info.Queue, true),
			LeafIndex:    account.Account.LeafIndex,
			ProveByIndex: account.Account.ProveByIndex,
		}
		if proof != nil {
			input.RootIndex = proof.RootIndices[position]
		}
		if account.TokenData.Delegate != nil {
			delegate := packed.Insert(*account.TokenData.Delegate, false)
			input.Delegate = &delegate
		}
		inputs = append(inputs, input)
		sum, err := compressedtoken.CheckedAdd(total, input.Amount)
		if err != nil {
			return nil, err
		}
		total = sum
	}

	compressedProof, err := compressedtoken.ProofFromRPC(proof)
	if err != nil {
		return nil, err
	}
	return buildTransfer2(transfer2Params{
		Payer:       payer,
		Packed:      packed,
		Proof:       compressedProof,
		Inputs:      inputs,
		OutputQueue: outputQueue,
		Compressions: []Compression{{
			Mode:              CompressionModeDecompress,
			Amount:            total,
			Mint:              mintIndex,
			SourceOrRecipient: ataIndex,
		}},
	})
}

func tokenDataVersion(treeType rpc.TreeType) uint8 {
	if treeType == rpc.TreeTypeStateV2 {
		return 3
	}
	return 1
}

type mintToAction struct {
	AccountIndex uint8
	Amount       uint64
}

type mintActionParams struct {
	MintSigner        *solana.PublicKey
	MintBump          uint8
	AddressRootIndex  uint16
	Authority         solana.PublicKey
	Payer             solana.PublicKey
	Mint              CompressedMint
	CompressedAddress rpc.Hash
	LeafIndex         uint32
	ProveByIndex      bool
	RootIndex         uint16
	Packed            *compressedtoken.PackedAccounts
	Actions           []mintToAction
	Proof             *compressedtoken.CompressedProof
}

func buildMintAction(params mintActionParams) (solana.Instruction, error) {
	if err := params.Packed.Check(); err != nil {
		return nil, err
	}

	w := compressedtoken.NewBorshWriter()
	w.U8(discriminatorMintAction)
	if w.Option(params.MintSigner != nil) {
		w.U8(params.MintBump)
		w.U16(params.AddressRootIndex)
	}
	w.U32(params.LeafIndex)
	w.Bool(params.ProveByIndex)
	w.U16(params.RootIndex)
	w.Raw(params.CompressedAddress[:])
	// token pool bump and index
	w.U8(0)
	w.U8(0)
	params.Mint.encode(w)
	w.Length(len(params.Actions))
	for _, action := range params.Actions {
		// MintToCToken
		w.U8(0)
		w.U8(action.AccountIndex)
		w.U64(action.Amount)
	}
	w.OptionalProof(params.Proof)
	// cpi context
	w.Option(false)
	data, err := w.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode mint action: %w", err)
	}

	metas := solana.AccountMetaSlice{solana.Meta(compressedtoken.LightSystemProgramID)}
	if params.MintSigner != nil {
		metas = append(metas, solana.Meta(*params.MintSigner).SIGNER())
	}
	metas = append(metas,
		solana.Meta(params.Authority).SIGNER(),
		solana.Meta(params.Payer).WRITE().SIGNER(),
		solana.Meta(compressedtoken.CPIAuthorityPDA()),
		solana.Meta(compressedtoken.RegisteredProgramPDA),
		solana.Meta(compressedtoken.AccountCompressionAuthority()),
		solana.Meta(compressedtoken.AccountCompressionProgramID),
		solana.Meta(solana.SystemProgramID),
	)
	return solana.NewInstruction(ProgramID, append(metas, params.Packed.Metas()...), data), nil
}

// CreateMintInstruction creates a light mint derived from mintSigner. proof
// must prove that the mint's compressed address is new in addressTree.
func CreateMintInstruction(
	mintSigner solana.PublicKey,
	decimals uint8,
	mintAuthority solana.PublicKey,
	freezeAuthority *solana.PublicKey,
	payer solana.PublicKey,
	proof *rpc.ValidityProof,
	addressTree compressedtoken.AddressTreeInfo,
	stateTree compressedtoken.StateTreeInfo,
	metadata *TokenMetadata,
) (solana.Instruction, error) {
	if metadata != nil {
		if err := metadata.Validate(); err != nil {
			return nil, err
		}
	}
	if proof == nil || proof.CompressedProof == nil || len(proof.RootIndices) == 0 {
		return nil, fmt.Errorf("a validity proof for the new mint address is required")
	}
	compressedProof, err := compressedtoken.ProofFromRPC(proof)
	if err != nil {
		return nil, err
	}

	mint, bump, err := FindMintAddress(mintSigner)
	if err != nil {
		return nil, err
	}
	authority := mintAuthority

	packed := compressedtoken.NewPackedAccounts()
	packed.Insert(stateTree.OutputAccount(), true)
	packed.Insert(addressTree.Tree, true)

	return buildMintAction(mintActionParams{
		MintSigner:       &mintSigner,
		MintBump:         bump,
		AddressRootIndex: proof.RootIndices[0],
		Authority:        mintAuthority,
		Payer:            payer,
		Mint: CompressedMint{
			SplMint:         mint,
			Decimals:        decimals,
			MintAuthority:   &authority,
			FreezeAuthority: freezeAuthority,
			Metadata:        metadata,
		},
		CompressedAddress: DeriveAddress(mint.Bytes(), addressTree.Tree, ProgramID),
		Packed:            packed,
		Proof:             compressedProof,
	})
}

// CreateMintToInterfaceInstruction mints amount to destination. Light mints
// are updated through the light token program and need proof unless the mint
// account is proven by index; SPL and Token-2022 mints use their own program.
func CreateMintToInterfaceInstruction(
	mint MintInterface,
	destination solana.PublicKey,
	authority solana.PublicKey,
	payer solana.PublicKey,
	amount uint64,
	proof *rpc.ValidityProof,
) (solana.Instruction, error) {
	if amount == 0 {
		return nil, compressedtoken.ErrInvalidAmount
	}

	if !mint.IsLight() {
		instruction, err := token.NewMintToInstruction(amount, mint.Mint, destination, authority, nil).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("failed to build mint to: %w", err)
		}
		return withProgram(instruction, mint.ProgramID)
	}

	context := mint.MerkleContext
	if !context.ProveByIndex && (proof == nil || proof.CompressedProof == nil) {
		return nil, fmt.Errorf("a validity proof for light mint %s is required", mint.Mint)
	}
	compressedProof, err := compressedtoken.ProofFromRPC(proof)
	if err != nil {
		return nil, err
	}
	var rootIndex uint16
	if proof != nil && len(proof.RootIndices) > 0 {
		rootIndex = proof.RootIndices[0]
	}

	packed := compressedtoken.NewPackedAccounts()
	packed.Insert(context.Tree.Tree, true)
	packed.Insert(context.Tree.Queue, true)
	packed.Insert(context.Tree.OutputAccount(), true)
	destinationIndex := packed.Insert(destination, true)

	return buildMintAction(mintActionParams{
		Authority:         authority,
		Payer:             payer,
		Mint:              mint.compressed(),
		CompressedAddress: context.Address,
		LeafIndex:         context.LeafIndex,
		ProveByIndex:      context.ProveByIndex,
		RootIndex:         rootIndex,
		Packed:            packed,
		Actions:           []mintToAction{{AccountIndex: destinationIndex, Amount: amount}},
		Proof:             compressedProof,
	})
}

// withProgram retargets an instruction built for the legacy token program at
// a layout-compatible program such as Token-2022.
func withProgram(instruction solana.Instruction, program solana.PublicKey) (solana.Instruction, error) {
	if program.IsZero() || instruction.ProgramID().Equals(program) {
		return instruction, nil
	}
	data, err := instruction.Data()
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(program, instruction.Accounts(), data), nil
}
