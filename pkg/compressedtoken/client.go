package compressedtoken

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

const (
	createMintComputeUnits = 400_000
	transferComputeUnits   = 350_000
	mergeComputeUnits      = 1_000_000
)

// Client runs compressed-token actions: it reads state from the indexer,
// builds instructions and sends them through rpc.Client.
type Client struct {
	rpc        *rpc.Client
	logger     zerolog.Logger
	stateTrees []StateTreeInfo
}

// NewClient creates a new Client.
func NewClient(rpcClient *rpc.Client) *Client {
	return &Client{
		rpc:        rpcClient,
		logger:     rpcClient.Logger(),
		stateTrees: DefaultStateTreeInfos,
	}
}

// RPC returns the underlying RPC client.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// StateTrees returns the trees new compressed accounts are written to.
func (c *Client) StateTrees() []StateTreeInfo {
	return c.stateTrees
}

// ComputeUnitLimitInstruction sets the compute budget of a transaction.
func ComputeUnitLimitInstruction(units uint32) (solana.Instruction, error) {
	return computebudget.NewSetComputeUnitLimitInstruction(units).ValidateAndBuild()
}

type CreateMintResult struct {
	Mint      solana.PublicKey
	Signature solana.Signature
}

// CreateMint creates an SPL mint and registers its first token pool. A
// random mint keypair is generated when mintKey is nil.
func (c *Client) CreateMint(
	ctx context.Context,
	payer solana.PrivateKey,
	mintAuthority solana.PublicKey,
	decimals uint8,
	mintKey *solana.PrivateKey,
) (CreateMintResult, error) {
	if mintKey == nil {
		generated, err := solana.NewRandomPrivateKey()
		if err != nil {
			return CreateMintResult{}, fmt.Errorf("failed to generate mint keypair: %w", err)
		}
		mintKey = &generated
	}
	mint := mintKey.PublicKey()

	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MINT_SIZE)
	if err != nil {
		return CreateMintResult{}, err
	}

	createAccount, err := system.NewCreateAccountInstruction(
		rent,
		token.MINT_SIZE,
		solana.TokenProgramID,
		payer.PublicKey(),
		mint,
	).ValidateAndBuild()
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to build create account: %w", err)
	}

	initializeMint, err := token.NewInitializeMint2InstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(mintAuthority).
		SetMintAccount(mint).
		ValidateAndBuild()
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to build initialize mint: %w", err)
	}

	createPool, err := CreateTokenPoolInstruction(payer.PublicKey(), mint, solana.TokenProgramID)
	if err != nil {
		return CreateMintResult{}, err
	}

	budget, err := ComputeUnitLimitInstruction(createMintComputeUnits)
	if err != nil {
		return CreateMintResult{}, err
	}

	signature, err := c.rpc.SendAndConfirm(
		ctx,
		[]solana.Instruction{budget, createAccount, initializeMint, createPool},
		payer,
		*mintKey,
	)
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to create mint: %w", err)
	}

	c.logger.Debug().Str("mint", mint.String()).Str("signature", signature.String()).Msg("mint created")
	return CreateMintResult{Mint: mint, Signature: signature}, nil
}

// CreateTokenPool registers pool 0 for a mint created elsewhere.
func (c *Client) CreateTokenPool(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Signature, error) {
	if tokenProgram.IsZero() {
		tokenProgram = solana.TokenProgramID
	}
	instruction, err := CreateTokenPoolInstruction(payer.PublicKey(), mint, tokenProgram)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.rpc.SendAndConfirm(ctx, []solana.Instruction{instruction}, payer)
}

// AddTokenPool registers the pool at index once the previous one exists.
func (c *Client) AddTokenPool(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	index uint8,
) (solana.Signature, error) {
	infos, err := GetTokenPoolInfos(ctx, c.rpc, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	instruction, err := AddTokenPoolInstruction(payer.PublicKey(), mint, infos[0].TokenProgram, index)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.rpc.SendAndConfirm(ctx, []solana.Instruction{instruction}, payer)
}

// MintTo mints compressed tokens to one or many recipients. A single amount
// is applied to every recipient.
func (c *Client) MintTo(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	recipients []solana.PublicKey,
	authority solana.PrivateKey,
	amounts []uint64,
) (solana.Signature, error) {
	pool, err := c.selectPool(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	tree, err := SelectStateTreeInfo(c.stateTrees, 0)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := MintToInstruction(MintToParams{
		FeePayer:        payer.PublicKey(),
		Authority:       authority.PublicKey(),
		Mint:            mint,
		Recipients:      recipients,
		Amounts:         amounts,
		OutputStateTree: tree,
		TokenPool:       pool,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	return c.send(ctx, transferComputeUnits, []solana.Instruction{instruction}, payer, authority)
}

// Compress moves SPL tokens from source into compressed accounts owned by
// the recipients.
func (c *Client) Compress(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	amounts []uint64,
	owner solana.PrivateKey,
	source solana.PublicKey,
	recipients []solana.PublicKey,
) (solana.Signature, error) {
	pool, err := c.selectPool(ctx, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	tree, err := SelectStateTreeInfo(c.stateTrees, 0)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := CompressInstruction(CompressParams{
		Payer:           payer.PublicKey(),
		Owner:           owner.PublicKey(),
		Source:          source,
		Mint:            mint,
		Recipients:      recipients,
		Amounts:         amounts,
		OutputStateTree: tree,
		TokenPool:       pool,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	return c.send(ctx, transferComputeUnits, []solana.Instruction{instruction}, payer, owner)
}

// Decompress moves compressed tokens of owner into the SPL account
// destination. Pools are selected automatically when pools is empty.
func (c *Client) Decompress(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	amount uint64,
	owner solana.PrivateKey,
	destination solana.PublicKey,
	pools []TokenPoolInfo,
) (solana.Signature, error) {
	if amount == 0 {
		return solana.Signature{}, ErrInvalidAmount
	}

	if len(pools) == 0 {
		infos, err := GetTokenPoolInfos(ctx, c.rpc, mint)
		if err != nil {
			return solana.Signature{}, err
		}
		pools, err = SelectTokenPoolInfosForDecompression(infos, amount)
		if err != nil {
			return solana.Signature{}, err
		}
	}

	selected, proof, err := c.selectWithProof(ctx, owner.PublicKey(), mint, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	tree, err := c.changeTree(selected)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := DecompressInstruction(DecompressParams{
		Payer:           payer.PublicKey(),
		InputAccounts:   selected,
		Proof:           proof,
		Destination:     destination,
		Amount:          amount,
		TokenPools:      pools,
		OutputStateTree: tree,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	return c.send(ctx, transferComputeUnits, []solana.Instruction{instruction}, payer, owner)
}

// Transfer sends compressed tokens of owner to recipient.
func (c *Client) Transfer(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	amount uint64,
	owner solana.PrivateKey,
	recipient solana.PublicKey,
) (solana.Signature, error) {
	if amount == 0 {
		return solana.Signature{}, ErrInvalidAmount
	}

	selected, proof, err := c.selectWithProof(ctx, owner.PublicKey(), mint, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	tree, err := c.changeTree(selected)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := TransferInstruction(TransferParams{
		Payer:           payer.PublicKey(),
		InputAccounts:   selected,
		Proof:           proof,
		Recipient:       recipient,
		Amount:          amount,
		OutputStateTree: tree,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	return c.send(ctx, transferComputeUnits, []solana.Instruction{instruction}, payer, owner)
}

// Approve delegates amount of owner's compressed balance to delegate.
func (c *Client) Approve(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	amount uint64,
	owner solana.PrivateKey,
	delegate solana.PublicKey,
) (solana.Signature, error) {
	if amount == 0 {
		return solana.Signature{}, ErrInvalidAmount
	}

	selected, proof, err := c.selectWithProof(ctx, owner.PublicKey(), mint, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	tree, err := c.changeTree(selected)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := ApproveInstruction(ApproveParams{
		Payer:           payer.PublicKey(),
		InputAccounts:   selected,
		Proof:           proof,
		Delegate:        delegate,
		Amount:          amount,
		OutputStateTree: tree,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	return c.send(ctx, transferComputeUnits, []solana.Instruction{instruction}, payer, owner)
}

// Revoke removes the delegate from the given delegated accounts.
func (c *Client) Revoke(
	ctx context.Context,
	payer solana.PrivateKey,
	accounts []rpc.TokenAccount,
	owner solana.PrivateKey,
) (solana.Signature, error) {
	if len(accounts) == 0 {
		return solana.Signature{}, ErrNoCompressedTokens
	}
	if len(accounts) > DefaultMaxInputs {
		return solana.Signature{}, fmt.Errorf("cannot revoke more than %d accounts at once", DefaultMaxInputs)
	}

	proof, err := c.rpc.GetValidityProof(ctx, TokenAccountHashes(accounts), nil)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validity proof: %w", err)
	}
	tree, err := c.changeTree(accounts)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := RevokeInstruction(RevokeParams{
		Payer:           payer.PublicKey(),
		InputAccounts:   accounts,
		Proof:           proof,
		OutputStateTree: tree,
	})
	if err != nil {
		return solana.Signature{}, err
	}

	return c.send(ctx, transferComputeUnits, []solana.Instruction{instruction}, payer, owner)
}

// MergeTokenAccounts consolidates owner's compressed accounts of mint. Each
// group of up to DefaultMaxInputs accounts becomes one account.
func (c *Client) MergeTokenAccounts(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	owner solana.PrivateKey,
) (solana.Signature, error) {
	accounts, err := c.rpc.GetAllCompressedTokenAccountsByOwner(ctx, owner.PublicKey(), &mint)
	if err != nil {
		return solana.Signature{}, err
	}
	accounts = sortByAmountDescending(accounts)

	instructions := make([]solana.Instruction, 0)
	for start := 0; start < len(accounts); start += DefaultMaxInputs {
		end := min(start+DefaultMaxInputs, len(accounts))
		batch := SelectAccountsForMerge(accounts[start:end], DefaultMaxInputs)
		if len(batch) < 2 {
			continue
		}

		proof, err := c.rpc.GetValidityProof(ctx, TokenAccountHashes(batch), nil)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get validity proof: %w", err)
		}
		tree, err := c.changeTree(batch)
		if err != nil {
			return solana.Signature{}, err
		}
		amount, err := sumAmounts(batch)
		if err != nil {
			return solana.Signature{}, err
		}

		instruction, err := TransferInstruction(TransferParams{
			Payer:           payer.PublicKey(),
			InputAccounts:   batch,
			Proof:           proof,
			Recipient:       owner.PublicKey(),
			Amount:          amount,
			OutputStateTree: tree,
		})
		if err != nil {
			return solana.Signature{}, err
		}
		instructions = append(instructions, instruction)
	}

	if len(instructions) == 0 {
		return solana.Signature{}, fmt.Errorf("%w: nothing to merge for %s", ErrNoCompressedTokens, mint)
	}
	return c.send(ctx, mergeComputeUnits, instructions, payer, owner)
}

// CreateAssociatedTokenAccount creates the SPL associated token account of
// owner for mint and returns its address.
func (c *Client) CreateAssociatedTokenAccount(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
) (solana.PublicKey, error) {
	address, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	instruction, err := associatedtokenaccount.NewCreateInstruction(payer.PublicKey(), owner, mint).ValidateAndBuild()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to build create associated account: %w", err)
	}
	if _, err := c.rpc.SendAndConfirm(ctx, []solana.Instruction{instruction}, payer); err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create associated token account: %w", err)
	}
	return address, nil
}

// GetSPLTokenAccount reads and decodes an SPL token account.
func (c *Client) GetSPLTokenAccount(ctx context.Context, address solana.PublicKey) (*token.Account, error) {
	info, err := c.rpc.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("token account %s not found", address)
	}
	var account token.Account
	if err := bin.NewBinDecoder(info.Data).Decode(&account); err != nil {
		return nil, fmt.Errorf("failed to decode token account %s: %w", address, err)
	}
	return &account, nil
}

func (c *Client) selectPool(ctx context.Context, mint solana.PublicKey) (TokenPoolInfo, error) {
	infos, err := GetTokenPoolInfos(ctx, c.rpc, mint)
	if err != nil {
		return TokenPoolInfo{}, err
	}
	return SelectTokenPoolInfo(infos)
}

func (c *Client) selectWithProof(
	ctx context.Context,
	owner solana.PublicKey,
	mint solana.PublicKey,
	amount uint64,
) ([]rpc.TokenAccount, *rpc.ValidityProof, error) {
	accounts, err := c.rpc.GetAllCompressedTokenAccountsByOwner(ctx, owner, &mint)
	if err != nil {
		return nil, nil, err
	}
	if len(accounts) == 0 {
		return nil, nil, fmt.Errorf("%w: owner %s mint %s", ErrNoCompressedTokens, owner, mint)
	}

	selected, _, err := SelectMinCompressedTokenAccountsForTransfer(accounts, amount, DefaultMaxInputs)
	if err != nil {
		return nil, nil, err
	}

	proof, err := c.rpc.GetValidityProof(ctx, TokenAccountHashes(selected), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get validity proof: %w", err)
	}
	return selected, proof, nil
}

// changeTree keeps change in the tree of the first input.
func (c *Client) changeTree(accounts []rpc.TokenAccount) (StateTreeInfo, error) {
	if len(accounts) == 0 {
		return SelectStateTreeInfo(c.stateTrees, 0)
	}
	info := StateTreeInfoFor(accounts[0].Account)
	if info.Tree.IsZero() {
		return SelectStateTreeInfo(c.stateTrees, 0)
	}
	return info, nil
}

func (c *Client) send(
	ctx context.Context,
	units uint32,
	instructions []solana.Instruction,
	payer solana.PrivateKey,
	signers ...solana.PrivateKey,
) (solana.Signature, error) {
	budget, err := ComputeUnitLimitInstruction(units)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.rpc.SendAndConfirm(ctx, append([]solana.Instruction{budget}, instructions...), payer, signers...)
}
