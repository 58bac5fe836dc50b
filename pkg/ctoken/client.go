package ctoken

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/rs/zerolog"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

const (
	createMintComputeUnits = 500_000
	mintToComputeUnits     = 500_000
	loadComputeUnits       = 500_000
	wrapComputeUnits       = 200_000
)

var ErrNothingToLoad = errors.New("nothing to load")

// Client runs light token actions. Compressed-token actions it builds on are
// available through Compressed.
type Client struct {
	rpc        *rpc.Client
	compressed *compressedtoken.Client
	logger     zerolog.Logger
}

// NewClient creates a new Client.
func NewClient(rpcClient *rpc.Client) *Client {
	return &Client{
		rpc:        rpcClient,
		compressed: compressedtoken.NewClient(rpcClient),
		logger:     rpcClient.Logger(),
	}
}

// RPC returns the underlying RPC client.
func (c *Client) RPC() *rpc.Client {
	return c.rpc
}

// Compressed returns the compressed-token client sharing this client's RPC.
func (c *Client) Compressed() *compressedtoken.Client {
	return c.compressed
}

type CreateMintOptions struct {
	// MintSigner seeds a light mint, or is the mint keypair of an SPL mint.
	// A random keypair is generated when nil.
	MintSigner *solana.PrivateKey
	// TokenProgram selects an SPL or Token-2022 mint. The zero value creates
	// a light mint.
	TokenProgram solana.PublicKey
	Metadata     *TokenMetadata
}

type CreateMintResult struct {
	Mint      solana.PublicKey
	Signature solana.Signature
}

// CreateMintInterface creates a light mint, or an SPL/Token-2022 mint with a
// registered token pool when options.TokenProgram is set.
func (c *Client) CreateMintInterface(
	ctx context.Context,
	payer solana.PrivateKey,
	mintAuthority solana.PrivateKey,
	freezeAuthority *solana.PublicKey,
	decimals uint8,
	options CreateMintOptions,
) (CreateMintResult, error) {
	signer := options.MintSigner
	if signer == nil {
		generated, err := solana.NewRandomPrivateKey()
		if err != nil {
			return CreateMintResult{}, fmt.Errorf("failed to generate mint keypair: %w", err)
		}
		signer = &generated
	}

	if !options.TokenProgram.IsZero() && !options.TokenProgram.Equals(ProgramID) {
		if options.Metadata != nil {
			return CreateMintResult{}, fmt.Errorf("metadata is only supported for light mints")
		}
		return c.createSPLMint(ctx, payer, mintAuthority.PublicKey(), freezeAuthority, decimals, *signer, options.TokenProgram)
	}

	mint, _, err := FindMintAddress(signer.PublicKey())
	if err != nil {
		return CreateMintResult{}, err
	}
	addressTree := compressedtoken.BatchAddressTreeInfo
	address := DeriveAddress(mint.Bytes(), addressTree.Tree, ProgramID)

	proof, err := c.rpc.GetValidityProof(ctx, nil, []rpc.AddressWithTree{{
		Address: address,
		Tree:    addressTree.Tree,
		Queue:   addressTree.Queue,
	}})
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to get validity proof: %w", err)
	}
	stateTree, err := compressedtoken.SelectStateTreeInfo(c.compressed.StateTrees(), 0)
	if err != nil {
		return CreateMintResult{}, err
	}

	instruction, err := CreateMintInstruction(
		signer.PublicKey(),
		decimals,
		mintAuthority.PublicKey(),
		freezeAuthority,
		payer.PublicKey(),
		proof,
		addressTree,
		stateTree,
		options.Metadata,
	)
	if err != nil {
		return CreateMintResult{}, err
	}

	signature, err := c.send(ctx, createMintComputeUnits, []solana.Instruction{instruction}, payer, mintAuthority, *signer)
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to create light mint: %w", err)
	}

	c.logger.Debug().Str("mint", mint.String()).Str("signature", signature.String()).Msg("light mint created")
	return CreateMintResult{Mint: mint, Signature: signature}, nil
}

func (c *Client) createSPLMint(
	ctx context.Context,
	payer solana.PrivateKey,
	mintAuthority solana.PublicKey,
	freezeAuthority *solana.PublicKey,
	decimals uint8,
	mintKey solana.PrivateKey,
	tokenProgram solana.PublicKey,
) (CreateMintResult, error) {
	if !isSPLTokenProgram(tokenProgram) {
		return CreateMintResult{}, fmt.Errorf("unsupported token program %s", tokenProgram)
	}
	mint := mintKey.PublicKey()

	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, token.MINT_SIZE)
	if err != nil {
		return CreateMintResult{}, err
	}
	createAccount, err := system.NewCreateAccountInstruction(
		rent,
		token.MINT_SIZE,
		tokenProgram,
		payer.PublicKey(),
		mint,
	).ValidateAndBuild()
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to build create account: %w", err)
	}

	builder := token.NewInitializeMint2InstructionBuilder().
		SetDecimals(decimals).
		SetMintAuthority(mintAuthority).
		SetMintAccount(mint)
	if freezeAuthority != nil {
		builder.SetFreezeAuthority(*freezeAuthority)
	}
	initialize, err := builder.ValidateAndBuild()
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to build initialize mint: %w", err)
	}
	initializeMint, err := withProgram(initialize, tokenProgram)
	if err != nil {
		return CreateMintResult{}, err
	}

	createPool, err := compressedtoken.CreateTokenPoolInstruction(payer.PublicKey(), mint, tokenProgram)
	if err != nil {
		return CreateMintResult{}, err
	}

	signature, err := c.send(ctx, createMintComputeUnits, []solana.Instruction{createAccount, initializeMint, createPool}, payer, mintKey)
	if err != nil {
		return CreateMintResult{}, fmt.Errorf("failed to create mint: %w", err)
	}

	c.logger.Debug().
		Str("mint", mint.String()).
		Str("program", tokenProgram.String()).
		Str("signature", signature.String()).
		Msg("mint created")
	return CreateMintResult{Mint: mint, Signature: signature}, nil
}

// GetMintInterface reads a mint from chain or, for light mints, from the
// indexer.
func (c *Client) GetMintInterface(ctx context.Context, mint solana.PublicKey) (MintInterface, error) {
	return getMintInterface(ctx, c.rpc, mint)
}

// GetAtaInterface returns the hot and cold balance of owner's account at
// address.
func (c *Client) GetAtaInterface(
	ctx context.Context,
	address solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (AccountInterface, error) {
	return getAtaInterface(ctx, c.rpc, address, owner, mint)
}

// GetSplInterfaceInfos returns the token pools connecting mint to its SPL
// program.
func (c *Client) GetSplInterfaceInfos(ctx context.Context, mint solana.PublicKey) ([]compressedtoken.TokenPoolInfo, error) {
	return compressedtoken.GetTokenPoolInfos(ctx, c.rpc, mint)
}

// CreateAtaInterface creates the light token ATA of owner and returns its
// address and the creating transaction. It fails if the account exists.
func (c *Client) CreateAtaInterface(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
) (solana.PublicKey, solana.Signature, error) {
	return c.createAta(ctx, payer, mint, owner, false)
}

// CreateAtaInterfaceIdempotent is like CreateAtaInterface but succeeds when
// the account already exists.
func (c *Client) CreateAtaInterfaceIdempotent(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
) (solana.PublicKey, solana.Signature, error) {
	return c.createAta(ctx, payer, mint, owner, true)
}

func (c *Client) createAta(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
	idempotent bool,
) (solana.PublicKey, solana.Signature, error) {
	address := GetAssociatedTokenAddressInterface(mint, owner)
	instruction, err := createAssociatedTokenAccount(payer.PublicKey(), address, owner, mint, ProgramID, idempotent)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, err
	}
	signature, err := c.rpc.SendAndConfirm(ctx, []solana.Instruction{instruction}, payer)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, fmt.Errorf("failed to create light token account: %w", err)
	}
	c.logger.Debug().Str("ata", address.String()).Str("signature", signature.String()).Msg("light token account created")
	return address, signature, nil
}

// GetOrCreateAtaInterface returns owner's light token ATA, creating it when
// missing. When signer is owner's key, cold balance is loaded as well.
func (c *Client) GetOrCreateAtaInterface(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	owner solana.PublicKey,
	signer *solana.PrivateKey,
) (AccountInterface, error) {
	address := GetAssociatedTokenAddressInterface(mint, owner)

	account, err := getAtaInterface(ctx, c.rpc, address, owner, mint)
	if err != nil && !errors.Is(err, ErrTokenAccountNotFound) {
		return AccountInterface{}, err
	}

	if signer != nil && signer.PublicKey().Equals(owner) && account.NeedsLoad() {
		if _, err := c.LoadAta(ctx, payer, address, *signer, mint); err != nil {
			return AccountInterface{}, err
		}
		return getAtaInterface(ctx, c.rpc, address, owner, mint)
	}

	if !account.Exists {
		if _, _, err := c.CreateAtaInterfaceIdempotent(ctx, payer, mint, owner); err != nil {
			return AccountInterface{}, err
		}
		return getAtaInterface(ctx, c.rpc, address, owner, mint)
	}
	return account, nil
}

// MintToInterface mints amount of mint to destination. authority must be the
// mint authority.
func (c *Client) MintToInterface(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	destination solana.PublicKey,
	authority solana.PrivateKey,
	amount uint64,
) (solana.Signature, error) {
	info, err := getMintInterface(ctx, c.rpc, mint)
	if err != nil {
		return solana.Signature{}, err
	}

	var proof *rpc.ValidityProof
	if info.IsLight() {
		proof, err = c.rpc.GetValidityProof(ctx, []rpc.Hash{info.MerkleContext.Hash}, nil)
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to get validity proof: %w", err)
		}
	}

	instruction, err := CreateMintToInterfaceInstruction(info, destination, authority.PublicKey(), payer.PublicKey(), amount, proof)
	if err != nil {
		return solana.Signature{}, err
	}
	if !info.IsLight() {
		return c.rpc.SendAndConfirm(ctx, []solana.Instruction{instruction}, payer, authority)
	}
	return c.send(ctx, mintToComputeUnits, []solana.Instruction{instruction}, payer, authority)
}

// TransferInterface moves amount from owner's light token ATA to the light
// token account destination. Cold balance is loaded first when the hot
// balance does not cover amount.
func (c *Client) TransferInterface(
	ctx context.Context,
	payer solana.PrivateKey,
	mint solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PrivateKey,
	amount uint64,
) (solana.Signature, error) {
	if amount == 0 {
		return solana.Signature{}, compressedtoken.ErrInvalidAmount
	}

	source := GetAssociatedTokenAddressInterface(mint, owner.PublicKey())
	account, err := getAtaInterface(ctx, c.rpc, source, owner.PublicKey(), mint)
	if err != nil {
		return solana.Signature{}, err
	}
	if account.Amount() < amount {
		return solana.Signature{}, &compressedtoken.InsufficientBalanceError{Required: amount, Available: account.Amount()}
	}

	var instructions []solana.Instruction
	if account.HotAmount < amount {
		instructions, err = c.loadInstructions(ctx, account, payer.PublicKey())
		if err != nil {
			return solana.Signature{}, err
		}
	}

	transfer, err := CreateTransferInterfaceInstruction(source, destination, owner.PublicKey(), amount)
	if err != nil {
		return solana.Signature{}, err
	}
	if len(instructions) == 0 {
		return c.rpc.SendAndConfirm(ctx, []solana.Instruction{transfer}, payer, owner)
	}
	return c.send(ctx, loadComputeUnits, append(instructions, transfer), payer, owner)
}

// Wrap moves amount from the SPL account source into the light token account
// destination through one of the mint's token pools.
func (c *Client) Wrap(
	ctx context.Context,
	payer solana.PrivateKey,
	source solana.PublicKey,
	destination solana.PublicKey,
	owner solana.PrivateKey,
	mint solana.PublicKey,
	amount uint64,
) (solana.Signature, error) {
	infos, err := compressedtoken.GetTokenPoolInfos(ctx, c.rpc, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	pool, err := compressedtoken.SelectTokenPoolInfo(infos)
	if err != nil {
		return solana.Signature{}, err
	}

	instruction, err := CreateWrapInstruction(source, destination, owner.PublicKey(), mint, amount, pool, payer.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}
	return c.send(ctx, wrapComputeUnits, []solana.Instruction{instruction}, payer, owner)
}

// Unwrap moves amount from owner's light token ATA into the SPL account
// destination. Zero unwraps the full balance. Cold balance is loaded first.
func (c *Client) Unwrap(
	ctx context.Context,
	payer solana.PrivateKey,
	destination solana.PublicKey,
	owner solana.PrivateKey,
	mint solana.PublicKey,
	amount uint64,
) (solana.Signature, error) {
	source := GetAssociatedTokenAddressInterface(mint, owner.PublicKey())
	account, err := getAtaInterface(ctx, c.rpc, source, owner.PublicKey(), mint)
	if err != nil {
		return solana.Signature{}, err
	}
	if amount == 0 {
		amount = account.Amount()
	}
	if amount == 0 {
		return solana.Signature{}, compressedtoken.ErrInvalidAmount
	}
	if account.Amount() < amount {
		return solana.Signature{}, &compressedtoken.InsufficientBalanceError{Required: amount, Available: account.Amount()}
	}

	infos, err := compressedtoken.GetTokenPoolInfos(ctx, c.rpc, mint)
	if err != nil {
		return solana.Signature{}, err
	}
	pools, err := compressedtoken.SelectTokenPoolInfosForDecompression(infos, amount)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions, err := c.loadInstructions(ctx, account, payer.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}
	unwrap, err := CreateUnwrapInstructionFromPools(source, destination, owner.PublicKey(), mint, amount, pools, payer.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}

	units := uint32(wrapComputeUnits)
	if len(instructions) > 0 {
		units = loadComputeUnits
	}
	return c.send(ctx, units, append(instructions, unwrap), payer, owner)
}

// LoadAta moves every cold account of owner into the light token account
// ata, creating it when needed. ErrNothingToLoad is returned when there is no
// cold balance.
func (c *Client) LoadAta(
	ctx context.Context,
	payer solana.PrivateKey,
	ata solana.PublicKey,
	owner solana.PrivateKey,
	mint solana.PublicKey,
) (solana.Signature, error) {
	instructions, err := c.CreateLoadAtaInstructions(ctx, ata, owner.PublicKey(), mint, payer.PublicKey())
	if err != nil {
		return solana.Signature{}, err
	}
	if len(instructions) == 0 {
		return solana.Signature{}, ErrNothingToLoad
	}

	signature, err := c.send(ctx, loadComputeUnits, instructions, payer, owner)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to load %s: %w", ata, err)
	}
	c.logger.Debug().Str("ata", ata.String()).Str("signature", signature.String()).Msg("cold balance loaded")
	return signature, nil
}

// CreateLoadAtaInstructions returns the instructions that load owner's cold
// balance into ata. The result is empty when there is nothing to load.
func (c *Client) CreateLoadAtaInstructions(
	ctx context.Context,
	ata solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
	payer solana.PublicKey,
) ([]solana.Instruction, error) {
	account, err := getAtaInterface(ctx, c.rpc, ata, owner, mint)
	if errors.Is(err, ErrTokenAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.loadInstructions(ctx, account, payer)
}

func (c *Client) loadInstructions(ctx context.Context, account AccountInterface, payer solana.PublicKey) ([]solana.Instruction, error) {
	if !account.NeedsLoad() {
		return nil, nil
	}

	var instructions []solana.Instruction
	if !account.Exists {
		create, err := CreateAssociatedTokenAccountInterfaceIdempotentInstruction(
			payer,
			account.Address,
			account.Owner,
			account.Mint,
			ProgramID,
		)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, create)
	}

	cold := account.ColdAccounts
	for start := 0; start < len(cold); start += compressedtoken.DefaultMaxInputs {
		batch := cold[start:min(start+compressedtoken.DefaultMaxInputs, len(cold))]
		proof, err := c.rpc.GetValidityProof(ctx, compressedtoken.TokenAccountHashes(batch), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get validity proof: %w", err)
		}
		load, err := CreateLoadInstruction(payer, account.Address, account.Owner, account.Mint, batch, proof)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, load)
	}
	return instructions, nil
}

func (c *Client) send(
	ctx context.Context,
	units uint32,
	instructions []solana.Instruction,
	payer solana.PrivateKey,
	signers ...solana.PrivateKey,
) (solana.Signature, error) {
	budget, err := compressedtoken.ComputeUnitLimitInstruction(units)
	if err != nil {
		return solana.Signature{}, err
	}
	return c.rpc.SendAndConfirm(ctx, append([]solana.Instruction{budget}, instructions...), payer, signers...)
}
