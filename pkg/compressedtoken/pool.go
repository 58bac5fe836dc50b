package compressedtoken

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// TokenPoolInfo describes one SPL interface pool of a mint.
type TokenPoolInfo struct {
	Mint          solana.PublicKey
	TokenPoolPDA  solana.PublicKey
	TokenProgram  solana.PublicKey
	PoolIndex     uint8
	Bump          uint8
	IsInitialized bool
	Balance       uint64
}

// GetTokenPoolInfos reads every pool PDA of mint. Pools that do not exist are
// returned with IsInitialized false. The first pool must exist.
func GetTokenPoolInfos(ctx context.Context, client *rpc.Client, mint solana.PublicKey) ([]TokenPoolInfo, error) {
	infos := make([]TokenPoolInfo, MaxTokenPools)
	addresses := make([]solana.PublicKey, MaxTokenPools)
	for index := uint8(0); index < MaxTokenPools; index++ {
		address, bump, err := TokenPoolPDA(mint, index)
		if err != nil {
			return nil, err
		}
		addresses[index] = address
		infos[index] = TokenPoolInfo{Mint: mint, TokenPoolPDA: address, PoolIndex: index, Bump: bump}
	}

	accounts, err := client.GetMultipleAccounts(ctx, addresses...)
	if err != nil {
		return nil, fmt.Errorf("failed to read token pools of %s: %w", mint, err)
	}
	if len(accounts) != len(addresses) {
		return nil, fmt.Errorf("expected %d pool accounts, got %d", len(addresses), len(accounts))
	}

	for index, account := range accounts {
		if account == nil {
			continue
		}
		balance, err := tokenAccountAmount(account.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode token pool %s: %w", addresses[index], err)
		}
		infos[index].IsInitialized = true
		infos[index].TokenProgram = account.Owner
		infos[index].Balance = balance
	}

	if !infos[0].IsInitialized {
		return nil, fmt.Errorf("%w: %s", ErrNoTokenPool, mint)
	}
	for index := range infos {
		if !infos[index].IsInitialized {
			infos[index].TokenProgram = infos[0].TokenProgram
		}
	}
	return infos, nil
}

// SelectTokenPoolInfo returns a random initialized pool, spreading write
// locks across pools when compressing or minting.
func SelectTokenPoolInfo(infos []TokenPoolInfo) (TokenPoolInfo, error) {
	initialized := make([]TokenPoolInfo, 0, len(infos))
	for _, info := range infos {
		if info.IsInitialized {
			initialized = append(initialized, info)
		}
	}
	if len(initialized) == 0 {
		return TokenPoolInfo{}, ErrNoInitializedPool
	}
	return initialized[rand.Intn(len(initialized))], nil
}

// SelectTokenPoolInfosForDecompression returns the first initialized pool
// whose balance covers amount. When no single pool does, every initialized
// pool is returned ordered by index.
func SelectTokenPoolInfosForDecompression(infos []TokenPoolInfo, amount uint64) ([]TokenPoolInfo, error) {
	if len(infos) == 0 {
		return nil, ErrNoTokenPool
	}

	initialized := make([]TokenPoolInfo, 0, len(infos))
	for _, info := range infos {
		if info.IsInitialized {
			initialized = append(initialized, info)
		}
	}
	if len(initialized) == 0 {
		return nil, ErrNoInitializedPool
	}
	sort.SliceStable(initialized, func(i, j int) bool {
		return initialized[i].PoolIndex < initialized[j].PoolIndex
	})

	allEmpty := true
	for _, info := range initialized {
		if info.Balance > 0 {
			allEmpty = false
		}
		if info.Balance >= amount {
			return []TokenPoolInfo{info}, nil
		}
	}
	if allEmpty {
		return nil, ErrEmptyTokenPools
	}
	return initialized, nil
}

func tokenAccountAmount(data []byte) (uint64, error) {
	var account token.Account
	if err := bin.NewBinDecoder(data).Decode(&account); err != nil {
		return 0, err
	}
	return account.Amount, nil
}
