package rpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// AccountInfo is the raw on-chain state of an account.
type AccountInfo struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// GetLatestBlockhash returns the requested value.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.solana.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	if result == nil || result.Value == nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: empty response")
	}
	return result.Value.Blockhash, nil
}

// GetAccountInfo returns the account, or nil when it does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*AccountInfo, error) {
	result, err := c.solana.GetAccountInfoWithOpts(ctx, address, &solanarpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if errors.Is(err, solanarpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	return &AccountInfo{
		Address:  address,
		Owner:    result.Value.Owner,
		Lamports: result.Value.Lamports,
		Data:     result.GetBinary(),
	}, nil
}

// GetMultipleAccounts returns accounts in request order; missing ones are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses ...solana.PublicKey) ([]*AccountInfo, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	result, err := c.solana.GetMultipleAccountsWithOpts(ctx, addresses, &solanarpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get multiple accounts: %w", err)
	}
	if len(result.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts returned %d accounts for %d addresses", len(result.Value), len(addresses))
	}

	accounts := make([]*AccountInfo, len(addresses))
	for index, account := range result.Value {
		if account == nil {
			continue
		}
		var data []byte
		if account.Data != nil {
			data = account.Data.GetBinary()
		}
		accounts[index] = &AccountInfo{
			Address:  addresses[index],
			Owner:    account.Owner,
			Lamports: account.Lamports,
			Data:     data,
		}
	}
	return accounts, nil
}

// GetMinimumBalanceForRentExemption returns the requested value.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := c.solana.GetMinimumBalanceForRentExemption(ctx, size, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get rent exemption for %d bytes: %w", size, err)
	}
	return lamports, nil
}

// GetBalance returns the requested value.
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	result, err := c.solana.GetBalance(ctx, address, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance of %s: %w", address, err)
	}
	return result.Value, nil
}

// GetTokenAccountBalance returns the raw amount held by an SPL token account.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (uint64, uint8, error) {
	result, err := c.solana.GetTokenAccountBalance(ctx, account, c.commitment)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get token balance of %s: %w", account, err)
	}
	if result == nil || result.Value == nil {
		return 0, 0, fmt.Errorf("failed to get token balance of %s: empty response", account)
	}

	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid token amount %q: %w", result.Value.Amount, err)
	}
	return amount, result.Value.Decimals, nil
}

// GetSignaturesForAddress returns the requested value.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address solana.PublicKey, limit int) ([]SignatureInfo, error) {
	opts := &solanarpc.GetSignaturesForAddressOpts{Commitment: c.commitment}
	if limit > 0 {
		opts.Limit = &limit
	}

	result, err := c.solana.GetSignaturesForAddressWithOpts(ctx, address, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get signatures for %s: %w", address, err)
	}

	signatures := make([]SignatureInfo, 0, len(result))
	for _, entry := range result {
		if entry == nil {
			continue
		}
		info := SignatureInfo{Signature: entry.Signature, Slot: entry.Slot, Err: entry.Err}
		if entry.BlockTime != nil {
			blockTime := int64(*entry.BlockTime)
			info.BlockTime = &blockTime
		}
		signatures = append(signatures, info)
	}
	return signatures, nil
}
