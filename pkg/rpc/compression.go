package rpc

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const maxPages = 1000

// GetCompressedTokenAccountsByOwner returns the requested value.
func (c *Client) GetCompressedTokenAccountsByOwner(
	ctx context.Context,
	owner solana.PublicKey,
	options TokenAccountsOptions,
) (TokenAccountsPage, error) {
	return c.tokenAccountsPage(ctx, "getCompressedTokenAccountsByOwner", "owner", owner, options)
}

// GetCompressedTokenAccountsByDelegate returns the requested value.
func (c *Client) GetCompressedTokenAccountsByDelegate(
	ctx context.Context,
	delegate solana.PublicKey,
	options TokenAccountsOptions,
) (TokenAccountsPage, error) {
	return c.tokenAccountsPage(ctx, "getCompressedTokenAccountsByDelegate", "delegate", delegate, options)
}

// GetAllCompressedTokenAccountsByOwner follows cursors until every page is read.
func (c *Client) GetAllCompressedTokenAccountsByOwner(
	ctx context.Context,
	owner solana.PublicKey,
	mint *solana.PublicKey,
) ([]TokenAccount, error) {
	return c.allTokenAccounts(ctx, "getCompressedTokenAccountsByOwner", "owner", owner, mint)
}

// GetAllCompressedTokenAccountsByDelegate follows cursors until every page is read.
func (c *Client) GetAllCompressedTokenAccountsByDelegate(
	ctx context.Context,
	delegate solana.PublicKey,
	mint *solana.PublicKey,
) ([]TokenAccount, error) {
	return c.allTokenAccounts(ctx, "getCompressedTokenAccountsByDelegate", "delegate", delegate, mint)
}

// GetCompressedTokenBalancesByOwner returns per-mint compressed balances.
func (c *Client) GetCompressedTokenBalancesByOwner(
	ctx context.Context,
	owner solana.PublicKey,
	mint *solana.PublicKey,
) ([]TokenBalance, error) {
	params := map[string]any{"owner": owner.String()}
	if mint != nil {
		params["mint"] = mint.String()
	}

	var response contextValue[paginatedItems[TokenBalance]]
	if err := c.callCompression(ctx, "getCompressedTokenBalancesByOwnerV2", params, &response); err != nil {
		return nil, err
	}
	return response.Value.Items, nil
}

// GetCompressedTokenBalance sums every compressed account of owner for mint.
func (c *Client) GetCompressedTokenBalance(
	ctx context.Context,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (uint64, error) {
	accounts, err := c.GetAllCompressedTokenAccountsByOwner(ctx, owner, &mint)
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, account := range accounts {
		total += uint64(account.TokenData.Amount)
	}
	return total, nil
}

// GetCompressedAccount returns the account for an address or hash, or nil.
func (c *Client) GetCompressedAccount(
	ctx context.Context,
	address *Hash,
	hash *Hash,
) (*CompressedAccount, error) {
	if address == nil && hash == nil {
		return nil, fmt.Errorf("address or hash is required")
	}

	params := map[string]any{}
	if address != nil {
		params["address"] = address.String()
	}
	if hash != nil {
		params["hash"] = hash.String()
	}

	var response contextValue[*CompressedAccount]
	if err := c.callCompression(ctx, "getCompressedAccount", params, &response); err != nil {
		return nil, err
	}
	return response.Value, nil
}

// GetValidityProof requests a proof for existing account hashes and new
// addresses. The proof is produced by the indexer's prover.
func (c *Client) GetValidityProof(
	ctx context.Context,
	hashes []Hash,
	newAddresses []AddressWithTree,
) (*ValidityProof, error) {
	encodedHashes := make([]string, 0, len(hashes))
	for _, hash := range hashes {
		encodedHashes = append(encodedHashes, hash.String())
	}

	addresses := make([]map[string]string, 0, len(newAddresses))
	for _, address := range newAddresses {
		addresses = append(addresses, map[string]string{
			"address": address.Address.String(),
			"tree":    address.Tree.String(),
		})
	}

	params := map[string]any{
		"hashes":                encodedHashes,
		"newAddressesWithTrees": addresses,
	}

	var response contextValue[ValidityProof]
	if err := c.callCompression(ctx, "getValidityProof", params, &response); err != nil {
		return nil, err
	}

	proof := response.Value
	if len(proof.RootIndices) != len(hashes)+len(newAddresses) {
		return nil, fmt.Errorf(
			"validity proof returned %d root indices for %d inputs",
			len(proof.RootIndices),
			len(hashes)+len(newAddresses),
		)
	}
	return &proof, nil
}

// GetCompressionSignaturesForOwner returns one page of compression signatures.
func (c *Client) GetCompressionSignaturesForOwner(
	ctx context.Context,
	owner solana.PublicKey,
	cursor string,
	limit int,
) (SignaturesPage, error) {
	params := map[string]any{"owner": owner.String()}
	if cursor != "" {
		params["cursor"] = cursor
	}
	if limit > 0 {
		params["limit"] = limit
	}

	var response contextValue[paginatedItems[SignatureInfo]]
	if err := c.callCompression(ctx, "getCompressionSignaturesForOwner", params, &response); err != nil {
		return SignaturesPage{}, err
	}

	page := SignaturesPage{Context: response.Context, Items: response.Value.Items}
	if response.Value.Cursor != nil {
		page.Cursor = *response.Value.Cursor
	}
	return page, nil
}

// GetIndexerHealth returns the requested value.
func (c *Client) GetIndexerHealth(ctx context.Context) (string, error) {
	var status string
	if err := c.callCompression(ctx, "getIndexerHealth", nil, &status); err != nil {
		return "", err
	}
	return status, nil
}

// GetIndexerSlot returns the requested value.
func (c *Client) GetIndexerSlot(ctx context.Context) (uint64, error) {
	var slot uint64
	if err := c.callCompression(ctx, "getIndexerSlot", nil, &slot); err != nil {
		return 0, err
	}
	return slot, nil
}

func (c *Client) tokenAccountsPage(
	ctx context.Context,
	method string,
	key string,
	account solana.PublicKey,
	options TokenAccountsOptions,
) (TokenAccountsPage, error) {
	params := map[string]any{key: account.String()}
	if options.Mint != nil {
		params["mint"] = options.Mint.String()
	}
	if options.Cursor != "" {
		params["cursor"] = options.Cursor
	}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}

	var response contextValue[paginatedItems[TokenAccount]]
	if err := c.callCompression(ctx, method, params, &response); err != nil {
		return TokenAccountsPage{}, err
	}

	page := TokenAccountsPage{Context: response.Context, Items: response.Value.Items}
	if response.Value.Cursor != nil {
		page.Cursor = *response.Value.Cursor
	}
	return page, nil
}

func (c *Client) allTokenAccounts(
	ctx context.Context,
	method string,
	key string,
	account solana.PublicKey,
	mint *solana.PublicKey,
) ([]TokenAccount, error) {
	result := make([]TokenAccount, 0)
	options := TokenAccountsOptions{Mint: mint}

	for page := 0; page < maxPages; page++ {
		current, err := c.tokenAccountsPage(ctx, method, key, account, options)
		if err != nil {
			return nil, err
		}

		result = append(result, current.Items...)
		if current.Cursor == "" || current.Cursor == options.Cursor || len(current.Items) == 0 {
			return result, nil
		}
		options.Cursor = current.Cursor
	}

	return nil, fmt.Errorf("%s exceeded %d pages", method, maxPages)
}
