package rpc

import (
	"context"
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// GetSignaturesForOwnerInterface merges the owner's on-chain signatures with
// its compression signatures. Signatures are de-duplicated and ordered newest
// slot first.
func (c *Client) GetSignaturesForOwnerInterface(ctx context.Context, owner solana.PublicKey) (SignaturesForOwner, error) {
	onChain, err := c.GetSignaturesForAddress(ctx, owner, 0)
	if err != nil {
		return SignaturesForOwner{}, err
	}

	compressed := make([]SignatureInfo, 0)
	cursor := ""
	for page := 0; page < maxPages; page++ {
		current, err := c.GetCompressionSignaturesForOwner(ctx, owner, cursor, 0)
		if err != nil {
			return SignaturesForOwner{}, fmt.Errorf("failed to get compression signatures: %w", err)
		}
		compressed = append(compressed, current.Items...)
		if current.Cursor == "" || current.Cursor == cursor || len(current.Items) == 0 {
			break
		}
		cursor = current.Cursor
	}

	return SignaturesForOwner{
		Signatures: MergeSignatures(onChain, compressed),
		Solana:     onChain,
		Compressed: compressed,
	}, nil
}

// MergeSignatures combines signature lists, keeping the first occurrence of
// each signature, ordered by slot descending.
func MergeSignatures(lists ...[]SignatureInfo) []SignatureInfo {
	seen := make(map[solana.Signature]struct{})
	merged := make([]SignatureInfo, 0)
	for _, list := range lists {
		for _, info := range list {
			if _, exists := seen[info.Signature]; exists {
				continue
			}
			seen[info.Signature] = struct{}{}
			merged = append(merged, info)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Slot > merged[j].Slot
	})
	return merged
}
