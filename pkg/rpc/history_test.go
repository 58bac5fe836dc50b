package rpc

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/internal/rpctest"
)

func signatureInfo(seed byte, slot uint64) SignatureInfo {
	var signature solana.Signature
	signature[0] = seed
	return SignatureInfo{Signature: signature, Slot: slot}
}

func TestMergeSignatures(t *testing.T) {
	onChain := []SignatureInfo{signatureInfo(1, 10), signatureInfo(2, 30)}
	compressed := []SignatureInfo{signatureInfo(2, 30), signatureInfo(3, 20)}

	merged := MergeSignatures(onChain, compressed)
	if len(merged) != 3 {
		t.Fatalf("expected 3 signatures, got %d", len(merged))
	}
	for index, slot := range []uint64{30, 20, 10} {
		if merged[index].Slot != slot {
			t.Fatalf("position %d: expected slot %d, got %d", index, slot, merged[index].Slot)
		}
	}
}

func TestMergeSignaturesEmpty(t *testing.T) {
	merged := MergeSignatures(nil, []SignatureInfo{})
	if merged == nil || len(merged) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", merged)
	}
}

func TestGetSignaturesForOwnerInterface(t *testing.T) {
	server := rpctest.NewServer(t)
	client := newTestClient(t, server)
	compressed := signatureInfo(7, 55)
	server.HandleResult("getCompressionSignaturesForOwner", map[string]any{
		"context": map[string]any{"slot": 100},
		"value": map[string]any{
			"items":  []any{map[string]any{"signature": compressed.Signature.String(), "slot": 55}},
			"cursor": nil,
		},
	})

	result, err := client.GetSignaturesForOwnerInterface(context.Background(), solana.NewWallet().PublicKey())
	if err != nil {
		t.Fatalf("GetSignaturesForOwnerInterface failed: %v", err)
	}
	if len(result.Solana) != 0 {
		t.Fatalf("expected no on-chain signatures, got %d", len(result.Solana))
	}
	if len(result.Signatures) != 1 || result.Signatures[0].Signature != compressed.Signature {
		t.Fatalf("unexpected merged signatures: %#v", result.Signatures)
	}
}
