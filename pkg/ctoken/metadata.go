package ctoken

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
)

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
)

type MetadataEntry struct {
	Key   string
	Value string
}

// TokenMetadata is the token metadata extension stored with a light mint.
type TokenMetadata struct {
	Name               string
	Symbol             string
	URI                string
	UpdateAuthority    *solana.PublicKey
	AdditionalMetadata []MetadataEntry
}

// CreateTokenMetadata creates metadata without an update authority.
func CreateTokenMetadata(name, symbol, uri string) TokenMetadata {
	return TokenMetadata{Name: name, Symbol: symbol, URI: uri}
}

// Validate checks the field length limits of the metadata extension.
func (m TokenMetadata) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("metadata name is required")
	}
	if len(m.Name) > MaxNameLength {
		return fmt.Errorf("metadata name exceeds %d bytes", MaxNameLength)
	}
	if len(m.Symbol) > MaxSymbolLength {
		return fmt.Errorf("metadata symbol exceeds %d bytes", MaxSymbolLength)
	}
	if len(m.URI) > MaxURILength {
		return fmt.Errorf("metadata uri exceeds %d bytes", MaxURILength)
	}
	for _, entry := range m.AdditionalMetadata {
		if entry.Key == "" {
			return fmt.Errorf("additional metadata key is required")
		}
	}
	return nil
}

func (m TokenMetadata) encode(w *compressedtoken.BorshWriter) {
	w.OptionalPublicKey(m.UpdateAuthority)
	w.String(m.Name)
	w.String(m.Symbol)
	w.String(m.URI)
	w.Length(len(m.AdditionalMetadata))
	for _, entry := range m.AdditionalMetadata {
		w.String(entry.Key)
		w.String(entry.Value)
	}
}

func decodeTokenMetadata(r *compressedtoken.BorshReader) TokenMetadata {
	metadata := TokenMetadata{
		UpdateAuthority: r.OptionalPublicKey(),
		Name:            r.StringValue(),
		Symbol:          r.StringValue(),
		URI:             r.StringValue(),
	}
	count := r.U32()
	for index := uint32(0); index < count && r.Err() == nil; index++ {
		metadata.AdditionalMetadata = append(metadata.AdditionalMetadata, MetadataEntry{
			Key:   r.StringValue(),
			Value: r.StringValue(),
		})
	}
	return metadata
}
