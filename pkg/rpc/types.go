package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Hash is a 32-byte compressed account hash or address, base58 on the wire.
type Hash [32]byte

// HashFromBase58 parses the provided input value.
func HashFromBase58(value string) (Hash, error) {
	decoded, err := base58.Decode(strings.TrimSpace(value))
	if err != nil {
		return Hash{}, fmt.Errorf("invalid base58 hash: %w", err)
	}
	if len(decoded) != 32 {
		return Hash{}, fmt.Errorf("invalid hash length %d", len(decoded))
	}
	var hash Hash
	copy(hash[:], decoded)
	return hash, nil
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

// IsZero performs the requested operation.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := HashFromBase58(value)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Amount decodes u64 values that the indexer may send as numbers or strings.
type Amount uint64

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(a), 10)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*a = 0
		return nil
	}
	trimmed = bytes.Trim(trimmed, `"`)
	if len(trimmed) == 0 {
		*a = 0
		return nil
	}
	if strings.HasPrefix(string(trimmed), "0x") {
		parsed, err := strconv.ParseUint(string(trimmed[2:]), 16, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %s: %w", data, err)
		}
		*a = Amount(parsed)
		return nil
	}
	parsed, err := strconv.ParseUint(string(trimmed), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", data, err)
	}
	*a = Amount(parsed)
	return nil
}

// ByteArray decodes byte strings the indexer sends as JSON number arrays.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	values := make([]int, len(b))
	for index, value := range b {
		values[index] = int(value)
	}
	return json.Marshal(values)
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("invalid byte array: %w", err)
	}
	out := make([]byte, len(values))
	for index, value := range values {
		if value < 0 || value > 255 {
			return fmt.Errorf("invalid byte value %d", value)
		}
		out[index] = byte(value)
	}
	*b = out
	return nil
}

type Context struct {
	Slot uint64 `json:"slot"`
}

type TreeType uint8

const (
	TreeTypeStateV1   TreeType = 1
	TreeTypeAddressV1 TreeType = 2
	TreeTypeStateV2   TreeType = 3
	TreeTypeAddressV2 TreeType = 4
)

type MerkleContext struct {
	Tree       solana.PublicKey  `json:"tree"`
	Queue      solana.PublicKey  `json:"queue"`
	CPIContext *solana.PublicKey `json:"cpiContext,omitempty"`
	TreeType   TreeType          `json:"treeType"`
}

type CompressedAccountData struct {
	Discriminator Amount `json:"discriminator"`
	Data          string `json:"data"`
	DataHash      Hash   `json:"dataHash"`
}

type CompressedAccount struct {
	Hash          Hash                   `json:"hash"`
	Address       *Hash                  `json:"address,omitempty"`
	Owner         solana.PublicKey       `json:"owner"`
	Lamports      Amount                 `json:"lamports"`
	Tree          solana.PublicKey       `json:"tree"`
	Queue         *solana.PublicKey      `json:"queue,omitempty"`
	MerkleContext *MerkleContext         `json:"merkleContext,omitempty"`
	LeafIndex     uint32                 `json:"leafIndex"`
	Seq           *uint64                `json:"seq,omitempty"`
	SlotCreated   uint64                 `json:"slotCreated"`
	ProveByIndex  bool                   `json:"proveByIndex"`
	Data          *CompressedAccountData `json:"data,omitempty"`
}

// TreeAndQueue returns the state tree and output queue holding the account.
func (a CompressedAccount) TreeAndQueue() (solana.PublicKey, solana.PublicKey) {
	if a.MerkleContext != nil {
		return a.MerkleContext.Tree, a.MerkleContext.Queue
	}
	if a.Queue != nil {
		return a.Tree, *a.Queue
	}
	return a.Tree, solana.PublicKey{}
}

type TokenData struct {
	Mint     solana.PublicKey  `json:"mint"`
	Owner    solana.PublicKey  `json:"owner"`
	Amount   Amount            `json:"amount"`
	Delegate *solana.PublicKey `json:"delegate,omitempty"`
	State    string            `json:"state"`
	TLV      *string           `json:"tlv,omitempty"`
}

type TokenAccount struct {
	Account   CompressedAccount `json:"account"`
	TokenData TokenData         `json:"tokenData"`
}

type TokenBalance struct {
	Mint    solana.PublicKey `json:"mint"`
	Balance Amount           `json:"balance"`
}

type SignatureInfo struct {
	Signature solana.Signature `json:"signature"`
	Slot      uint64           `json:"slot"`
	BlockTime *int64           `json:"blockTime,omitempty"`
	Err       any              `json:"err,omitempty"`
}

type CompressedProof struct {
	A ByteArray `json:"a"`
	B ByteArray `json:"b"`
	C ByteArray `json:"c"`
}

type ValidityProof struct {
	CompressedProof *CompressedProof   `json:"compressedProof"`
	Roots           []string           `json:"roots"`
	RootIndices     []uint16           `json:"rootIndices"`
	LeafIndices     []uint32           `json:"leafIndices"`
	Leaves          []string           `json:"leaves"`
	MerkleTrees     []solana.PublicKey `json:"merkleTrees"`
	NullifierQueues []solana.PublicKey `json:"nullifierQueues"`
}

type HashWithTree struct {
	Hash      Hash
	Tree      solana.PublicKey
	Queue     solana.PublicKey
	LeafIndex uint32
}

type AddressWithTree struct {
	Address Hash             `json:"address"`
	Tree    solana.PublicKey `json:"tree"`
	Queue   solana.PublicKey `json:"queue"`
}

type TokenAccountsOptions struct {
	Mint   *solana.PublicKey
	Cursor string
	Limit  int
}

type TokenAccountsPage struct {
	Context Context
	Items   []TokenAccount
	Cursor  string
}

type SignaturesPage struct {
	Context Context
	Items   []SignatureInfo
	Cursor  string
}

type SignaturesForOwner struct {
	Signatures []SignatureInfo
	Solana     []SignatureInfo
	Compressed []SignatureInfo
}

type paginatedItems[T any] struct {
	Items  []T     `json:"items"`
	Cursor *string `json:"cursor"`
}

type contextValue[T any] struct {
	Context Context `json:"context"`
	Value   T       `json:"value"`
}
