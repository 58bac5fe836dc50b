package compressedtoken

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// PackedAccounts collects the remaining accounts of an instruction and hands
// out their u8 indices.
type PackedAccounts struct {
	keys     []solana.PublicKey
	writable []bool
	signer   []bool
	index    map[solana.PublicKey]uint8
}

func NewPackedAccounts() *PackedAccounts {
	return &PackedAccounts{index: map[solana.PublicKey]uint8{}}
}

// Insert adds key once and returns its index. Writability is merged.
func (p *PackedAccounts) Insert(key solana.PublicKey, writable bool) uint8 {
	return p.add(key, writable, false)
}

func (p *PackedAccounts) InsertSigner(key solana.PublicKey, writable bool) uint8 {
	return p.add(key, writable, true)
}

func (p *PackedAccounts) add(key solana.PublicKey, writable bool, signer bool) uint8 {
	if position, ok := p.index[key]; ok {
		p.writable[position] = p.writable[position] || writable
		p.signer[position] = p.signer[position] || signer
		return position
	}
	position := uint8(len(p.keys))
	p.keys = append(p.keys, key)
	p.writable = append(p.writable, writable)
	p.signer = append(p.signer, signer)
	p.index[key] = position
	return position
}

func (p *PackedAccounts) Len() int {
	return len(p.keys)
}

// Metas returns the account metas in index order.
func (p *PackedAccounts) Metas() solana.AccountMetaSlice {
	metas := make(solana.AccountMetaSlice, 0, len(p.keys))
	for position, key := range p.keys {
		metas = append(metas, solana.NewAccountMeta(key, p.writable[position], p.signer[position]))
	}
	return metas
}

func (p *PackedAccounts) Check() error {
	if len(p.keys) > 256 {
		return fmt.Errorf("too many packed accounts: %d", len(p.keys))
	}
	return nil
}

type packedMerkleContext struct {
	TreeIndex    uint8
	QueueIndex   uint8
	LeafIndex    uint32
	ProveByIndex bool
}

type inputTokenData struct {
	Amount        uint64
	DelegateIndex *uint8
	MerkleContext packedMerkleContext
	RootIndex     uint16
}

type outputTokenData struct {
	Owner     solana.PublicKey
	Amount    uint64
	TreeIndex uint8
}

// packInputs registers the trees, queues and delegates of the input
// accounts. Root indices come from proof in input order.
func packInputs(
	packed *PackedAccounts,
	accounts []rpc.TokenAccount,
	proof *rpc.ValidityProof,
) ([]inputTokenData, error) {
	if proof != nil && len(proof.RootIndices) < len(accounts) {
		return nil, fmt.Errorf("proof has %d root indices for %d inputs", len(proof.RootIndices), len(accounts))
	}

	inputs := make([]inputTokenData, 0, len(accounts))
	for position, account := range accounts {
		info := StateTreeInfoFor(account.Account)
		if info.Queue.IsZero() {
			return nil, fmt.Errorf("compressed account %s has no queue", account.Account.Hash)
		}

		input := inputTokenData{
			Amount: uint64(account.TokenData.Amount),
			MerkleContext: packedMerkleContext{
				TreeIndex:    packed.Insert(info.Tree, true),
				QueueIndex:   packed.Insert(info.Queue, true),
				LeafIndex:    account.Account.LeafIndex,
				ProveByIndex: account.Account.ProveByIndex,
			},
		}
		if proof != nil {
			input.RootIndex = proof.RootIndices[position]
		}
		if account.TokenData.Delegate != nil {
			delegateIndex := packed.Insert(*account.TokenData.Delegate, false)
			input.DelegateIndex = &delegateIndex
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// OutputAccount returns the account new leaves are appended to: the tree for
// v1 trees, the output queue for batched trees.
func (info StateTreeInfo) OutputAccount() solana.PublicKey {
	if info.TreeType == rpc.TreeTypeStateV2 {
		return info.Queue
	}
	return info.Tree
}

// TokenAccountHashes returns the hashes of accounts in order.
func TokenAccountHashes(accounts []rpc.TokenAccount) []rpc.Hash {
	hashes := make([]rpc.Hash, 0, len(accounts))
	for _, account := range accounts {
		hashes = append(hashes, account.Account.Hash)
	}
	return hashes
}
