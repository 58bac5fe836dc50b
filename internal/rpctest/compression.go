package rpctest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var (
	compressedTokenProgram = solana.MustPublicKeyFromBase58("cTokenmWW8bLPjZEBAUgYy3zKxQZW6VKi7bqNFEVv3m")
	defaultTree            = solana.MustPublicKeyFromBase58("smt1NamzXdq4AMqS2fS2F1i5KTYPZRhoHgWx38d8WsT")
	defaultQueue           = solana.MustPublicKeyFromBase58("nfq1NvQDJ2GEgnS8zt9prAe8rjjpAW1zFkrvZoBR148")
)

// TokenAccount is a compressed token account served by the indexer methods.
// Zero Tree and Queue fall back to the first public state tree.
type TokenAccount struct {
	Hash      [32]byte
	Owner     solana.PublicKey
	Mint      solana.PublicKey
	Amount    uint64
	Delegate  *solana.PublicKey
	Tree      solana.PublicKey
	Queue     solana.PublicKey
	LeafIndex uint32
}

// CompressedAccount is a generic compressed account returned by
// getCompressedAccount.
type CompressedAccount struct {
	Hash          [32]byte
	Address       *[32]byte
	Owner         solana.PublicKey
	Tree          solana.PublicKey
	Queue         solana.PublicKey
	LeafIndex     uint32
	Discriminator uint64
	Data          []byte
}

// AddTokenAccount makes a compressed token account visible to the indexer
// methods.
func (s *Server) AddTokenAccount(account TokenAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, account)
}

// RemoveTokenAccounts drops the compressed token accounts with the given
// hashes, as if they were spent.
func (s *Server) RemoveTokenAccounts(hashes ...[32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spent := make(map[[32]byte]bool, len(hashes))
	for _, hash := range hashes {
		spent[hash] = true
	}
	kept := s.tokens[:0]
	for _, account := range s.tokens {
		if !spent[account.Hash] {
			kept = append(kept, account)
		}
	}
	s.tokens = kept
}

// AddCompressedAccount makes a compressed account visible to
// getCompressedAccount.
func (s *Server) AddCompressedAccount(account CompressedAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compressed = append(s.compressed, account)
}

// TokenAccountData encodes a 165-byte SPL token account.
func TokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, 165)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1
	return data
}

// MintData encodes an 82-byte SPL mint.
func MintData(authority *solana.PublicKey, supply uint64, decimals uint8) []byte {
	data := make([]byte, 82)
	if authority != nil {
		binary.LittleEndian.PutUint32(data[0:4], 1)
		copy(data[4:36], authority[:])
	}
	binary.LittleEndian.PutUint64(data[36:44], supply)
	data[44] = decimals
	data[45] = 1
	return data
}

func treeOrDefault(tree, queue solana.PublicKey) (solana.PublicKey, solana.PublicKey) {
	if tree.IsZero() {
		tree = defaultTree
	}
	if queue.IsZero() {
		queue = defaultQueue
	}
	return tree, queue
}

func (a TokenAccount) json(slot uint64) map[string]any {
	tree, queue := treeOrDefault(a.Tree, a.Queue)
	var delegate any
	if a.Delegate != nil {
		delegate = a.Delegate.String()
	}
	return map[string]any{
		"account": map[string]any{
			"hash":     base58.Encode(a.Hash[:]),
			"address":  nil,
			"owner":    compressedTokenProgram.String(),
			"lamports": 0,
			"tree":     tree.String(),
			"merkleContext": map[string]any{
				"tree":     tree.String(),
				"queue":    queue.String(),
				"treeType": 1,
			},
			"leafIndex":    a.LeafIndex,
			"seq":          a.LeafIndex,
			"slotCreated":  slot,
			"proveByIndex": false,
		},
		"tokenData": map[string]any{
			"mint":     a.Mint.String(),
			"owner":    a.Owner.String(),
			"amount":   strconv.FormatUint(a.Amount, 10),
			"delegate": delegate,
			"state":    "initialized",
			"tlv":      nil,
		},
	}
}

func (a CompressedAccount) json(slot uint64) map[string]any {
	tree, queue := treeOrDefault(a.Tree, a.Queue)
	var address any
	if a.Address != nil {
		address = base58.Encode(a.Address[:])
	}
	return map[string]any{
		"hash":     base58.Encode(a.Hash[:]),
		"address":  address,
		"owner":    a.Owner.String(),
		"lamports": 0,
		"tree":     tree.String(),
		"merkleContext": map[string]any{
			"tree":     tree.String(),
			"queue":    queue.String(),
			"treeType": 1,
		},
		"leafIndex":    a.LeafIndex,
		"slotCreated":  slot,
		"proveByIndex": false,
		"data": map[string]any{
			"discriminator": a.Discriminator,
			"data":          base64.StdEncoding.EncodeToString(a.Data),
			"dataHash":      base58.Encode(make([]byte, 32)),
		},
	}
}

type indexerParams struct {
	Owner                 string   `json:"owner"`
	Delegate              string   `json:"delegate"`
	Mint                  string   `json:"mint"`
	Cursor                string   `json:"cursor"`
	Limit                 int      `json:"limit"`
	Address               string   `json:"address"`
	Hash                  string   `json:"hash"`
	Hashes                []string `json:"hashes"`
	NewAddressesWithTrees []struct {
		Address string `json:"address"`
		Tree    string `json:"tree"`
	} `json:"newAddressesWithTrees"`
}

func parseIndexerParams(params json.RawMessage) (indexerParams, error) {
	var parsed indexerParams
	if len(params) == 0 {
		return parsed, nil
	}
	if err := json.Unmarshal(params, &parsed); err != nil {
		return parsed, &Error{Code: -32602, Message: "invalid params: " + err.Error()}
	}
	return parsed, nil
}

func (s *Server) tokenAccountsHandler(byDelegate bool) Handler {
	return func(params json.RawMessage) (any, error) {
		parsed, err := parseIndexerParams(params)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		matches := make([]TokenAccount, 0)
		for _, account := range s.tokens {
			if byDelegate {
				if account.Delegate == nil || account.Delegate.String() != parsed.Delegate {
					continue
				}
			} else if account.Owner.String() != parsed.Owner {
				continue
			}
			if parsed.Mint != "" && account.Mint.String() != parsed.Mint {
				continue
			}
			matches = append(matches, account)
		}
		slot := s.slot
		s.mu.Unlock()

		start := 0
		if parsed.Cursor != "" {
			start, _ = strconv.Atoi(parsed.Cursor)
		}
		start = min(start, len(matches))
		end := len(matches)
		if parsed.Limit > 0 && start+parsed.Limit < end {
			end = start + parsed.Limit
		}

		items := make([]any, 0, end-start)
		for _, account := range matches[start:end] {
			items = append(items, account.json(slot))
		}
		var cursor any
		if end < len(matches) {
			cursor = strconv.Itoa(end)
		}
		return map[string]any{
			"context": map[string]any{"slot": slot},
			"value":   map[string]any{"items": items, "cursor": cursor},
		}, nil
	}
}

func (s *Server) tokenBalancesHandler(params json.RawMessage) (any, error) {
	parsed, err := parseIndexerParams(params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	order := make([]string, 0)
	balances := map[string]uint64{}
	for _, account := range s.tokens {
		if account.Owner.String() != parsed.Owner {
			continue
		}
		mint := account.Mint.String()
		if parsed.Mint != "" && mint != parsed.Mint {
			continue
		}
		if _, seen := balances[mint]; !seen {
			order = append(order, mint)
		}
		balances[mint] += account.Amount
	}
	s.mu.Unlock()

	items := make([]any, 0, len(order))
	for _, mint := range order {
		items = append(items, map[string]any{"mint": mint, "balance": balances[mint]})
	}
	return map[string]any{
		"context": s.context(),
		"value":   map[string]any{"items": items, "cursor": nil},
	}, nil
}

func (s *Server) compressedAccountHandler(params json.RawMessage) (any, error) {
	parsed, err := parseIndexerParams(params)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, account := range s.compressed {
		if parsed.Hash != "" && base58.Encode(account.Hash[:]) == parsed.Hash {
			return map[string]any{"context": s.context(), "value": account.json(s.slot)}, nil
		}
		if parsed.Address != "" && account.Address != nil && base58.Encode(account.Address[:]) == parsed.Address {
			return map[string]any{"context": s.context(), "value": account.json(s.slot)}, nil
		}
	}
	return map[string]any{"context": s.context(), "value": nil}, nil
}

func (s *Server) validityProofHandler(params json.RawMessage) (any, error) {
	parsed, err := parseIndexerParams(params)
	if err != nil {
		return nil, err
	}

	count := len(parsed.Hashes) + len(parsed.NewAddressesWithTrees)
	rootIndices := make([]uint16, count)
	roots := make([]string, count)
	leafIndices := make([]uint32, count)
	leaves := make([]string, count)
	trees := make([]string, count)
	queues := make([]string, count)
	for index := range roots {
		roots[index] = base58.Encode(make([]byte, 32))
		trees[index] = defaultTree.String()
		queues[index] = defaultQueue.String()
	}
	for index, hash := range parsed.Hashes {
		leaves[index] = hash
	}
	for index, address := range parsed.NewAddressesWithTrees {
		leaves[len(parsed.Hashes)+index] = address.Address
		trees[len(parsed.Hashes)+index] = address.Tree
	}

	return map[string]any{
		"context": s.context(),
		"value": map[string]any{
			"compressedProof": map[string]any{
				"a": byteValues(32, 1),
				"b": byteValues(64, 2),
				"c": byteValues(32, 3),
			},
			"roots":           roots,
			"rootIndices":     rootIndices,
			"leafIndices":     leafIndices,
			"leaves":          leaves,
			"merkleTrees":     trees,
			"nullifierQueues": queues,
		},
	}, nil
}

func byteValues(length int, value int) []int {
	values := make([]int, length)
	for index := range values {
		values[index] = value
	}
	return values
}
