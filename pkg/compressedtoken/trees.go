package compressedtoken

import (
	"fmt"
	"math/rand"

	"github.com/gagliardetto/solana-go"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// StateTreeInfo identifies a state tree and the queue that receives its
// output accounts.
type StateTreeInfo struct {
	Tree       solana.PublicKey
	Queue      solana.PublicKey
	CPIContext *solana.PublicKey
	TreeType   rpc.TreeType
}

// AddressTreeInfo identifies an address tree used to create new addresses.
type AddressTreeInfo struct {
	Tree     solana.PublicKey
	Queue    solana.PublicKey
	TreeType rpc.TreeType
}

func cpiContext(value string) *solana.PublicKey {
	key := solana.MustPublicKeyFromBase58(value)
	return &key
}

// DefaultStateTreeInfos are the public state trees shared by localnet,
// devnet and mainnet deployments.
var DefaultStateTreeInfos = []StateTreeInfo{
	{
		Tree:       solana.MustPublicKeyFromBase58("smt1NamzXdq4AMqS2fS2F1i5KTYPZRhoHgWx38d8WsT"),
		Queue:      solana.MustPublicKeyFromBase58("nfq1NvQDJ2GEgnS8zt9prAe8rjjpAW1zFkrvZoBR148"),
		CPIContext: cpiContext("cpi1uHzrEhBG733DoEJNgHCyRS3XmmyVNZx5fonubE4"),
		TreeType:   rpc.TreeTypeStateV1,
	},
	{
		Tree:       solana.MustPublicKeyFromBase58("smt2rJAFdyJJupwMKAqTNAJwvjhmiZ4JYGZmbVRw1Ho"),
		Queue:      solana.MustPublicKeyFromBase58("nfq2hgS7NYemXsFaFUCe3EMXSDSfnZnAe27jC6aPP1X"),
		CPIContext: cpiContext("cpi2cdhkH5roePvcudTgUL8ppEBfTay1desGh8G8QxK"),
		TreeType:   rpc.TreeTypeStateV1,
	},
}

var (
	// DefaultAddressTreeInfo is the v1 address tree.
	DefaultAddressTreeInfo = AddressTreeInfo{
		Tree:     solana.MustPublicKeyFromBase58("amt1Ayt45jfbdw5YSo7iz6WZxUmnZsQTYXy82hVwyC2"),
		Queue:    solana.MustPublicKeyFromBase58("aq1S9z4reTSQAdgWHGD2zDaS39sjGrAxbR31vxJ2F4F"),
		TreeType: rpc.TreeTypeAddressV1,
	}

	// BatchAddressTreeInfo is the batched address tree. Its queue is the
	// tree account itself.
	BatchAddressTreeInfo = AddressTreeInfo{
		Tree:     solana.MustPublicKeyFromBase58("amt2kaJA14v3urZbZvnc5v2np8jqvc4Z8zDep5wbtzx"),
		Queue:    solana.MustPublicKeyFromBase58("amt2kaJA14v3urZbZvnc5v2np8jqvc4Z8zDep5wbtzx"),
		TreeType: rpc.TreeTypeAddressV2,
	}
)

// SelectStateTreeInfo picks a random tree of treeType from infos. A zero
// treeType matches any state tree.
func SelectStateTreeInfo(infos []StateTreeInfo, treeType rpc.TreeType) (StateTreeInfo, error) {
	candidates := make([]StateTreeInfo, 0, len(infos))
	for _, info := range infos {
		if treeType != 0 && info.TreeType != treeType {
			continue
		}
		if info.TreeType != rpc.TreeTypeStateV1 && info.TreeType != rpc.TreeTypeStateV2 {
			continue
		}
		candidates = append(candidates, info)
	}
	if len(candidates) == 0 {
		return StateTreeInfo{}, fmt.Errorf("no state tree of type %d available", treeType)
	}
	return candidates[rand.Intn(len(candidates))], nil
}

// StateTreeInfoFor returns the tree info an existing compressed account was
// written to, falling back to the defaults for the queue and CPI context.
func StateTreeInfoFor(account rpc.CompressedAccount) StateTreeInfo {
	tree, queue := account.TreeAndQueue()
	info := StateTreeInfo{Tree: tree, Queue: queue, TreeType: rpc.TreeTypeStateV1}
	if account.MerkleContext != nil {
		info.TreeType = account.MerkleContext.TreeType
		info.CPIContext = account.MerkleContext.CPIContext
	}
	for _, known := range DefaultStateTreeInfos {
		if known.Tree.Equals(tree) {
			if info.Queue.IsZero() {
				info.Queue = known.Queue
			}
			if info.CPIContext == nil {
				info.CPIContext = known.CPIContext
			}
		}
	}
	return info
}
