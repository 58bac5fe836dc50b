package cookbook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

var ErrUnknownRecipe = errors.New("unknown recipe")

type Category string

const (
	CategoryActions      Category = "actions"
	CategoryInstructions Category = "instructions"
	CategoryToolkits     Category = "toolkits"
	CategoryQuickstart   Category = "quickstart"
)

// Recipe is one runnable example. Network is the network the recipe uses
// when NETWORK is not set.
type Recipe struct {
	Name        string
	Category    Category
	Description string
	Network     string
	Run         func(ctx context.Context, env *Env) error
}

var recipes = []Recipe{
	{"create-mint", CategoryActions, "Create a light mint with token metadata", shared.NetworkDevnet, createMint},
	{"create-mint-interface", CategoryActions, "Create a Token-2022 mint with an SPL interface pool", shared.NetworkDevnet, createMintInterface},
	{"create-ata", CategoryActions, "Create a light token ATA for a light mint", shared.NetworkLocalnet, createAta},
	{"create-ata-interface", CategoryActions, "Create a light token ATA for an SPL mint, idempotently", shared.NetworkDevnet, createAtaInterface},
	{"mint-to", CategoryActions, "Mint compressed tokens to several recipients", shared.NetworkDevnet, mintTo},
	{"mint-to-interface", CategoryActions, "Mint a light mint into a light token ATA", shared.NetworkLocalnet, mintToInterface},
	{"compress", CategoryActions, "Compress SPL tokens to cold storage", shared.NetworkLocalnet, compress},
	{"compress-batch", CategoryActions, "Compress SPL tokens to five recipients in one transaction", shared.NetworkDevnet, compressBatch},
	{"decompress", CategoryActions, "Decompress compressed tokens into an SPL ATA", shared.NetworkLocalnet, decompress},
	{"decompress-with-token-pool", CategoryActions, "Decompress with explicitly selected token pools", shared.NetworkLocalnet, decompressWithTokenPool},
	{"decompress-with-interface-pda", CategoryActions, "Decompress with explicitly selected SPL interface PDAs", shared.NetworkDevnet, decompressWithInterfacePDA},
	{"delegate-approve", CategoryActions, "Delegate part of a compressed balance", shared.NetworkLocalnet, delegateApprove},
	{"delegate-revoke", CategoryActions, "Approve and then revoke a delegation", shared.NetworkDevnet, delegateRevoke},
	{"merge-token-accounts", CategoryActions, "Merge compressed token accounts of one mint", shared.NetworkDevnet, mergeTokenAccounts},
	{"transfer-interface", CategoryActions, "Transfer between light token ATAs", shared.NetworkDevnet, transferInterface},
	{"wrap", CategoryActions, "Wrap SPL tokens into a light token ATA", shared.NetworkDevnet, wrap},
	{"unwrap", CategoryActions, "Unwrap light tokens into an SPL ATA", shared.NetworkLocalnet, unwrap},
	{"load-ata", CategoryActions, "Load cold balance into the hot balance of an ATA", shared.NetworkDevnet, loadAta},

	{"create-ata-instruction", CategoryInstructions, "Build and send a create light token ATA instruction", shared.NetworkLocalnet, createAtaInstruction},
	{"create-mint-instruction", CategoryInstructions, "Build and send a create light mint instruction", shared.NetworkDevnet, createMintInstruction},
	{"mint-to-instruction", CategoryInstructions, "Build and send a mint-to interface instruction", shared.NetworkLocalnet, mintToInstruction},
	{"transfer-interface-instruction", CategoryInstructions, "Build and send a transfer interface instruction", shared.NetworkLocalnet, transferInterfaceInstruction},
	{"wrap-instruction", CategoryInstructions, "Build and send a wrap instruction", shared.NetworkDevnet, wrapInstruction},
	{"unwrap-instruction", CategoryInstructions, "Build and send an unwrap instruction", shared.NetworkDevnet, unwrapInstruction},
	{"load-ata-instruction", CategoryInstructions, "Build and send load ATA instructions", shared.NetworkDevnet, loadAtaInstruction},

	{"payments-send", CategoryToolkits, "Send light tokens between wallets", shared.NetworkDevnet, paymentsSend},
	{"payments-get-balance", CategoryToolkits, "Read a wallet's hot and cold balance", shared.NetworkDevnet, paymentsGetBalance},
	{"payments-get-history", CategoryToolkits, "List on-chain and compressed transactions of a wallet", shared.NetworkLocalnet, paymentsGetHistory},
	{"payments-wrap-from-spl", CategoryToolkits, "On-ramp SPL tokens into a light token ATA", shared.NetworkLocalnet, paymentsWrapFromSPL},
	{"payments-unwrap-to-spl", CategoryToolkits, "Off-ramp light tokens into an SPL ATA", shared.NetworkLocalnet, paymentsUnwrapToSPL},
	{"stream-ctoken-transactions", CategoryToolkits, "Stream light token program transactions", shared.NetworkDevnet, streamCtokenTransactions},

	{"quickstart", CategoryQuickstart, "Create a light mint, an ATA and mint to it", shared.NetworkDevnet, quickstart},
	{"devnet-quickstart", CategoryQuickstart, "Create an SPL mint with a token pool and mint compressed tokens", shared.NetworkDevnet, devnetQuickstart},
}

// All returns every recipe in registration order.
func All() []Recipe {
	out := make([]Recipe, len(recipes))
	copy(out, recipes)
	return out
}

// Lookup returns the recipe called name.
func Lookup(name string) (Recipe, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, recipe := range recipes {
		if recipe.Name == normalized {
			return recipe, nil
		}
	}
	return Recipe{}, fmt.Errorf("%w %q", ErrUnknownRecipe, name)
}
