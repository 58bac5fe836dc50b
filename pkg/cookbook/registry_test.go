package cookbook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

func TestAllRecipes(t *testing.T) {
	expected := []string{
		"create-mint",
		"create-mint-interface",
		"create-ata",
		"create-ata-interface",
		"mint-to",
		"mint-to-interface",
		"compress",
		"compress-batch",
		"decompress",
		"decompress-with-token-pool",
		"decompress-with-interface-pda",
		"delegate-approve",
		"delegate-revoke",
		"merge-token-accounts",
		"transfer-interface",
		"wrap",
		"unwrap",
		"load-ata",
		"create-ata-instruction",
		"create-mint-instruction",
		"mint-to-instruction",
		"transfer-interface-instruction",
		"wrap-instruction",
		"unwrap-instruction",
		"load-ata-instruction",
		"payments-send",
		"payments-get-balance",
		"payments-get-history",
		"payments-wrap-from-spl",
		"payments-unwrap-to-spl",
		"stream-ctoken-transactions",
		"quickstart",
		"devnet-quickstart",
	}

	all := All()
	names := make([]string, 0, len(all))
	for _, recipe := range all {
		names = append(names, recipe.Name)
		require.NotNil(t, recipe.Run, recipe.Name)
		require.NotEmpty(t, recipe.Description, recipe.Name)
		require.Contains(t, []string{shared.NetworkLocalnet, shared.NetworkDevnet}, recipe.Network, recipe.Name)
		require.Contains(t, []Category{CategoryActions, CategoryInstructions, CategoryToolkits, CategoryQuickstart}, recipe.Category, recipe.Name)
	}
	require.Equal(t, expected, names)
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	all[0].Name = "changed"
	require.Equal(t, "create-mint", All()[0].Name)
}

func TestLookup(t *testing.T) {
	recipe, err := Lookup("  Load-ATA ")
	require.NoError(t, err)
	require.Equal(t, "load-ata", recipe.Name)
	require.Equal(t, CategoryActions, recipe.Category)

	_, err = Lookup("burn")
	require.ErrorIs(t, err, ErrUnknownRecipe)
	require.ErrorContains(t, err, `"burn"`)
}
