package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lightprotocol/token-cookbook-go/pkg/cookbook"
	"github.com/lightprotocol/token-cookbook-go/pkg/shared"
)

// setting maps a configuration key to its optional flag and environment
// variables, in priority order.
type setting struct {
	key  string
	flag string
	env  []string
}

var settings = []setting{
	{key: "network", flag: "network", env: []string{"NETWORK", "SOLANA_NETWORK"}},
	{key: "rpc-url", flag: "rpc-url", env: []string{"RPC_URL", "SOLANA_RPC_URL"}},
	{key: "keypair", flag: "keypair", env: []string{"KEYPAIR_PATH", "SOLANA_KEYPAIR"}},
	{key: "log-level", flag: "log-level", env: []string{"LOG_LEVEL"}},
	{key: "api-key", env: []string{"API_KEY", "HELIUS_API_KEY"}},
	{key: "compression-rpc-url", env: []string{"COMPRESSION_RPC_URL", "PHOTON_URL"}},
	{key: "ws-url", env: []string{"WS_URL", "SOLANA_WS_URL"}},
}

func newRootCommand() *cobra.Command {
	config := viper.New()

	root := &cobra.Command{
		Use:   "cookbook",
		Short: "Light Protocol compressed token recipes",
		Long: `Run the compressed token recipes against localnet, devnet or mainnet.

Localnet recipes airdrop fresh keypairs. Other networks load the payer from
the keypair file and need API_KEY or an explicit RPC URL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("network", "", "cluster to use: localnet, devnet or mainnet (default: the recipe's network)")
	flags.String("rpc-url", "", "Solana RPC endpoint")
	flags.String("keypair", "", "payer keypair file for devnet and mainnet")
	flags.String("log-level", "", "log level: debug, info, warn, error or disabled")

	for _, s := range settings {
		if s.flag != "" {
			cobra.CheckErr(config.BindPFlag(s.key, flags.Lookup(s.flag)))
		}
		cobra.CheckErr(config.BindEnv(append([]string{s.key}, s.env...)...))
	}

	root.AddCommand(newListCommand(), newRunCommand(config))
	return root
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every recipe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := pterm.TableData{{"Recipe", "Category", "Network", "Description"}}
			for _, recipe := range cookbook.All() {
				data = append(data, []string{recipe.Name, string(recipe.Category), recipe.Network, recipe.Description})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}

func newRunCommand(config *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "run <recipe>",
		Short:   "Run a recipe by name",
		Example: "  cookbook run create-mint --network devnet\n  cookbook run compress --network localnet",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipe, err := cookbook.Lookup(args[0])
			if err != nil {
				return err
			}

			network := config.GetString("network")
			if network == "" {
				network = recipe.Network
			}
			resolved, err := shared.NewConfig(shared.Config{
				Network:           network,
				APIKey:            config.GetString("api-key"),
				RPCURL:            config.GetString("rpc-url"),
				CompressionRPCURL: config.GetString("compression-rpc-url"),
				WebsocketURL:      config.GetString("ws-url"),
				KeypairPath:       config.GetString("keypair"),
				LogLevel:          config.GetString("log-level"),
			})
			if err != nil {
				return err
			}

			return cookbook.Execute(cmd.Context(), recipe, resolved, cmd.OutOrStdout())
		},
	}
}
