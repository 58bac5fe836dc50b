// The Light Token Cookbook for Go is a set of runnable recipes for Light
// Protocol compressed tokens and light-token (c-token) accounts on Solana.
// Every recipe is a short program that creates mints and token accounts,
// moves tokens between compressed, light-token and SPL form, and prints the
// resulting addresses and signatures.
//
// # Packages
//
//   - pkg/shared: networks, endpoints, environment configuration, keypairs
//   - pkg/rpc: Solana JSON-RPC and compression indexer client
//   - pkg/compressedtoken: compressed token mints, pools and actions
//   - pkg/ctoken: light-token mints, associated token accounts and interface actions
//   - pkg/cookbook: the recipe registry and runner
//
// # Running recipes
//
// Each recipe has its own program under examples/:
//
//	go run ./examples/create-mint
//
// The cookbook command lists and runs them by name:
//
//	go run ./cmd/cookbook list
//	go run ./cmd/cookbook run compress --network localnet
//
// Localnet recipes need a local validator with the compression indexer.
// Devnet recipes read the payer from KEYPAIR_PATH and the endpoint from
// API_KEY or RPC_URL.
//
// # Documentation
//
// Light Protocol documentation: https://www.zkcompression.com
//
// # Installation
//
//	go get github.com/lightprotocol/token-cookbook-go@latest
package tokencookbook
