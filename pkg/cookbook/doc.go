// Package cookbook holds the recipes: short programs that create mints,
// mint, compress, decompress, wrap, unwrap, delegate, merge and transfer
// tokens against a Solana RPC endpoint with ZK compression support.
//
// Every recipe is a flat sequence of client calls that prints the
// identifiers it produces. Recipes run through Main, which prints
// "Error:" followed by any program logs and exits 1 when a step fails.
//
// Localnet recipes generate and airdrop a fresh payer. Devnet recipes load
// the payer from KEYPAIR_PATH (default ~/.config/solana/id.json) and need
// API_KEY or RPC_URL.
package cookbook
