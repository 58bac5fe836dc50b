// Package shared provides common utilities used across the Light token
// cookbook for Go. It includes network normalization and endpoint
// construction, environment and .env configuration loading, Solana keypair
// handling, token amount formatting, and the console logger used by the
// recipes.
//
// This package is typically used internally by the rpc, compressedtoken,
// ctoken and cookbook packages but is also available for direct use when
// wiring a custom program against a ZK-compression enabled RPC endpoint.
//
// # Environment Variables
//
// ConfigFromEnv reads NETWORK, API_KEY (or HELIUS_API_KEY), RPC_URL,
// COMPRESSION_RPC_URL, WS_URL, KEYPAIR_PATH and LOG_LEVEL. A .env file found
// in the working directory or any parent directory is loaded first; values
// already present in the process environment are never overwritten.
package shared
