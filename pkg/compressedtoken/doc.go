// Package compressedtoken builds and sends instructions of the compressed
// token program: token pools, minting, compress and decompress between SPL
// accounts and compressed accounts, compressed transfers, delegation and
// account merging.
//
// Instruction builders are pure functions of their params structs and can be
// combined into custom transactions. Client wraps them with account
// selection, validity proof retrieval and confirmation.
//
// # Account selection
//
// Transfers spend the fewest compressed accounts that cover the amount,
// largest balance first, up to DefaultMaxInputs inputs. When the balance is
// spread over more accounts than that, the returned *InsufficientBalanceError
// asks the caller to merge token accounts first.
package compressedtoken
