// Package rpc provides the RPC client used by the Light token cookbook. A
// single Client talks to three surfaces of a ZK-compression enabled Solana
// endpoint:
//
//   - the standard Solana JSON-RPC API (blockhashes, transactions, accounts),
//     served through github.com/gagliardetto/solana-go/rpc;
//   - the compression indexer JSON-RPC API (compressed token accounts,
//     validity proofs, compression signatures), which takes named params;
//   - the websocket pubsub API used to stream program transactions.
//
// Validity proofs and Merkle tree state are always read from the indexer;
// nothing in this package generates proofs or tracks tree state locally.
//
// # Confirmation
//
// SendAndConfirm signs, submits and polls getSignatureStatuses until the
// configured commitment is reached. Failed transactions surface as
// *TransactionError values carrying the program logs returned by the node.
package rpc
