// Package ctoken implements the light token interface: associated token
// accounts owned by the light token program, light mints stored as
// compressed accounts, and the wrap, unwrap and load operations that move
// balance between SPL accounts, light token accounts and compressed
// accounts.
//
// A light token ATA has a hot balance held on-chain and may have cold
// balance held in compressed token accounts of the same owner and mint.
// AccountInterface reports both. Actions that spend from an ATA load cold
// balance first when the hot balance does not cover the amount.
//
// The functions named *Interface accept SPL and Token-2022 mints as well as
// light mints, and pick the program to call from the mint's owner.
package ctoken
