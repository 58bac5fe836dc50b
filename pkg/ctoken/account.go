package ctoken

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lightprotocol/token-cookbook-go/pkg/compressedtoken"
	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

const tokenAccountSize = 165

var ErrTokenAccountNotFound = errors.New("token account not found")

// AccountInterface is the combined view of a light token ATA: the on-chain
// (hot) balance and the compressed (cold) accounts of the same owner and
// mint.
type AccountInterface struct {
	Address      solana.PublicKey
	Owner        solana.PublicKey
	Mint         solana.PublicKey
	Exists       bool
	Delegate     *solana.PublicKey
	HotAmount    uint64
	ColdAmount   uint64
	ColdAccounts []rpc.TokenAccount
}

// Amount returns the hot and cold balance together.
func (a AccountInterface) Amount() uint64 {
	return a.HotAmount + a.ColdAmount
}

// NeedsLoad reports whether cold balance must be loaded before spending.
func (a AccountInterface) NeedsLoad() bool {
	return len(a.ColdAccounts) > 0
}

func getAtaInterface(
	ctx context.Context,
	client *rpc.Client,
	address solana.PublicKey,
	owner solana.PublicKey,
	mint solana.PublicKey,
) (AccountInterface, error) {
	account := AccountInterface{Address: address, Owner: owner, Mint: mint}

	info, err := client.GetAccountInfo(ctx, address)
	if err != nil {
		return AccountInterface{}, err
	}
	if info != nil {
		hot, err := decodeTokenAccount(address, info.Data)
		if err != nil {
			return AccountInterface{}, err
		}
		if !hot.Mint.Equals(mint) {
			return AccountInterface{}, fmt.Errorf("account %s holds mint %s, not %s", address, hot.Mint, mint)
		}
		account.Exists = true
		account.HotAmount = hot.Amount
		account.Delegate = hot.Delegate
	}

	cold, err := client.GetAllCompressedTokenAccountsByOwner(ctx, owner, &mint)
	if err != nil {
		return AccountInterface{}, err
	}
	for _, entry := range cold {
		if entry.TokenData.Amount == 0 {
			continue
		}
		account.ColdAccounts = append(account.ColdAccounts, entry)
		if account.ColdAmount, err = compressedtoken.CheckedAdd(account.ColdAmount, uint64(entry.TokenData.Amount)); err != nil {
			return AccountInterface{}, err
		}
	}

	if !account.Exists && len(account.ColdAccounts) == 0 {
		return AccountInterface{}, fmt.Errorf("%w: %s", ErrTokenAccountNotFound, address)
	}
	return account, nil
}

// decodeTokenAccount reads the SPL-compatible prefix of a token account.
// Light token accounts append extensions after it.
func decodeTokenAccount(address solana.PublicKey, data []byte) (token.Account, error) {
	if len(data) < tokenAccountSize {
		return token.Account{}, fmt.Errorf("token account %s has %d bytes of data", address, len(data))
	}
	var account token.Account
	if err := bin.NewBinDecoder(data[:tokenAccountSize]).Decode(&account); err != nil {
		return token.Account{}, fmt.Errorf("failed to decode token account %s: %w", address, err)
	}
	return account, nil
}
