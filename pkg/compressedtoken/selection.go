package compressedtoken

import (
	"sort"

	"github.com/lightprotocol/token-cookbook-go/pkg/rpc"
)

// DefaultMaxInputs is the number of compressed accounts one transfer
// instruction can consume.
const DefaultMaxInputs = 4

// SelectMinCompressedTokenAccountsForTransfer picks the fewest accounts that
// cover amount, largest balances first. It returns the selection and its
// total.
func SelectMinCompressedTokenAccountsForTransfer(
	accounts []rpc.TokenAccount,
	amount uint64,
	maxInputs int,
) ([]rpc.TokenAccount, uint64, error) {
	if maxInputs <= 0 {
		maxInputs = DefaultMaxInputs
	}

	sorted := sortByAmountDescending(accounts)

	selected := make([]rpc.TokenAccount, 0, maxInputs)
	var total uint64
	for _, account := range sorted {
		if total >= amount || len(selected) == maxInputs {
			break
		}
		if account.TokenData.Amount == 0 {
			continue
		}
		selected = append(selected, account)
		var err error
		if total, err = CheckedAdd(total, uint64(account.TokenData.Amount)); err != nil {
			return nil, 0, err
		}
	}

	if total < amount {
		var available uint64
		for _, account := range sorted {
			sum, err := CheckedAdd(available, uint64(account.TokenData.Amount))
			if err != nil {
				available = amount
				break
			}
			available = sum
		}
		if available >= amount {
			return nil, 0, &InsufficientBalanceError{Required: amount, Available: total, MaxInputs: maxInputs}
		}
		return nil, 0, &InsufficientBalanceError{Required: amount, Available: available}
	}

	return selected, total, nil
}

// SelectAccountsForMerge returns up to maxInputs non-empty accounts, largest
// first.
func SelectAccountsForMerge(accounts []rpc.TokenAccount, maxInputs int) []rpc.TokenAccount {
	if maxInputs <= 0 {
		maxInputs = DefaultMaxInputs
	}
	selected := make([]rpc.TokenAccount, 0, maxInputs)
	for _, account := range sortByAmountDescending(accounts) {
		if len(selected) == maxInputs {
			break
		}
		if account.TokenData.Amount > 0 {
			selected = append(selected, account)
		}
	}
	return selected
}

func sortByAmountDescending(accounts []rpc.TokenAccount) []rpc.TokenAccount {
	sorted := append([]rpc.TokenAccount(nil), accounts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TokenData.Amount > sorted[j].TokenData.Amount
	})
	return sorted
}

// CheckedAdd returns a + b or ErrAmountOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

func sumAmounts(accounts []rpc.TokenAccount) (uint64, error) {
	var total uint64
	for _, account := range accounts {
		var err error
		if total, err = CheckedAdd(total, uint64(account.TokenData.Amount)); err != nil {
			return 0, err
		}
	}
	return total, nil
}
