package compressedtoken

import (
	"errors"
	"fmt"
)

var (
	ErrNoTokenPool        = errors.New("no token pool registered for mint")
	ErrNoInitializedPool  = errors.New("no initialized token pool found")
	ErrEmptyTokenPools    = errors.New("token pools have zero balance")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrNoCompressedTokens = errors.New("no compressed token accounts found")
	ErrAmountOverflow     = errors.New("token amount overflows u64")
)

// InsufficientBalanceError reports an account selection that could not cover
// the requested amount.
type InsufficientBalanceError struct {
	Required  uint64
	Available uint64
	// MaxInputs is set when enough balance exists but only across more
	// accounts than one instruction accepts.
	MaxInputs int
}

func (e *InsufficientBalanceError) Error() string {
	if e.MaxInputs > 0 {
		return fmt.Sprintf(
			"account limit exceeded: required %d, available in %d largest accounts %d; merge token accounts first",
			e.Required,
			e.MaxInputs,
			e.Available,
		)
	}
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.Required, e.Available)
}
