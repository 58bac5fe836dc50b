package shared

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a UI amount such as "1.5" into base units.
func ParseAmount(value string, decimals uint8) (uint64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("amount cannot be empty")
	}

	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if parsed.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}

	scaled := parsed.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", value, decimals)
	}

	raw := scaled.BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64", value)
	}
	return raw.Uint64(), nil
}

// FormatAmount renders base units with the mint's decimals, trimming
// trailing zeros.
func FormatAmount(raw uint64, decimals uint8) string {
	return decimal.NewFromUint64(raw).Shift(-int32(decimals)).String()
}
