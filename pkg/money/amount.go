package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimals of an EVM native coin (1 ETH = 10^18 wei)
const NativeDecimals int32 = 18

// FromBaseUnits converts an amount expressed in smallest units to a decimal amount
// E.g., "1500000000000000000" with 18 decimals → 1.5
func FromBaseUnits(raw string, decimals int32) (decimal.Decimal, error) {
	amount, err := parseUnits(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Shift(-decimals), nil
}

// GasFee computes gasUsed × gasPrice scaled down to the native coin
func GasFee(gasUsed, gasPrice string) (decimal.Decimal, error) {
	used, err := parseUnits(gasUsed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid gas used: %w", err)
	}
	price, err := parseUnits(gasPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid gas price: %w", err)
	}
	return used.Mul(price).Shift(-NativeDecimals), nil
}

// ParseDecimals parses a token decimal count as reported by a block explorer
func ParseDecimals(s string) (int32, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid decimals %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid decimals %q: cannot be negative", s)
	}
	return int32(n), nil
}

func parseUnits(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format %q: %w", raw, err)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q cannot be negative", raw)
	}
	return amount, nil
}
