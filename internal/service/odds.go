package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Payout computes the total return (stake included) for a winning bet at
// American odds. "+150" returns amount + amount*150/100, "-120" returns
// amount + amount*100/120. A missing sign is treated as negative odds,
// matching how shorthand like "110" is quoted.
func Payout(odds string, amount float64) (float64, error) {
	odds = strings.TrimSpace(odds)
	if odds == "" {
		return 0, fmt.Errorf("empty odds")
	}

	stake := decimal.NewFromFloat(amount)
	hundred := decimal.NewFromInt(100)

	if strings.HasPrefix(odds, "+") {
		line, err := decimal.NewFromString(odds[1:])
		if err != nil {
			return 0, fmt.Errorf("invalid odds %q: %w", odds, err)
		}
		if !line.IsPositive() {
			return 0, fmt.Errorf("invalid odds %q", odds)
		}
		return stake.Add(stake.Mul(line).Div(hundred)).InexactFloat64(), nil
	}

	line, err := decimal.NewFromString(strings.TrimPrefix(odds, "-"))
	if err != nil {
		return 0, fmt.Errorf("invalid odds %q: %w", odds, err)
	}
	if !line.IsPositive() {
		return 0, fmt.Errorf("invalid odds %q", odds)
	}
	return stake.Add(stake.Mul(hundred).Div(line)).InexactFloat64(), nil
}
