package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrAmountPrecision   = errors.New("amount has more decimal places than the currency allows")
)

// Currency describes one entry of the currency catalogue.
type Currency struct {
	Code     string      `json:"code"`
	Decimals int32       `json:"decimals"`
	Family   ChainFamily `json:"chain_family,omitempty"` // empty for internal-only currencies
}

// OnChain reports whether the currency settles on an external network.
func (c Currency) OnChain() bool {
	return c.Family != ""
}

// CheckAmount validates that amount is positive and representable.
func (c Currency) CheckAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Truncate(c.Decimals)) {
		return ErrAmountPrecision
	}
	return nil
}

// Catalogue is the set of supported currencies keyed by code.
type Catalogue map[string]Currency

// Lookup finds a currency by case-insensitive code.
func (c Catalogue) Lookup(code string) (Currency, bool) {
	cur, ok := c[strings.ToUpper(code)]
	return cur, ok
}

// ByFamily lists the currencies settled on family.
func (c Catalogue) ByFamily(family ChainFamily) []Currency {
	var out []Currency
	for _, cur := range c {
		if cur.Family == family {
			out = append(out, cur)
		}
	}
	return out
}
