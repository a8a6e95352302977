package postgres

import (
	"github.com/shopspring/decimal"
)

// decimalArg matches a decimal argument by value rather than representation.
type decimalArg struct{ want decimal.Decimal }

func decimalEq(s string) decimalArg {
	return decimalArg{want: decimal.RequireFromString(s)}
}

func (a decimalArg) Match(v interface{}) bool {
	d, ok := v.(decimal.Decimal)
	return ok && d.Equal(a.want)
}
