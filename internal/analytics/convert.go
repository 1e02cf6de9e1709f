package analytics

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"launchrates/internal/core"
)

// Convert multiplies amount by the target's rate in the table.
// It fails with core.ErrMissingRate when the table has no such currency.
func Convert(amount float64, table core.RateTable, target string) (decimal.Decimal, error) {
	rate, ok := table.Rate(target)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s not in %s table", core.ErrMissingRate, target, table.Base)
	}
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)), nil
}

// FormatAmount renders a converted amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatConversion renders "<amount> <base> = <converted> <target>".
// An absent amount renders as the empty string with no error.
func FormatConversion(q core.ConversionQuery, table core.RateTable) (string, error) {
	if q.Amount == nil {
		return "", nil
	}
	converted, err := Convert(*q.Amount, table, q.Target)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s = %s %s",
		strconv.FormatFloat(*q.Amount, 'f', -1, 64), q.Base, FormatAmount(converted), q.Target), nil
}
