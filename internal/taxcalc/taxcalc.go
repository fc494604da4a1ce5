package taxcalc

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Default household-business rates, overridable per declaration and via the
// tax policy config file.
var (
	DefaultGTGTRate = decimal.RequireFromString("1")
	DefaultTNCNRate = decimal.RequireFromString("0.5")
)

var (
	ErrNegativeRevenue = errors.New("negative_revenue")
	ErrInvalidRate     = errors.New("invalid_rate")
)

const moneyScale = 2

var oneHundred = decimal.NewFromInt(100)

// Rates are percentage figures (1 means 1%).
type Rates struct {
	GTGT decimal.Decimal
	TNCN decimal.Decimal
}

// DefaultRates returns the engine default rate set.
func DefaultRates() Rates {
	return Rates{GTGT: DefaultGTGTRate, TNCN: DefaultTNCNRate}
}

func (r Rates) Validate() error {
	if r.GTGT.IsNegative() || r.TNCN.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// Amounts are itemized tax figures rounded to two decimal places.
type Amounts struct {
	GTGT  decimal.Decimal
	TNCN  decimal.Decimal
	Total decimal.Decimal
}

// Compute derives itemized tax amounts from a declared revenue figure.
// Rounding is half-up to two decimal places and happens only here; callers
// store the returned values verbatim. Pure, no I/O.
func Compute(declaredRevenue decimal.Decimal, rates Rates) (Amounts, error) {
	if declaredRevenue.IsNegative() {
		return Amounts{}, ErrNegativeRevenue
	}
	if err := rates.Validate(); err != nil {
		return Amounts{}, err
	}

	gtgt := declaredRevenue.Mul(rates.GTGT).Div(oneHundred).Round(moneyScale)
	tncn := declaredRevenue.Mul(rates.TNCN).Div(oneHundred).Round(moneyScale)

	return Amounts{
		GTGT:  gtgt,
		TNCN:  tncn,
		Total: gtgt.Add(tncn),
	}, nil
}
