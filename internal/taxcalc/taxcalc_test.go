package taxcalc

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeExactness(t *testing.T) {
	revenue := decimal.RequireFromString("1000000")
	rates := Rates{
		GTGT: decimal.RequireFromString("1.0"),
		TNCN: decimal.RequireFromString("0.5"),
	}

	// Repeated runs must be bit-identical; decimal arithmetic has no drift.
	for i := 0; i < 1000; i++ {
		amounts, err := Compute(revenue, rates)
		require.NoError(t, err)
		assert.Equal(t, "10000.00", amounts.GTGT.StringFixed(2))
		assert.Equal(t, "5000.00", amounts.TNCN.StringFixed(2))
		assert.Equal(t, "15000.00", amounts.Total.StringFixed(2))
	}
}

func TestComputeRoundsHalfUp(t *testing.T) {
	// 333.33 * 1.5% = 4.99995 -> 5.00
	amounts, err := Compute(decimal.RequireFromString("333.33"), Rates{
		GTGT: decimal.RequireFromString("1.5"),
		TNCN: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "5.00", amounts.GTGT.StringFixed(2))

	// 100.50 * 0.5% = 0.5025 -> 0.50
	amounts, err = Compute(decimal.RequireFromString("100.50"), Rates{
		GTGT: decimal.Zero,
		TNCN: decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.50", amounts.TNCN.StringFixed(2))

	// 1.25% of 100.20 = 1.2525 -> 1.25; half digit exactly at boundary:
	// 0.125 -> 0.13 under half-up.
	amounts, err = Compute(decimal.RequireFromString("10"), Rates{
		GTGT: decimal.RequireFromString("1.25"),
		TNCN: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.13", amounts.GTGT.StringFixed(2))
}

func TestComputeZeroRevenue(t *testing.T) {
	amounts, err := Compute(decimal.Zero, DefaultRates())
	require.NoError(t, err)
	assert.True(t, amounts.GTGT.IsZero())
	assert.True(t, amounts.TNCN.IsZero())
	assert.True(t, amounts.Total.IsZero())
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(decimal.RequireFromString("-1"), DefaultRates())
	assert.ErrorIs(t, err, ErrNegativeRevenue)

	_, err = Compute(decimal.NewFromInt(100), Rates{
		GTGT: decimal.RequireFromString("-1"),
		TNCN: decimal.Zero,
	})
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestDefaultRates(t *testing.T) {
	rates := DefaultRates()
	assert.Equal(t, "1", rates.GTGT.String())
	assert.Equal(t, "0.5", rates.TNCN.String())
}
