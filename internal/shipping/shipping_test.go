package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCostCents(t *testing.T) {
	calc := NewCalculator(20000)

	t.Run("KnownCountries", func(t *testing.T) {
		assert.Equal(t, int64(1500), calc.CostCents("SA", 5000))
		assert.Equal(t, int64(3500), calc.CostCents("FR", 5000))
		assert.Equal(t, int64(4500), calc.CostCents("US", 5000))
	})

	t.Run("CaseAndWhitespaceInsensitive", func(t *testing.T) {
		assert.Equal(t, int64(3500), calc.CostCents("fr", 5000))
		assert.Equal(t, int64(3500), calc.CostCents(" FR ", 5000))
	})

	t.Run("UnknownCountryGetsDefault", func(t *testing.T) {
		assert.Equal(t, int64(5000), calc.CostCents("ZZ", 5000))
		assert.Equal(t, int64(5000), calc.CostCents("", 5000))
	})

	t.Run("FreeAtThreshold", func(t *testing.T) {
		assert.Equal(t, int64(0), calc.CostCents("US", 20000))
		assert.Equal(t, int64(0), calc.CostCents("US", 25000))
		assert.Equal(t, int64(4500), calc.CostCents("US", 19999))
	})

	t.Run("ZeroThresholdNeverFree", func(t *testing.T) {
		noFree := NewCalculator(0)
		assert.Equal(t, int64(3500), noFree.CostCents("FR", 1_000_000))
	})
}

func TestQualifiesForFreeShipping(t *testing.T) {
	calc := NewCalculator(20000)

	assert.True(t, calc.QualifiesForFreeShipping(20000))
	assert.False(t, calc.QualifiesForFreeShipping(19999))
	assert.False(t, NewCalculator(0).QualifiesForFreeShipping(1_000_000))
}
