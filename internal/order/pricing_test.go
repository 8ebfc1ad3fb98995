package order

import (
	"testing"

	"github.com/ialame/maison-edition/internal/book"
	"github.com/ialame/maison-edition/internal/config"

	"github.com/stretchr/testify/assert"
)

var testPrices = config.PriceTable{
	DigitalCents:     1000,
	BookLicenseCents: 500,
	MonthlySubCents:  3000,
	AnnualSubCents:   5000,
}

func TestCalculator_Price(t *testing.T) {
	calc := NewCalculator(testPrices)

	price := int64(2450)
	priced := &book.Book{ID: 1, Title: "Priced", PriceCents: &price}
	unpriced := &book.Book{ID: 2, Title: "Unpriced"}

	t.Run("PhysicalUsesListPrice", func(t *testing.T) {
		amount, err := calc.Price(priced, KindPhysicalCopy)
		assert.NoError(t, err)
		assert.Equal(t, int64(2450), amount)
	})

	t.Run("PhysicalWithoutPriceIsZero", func(t *testing.T) {
		amount, err := calc.Price(unpriced, KindPhysicalCopy)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), amount)
	})

	t.Run("PhysicalWithoutBook", func(t *testing.T) {
		_, err := calc.Price(nil, KindPhysicalCopy)
		assert.ErrorIs(t, err, ErrInvalidProductState)
	})

	t.Run("FixedKinds", func(t *testing.T) {
		cases := map[Kind]int64{
			KindDigitalDownload:     1000,
			KindTimedBookLicense:    500,
			KindMonthlySubscription: 3000,
			KindAnnualSubscription:  5000,
		}
		for kind, want := range cases {
			amount, err := calc.Price(nil, kind)
			assert.NoError(t, err)
			assert.Equal(t, want, amount, "kind %s", kind)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		a1, err1 := calc.Price(priced, KindPhysicalCopy)
		a2, err2 := calc.Price(priced, KindPhysicalCopy)
		assert.NoError(t, err1)
		assert.NoError(t, err2)
		assert.Equal(t, a1, a2)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		_, err := calc.Price(nil, Kind("MYSTERY"))
		assert.ErrorIs(t, err, ErrInvalidKind)
	})
}
