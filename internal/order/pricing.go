package order

import (
	"github.com/ialame/maison-edition/internal/book"
	"github.com/ialame/maison-edition/internal/config"
)

// Calculator resolves the amount of a new order from (book, kind). It is a
// pure function over the price table injected at startup; amounts are computed
// exactly once, at order creation, and never on read.
type Calculator struct {
	prices config.PriceTable
}

func NewCalculator(prices config.PriceTable) Calculator {
	return Calculator{prices: prices}
}

// Price returns the amount in euro cents. For physical copies a book without
// a list price resolves to zero: the storefront never blocks checkout on a
// missing price, it only logs it upstream.
func (c Calculator) Price(b *book.Book, kind Kind) (int64, error) {
	switch kind {
	case KindPhysicalCopy:
		if b == nil {
			return 0, ErrInvalidProductState
		}
		if b.PriceCents == nil {
			return 0, nil
		}
		return *b.PriceCents, nil
	case KindDigitalDownload:
		return c.prices.DigitalCents, nil
	case KindTimedBookLicense:
		return c.prices.BookLicenseCents, nil
	case KindMonthlySubscription:
		return c.prices.MonthlySubCents, nil
	case KindAnnualSubscription:
		return c.prices.AnnualSubCents, nil
	}
	return 0, ErrInvalidKind
}
