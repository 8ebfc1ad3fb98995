package book

import "time"

type Book struct {
	ID        uint
	Title     string
	Author    string
	CoverURL  *string
	Published bool

	// List price of the paper edition in euro cents. Nil when the
	// storefront has not priced the paper edition yet.
	PriceCents *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
