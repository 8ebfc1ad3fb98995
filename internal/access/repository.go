package access

import (
	"context"
	"database/sql"
	"time"
)

// Repository answers the three entitlement grants against the order ledger.
// Every query is read-only and scoped to PAID orders.
type Repository interface {
	// HasPurchase reports a settled paper or digital purchase of the book.
	HasPurchase(ctx context.Context, userID, bookID uint) (bool, error)

	// HasActiveBookLicense reports a settled timed license for the book
	// whose access window contains the given day.
	HasActiveBookLicense(ctx context.Context, userID, bookID uint, day time.Time) (bool, error)

	// HasActiveSubscription reports a settled store-wide subscription whose
	// access window contains the given day.
	HasActiveSubscription(ctx context.Context, userID uint, day time.Time) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) HasPurchase(ctx context.Context, userID, bookID uint) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1
			  AND book_id = $2
			  AND status = 'PAID'
			  AND kind IN ('PHYSICAL_COPY', 'DIGITAL_DOWNLOAD')
		)
	`, userID, bookID).Scan(&ok)
	return ok, err
}

func (r *repository) HasActiveBookLicense(ctx context.Context, userID, bookID uint, day time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1
			  AND book_id = $2
			  AND status = 'PAID'
			  AND kind = 'TIMED_BOOK_LICENSE'
			  AND access_start <= $3::date
			  AND access_end >= $3::date
		)
	`, userID, bookID, day).Scan(&ok)
	return ok, err
}

func (r *repository) HasActiveSubscription(ctx context.Context, userID uint, day time.Time) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1
			  AND book_id IS NULL
			  AND status = 'PAID'
			  AND kind IN ('MONTHLY_SUBSCRIPTION', 'ANNUAL_SUBSCRIPTION')
			  AND access_start <= $2::date
			  AND access_end >= $2::date
		)
	`, userID, day).Scan(&ok)
	return ok, err
}
