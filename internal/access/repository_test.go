package access

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func TestRepository_HasPurchase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT EXISTS.+kind IN \('PHYSICAL_COPY', 'DIGITAL_DOWNLOAD'\)`).
		WithArgs(uint(7), uint(3)).
		WillReturnRows(existsRow(true))

	repo := NewRepository(db)
	ok, err := repo.HasPurchase(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_HasActiveBookLicense(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT EXISTS.+kind = 'TIMED_BOOK_LICENSE'.+access_start <= \$3::date.+access_end >= \$3::date`).
		WithArgs(uint(7), uint(3), day).
		WillReturnRows(existsRow(false))

	repo := NewRepository(db)
	ok, err := repo.HasActiveBookLicense(context.Background(), 7, 3, day)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_HasActiveSubscription(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT EXISTS.+book_id IS NULL.+kind IN \('MONTHLY_SUBSCRIPTION', 'ANNUAL_SUBSCRIPTION'\)`).
		WithArgs(uint(7), day).
		WillReturnRows(existsRow(true))

	repo := NewRepository(db)
	ok, err := repo.HasActiveSubscription(context.Background(), 7, day)
	require.NoError(t, err)
	assert.True(t, ok)
}
