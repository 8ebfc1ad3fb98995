package order

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderCols = []string{
	"id", "user_id", "book_id", "kind", "status", "amount_cents", "shipping_cents",
	"checkout_session_id", "payment_intent_id", "invoice_number",
	"recipient_name", "address", "city", "postal_code", "country", "phone",
	"tracking_number", "carrier", "access_start", "access_end",
	"created_at", "updated_at",
}

func pendingRow(id uuid.UUID, userID uint, bookID any, kind Kind) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderCols).AddRow(
		id, userID, bookID, string(kind), string(StatusPending), int64(1000), int64(0),
		nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil, nil,
		now, now,
	)
}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewRepository(db), mock, func() { db.Close() }
}

func TestRepository_Create(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	start := time.Now()
	end := start.AddDate(1, 0, 0)
	o := &Order{
		ID:          uuid.New(),
		UserID:      7,
		Scope:       BookScope(3),
		Kind:        KindTimedBookLicense,
		Status:      StatusPending,
		AmountCents: 500,
		AccessStart: &start,
		AccessEnd:   &end,
	}

	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(
			o.ID, o.UserID, int64(3), string(o.Kind), string(o.Status), o.AmountCents, int64(0),
			nil, nil, nil, nil, nil, nil,
			o.AccessStart, o.AccessEnd,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), o)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindPending(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		id := uuid.New()
		mock.ExpectQuery(`(?s)SELECT (.+) FROM orders\s+WHERE user_id = \$1\s+AND kind = \$2\s+AND status = 'PENDING'`).
			WithArgs(uint(7), string(KindDigitalDownload), int64(3)).
			WillReturnRows(pendingRow(id, 7, int64(3), KindDigitalDownload))

		o, err := repo.FindPending(context.Background(), 7, BookScope(3), KindDigitalDownload)
		require.NoError(t, err)
		require.NotNil(t, o)
		assert.Equal(t, id, o.ID)
		assert.Equal(t, StatusPending, o.Status)

		bookID, ok := o.Scope.BookID()
		assert.True(t, ok)
		assert.Equal(t, uint(3), bookID)
	})

	t.Run("NoneOpen", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectQuery(`(?s)SELECT (.+) FROM orders`).
			WithArgs(uint(7), string(KindMonthlySubscription), nil).
			WillReturnError(sql.ErrNoRows)

		o, err := repo.FindPending(context.Background(), 7, GlobalScope(), KindMonthlySubscription)
		assert.NoError(t, err)
		assert.Nil(t, o)
	})
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery(`(?s)SELECT (.+) FROM orders WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRepository_GetByCheckoutRef(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	id := uuid.New()
	mock.ExpectQuery(`(?s)SELECT (.+) FROM orders WHERE checkout_session_id = \$1`).
		WithArgs("cs_test_123").
		WillReturnRows(pendingRow(id, 7, nil, KindAnnualSubscription))

	o, err := repo.GetByCheckoutRef(context.Background(), "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.True(t, o.Scope.IsGlobal())
}

func TestRepository_MarkPaidByCheckoutRef(t *testing.T) {
	const invoice = "FAC-20260830-120000-123-4567"

	t.Run("FirstDeliverySettles", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectExec(`(?s)UPDATE orders SET\s+status = 'PAID'.+AND status <> 'PAID'`).
			WithArgs("cs_1", "pi_1", invoice).
			WillReturnResult(sqlmock.NewResult(0, 1))

		settled, found, err := repo.MarkPaidByCheckoutRef(context.Background(), "cs_1", "pi_1", invoice)
		require.NoError(t, err)
		assert.True(t, settled)
		assert.True(t, found)
	})

	t.Run("RedeliveryDoesNotTransition", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectExec(`(?s)UPDATE orders SET\s+status = 'PAID'.+AND status <> 'PAID'`).
			WithArgs("cs_1", "pi_1", invoice).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`(?s)SELECT EXISTS.+checkout_session_id = \$1`).
			WithArgs("cs_1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		settled, found, err := repo.MarkPaidByCheckoutRef(context.Background(), "cs_1", "pi_1", invoice)
		require.NoError(t, err)
		assert.False(t, settled)
		assert.True(t, found)
	})

	t.Run("UnknownReference", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		mock.ExpectExec(`(?s)UPDATE orders SET\s+status = 'PAID'.+AND status <> 'PAID'`).
			WithArgs("cs_ghost", "pi_1", invoice).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`(?s)SELECT EXISTS.+checkout_session_id = \$1`).
			WithArgs("cs_ghost").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		settled, found, err := repo.MarkPaidByCheckoutRef(context.Background(), "cs_ghost", "pi_1", invoice)
		require.NoError(t, err)
		assert.False(t, settled)
		assert.False(t, found)
	})
}

func TestRepository_AttachCheckoutRef_NotFound(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	id := uuid.New()
	mock.ExpectExec(`UPDATE orders SET checkout_session_id = \$1`).
		WithArgs("cs_1", id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AttachCheckoutRef(context.Background(), id, "cs_1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	id := uuid.New()
	mock.ExpectExec(`UPDATE orders SET status = \$1`).
		WithArgs(string(StatusShipped), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), id, StatusShipped)
	assert.NoError(t, err)
}

func TestRepository_UpdateTracking(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	id := uuid.New()
	mock.ExpectExec(`UPDATE orders SET tracking_number = \$1, carrier = \$2`).
		WithArgs("TRK-99", "laposte", id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateTracking(context.Background(), id, "TRK-99", "laposte")
	assert.NoError(t, err)
}

func TestRepository_FetchOrders(t *testing.T) {
	t.Run("OwnerScopedWithStatusFilter", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		owner := uint(7)
		status := StatusPaid

		rows := pendingRow(uuid.New(), owner, nil, KindMonthlySubscription)
		mock.ExpectQuery(`(?s)SELECT (.+) FROM orders WHERE 1=1 AND user_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`).
			WithArgs(owner, string(status), int32(20), int32(0)).
			WillReturnRows(rows)

		got, err := repo.FetchOrders(context.Background(), &owner, &OrderFilterInput{Status: &status}, nil, 20, 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("AdminSearchSortedByAmount", func(t *testing.T) {
		repo, mock, done := newMockRepo(t)
		defer done()

		search := "FAC-2026"
		sort := &OrderSortInput{Field: OrderSortFieldAmount, Direction: SortDirectionAsc}

		mock.ExpectQuery(`(?s)SELECT (.+) FROM orders WHERE 1=1 AND \(id::text ILIKE \$1 OR invoice_number ILIKE \$1\) ORDER BY amount_cents ASC LIMIT \$2 OFFSET \$3`).
			WithArgs("%FAC-2026%", int32(50), int32(50)).
			WillReturnRows(sqlmock.NewRows(orderCols))

		got, err := repo.FetchOrders(context.Background(), nil, &OrderFilterInput{Search: &search}, sort, 50, 50)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
