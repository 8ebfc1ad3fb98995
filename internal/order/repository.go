package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ialame/maison-edition/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderFilterInput struct {
	Search   *string
	Status   *Status
	Kind     *Kind
	DateFrom *time.Time
	DateTo   *time.Time
}

type OrderSortField string

const (
	OrderSortFieldCreatedAt OrderSortField = "CREATED_AT"
	OrderSortFieldAmount    OrderSortField = "AMOUNT"
)

type SortDirection string

const (
	SortDirectionAsc  SortDirection = "ASC"
	SortDirectionDesc SortDirection = "DESC"
)

type OrderSortInput struct {
	Field     OrderSortField
	Direction SortDirection
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetByCheckoutRef(ctx context.Context, checkoutRef string) (*Order, error)

	// FindPending returns the open PENDING order for (user, scope, kind),
	// or (nil, nil) when there is none.
	FindPending(ctx context.Context, userID uint, scope Scope, kind Kind) (*Order, error)

	UpdateShippingInfo(ctx context.Context, id uuid.UUID, info *ShippingInfo, shippingCents int64) error
	AttachCheckoutRef(ctx context.Context, id uuid.UUID, checkoutRef string) error

	// MarkPaidByCheckoutRef settles the order referenced by checkoutRef in a
	// single status-guarded UPDATE. settled reports whether this call made
	// the transition to PAID; found reports whether any order carries the
	// reference at all. A webhook redelivery therefore yields
	// (false, true, nil) and converges on the same row state.
	MarkPaidByCheckoutRef(ctx context.Context, checkoutRef, paymentRef, invoiceNumber string) (settled, found bool, err error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) error

	FetchOrders(ctx context.Context, userID *uint, filter *OrderFilterInput, sort *OrderSortInput, limit, offset int32) ([]*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, user_id, book_id, kind, status, amount_cents, shipping_cents,
	checkout_session_id, payment_intent_id, invoice_number,
	recipient_name, address, city, postal_code, country, phone,
	tracking_number, carrier, access_start, access_end,
	created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o      Order
		bookID sql.NullInt64

		recipient, addr, city, postal, country, phone sql.NullString
	)

	err := row.Scan(
		&o.ID, &o.UserID, &bookID, &o.Kind, &o.Status, &o.AmountCents, &o.ShippingCents,
		&o.CheckoutRef, &o.PaymentRef, &o.InvoiceNumber,
		&recipient, &addr, &city, &postal, &country, &phone,
		&o.TrackingNumber, &o.Carrier, &o.AccessStart, &o.AccessEnd,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bookID.Valid {
		o.Scope = BookScope(uint(bookID.Int64))
	} else {
		o.Scope = GlobalScope()
	}

	if recipient.Valid {
		o.Shipping = &ShippingInfo{
			RecipientName: recipient.String,
			Address:       addr.String,
			City:          city.String,
			PostalCode:    postal.String,
			Country:       country.String,
			Phone:         phone.String,
		}
	}

	return &o, nil
}

func scopeArg(s Scope) any {
	if id, ok := s.BookID(); ok {
		return int64(id)
	}
	return nil
}

func shippingArgs(info *ShippingInfo) (recipient, addr, city, postal, country, phone any) {
	if info == nil {
		return nil, nil, nil, nil, nil, nil
	}
	return info.RecipientName, info.Address, info.City, info.PostalCode, info.Country, info.Phone
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("order_id", o.ID.String()),
		zap.String("kind", string(o.Kind)),
	)

	recipient, addr, city, postal, country, phone := shippingArgs(o.Shipping)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, user_id, book_id, kind, status, amount_cents, shipping_cents,
			recipient_name, address, city, postal_code, country, phone,
			access_start, access_end
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		o.ID, o.UserID, scopeArg(o.Scope), o.Kind, o.Status, o.AmountCents, o.ShippingCents,
		recipient, addr, city, postal, country, phone,
		o.AccessStart, o.AccessEnd,
	)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	log.Info("order inserted")
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *repository) GetByCheckoutRef(ctx context.Context, checkoutRef string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE checkout_session_id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, checkoutRef))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return o, err
}

func (r *repository) FindPending(ctx context.Context, userID uint, scope Scope, kind Kind) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1
		  AND kind = $2
		  AND status = 'PENDING'
		  AND ((book_id IS NULL AND $3::bigint IS NULL) OR book_id = $3)
	`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, userID, kind, scopeArg(scope)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to look up pending order",
			zap.Uint("user_id", userID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return nil, err
	}

	return o, nil
}

func (r *repository) UpdateShippingInfo(ctx context.Context, id uuid.UUID, info *ShippingInfo, shippingCents int64) error {
	recipient, addr, city, postal, country, phone := shippingArgs(info)

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			recipient_name = $1, address = $2, city = $3,
			postal_code = $4, country = $5, phone = $6,
			shipping_cents = $7, updated_at = NOW()
		WHERE id = $8
	`, recipient, addr, city, postal, country, phone, shippingCents, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) AttachCheckoutRef(ctx context.Context, id uuid.UUID, checkoutRef string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET checkout_session_id = $1, updated_at = NOW() WHERE id = $2
	`, checkoutRef, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) MarkPaidByCheckoutRef(ctx context.Context, checkoutRef, paymentRef, invoiceNumber string) (bool, bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "MarkPaidByCheckoutRef"),
		zap.String("checkout_ref", checkoutRef),
	)

	// The status guard makes redelivery a no-op UPDATE: only the first
	// settlement transitions the row and assigns the invoice number.
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			status = 'PAID',
			payment_intent_id = $2,
			invoice_number = COALESCE(invoice_number, $3),
			updated_at = NOW()
		WHERE checkout_session_id = $1
		  AND status <> 'PAID'
	`, checkoutRef, paymentRef, invoiceNumber)
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return false, false, err
	}

	affected, _ := res.RowsAffected()
	if affected > 0 {
		log.Info("order settled", zap.String("payment_ref", paymentRef))
		return true, true, nil
	}

	// No transition: either the reference is unknown or this is a redelivery
	// for an already-settled session.
	var exists bool
	err = r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE checkout_session_id = $1)
	`, checkoutRef).Scan(&exists)
	if err != nil {
		log.Error("failed to resolve checkout reference", zap.Error(err))
		return false, false, err
	}

	return false, exists, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) UpdateTracking(ctx context.Context, id uuid.UUID, trackingNumber, carrier string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET tracking_number = $1, carrier = $2, updated_at = NOW() WHERE id = $3
	`, trackingNumber, carrier, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) FetchOrders(
	ctx context.Context,
	userID *uint,
	filter *OrderFilterInput,
	sort *OrderSortInput,
	limit, offset int32,
) ([]*Order, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("method", "FetchOrders"),
		zap.Int32("limit", limit),
		zap.Int32("offset", offset),
	)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`

	args := []any{}
	argIndex := 1

	if userID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *userID)
		argIndex++
	}

	if filter != nil {
		if filter.Search != nil && *filter.Search != "" {
			query += fmt.Sprintf(
				" AND (id::text ILIKE $%d OR invoice_number ILIKE $%d)",
				argIndex, argIndex,
			)
			args = append(args, "%"+*filter.Search+"%")
			argIndex++
		}

		if filter.Status != nil && *filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argIndex)
			args = append(args, *filter.Status)
			argIndex++
		}

		if filter.Kind != nil && *filter.Kind != "" {
			query += fmt.Sprintf(" AND kind = $%d", argIndex)
			args = append(args, *filter.Kind)
			argIndex++
		}

		if filter.DateFrom != nil {
			query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
			args = append(args, *filter.DateFrom)
			argIndex++
		}

		if filter.DateTo != nil {
			query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
			args = append(args, *filter.DateTo)
			argIndex++
		}
	}

	orderBy := "created_at DESC"
	if sort != nil {
		dir := strings.ToUpper(string(sort.Direction))
		if dir != "ASC" && dir != "DESC" {
			dir = "DESC"
		}

		switch sort.Field {
		case OrderSortFieldAmount:
			orderBy = "amount_cents " + dir
		case OrderSortFieldCreatedAt:
			orderBy = "created_at " + dir
		}
	}

	query += " ORDER BY " + orderBy
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	log.Debug("fetch orders done", zap.Int("count", len(orders)))
	return orders, nil
}
