package order

import (
	"context"
	"strings"
	"time"

	"github.com/ialame/maison-edition/internal/book"
	"github.com/ialame/maison-edition/internal/logger"
	"github.com/ialame/maison-edition/internal/shipping"
	"github.com/ialame/maison-edition/internal/user"
	"github.com/ialame/maison-edition/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier is the fire-and-forget notification collaborator. Settlement and
// fulfillment never wait on it or depend on its outcome.
type Notifier interface {
	OrderPaid(ctx context.Context, o *Order)
	OrderShipped(ctx context.Context, o *Order)
}

type CheckoutInput struct {
	BookID   *uint
	Kind     Kind
	Shipping *ShippingInfo
}

type Service interface {
	CreateOrder(ctx context.Context, userID uint, input CheckoutInput) (*Order, error)
	CreateRenewal(ctx context.Context, userID uint, orderID uuid.UUID) (*Order, error)

	AttachCheckoutRef(ctx context.Context, orderID uuid.UUID, checkoutRef string) error
	MarkPaid(ctx context.Context, checkoutRef, paymentRef string) error

	UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error
	UpdateTracking(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string) error

	GetOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page *int32) ([]*Order, error)
	GetOrderDetail(ctx context.Context, userID uint, orderID uuid.UUID, isAdmin bool) (*Order, error)
	GetByCheckoutRef(ctx context.Context, userID uint, checkoutRef string) (*Order, error)
}

type service struct {
	repo     Repository
	books    book.Repository
	users    user.Repository
	pricing  Calculator
	shipping shipping.Calculator
	notifier Notifier
}

func NewService(
	repo Repository,
	books book.Repository,
	users user.Repository,
	pricing Calculator,
	shippingCalc shipping.Calculator,
	notifier Notifier,
) Service {
	return &service{
		repo:     repo,
		books:    books,
		users:    users,
		pricing:  pricing,
		shipping: shippingCalc,
		notifier: notifier,
	}
}

// CreateOrder produces or reuses the PENDING order for (user, scope, kind).
// Re-submitting the same checkout while one is open returns the existing
// order (shipping details refreshed for paper copies) instead of a duplicate.
func (s *service) CreateOrder(ctx context.Context, userID uint, input CheckoutInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.Uint("user_id", userID),
		zap.String("kind", string(input.Kind)),
	)

	if !input.Kind.Valid() {
		return nil, ErrInvalidKind
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		log.Warn("acting user cannot be resolved", zap.Error(err))
		return nil, err
	}

	scope, b, err := s.resolveScope(ctx, input.Kind, input.BookID)
	if err != nil {
		return nil, err
	}

	// Idempotency boundary against duplicate checkout submissions.
	existing, err := s.repo.FindPending(ctx, userID, scope, input.Kind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info("reusing open pending order", zap.String("order_id", existing.ID.String()))
		if input.Kind == KindPhysicalCopy && input.Shipping != nil {
			fee := s.shipping.CostCents(input.Shipping.Country, existing.AmountCents)
			if err := s.repo.UpdateShippingInfo(ctx, existing.ID, input.Shipping, fee); err != nil {
				return nil, err
			}
			existing.Shipping = input.Shipping
			existing.ShippingCents = fee
		}
		return existing, nil
	}

	return s.createPending(ctx, userID, scope, input.Kind, b, input.Shipping)
}

// CreateRenewal opens a fresh PENDING order with the same scope and kind as a
// previous time-bound order, priced at the current constants.
func (s *service) CreateRenewal(ctx context.Context, userID uint, orderID uuid.UUID) (*Order, error) {
	prev, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if prev.UserID != userID {
		return nil, ErrUnauthorized
	}

	switch prev.Kind {
	case KindTimedBookLicense, KindMonthlySubscription, KindAnnualSubscription:
	default:
		return nil, ErrNotRenewable
	}

	existing, err := s.repo.FindPending(ctx, userID, prev.Scope, prev.Kind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var b *book.Book
	if id, ok := prev.Scope.BookID(); ok {
		b, err = s.books.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return s.createPending(ctx, userID, prev.Scope, prev.Kind, b, nil)
}

func (s *service) resolveScope(ctx context.Context, kind Kind, bookID *uint) (Scope, *book.Book, error) {
	if !kind.RequiresBook() {
		if bookID != nil {
			return Scope{}, nil, ErrBookNotAllowed
		}
		return GlobalScope(), nil, nil
	}

	if bookID == nil {
		return Scope{}, nil, ErrBookRequired
	}

	b, err := s.books.GetByID(ctx, *bookID)
	if err != nil {
		return Scope{}, nil, err
	}
	return BookScope(b.ID), b, nil
}

func (s *service) createPending(
	ctx context.Context,
	userID uint,
	scope Scope,
	kind Kind,
	b *book.Book,
	shippingInfo *ShippingInfo,
) (*Order, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.Uint("user_id", userID),
		zap.String("kind", string(kind)),
	)

	amount, err := s.pricing.Price(b, kind)
	if err != nil {
		log.Error("failed to price order", zap.Error(err))
		return nil, err
	}
	if kind == KindPhysicalCopy && amount == 0 {
		log.Warn("paper edition has no list price, charging zero",
			zap.Uint("book_id", b.ID),
		)
	}

	start, end := kind.AccessWindow(time.Now())

	o := &Order{
		ID:          uuid.New(),
		UserID:      userID,
		Scope:       scope,
		Kind:        kind,
		Status:      StatusPending,
		AmountCents: amount,
		AccessStart: start,
		AccessEnd:   end,
		CreatedAt:   time.Now(),
	}

	if kind == KindPhysicalCopy && shippingInfo != nil {
		o.Shipping = shippingInfo
		o.ShippingCents = s.shipping.CostCents(shippingInfo.Country, amount)
	}

	if err := s.repo.Create(ctx, o); err != nil {
		// The partial unique index is the backstop against a concurrent
		// identical checkout racing past the dedup lookup.
		if strings.Contains(err.Error(), "orders_pending_dedup_idx") {
			log.Warn("lost pending-order race, reusing winner")
			winner, ferr := s.repo.FindPending(ctx, userID, scope, kind)
			if ferr != nil {
				return nil, ferr
			}
			// The winner may already be settled or cancelled by the time
			// we re-look. Surface the conflict instead of a nil order.
			if winner == nil {
				return nil, err
			}
			return winner, nil
		}
		return nil, err
	}

	log.Info("pending order created",
		zap.String("order_id", o.ID.String()),
		zap.Int64("amount_cents", o.AmountCents),
	)

	return o, nil
}

func (s *service) AttachCheckoutRef(ctx context.Context, orderID uuid.UUID, checkoutRef string) error {
	return s.repo.AttachCheckoutRef(ctx, orderID, checkoutRef)
}

// MarkPaid settles the order tied to checkoutRef. Unknown references are
// logged and dropped: webhook delivery may race reference attachment or carry
// unrelated test traffic, and the gateway must not be made to retry those.
func (s *service) MarkPaid(ctx context.Context, checkoutRef, paymentRef string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "MarkPaid"),
		zap.String("checkout_ref", checkoutRef),
	)

	settled, found, err := s.repo.MarkPaidByCheckoutRef(ctx, checkoutRef, paymentRef, utils.GenerateInvoiceNumber())
	if err != nil {
		return err
	}
	if !found {
		log.Warn("payment confirmation for unknown checkout reference dropped")
		return nil
	}
	if !settled {
		// Redelivery of an already-settled session: ack without re-firing
		// the paid notification.
		log.Info("checkout reference already settled, redelivery acknowledged")
		return nil
	}

	if o, err := s.repo.GetByCheckoutRef(ctx, checkoutRef); err == nil {
		s.notifier.OrderPaid(ctx, o)
	}

	return nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return err
	}

	if status == StatusShipped {
		if o, err := s.repo.GetByID(ctx, orderID); err == nil {
			s.notifier.OrderShipped(ctx, o)
		}
	}

	return nil
}

func (s *service) UpdateTracking(ctx context.Context, orderID uuid.UUID, trackingNumber, carrier string) error {
	return s.repo.UpdateTracking(ctx, orderID, trackingNumber, carrier)
}

func (s *service) GetOrders(ctx context.Context, filter *OrderFilterInput, sort *OrderSortInput, limit, page *int32) ([]*Order, error) {
	userID, _ := utils.GetUserIDFromContext(ctx)
	isAdmin := utils.GetUserRoleFromContext(ctx) == string(user.RoleAdmin)

	finalLimit := int32(20)
	finalPage := int32(1)
	if limit != nil && *limit > 0 {
		finalLimit = *limit
	}
	if page != nil && *page > 0 {
		finalPage = *page
	}
	if finalLimit > 100 {
		finalLimit = 100
	}
	offset := (finalPage - 1) * finalLimit

	var owner *uint
	if !isAdmin {
		owner = &userID
	}

	return s.repo.FetchOrders(ctx, owner, filter, sort, finalLimit, offset)
}

func (s *service) GetOrderDetail(ctx context.Context, userID uint, orderID uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !isAdmin && o.UserID != userID {
		return nil, ErrUnauthorized
	}

	return o, nil
}

func (s *service) GetByCheckoutRef(ctx context.Context, userID uint, checkoutRef string) (*Order, error) {
	o, err := s.repo.GetByCheckoutRef(ctx, checkoutRef)
	if err != nil {
		return nil, err
	}

	if o.UserID != userID {
		return nil, ErrUnauthorized
	}

	return o, nil
}
