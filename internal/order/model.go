package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindPhysicalCopy        Kind = "PHYSICAL_COPY"
	KindDigitalDownload     Kind = "DIGITAL_DOWNLOAD"
	KindTimedBookLicense    Kind = "TIMED_BOOK_LICENSE"
	KindMonthlySubscription Kind = "MONTHLY_SUBSCRIPTION"
	KindAnnualSubscription  Kind = "ANNUAL_SUBSCRIPTION"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPhysicalCopy, KindDigitalDownload, KindTimedBookLicense,
		KindMonthlySubscription, KindAnnualSubscription:
		return true
	}
	return false
}

// RequiresBook reports whether an order of this kind is scoped to a single
// book. Store-wide subscriptions are the only global kinds.
func (k Kind) RequiresBook() bool {
	switch k {
	case KindMonthlySubscription, KindAnnualSubscription:
		return false
	}
	return true
}

// AccessWindow derives the entitlement window for time-bound kinds. Purchases
// never expire, so both bounds are nil for them.
func (k Kind) AccessWindow(from time.Time) (start, end *time.Time) {
	day := from.Truncate(24 * time.Hour)
	switch k {
	case KindTimedBookLicense, KindAnnualSubscription:
		e := day.AddDate(1, 0, 0)
		return &day, &e
	case KindMonthlySubscription:
		e := day.AddDate(0, 1, 0)
		return &day, &e
	}
	return nil, nil
}

// Description builds the line-item label shown on the payment page.
func (k Kind) Description(bookTitle string) string {
	switch k {
	case KindPhysicalCopy:
		return fmt.Sprintf("Paper copy - %s", bookTitle)
	case KindDigitalDownload:
		return fmt.Sprintf("PDF download - %s", bookTitle)
	case KindTimedBookLicense:
		return fmt.Sprintf("One-year reading - %s", bookTitle)
	case KindMonthlySubscription:
		return "Monthly subscription - all books"
	case KindAnnualSubscription:
		return "Annual subscription - all books"
	}
	return string(k)
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusPreparing Status = "PREPARING"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusPreparing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Scope ties an order either to a single book or to the whole store.
// Constructed only through BookScope/GlobalScope so "book absent iff
// subscription" is enforced by the type, not by a nullable id check.
type Scope struct {
	bookID uint
	global bool
}

func BookScope(bookID uint) Scope {
	return Scope{bookID: bookID}
}

func GlobalScope() Scope {
	return Scope{global: true}
}

func (s Scope) IsGlobal() bool {
	return s.global
}

// BookID returns the scoped book id; ok is false for the global scope.
func (s Scope) BookID() (uint, bool) {
	if s.global {
		return 0, false
	}
	return s.bookID, true
}

// ShippingInfo is populated only for physical orders.
type ShippingInfo struct {
	RecipientName string
	Address       string
	City          string
	PostalCode    string
	Country       string
	Phone         string
}

type Order struct {
	ID     uuid.UUID
	UserID uint
	Scope  Scope
	Kind   Kind
	Status Status

	// AmountCents is fixed at creation time and never recomputed.
	AmountCents   int64
	ShippingCents int64

	CheckoutRef   *string
	PaymentRef    *string
	InvoiceNumber *string

	Shipping       *ShippingInfo
	TrackingNumber *string
	Carrier        *string

	AccessStart *time.Time
	AccessEnd   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
