package payment

import (
	"context"
	"errors"
)

// EventCheckoutCompleted is the only gateway event that settles an order;
// everything else is acknowledged and ignored.
const EventCheckoutCompleted = "checkout.session.completed"

var (
	// ErrInvalidSignature rejects a webhook whose signature header does not
	// match the payload. Nothing is mutated on this path.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrGateway wraps external payment API failures (network, auth,
	// non-2xx). The order stays PENDING and the caller may retry.
	ErrGateway = errors.New("payment gateway error")
)

// CheckoutSessionRequest carries everything the gateway needs to open an
// external checkout session for one order.
type CheckoutSessionRequest struct {
	OrderID       string
	AmountCents   int64
	Description   string
	CustomerEmail string

	// CancelPath is appended to the storefront URL when the buyer backs out.
	CancelPath string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified, parsed webhook notification. SessionID is empty when
// neither extraction path could recover a checkout-session reference.
type Event struct {
	Type       string
	SessionID  string
	PaymentRef string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error)

	// VerifySignature checks the signature header against the exact raw
	// payload bytes the gateway signed.
	VerifySignature(payload []byte, sigHeader string) error

	ParseEvent(payload []byte) (*Event, error)
}
