package order

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrBookRequired        = errors.New("book id is required for this order kind")
	ErrBookNotAllowed      = errors.New("subscriptions are not tied to a single book")
	ErrInvalidKind         = errors.New("invalid order kind")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrNotRenewable        = errors.New("order kind cannot be renewed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidProductState = errors.New("book cannot be priced")
)
