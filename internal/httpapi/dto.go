package httpapi

import (
	"time"

	"github.com/ialame/maison-edition/internal/order"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type shippingInfoPayload struct {
	RecipientName string `json:"recipientName"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
}

type checkoutRequest struct {
	BookID   *uint                `json:"bookId"`
	Kind     string               `json:"kind"`
	Shipping *shippingInfoPayload `json:"shipping"`
}

type checkoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateTrackingRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
}

type orderResponse struct {
	ID            string  `json:"id"`
	BookID        *uint   `json:"bookId"`
	Kind          string  `json:"kind"`
	Status        string  `json:"status"`
	AmountCents   int64   `json:"amountCents"`
	ShippingCents int64   `json:"shippingCents"`
	InvoiceNumber *string `json:"invoiceNumber,omitempty"`

	RecipientName *string `json:"recipientName,omitempty"`
	Address       *string `json:"address,omitempty"`
	City          *string `json:"city,omitempty"`
	PostalCode    *string `json:"postalCode,omitempty"`
	Country       *string `json:"country,omitempty"`
	Phone         *string `json:"phone,omitempty"`

	TrackingNumber *string `json:"trackingNumber,omitempty"`
	Carrier        *string `json:"carrier,omitempty"`

	AccessStart *string `json:"accessStart,omitempty"`
	AccessEnd   *string `json:"accessEnd,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toShippingInfo(p *shippingInfoPayload) *order.ShippingInfo {
	if p == nil {
		return nil
	}
	return &order.ShippingInfo{
		RecipientName: p.RecipientName,
		Address:       p.Address,
		City:          p.City,
		PostalCode:    p.PostalCode,
		Country:       p.Country,
		Phone:         p.Phone,
	}
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

func mapOrderToResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:            o.ID.String(),
		Kind:          string(o.Kind),
		Status:        string(o.Status),
		AmountCents:   o.AmountCents,
		ShippingCents: o.ShippingCents,
		InvoiceNumber: o.InvoiceNumber,

		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,

		AccessStart: dateString(o.AccessStart),
		AccessEnd:   dateString(o.AccessEnd),

		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}

	if id, ok := o.Scope.BookID(); ok {
		resp.BookID = &id
	}

	if o.Shipping != nil {
		resp.RecipientName = &o.Shipping.RecipientName
		resp.Address = &o.Shipping.Address
		resp.City = &o.Shipping.City
		resp.PostalCode = &o.Shipping.PostalCode
		resp.Country = &o.Shipping.Country
		resp.Phone = &o.Shipping.Phone
	}

	return resp
}

func mapOrdersToResponse(orders []*order.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapOrderToResponse(o))
	}
	return out
}
