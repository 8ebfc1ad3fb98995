package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ialame/maison-edition/internal/access"
	"github.com/ialame/maison-edition/internal/book"
	"github.com/ialame/maison-edition/internal/logger"
	"github.com/ialame/maison-edition/internal/order"
	"github.com/ialame/maison-edition/internal/payment"
	"github.com/ialame/maison-edition/internal/shipping"
	"github.com/ialame/maison-edition/internal/user"
	"github.com/ialame/maison-edition/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Webhook payloads above this size are rejected outright.
const maxWebhookBody = 1 << 20

type Handler struct {
	users    user.Service
	orders   order.Service
	access   access.Service
	gateway  payment.Gateway
	books    book.Repository
	shipping shipping.Calculator
}

func NewHandler(
	users user.Service,
	orders order.Service,
	accessSvc access.Service,
	gateway payment.Gateway,
	books book.Repository,
	shippingCalc shipping.Calculator,
) *Handler {
	return &Handler{
		users:    users,
		orders:   orders,
		access:   accessSvc,
		gateway:  gateway,
		books:    books,
		shipping: shippingCalc,
	}
}

// ----------------- auth -----------------

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Email == "" || len(req.Password) < 8 {
		utils.WriteJSONError(w, "email and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	token, u, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			utils.WriteJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		utils.WriteJSONError(w, "registration failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, authResponse{Token: token, Email: u.Email, Role: string(u.Role)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	token, u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		utils.WriteJSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	utils.WriteJSON(w, http.StatusOK, authResponse{Token: token, Email: u.Email, Role: string(u.Role)})
}

// ----------------- checkout -----------------

// Checkout creates (or reuses) a PENDING order and opens an external checkout
// session for it. On gateway failure the order stays PENDING and the caller
// may simply retry.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), userID, order.CheckoutInput{
		BookID:   req.BookID,
		Kind:     order.Kind(req.Kind),
		Shipping: toShippingInfo(req.Shipping),
	})
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.openCheckoutSession(w, r, o)
}

// Renew opens a checkout session for a fresh order repeating a previous
// time-bound order's scope and kind.
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.orders.CreateRenewal(r.Context(), userID, orderID)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	h.openCheckoutSession(w, r, o)
}

func (h *Handler) openCheckoutSession(w http.ResponseWriter, r *http.Request, o *order.Order) {
	log := logger.FromCtx(r.Context()).With(zap.String("order_id", o.ID.String()))

	var title string
	cancelPath := "/subscriptions"
	if bookID, ok := o.Scope.BookID(); ok {
		b, err := h.books.GetByID(r.Context(), bookID)
		if err != nil {
			utils.WriteJSONError(w, "book not found", http.StatusNotFound)
			return
		}
		title = b.Title
		cancelPath = fmt.Sprintf("/books/%d/order", bookID)
	}

	sess, err := h.gateway.CreateCheckoutSession(r.Context(), payment.CheckoutSessionRequest{
		OrderID:       o.ID.String(),
		AmountCents:   o.AmountCents + o.ShippingCents,
		Description:   o.Kind.Description(title),
		CustomerEmail: utils.GetUserEmailFromContext(r.Context()),
		CancelPath:    cancelPath,
	})
	if err != nil {
		log.Error("failed to open checkout session", zap.Error(err))
		utils.WriteJSONError(w, "payment gateway unavailable, please retry", http.StatusBadGateway)
		return
	}

	if err := h.orders.AttachCheckoutRef(r.Context(), o.ID, sess.ID); err != nil {
		log.Error("failed to attach checkout reference", zap.Error(err))
		utils.WriteJSONError(w, "checkout failed", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, checkoutResponse{CheckoutURL: sess.URL})
}

func (h *Handler) writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, book.ErrBookNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrBookRequired),
		errors.Is(err, order.ErrBookNotAllowed),
		errors.Is(err, order.ErrInvalidKind),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrNotRenewable),
		errors.Is(err, order.ErrInvalidProductState):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, order.ErrUnauthorized):
		utils.WriteJSONError(w, err.Error(), http.StatusForbidden)
	default:
		utils.WriteJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

// ----------------- webhook -----------------

// StripeWebhook receives the gateway's asynchronous payment notifications.
// The body must stay raw: signature verification covers the exact byte
// sequence the gateway signed. Signature failures reject without touching any
// order; signature-valid events are always acknowledged so the gateway stops
// retrying events this service cannot act on.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		utils.WriteJSONError(w, "unreadable body", http.StatusBadRequest)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	log.Info("webhook received", zap.Bool("signature_present", sigHeader != ""))

	if err := h.gateway.VerifySignature(payload, sigHeader); err != nil {
		log.Warn("invalid webhook signature", zap.Error(err))
		utils.WriteJSONError(w, "invalid signature", http.StatusBadRequest)
		return
	}

	ev, err := h.gateway.ParseEvent(payload)
	if err != nil {
		log.Warn("malformed webhook payload", zap.Error(err))
		utils.WriteJSONError(w, "malformed payload", http.StatusBadRequest)
		return
	}

	log.Info("webhook event", zap.String("type", ev.Type))

	if ev.Type != payment.EventCheckoutCompleted {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	if ev.SessionID == "" {
		log.Warn("could not extract session id from payload")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	if err := h.orders.MarkPaid(r.Context(), ev.SessionID, ev.PaymentRef); err != nil {
		log.Error("failed to settle order", zap.String("session_id", ev.SessionID), zap.Error(err))
		utils.WriteJSONError(w, "settlement failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// ----------------- orders -----------------

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	var filter order.OrderFilterInput
	if s := r.URL.Query().Get("status"); s != "" {
		st := order.Status(s)
		filter.Status = &st
	}
	if s := r.URL.Query().Get("search"); s != "" {
		filter.Search = &s
	}

	var limit, page *int32
	if v, err := utils.ToUint(r.URL.Query().Get("limit")); err == nil {
		l := int32(v)
		limit = &l
	}
	if v, err := utils.ToUint(r.URL.Query().Get("page")); err == nil {
		p := int32(v)
		page = &p
	}

	orders, err := h.orders.GetOrders(r.Context(), &filter, nil, limit, page)
	if err != nil {
		utils.WriteJSONError(w, "failed to fetch orders", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, mapOrdersToResponse(orders))
}

// OrderBySession backs the payment-success page: it resolves the order a
// checkout session settled into.
func (h *Handler) OrderBySession(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		utils.WriteJSONError(w, "sessionId is required", http.StatusBadRequest)
		return
	}

	o, err := h.orders.GetByCheckoutRef(r.Context(), userID, sessionID)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, mapOrderToResponse(o))
}

func (h *Handler) ShippingCost(w http.ResponseWriter, r *http.Request) {
	countryCode := r.URL.Query().Get("countryCode")

	var total int64
	if v, err := utils.ToUint(r.URL.Query().Get("orderTotalCents")); err == nil {
		total = int64(v)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"shippingCents":     h.shipping.CostCents(countryCode, total),
		"freeShippingCents": h.shipping.FreeThresholdCents(),
		"qualifiesForFree":  h.shipping.QualifiesForFreeShipping(total),
	})
}

// BookAccess returns the entitlement decision for the current user and a
// book. Anonymous callers are denied rather than erroring.
func (h *Handler) BookAccess(w http.ResponseWriter, r *http.Request) {
	bookID, err := utils.ToUint(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	userID, _ := utils.GetUserIDFromContext(r.Context())

	utils.WriteJSON(w, http.StatusOK, map[string]bool{
		"access": h.access.HasAccess(r.Context(), userID, bookID),
	})
}

// ----------------- admin -----------------

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if utils.GetUserRoleFromContext(r.Context()) != string(user.RoleAdmin) {
		utils.WriteJSONError(w, "admin access required", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	h.MyOrders(w, r)
}

func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		utils.WriteJSONError(w, "status is required", http.StatusBadRequest)
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), orderID, order.Status(req.Status)); err != nil {
		h.writeOrderError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) AdminUpdateTracking(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req updateTrackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	if err := h.orders.UpdateTracking(r.Context(), orderID, req.TrackingNumber, req.Carrier); err != nil {
		h.writeOrderError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"trackingNumber": req.TrackingNumber,
		"carrier":        req.Carrier,
	})
}
