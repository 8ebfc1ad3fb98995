package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ialame/maison-edition/internal/logger"

	"go.uber.org/zap"
)

const (
	stripeBaseURL      = "https://api.stripe.com"
	signatureTolerance = 5 * time.Minute
)

// Session ids carry a known prefix. Both the structured path and the raw-text
// fallback anchor on it so an unrelated identifier elsewhere in the payload is
// never mistaken for a checkout session.
var (
	sessionIDPattern  = regexp.MustCompile(`"id"\s*:\s*"(cs_(?:test|live)_[^"]+)"`)
	paymentRefPattern = regexp.MustCompile(`"payment_intent"\s*:\s*"([^"]+)"`)
)

type stripeGateway struct {
	secretKey     string
	webhookSecret string
	frontendURL   string
	httpClient    *http.Client
	now           func() time.Time
}

func NewStripeGateway(secretKey, webhookSecret, frontendURL string) Gateway {
	if secretKey == "" {
		logger.L().Warn("Stripe secret key is empty")
	}

	return &stripeGateway{
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		frontendURL:   frontendURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// ----------------- CreateCheckoutSession -----------------

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSession, error) {
	log := logger.L().With(
		zap.String("order_id", req.OrderID),
		zap.Int64("amount_cents", req.AmountCents),
	)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", g.frontendURL+"/orders/success?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", g.frontendURL+req.CancelPath)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", "eur")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", req.Description)
	form.Set("metadata[order_id]", req.OrderID)
	if req.CustomerEmail != "" {
		form.Set("customer_email", req.CustomerEmail)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		stripeBaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	httpReq.SetBasicAuth(g.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Info("opening Stripe checkout session")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		log.Error("Stripe request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read response body", zap.Error(err))
		return nil, fmt.Errorf("%w: reading response: %v", ErrGateway, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Stripe returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: %s", ErrGateway, string(bodyBytes))
	}

	var res struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("failed decoding Stripe response", zap.Error(err))
		return nil, fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
	}

	log.Info("Stripe checkout session created", zap.String("session_id", res.ID))

	return &CheckoutSession{ID: res.ID, URL: res.URL}, nil
}

// ----------------- VerifySignature -----------------

// VerifySignature checks a Stripe-Signature header (t=...,v1=...) against the
// raw payload with HMAC-SHA256 over "t.payload". Timestamps outside the
// tolerance window are rejected. An empty configured secret skips
// verification for local development, matching how callback tokens behave
// elsewhere in this codebase.
func (g *stripeGateway) VerifySignature(payload []byte, sigHeader string) error {
	if g.webhookSecret == "" {
		logger.L().Warn("webhook secret not configured, skipping signature verification")
		return nil
	}

	if sigHeader == "" {
		return ErrInvalidSignature
	}

	var timestamp int64
	var candidates []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			timestamp = ts
		case "v1":
			candidates = append(candidates, v)
		}
	}

	if timestamp == 0 || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	age := g.now().Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// ----------------- ParseEvent -----------------

// sessionExtractor recovers (sessionID, paymentRef) from a verified payload.
// Extractors are tried in order; the first success wins.
type sessionExtractor func(payload []byte) (sessionID, paymentRef string, ok bool)

var extractors = []sessionExtractor{
	extractStructured,
	extractRawText,
}

func (g *stripeGateway) ParseEvent(payload []byte) (*Event, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("malformed event payload: %w", err)
	}

	ev := &Event{Type: envelope.Type}
	if envelope.Type != EventCheckoutCompleted {
		return ev, nil
	}

	for _, extract := range extractors {
		if sessionID, paymentRef, ok := extract(payload); ok {
			ev.SessionID = sessionID
			ev.PaymentRef = paymentRef
			return ev, nil
		}
	}

	logger.L().Warn("checkout completion event yielded no session id")
	return ev, nil
}

// extractStructured deserializes the nested session object. Observed gateway
// schema drift sometimes leaves data.object empty or shaped differently; the
// session-id prefix check guards against settling on a foreign object type.
func extractStructured(payload []byte) (string, string, bool) {
	var ev struct {
		Data struct {
			Object struct {
				ID            string `json:"id"`
				PaymentIntent string `json:"payment_intent"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return "", "", false
	}

	if !strings.HasPrefix(ev.Data.Object.ID, "cs_") {
		return "", "", false
	}

	return ev.Data.Object.ID, ev.Data.Object.PaymentIntent, true
}

// extractRawText is the fallback when structured deserialization yields no
// session: pattern matching over the raw JSON text, anchored to the known
// session-id prefix format.
func extractRawText(payload []byte) (string, string, bool) {
	m := sessionIDPattern.FindSubmatch(payload)
	if m == nil {
		return "", "", false
	}

	var paymentRef string
	if pm := paymentRefPattern.FindSubmatch(payload); pm != nil {
		paymentRef = string(pm[1])
	}

	return string(m[1]), paymentRef, true
}
