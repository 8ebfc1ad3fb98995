// Package notification implements the order.Notifier collaborator. Delivery
// mechanics (templating, SMTP) live outside this service; this implementation
// records the trigger so an external mailer can consume it from the log
// stream.
package notification

import (
	"context"

	"github.com/ialame/maison-edition/internal/logger"
	"github.com/ialame/maison-edition/internal/order"

	"go.uber.org/zap"
)

type logNotifier struct{}

func NewLogNotifier() order.Notifier {
	return logNotifier{}
}

func (logNotifier) OrderPaid(ctx context.Context, o *order.Order) {
	logger.FromCtx(ctx).Info("notify: order paid",
		zap.String("order_id", o.ID.String()),
		zap.Uint("user_id", o.UserID),
		zap.String("kind", string(o.Kind)),
		zap.Int64("amount_cents", o.AmountCents),
	)
}

func (logNotifier) OrderShipped(ctx context.Context, o *order.Order) {
	logger.FromCtx(ctx).Info("notify: order shipped",
		zap.String("order_id", o.ID.String()),
		zap.Uint("user_id", o.UserID),
		zap.Stringp("tracking_number", o.TrackingNumber),
		zap.Stringp("carrier", o.Carrier),
	)
}
