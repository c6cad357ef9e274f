package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kinds of tenant notifications
const (
	KindInvoiceConfirmed = "invoice_confirmed"
	KindInvoicePaid      = "invoice_paid"
)

// Notification is an outbound message to a tenant
type Notification struct {
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// Notifier delivers notifications, typically by email
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// InvoiceNotificationHandler tells tenants when their invoice is confirmed or paid
type InvoiceNotificationHandler struct {
	notifier Notifier
	printer  *message.Printer
	logger   *zap.Logger
}

// NewInvoiceNotificationHandler creates a new InvoiceNotificationHandler
func NewInvoiceNotificationHandler(notifier Notifier, logger *zap.Logger) *InvoiceNotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceNotificationHandler{
		notifier: notifier,
		printer:  message.NewPrinter(language.Polish),
		logger:   logger,
	}
}

// EventTypes implements shared.EventHandler
func (h *InvoiceNotificationHandler) EventTypes() []string {
	return []string{billing.EventTypeInvoiceConfirmed, billing.EventTypeInvoicePaid}
}

// HandlerName scopes idempotency keys
func (h *InvoiceNotificationHandler) HandlerName() string {
	return "invoice_notification"
}

// Handle implements shared.EventHandler
func (h *InvoiceNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var n Notification
	switch e := event.(type) {
	case *billing.InvoiceConfirmedEvent:
		n = Notification{
			Kind:      KindInvoiceConfirmed,
			Recipient: e.TenantEmail,
			Subject:   "Your invoice for " + period(e.InvoiceEvent) + " is ready",
			Body:      h.printer.Sprintf("Amount due: %s PLN.", h.amount(e.TotalAmount)),
			InvoiceID: e.InvoiceID,
		}
	case *billing.InvoicePaidEvent:
		n = Notification{
			Kind:      KindInvoicePaid,
			Recipient: e.TenantEmail,
			Subject:   "Payment received for " + period(e.InvoiceEvent),
			Body:      h.printer.Sprintf("We received %s PLN. Thank you.", h.amount(e.TotalAmount)),
			InvoiceID: e.InvoiceID,
		}
	default:
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	if n.Recipient == "" {
		h.logger.Debug("Invoice has no tenant, notification skipped",
			zap.String("invoice_id", n.InvoiceID.String()),
			zap.String("kind", n.Kind),
		)
		return nil
	}
	if err := h.notifier.Notify(ctx, n); err != nil {
		return fmt.Errorf("failed to notify %s about invoice %s: %w", n.Recipient, n.InvoiceID, err)
	}
	h.logger.Info("Tenant notified",
		zap.String("invoice_id", n.InvoiceID.String()),
		zap.String("kind", n.Kind),
	)
	return nil
}

func (h *InvoiceNotificationHandler) amount(d decimal.Decimal) string {
	return h.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func period(e billing.InvoiceEvent) string {
	return e.PeriodStart.Format("01/2006")
}

var _ shared.EventHandler = (*InvoiceNotificationHandler)(nil)

// LoggingNotifier writes notifications to the log instead of sending them
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a new LoggingNotifier
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

// Notify implements Notifier
func (n *LoggingNotifier) Notify(_ context.Context, msg Notification) error {
	n.logger.Info("NOTIFICATION",
		zap.String("kind", msg.Kind),
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
