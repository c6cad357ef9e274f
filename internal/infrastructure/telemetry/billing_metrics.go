package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	AttrTrigger = attribute.Key("trigger")
	AttrCascade = attribute.Key("cascade")
)

// Recalculation triggers reported on the recalculated counter.
const (
	TriggerApartment = "apartment"
	TriggerBuilding  = "building"
	TriggerReading   = "reading"
)

// BillingMetrics records invoice lifecycle and recalculation counters.
// A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	issued       *Counter
	confirmed    *Counter
	paid         *Counter
	recalculated *Counter
	cascades     *Counter
	recalcTime   *Histogram
}

// NewBillingMetrics registers the billing instruments on meter.
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		m   BillingMetrics
		err error
	)
	if m.issued, err = NewCounter(meter, "billing.invoices.issued", "Invoices issued", "{invoice}"); err != nil {
		return nil, err
	}
	if m.confirmed, err = NewCounter(meter, "billing.invoices.confirmed", "Invoices confirmed by a manager", "{invoice}"); err != nil {
		return nil, err
	}
	if m.paid, err = NewCounter(meter, "billing.invoices.paid", "Invoices marked as paid", "{invoice}"); err != nil {
		return nil, err
	}
	if m.recalculated, err = NewCounter(meter, "billing.invoices.recalculated", "Draft invoices rewritten by recalculation", "{invoice}"); err != nil {
		return nil, err
	}
	if m.cascades, err = NewCounter(meter, "billing.cascades", "Deletion cascades applied", "{cascade}"); err != nil {
		return nil, err
	}
	if m.recalcTime, err = NewHistogram(meter, "billing.recalculation.duration", "Recalculation pass duration", "s",
		0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5); err != nil {
		return nil, err
	}
	return &m, nil
}

// InvoiceIssued counts a newly issued invoice.
func (m *BillingMetrics) InvoiceIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.issued.Inc(ctx)
}

// InvoiceConfirmed counts a draft-to-confirmed transition.
func (m *BillingMetrics) InvoiceConfirmed(ctx context.Context) {
	if m == nil {
		return
	}
	m.confirmed.Inc(ctx)
}

// InvoicePaid counts a payment.
func (m *BillingMetrics) InvoicePaid(ctx context.Context) {
	if m == nil {
		return
	}
	m.paid.Inc(ctx)
}

// InvoicesRecalculated counts rewritten drafts for one recalculation pass.
func (m *BillingMetrics) InvoicesRecalculated(ctx context.Context, trigger string, n int, took time.Duration) {
	if m == nil {
		return
	}
	if n > 0 {
		m.recalculated.Add(ctx, int64(n), AttrTrigger.String(trigger))
	}
	m.recalcTime.RecordDuration(ctx, took, AttrTrigger.String(trigger))
}

// CascadeApplied counts a committed deletion cascade by root entity kind.
func (m *BillingMetrics) CascadeApplied(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.cascades.Inc(ctx, AttrCascade.String(kind))
}
