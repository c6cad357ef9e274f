package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeInvoice is the aggregate type of invoices
const AggregateTypeInvoice = "Invoice"

// Event type constants for invoices
const (
	EventTypeInvoiceIssued       = "InvoiceIssued"
	EventTypeInvoiceConfirmed    = "InvoiceConfirmed"
	EventTypeInvoicePaid         = "InvoicePaid"
	EventTypeInvoiceRecalculated = "InvoiceRecalculated"
)

// InvoiceEvent carries the fields shared by every invoice event
type InvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	ApartmentID *uuid.UUID      `json:"apartment_id,omitempty"`
	PeriodStart time.Time       `json:"period_start"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TenantEmail string          `json:"tenant_email,omitempty"`
}

func newInvoiceEvent(eventType string, inv *Invoice) InvoiceEvent {
	return InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, inv.ID),
		InvoiceID:       inv.ID,
		ApartmentID:     inv.ApartmentID,
		PeriodStart:     inv.Period.Start(),
		TotalAmount:     inv.TotalAmount,
		TenantEmail:     inv.Info.Tenant.Email,
	}
}

// InvoiceIssuedEvent is raised when a draft invoice is created
type InvoiceIssuedEvent struct {
	InvoiceEvent
	Flat bool `json:"flat"`
}

// NewInvoiceIssuedEvent creates an InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceIssued, inv), Flat: inv.Flat}
}

// InvoiceConfirmedEvent is raised on the Draft to Confirmed transition
type InvoiceConfirmedEvent struct {
	InvoiceEvent
	ManagerEmail string `json:"manager_email,omitempty"`
}

// NewInvoiceConfirmedEvent creates an InvoiceConfirmedEvent
func NewInvoiceConfirmedEvent(inv *Invoice) *InvoiceConfirmedEvent {
	return &InvoiceConfirmedEvent{
		InvoiceEvent: newInvoiceEvent(EventTypeInvoiceConfirmed, inv),
		ManagerEmail: inv.Info.Manager.Email,
	}
}

// InvoicePaidEvent is raised when the invoice is paid
type InvoicePaidEvent struct {
	InvoiceEvent
}

// NewInvoicePaidEvent creates an InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoicePaid, inv)}
}

// InvoiceRecalculatedEvent is raised whenever a draft is repriced
type InvoiceRecalculatedEvent struct {
	InvoiceEvent
	Flat bool `json:"flat"`
}

// NewInvoiceRecalculatedEvent creates an InvoiceRecalculatedEvent
func NewInvoiceRecalculatedEvent(inv *Invoice) *InvoiceRecalculatedEvent {
	return &InvoiceRecalculatedEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceRecalculated, inv), Flat: inv.Flat}
}
