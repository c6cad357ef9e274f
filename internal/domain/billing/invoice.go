package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status is the confirmation state of an invoice
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
)

// Errors raised by the invoice state machine
var (
	ErrInvoiceFrozen    = shared.NewInvalidStateError("INVOICE_FROZEN", "Invoice is confirmed and can no longer change")
	ErrAlreadyPaid      = shared.NewInvalidStateError("ALREADY_PAID", "Invoice is already paid")
	ErrDuplicateInvoice = shared.NewConflictError("DUPLICATE_INVOICE", "An invoice already exists for this apartment and billing period")
)

// Invoice is the aggregate root for a monthly apartment bill
type Invoice struct {
	shared.BaseAggregateRoot
	ApartmentID      *uuid.UUID
	TenantID         *uuid.UUID
	ReadingID        *uuid.UUID
	IssueDate        time.Time
	Period           valueobject.BillingPeriod
	RentAmount       decimal.Decimal
	OtherCharges     decimal.Decimal
	TotalMediaAmount decimal.Decimal
	TotalAmount      decimal.Decimal
	Paid             bool
	Confirmed        bool
	Flat             bool
	Info             InvoiceInfo
}

// IssueParams collects what an invoice is priced and snapshotted from
type IssueParams struct {
	Building  *property.Building
	Apartment *property.Apartment
	IssueDate time.Time
	// Reading is the apartment's reading for the same billing period, if any
	Reading *metering.Reading
	// Tenant is the apartment's current tenant, if any
	Tenant *identity.User
	// Manager is the identity of the issuing manager, if known
	Manager *identity.PersonSnapshot
}

// NewInvoice prices a draft invoice for the billing period of the issue date
func NewInvoice(p IssueParams) (*Invoice, error) {
	if p.Building == nil || p.Apartment == nil {
		return nil, shared.NewValidationError("INVALID_APARTMENT", "Invoice needs an apartment and its building")
	}
	if p.Apartment.BuildingID != p.Building.ID {
		return nil, shared.NewValidationError("INVALID_APARTMENT", "Apartment does not belong to the building")
	}
	if p.IssueDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Issue date is required")
	}
	issueDate := valueobject.NormalizeDate(p.IssueDate)
	period := valueobject.PeriodOf(issueDate)

	if p.Reading != nil && (p.Reading.ApartmentID != p.Apartment.ID || !p.Reading.Period.Equals(period)) {
		return nil, shared.NewValidationError("INVALID_READING", "Reading does not match the apartment and billing period")
	}

	apartmentID := p.Apartment.ID
	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ApartmentID:       &apartmentID,
		IssueDate:         issueDate,
		Period:            period,
	}
	if p.Tenant != nil {
		tenantID := p.Tenant.ID
		inv.TenantID = &tenantID
		inv.Info.Tenant = p.Tenant.Snapshot()
	}
	if p.Manager != nil {
		inv.Info.Manager = *p.Manager
	}

	var values *metering.Values
	if p.Reading != nil {
		readingID := p.Reading.ID
		inv.ReadingID = &readingID
		values = &p.Reading.Values
	}
	inv.Info = inv.Info.withProperty(p.Building, p.Apartment).withReadings(values)
	inv.applyCharges(ComputeCharges(p.Building.Tariff, p.Apartment.Area, values))

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return inv, nil
}

func (inv *Invoice) applyCharges(c Charges) {
	inv.RentAmount = c.Rent.Amount()
	inv.OtherCharges = c.Other.Amount()
	inv.TotalMediaAmount = c.Media.Amount()
	inv.TotalAmount = c.Total.Amount()
	inv.Flat = c.Flat
}

func (inv *Invoice) applyMedia(media valueobject.Money, flat bool) {
	rent := valueobject.NewMoneyPLN(inv.RentAmount)
	other := valueobject.NewMoneyPLN(inv.OtherCharges)
	inv.TotalMediaAmount = media.Amount()
	inv.TotalAmount = TotalOf(rent, other, media).Amount()
	inv.Flat = flat
}

// Status returns Draft or Confirmed
func (inv *Invoice) Status() Status {
	if inv.Confirmed {
		return StatusConfirmed
	}
	return StatusDraft
}

// IsOrphaned reports whether the invoice outlived its apartment
func (inv *Invoice) IsOrphaned() bool {
	return inv.ApartmentID == nil
}

// Confirm freezes the invoice. Confirming twice is a no-op apart from the
// optional manager refresh. It reports whether this call did the transition.
func (inv *Invoice) Confirm(manager *identity.PersonSnapshot) bool {
	if manager != nil {
		inv.Info.Manager = *manager
	}
	if inv.Confirmed {
		if manager != nil {
			inv.IncrementVersion()
		}
		return false
	}
	inv.Confirmed = true
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceConfirmedEvent(inv))
	return true
}

// Reopen would move a confirmed invoice back to draft, which is never allowed.
// On a draft it is a no-op.
func (inv *Invoice) Reopen() error {
	if inv.Confirmed {
		return ErrInvoiceFrozen
	}
	return nil
}

// Pay marks the invoice paid. There is no way back.
func (inv *Invoice) Pay() error {
	if inv.Paid {
		return ErrAlreadyPaid
	}
	inv.Paid = true
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	return nil
}

// CanDelete allows deletion of drafts only
func (inv *Invoice) CanDelete() error {
	if inv.Confirmed {
		return ErrInvoiceFrozen
	}
	return nil
}

// CanRecalculate reports whether the monetary fields may still change
func (inv *Invoice) CanRecalculate() bool {
	return !inv.Confirmed
}

// Recalculate reprices a draft from the current building tariff and apartment
// geometry. reading must be the linked reading, or nil for a flat invoice.
// Tenant and manager snapshots are left untouched.
func (inv *Invoice) Recalculate(building *property.Building, apartment *property.Apartment, reading *metering.Reading) error {
	if !inv.CanRecalculate() {
		return ErrInvoiceFrozen
	}
	var values *metering.Values
	if reading != nil {
		values = &reading.Values
	}
	inv.Info = inv.Info.withProperty(building, apartment).withReadings(values)
	inv.applyCharges(ComputeCharges(building.Tariff, apartment.Area, values))
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceRecalculatedEvent(inv))
	return nil
}

// AttachReading links a reading to a draft and switches it to metered billing
func (inv *Invoice) AttachReading(reading *metering.Reading, tariff property.Tariff) error {
	if !inv.CanRecalculate() {
		return ErrInvoiceFrozen
	}
	readingID := reading.ID
	inv.ReadingID = &readingID
	media, flat := MediaCharge(tariff, &reading.Values)
	inv.applyMedia(media, flat)
	inv.Info = inv.Info.withReadings(&reading.Values)
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceRecalculatedEvent(inv))
	return nil
}

// DetachReading drops the reading link. A draft falls back to flat billing;
// a confirmed invoice keeps its amounts and snapshot.
func (inv *Invoice) DetachReading(tariff property.Tariff) {
	inv.ReadingID = nil
	if inv.Confirmed {
		inv.IncrementVersion()
		return
	}
	media, flat := MediaCharge(tariff, nil)
	inv.applyMedia(media, flat)
	inv.Info = inv.Info.withReadings(nil)
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceRecalculatedEvent(inv))
}

// DetachApartment keeps a confirmed invoice as history after its apartment is deleted
func (inv *Invoice) DetachApartment() {
	inv.ApartmentID = nil
	inv.ReadingID = nil
	inv.IncrementVersion()
}

// DetachTenant clears the tenant reference; the tenant snapshot stays on the invoice
func (inv *Invoice) DetachTenant() {
	inv.TenantID = nil
	inv.IncrementVersion()
}

// TotalMoney returns the total as Money
func (inv *Invoice) TotalMoney() valueobject.Money {
	return valueobject.NewMoneyPLN(inv.TotalAmount)
}
