package metering

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Values are the four metered utility quantities of one reading
type Values struct {
	Electricity decimal.Decimal
	ColdWater   decimal.Decimal
	HotWater    decimal.Decimal
	Heating     decimal.Decimal
}

// ValueScale is the number of decimal places kept for meter values
const ValueScale int32 = 3

// Validate checks every value is non-negative and fits ValueScale
func (v Values) Validate() error {
	for _, x := range []decimal.Decimal{v.Electricity, v.ColdWater, v.HotWater, v.Heating} {
		if x.IsNegative() {
			return shared.NewValidationError("INVALID_READING_VALUE", "Reading values cannot be negative")
		}
		if !valueobject.FitsScale(x, ValueScale) {
			return shared.NewValidationError("INVALID_READING_VALUE",
				fmt.Sprintf("Reading values cannot have more than %d decimal places", ValueScale))
		}
	}
	return nil
}

// Reading is a set of meter values for one apartment and billing period
type Reading struct {
	shared.BaseAggregateRoot
	ApartmentID     uuid.UUID
	MeasurementDate time.Time
	Period          valueobject.BillingPeriod
	Values          Values
	InvoiceID       *uuid.UUID
}

// NewReading creates a reading; its period is the month of the measurement date
func NewReading(apartmentID uuid.UUID, measurementDate time.Time, values Values) (*Reading, error) {
	if apartmentID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_APARTMENT", "Reading must belong to an apartment")
	}
	if measurementDate.IsZero() {
		return nil, shared.NewValidationError("INVALID_DATE", "Measurement date is required")
	}
	if err := values.Validate(); err != nil {
		return nil, err
	}
	date := valueobject.NormalizeDate(measurementDate)
	return &Reading{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ApartmentID:       apartmentID,
		MeasurementDate:   date,
		Period:            valueobject.PeriodOf(date),
		Values:            values,
	}, nil
}

// Update replaces the values and measurement date. It reports whether the
// billing period moved, in which case the caller must release the old invoice link.
func (r *Reading) Update(measurementDate time.Time, values Values) (bool, error) {
	if measurementDate.IsZero() {
		return false, shared.NewValidationError("INVALID_DATE", "Measurement date is required")
	}
	if err := values.Validate(); err != nil {
		return false, err
	}
	date := valueobject.NormalizeDate(measurementDate)
	period := valueobject.PeriodOf(date)
	moved := !period.Equals(r.Period)

	r.MeasurementDate = date
	r.Period = period
	r.Values = values
	r.IncrementVersion()
	return moved, nil
}

// LinkInvoice sets the back-link to the invoice billed from this reading
func (r *Reading) LinkInvoice(invoiceID uuid.UUID) {
	r.InvoiceID = &invoiceID
}

// UnlinkInvoice clears the invoice back-link
func (r *Reading) UnlinkInvoice() {
	r.InvoiceID = nil
}

// Errors raised by reading writes
var (
	ErrDuplicateReading = shared.NewConflictError("DUPLICATE_READING", "A reading already exists for this apartment and billing period")
	ErrReadingLocked    = shared.NewInvalidStateError("READING_LOCKED", "Reading is billed on a confirmed invoice")
)
