package metering

import (
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReadingRequest is the input of Create and Update
type ReadingRequest struct {
	MeasurementDate time.Time       `json:"measurement_date" binding:"required"`
	Electricity     decimal.Decimal `json:"electricity"`
	ColdWater       decimal.Decimal `json:"cold_water"`
	HotWater        decimal.Decimal `json:"hot_water"`
	Heating         decimal.Decimal `json:"heating"`
}

func (r ReadingRequest) values() metering.Values {
	return metering.Values{
		Electricity: r.Electricity,
		ColdWater:   r.ColdWater,
		HotWater:    r.HotWater,
		Heating:     r.Heating,
	}
}

// ReadingResponse is the API view of a reading
type ReadingResponse struct {
	ID              uuid.UUID       `json:"id"`
	ApartmentID     uuid.UUID       `json:"apartment_id"`
	MeasurementDate string          `json:"measurement_date"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	Electricity     decimal.Decimal `json:"electricity"`
	ColdWater       decimal.Decimal `json:"cold_water"`
	HotWater        decimal.Decimal `json:"hot_water"`
	Heating         decimal.Decimal `json:"heating"`
	InvoiceID       *uuid.UUID      `json:"invoice_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToReadingResponse converts a domain Reading to ReadingResponse
func ToReadingResponse(r *metering.Reading) ReadingResponse {
	return ReadingResponse{
		ID:              r.ID,
		ApartmentID:     r.ApartmentID,
		MeasurementDate: r.MeasurementDate.Format(valueobject.DateLayout),
		PeriodStart:     r.Period.Start().Format(valueobject.DateLayout),
		PeriodEnd:       r.Period.End().Format(valueobject.DateLayout),
		Electricity:     r.Values.Electricity,
		ColdWater:       r.Values.ColdWater,
		HotWater:        r.Values.HotWater,
		Heating:         r.Values.Heating,
		InvoiceID:       r.InvoiceID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// ToReadingResponses converts a slice of readings
func ToReadingResponses(readings []metering.Reading) []ReadingResponse {
	responses := make([]ReadingResponse, len(readings))
	for i := range readings {
		responses[i] = ToReadingResponse(&readings[i])
	}
	return responses
}
