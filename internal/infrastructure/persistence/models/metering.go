package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReadingValueColumns holds the four metered values
type ReadingValueColumns struct {
	Electricity decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	ColdWater   decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	HotWater    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Heating     decimal.Decimal `gorm:"type:decimal(12,3);not null"`
}

// ToDomain converts the columns to reading values
func (c ReadingValueColumns) ToDomain() metering.Values {
	return metering.Values{
		Electricity: c.Electricity,
		ColdWater:   c.ColdWater,
		HotWater:    c.HotWater,
		Heating:     c.Heating,
	}
}

// ReadingValueColumnsFromDomain copies reading values into columns
func ReadingValueColumnsFromDomain(v metering.Values) ReadingValueColumns {
	return ReadingValueColumns{
		Electricity: v.Electricity,
		ColdWater:   v.ColdWater,
		HotWater:    v.HotWater,
		Heating:     v.Heating,
	}
}

// ReadingModel is the persistence model for the Reading aggregate
type ReadingModel struct {
	AggregateModel
	ApartmentID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_readings_apartment_period,priority:1"`
	MeasurementDate     time.Time  `gorm:"type:date;not null"`
	PeriodStart         time.Time  `gorm:"type:date;not null;uniqueIndex:idx_readings_apartment_period,priority:2"`
	PeriodEnd           time.Time  `gorm:"type:date;not null;uniqueIndex:idx_readings_apartment_period,priority:3"`
	InvoiceID           *uuid.UUID `gorm:"type:uuid;index"`
	ReadingValueColumns `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (ReadingModel) TableName() string {
	return "readings"
}

// ToDomain converts the persistence model to a domain Reading
func (m *ReadingModel) ToDomain() (*metering.Reading, error) {
	period, err := valueobject.NewBillingPeriod(m.PeriodStart, m.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.ID, err)
	}
	return &metering.Reading{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ApartmentID:       m.ApartmentID,
		MeasurementDate:   valueobject.NormalizeDate(m.MeasurementDate),
		Period:            period,
		Values:            m.ReadingValueColumns.ToDomain(),
		InvoiceID:         m.InvoiceID,
	}, nil
}

// ReadingModelFromDomain creates a persistence model from a domain Reading
func ReadingModelFromDomain(r *metering.Reading) *ReadingModel {
	m := &ReadingModel{
		ApartmentID:         r.ApartmentID,
		MeasurementDate:     r.MeasurementDate,
		PeriodStart:         r.Period.Start(),
		PeriodEnd:           r.Period.End(),
		InvoiceID:           r.InvoiceID,
		ReadingValueColumns: ReadingValueColumnsFromDomain(r.Values),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
