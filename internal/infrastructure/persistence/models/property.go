package models

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// TariffColumns holds the ten tariff values of a building or an invoice snapshot
type TariffColumns struct {
	ElectricityRate   decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	ColdWaterRate     decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	HotWaterRate      decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	HeatingRate       decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	RentRatePerM2     decimal.Decimal `gorm:"column:rent_rate_per_m2;type:decimal(12,4);not null"`
	OtherChargesPerM2 decimal.Decimal `gorm:"column:other_charges_per_m2;type:decimal(12,4);not null"`
	ElectricityFlat   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ColdWaterFlat     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	HotWaterFlat      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	HeatingFlat       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

// ToDomain converts the columns to a Tariff
func (c TariffColumns) ToDomain() property.Tariff {
	return property.Tariff{
		ElectricityRate:   c.ElectricityRate,
		ColdWaterRate:     c.ColdWaterRate,
		HotWaterRate:      c.HotWaterRate,
		HeatingRate:       c.HeatingRate,
		RentRatePerM2:     c.RentRatePerM2,
		OtherChargesPerM2: c.OtherChargesPerM2,
		ElectricityFlat:   c.ElectricityFlat,
		ColdWaterFlat:     c.ColdWaterFlat,
		HotWaterFlat:      c.HotWaterFlat,
		HeatingFlat:       c.HeatingFlat,
	}
}

// TariffColumnsFromDomain copies a Tariff into columns
func TariffColumnsFromDomain(t property.Tariff) TariffColumns {
	return TariffColumns{
		ElectricityRate:   t.ElectricityRate,
		ColdWaterRate:     t.ColdWaterRate,
		HotWaterRate:      t.HotWaterRate,
		HeatingRate:       t.HeatingRate,
		RentRatePerM2:     t.RentRatePerM2,
		OtherChargesPerM2: t.OtherChargesPerM2,
		ElectricityFlat:   t.ElectricityFlat,
		ColdWaterFlat:     t.ColdWaterFlat,
		HotWaterFlat:      t.HotWaterFlat,
		HeatingFlat:       t.HeatingFlat,
	}
}

// BuildingModel is the persistence model for the Building aggregate.
// Manager ids live in building_managers and are loaded by the repository.
type BuildingModel struct {
	AggregateModel
	City           string `gorm:"type:varchar(100);not null"`
	Street         string `gorm:"type:varchar(200);not null"`
	Number         string `gorm:"type:varchar(20);not null"`
	PostalCode     string `gorm:"type:varchar(6);not null"`
	AddressKey     string `gorm:"type:varchar(340);not null;uniqueIndex"`
	NumberOfFloors int    `gorm:"not null"`
	TariffColumns  `gorm:"embedded"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the persistence model to a domain Building
func (m *BuildingModel) ToDomain(managerIDs []uuid.UUID) (*property.Building, error) {
	address, err := valueobject.NewAddress(m.City, m.Street, m.Number, m.PostalCode)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", m.ID, err)
	}
	if managerIDs == nil {
		managerIDs = make([]uuid.UUID, 0)
	}
	return &property.Building{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Address:           address,
		NumberOfFloors:    m.NumberOfFloors,
		Tariff:            m.TariffColumns.ToDomain(),
		ManagerIDs:        managerIDs,
	}, nil
}

// BuildingModelFromDomain creates a persistence model from a domain Building
func BuildingModelFromDomain(b *property.Building) *BuildingModel {
	m := &BuildingModel{
		City:           b.Address.City(),
		Street:         b.Address.Street(),
		Number:         b.Address.Number(),
		PostalCode:     b.Address.PostalCode(),
		AddressKey:     b.Address.Key(),
		NumberOfFloors: b.NumberOfFloors,
		TariffColumns:  TariffColumnsFromDomain(b.Tariff),
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	return m
}

// BuildingManagerModel links a manager to a building
type BuildingManagerModel struct {
	BuildingID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (BuildingManagerModel) TableName() string {
	return "building_managers"
}

// ApartmentModel is the persistence model for the Apartment aggregate
type ApartmentModel struct {
	AggregateModel
	BuildingID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_apartments_building_number,priority:1"`
	Number     string          `gorm:"type:varchar(20);not null"`
	NumberKey  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_apartments_building_number,priority:2"`
	Area       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Floor      int             `gorm:"not null"`
	TenantID   *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (ApartmentModel) TableName() string {
	return "apartments"
}

// ToDomain converts the persistence model to a domain Apartment
func (m *ApartmentModel) ToDomain() *property.Apartment {
	return &property.Apartment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		BuildingID:        m.BuildingID,
		Number:            m.Number,
		Area:              m.Area,
		Floor:             m.Floor,
		TenantID:          m.TenantID,
	}
}

// ApartmentModelFromDomain creates a persistence model from a domain Apartment
func ApartmentModelFromDomain(a *property.Apartment) *ApartmentModel {
	m := &ApartmentModel{
		BuildingID: a.BuildingID,
		Number:     a.Number,
		NumberKey:  a.NumberKey(),
		Area:       a.Area,
		Floor:      a.Floor,
		TenantID:   a.TenantID,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
