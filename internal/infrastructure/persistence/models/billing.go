package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceInfoColumns is the flattened InvoiceInfo snapshot, stored with the info_ prefix
type InvoiceInfoColumns struct {
	City           string `gorm:"type:varchar(100)"`
	Street         string `gorm:"type:varchar(200)"`
	BuildingNumber string `gorm:"type:varchar(20)"`
	PostalCode     string `gorm:"type:varchar(6)"`

	TariffColumns `gorm:"embedded"`

	ApartmentNumber string          `gorm:"type:varchar(20)"`
	ApartmentFloor  int             `gorm:"not null;default:0"`
	ApartmentArea   decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	TenantFirstName  string `gorm:"type:varchar(100)"`
	TenantLastName   string `gorm:"type:varchar(100)"`
	TenantNationalID string `gorm:"type:varchar(11)"`
	TenantEmail      string `gorm:"type:varchar(200)"`
	TenantTelephone  string `gorm:"type:varchar(20)"`

	ManagerFirstName  string `gorm:"type:varchar(100)"`
	ManagerLastName   string `gorm:"type:varchar(100)"`
	ManagerNationalID string `gorm:"type:varchar(11)"`
	ManagerEmail      string `gorm:"type:varchar(200)"`
	ManagerTelephone  string `gorm:"type:varchar(20)"`

	ReadingValueColumns `gorm:"embedded"`
}

// ToDomain converts the columns to an InvoiceInfo value
func (c InvoiceInfoColumns) ToDomain() billing.InvoiceInfo {
	return billing.InvoiceInfo{
		City:            c.City,
		Street:          c.Street,
		BuildingNumber:  c.BuildingNumber,
		PostalCode:      c.PostalCode,
		Tariff:          c.TariffColumns.ToDomain(),
		ApartmentNumber: c.ApartmentNumber,
		ApartmentFloor:  c.ApartmentFloor,
		ApartmentArea:   c.ApartmentArea,
		Tenant: identity.PersonSnapshot{
			FirstName:  c.TenantFirstName,
			LastName:   c.TenantLastName,
			NationalID: c.TenantNationalID,
			Email:      c.TenantEmail,
			Telephone:  c.TenantTelephone,
		},
		Manager: identity.PersonSnapshot{
			FirstName:  c.ManagerFirstName,
			LastName:   c.ManagerLastName,
			NationalID: c.ManagerNationalID,
			Email:      c.ManagerEmail,
			Telephone:  c.ManagerTelephone,
		},
		Readings: c.ReadingValueColumns.ToDomain(),
	}
}

// InvoiceInfoColumnsFromDomain flattens an InvoiceInfo value
func InvoiceInfoColumnsFromDomain(i billing.InvoiceInfo) InvoiceInfoColumns {
	return InvoiceInfoColumns{
		City:                i.City,
		Street:              i.Street,
		BuildingNumber:      i.BuildingNumber,
		PostalCode:          i.PostalCode,
		TariffColumns:       TariffColumnsFromDomain(i.Tariff),
		ApartmentNumber:     i.ApartmentNumber,
		ApartmentFloor:      i.ApartmentFloor,
		ApartmentArea:       i.ApartmentArea,
		TenantFirstName:     i.Tenant.FirstName,
		TenantLastName:      i.Tenant.LastName,
		TenantNationalID:    i.Tenant.NationalID,
		TenantEmail:         i.Tenant.Email,
		TenantTelephone:     i.Tenant.Telephone,
		ManagerFirstName:    i.Manager.FirstName,
		ManagerLastName:     i.Manager.LastName,
		ManagerNationalID:   i.Manager.NationalID,
		ManagerEmail:        i.Manager.Email,
		ManagerTelephone:    i.Manager.Telephone,
		ReadingValueColumns: ReadingValueColumnsFromDomain(i.Readings),
	}
}

// InvoiceModel is the persistence model for the Invoice aggregate
type InvoiceModel struct {
	AggregateModel
	ApartmentID      *uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_invoices_apartment_period,priority:1"`
	TenantID         *uuid.UUID         `gorm:"type:uuid;index"`
	ReadingID        *uuid.UUID         `gorm:"type:uuid"`
	IssueDate        time.Time          `gorm:"type:date;not null"`
	PeriodStart      time.Time          `gorm:"type:date;not null;uniqueIndex:idx_invoices_apartment_period,priority:2"`
	PeriodEnd        time.Time          `gorm:"type:date;not null;uniqueIndex:idx_invoices_apartment_period,priority:3"`
	RentAmount       decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	OtherCharges     decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	TotalMediaAmount decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	TotalAmount      decimal.Decimal    `gorm:"type:decimal(14,2);not null"`
	Paid             bool               `gorm:"not null;default:false"`
	Confirmed        bool               `gorm:"not null;default:false;index"`
	Flat             bool               `gorm:"not null;default:false"`
	Info             InvoiceInfoColumns `gorm:"embedded;embeddedPrefix:info_"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() (*billing.Invoice, error) {
	period, err := valueobject.NewBillingPeriod(m.PeriodStart, m.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", m.ID, err)
	}
	return &billing.Invoice{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ApartmentID:       m.ApartmentID,
		TenantID:          m.TenantID,
		ReadingID:         m.ReadingID,
		IssueDate:         valueobject.NormalizeDate(m.IssueDate),
		Period:            period,
		RentAmount:        m.RentAmount,
		OtherCharges:      m.OtherCharges,
		TotalMediaAmount:  m.TotalMediaAmount,
		TotalAmount:       m.TotalAmount,
		Paid:              m.Paid,
		Confirmed:         m.Confirmed,
		Flat:              m.Flat,
		Info:              m.Info.ToDomain(),
	}, nil
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		ApartmentID:      inv.ApartmentID,
		TenantID:         inv.TenantID,
		ReadingID:        inv.ReadingID,
		IssueDate:        inv.IssueDate,
		PeriodStart:      inv.Period.Start(),
		PeriodEnd:        inv.Period.End(),
		RentAmount:       inv.RentAmount,
		OtherCharges:     inv.OtherCharges,
		TotalMediaAmount: inv.TotalMediaAmount,
		TotalAmount:      inv.TotalAmount,
		Paid:             inv.Paid,
		Confirmed:        inv.Confirmed,
		Flat:             inv.Flat,
		Info:             InvoiceInfoColumnsFromDomain(inv.Info),
	}
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	return m
}
