package billing

import (
	"fmt"

	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/shopspring/decimal"
)

// InvoiceInfo is the point-in-time copy of every value used to price and
// print an invoice. It is held by value and never shared between invoices.
type InvoiceInfo struct {
	City           string
	Street         string
	BuildingNumber string
	PostalCode     string

	Tariff property.Tariff

	ApartmentNumber string
	ApartmentFloor  int
	ApartmentArea   decimal.Decimal

	Tenant  identity.PersonSnapshot
	Manager identity.PersonSnapshot

	Readings metering.Values
}

// withProperty refreshes the address, tariff and apartment geometry
func (i InvoiceInfo) withProperty(building *property.Building, apartment *property.Apartment) InvoiceInfo {
	i.City = building.Address.City()
	i.Street = building.Address.Street()
	i.BuildingNumber = building.Address.Number()
	i.PostalCode = building.Address.PostalCode()
	i.Tariff = building.Tariff
	i.ApartmentNumber = apartment.Number
	i.ApartmentFloor = apartment.Floor
	i.ApartmentArea = apartment.Area
	return i
}

// withReadings copies reading values, zeroing them for flat billing
func (i InvoiceInfo) withReadings(values *metering.Values) InvoiceInfo {
	if values == nil {
		i.Readings = metering.Values{
			Electricity: decimal.Zero,
			ColdWater:   decimal.Zero,
			HotWater:    decimal.Zero,
			Heating:     decimal.Zero,
		}
		return i
	}
	i.Readings = *values
	return i
}

// FullAddress renders the snapshot address as "street number, postalCode city"
func (i InvoiceInfo) FullAddress() string {
	return fmt.Sprintf("%s %s, %s %s", i.Street, i.BuildingNumber, i.PostalCode, i.City)
}
