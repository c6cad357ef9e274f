package billing

import (
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Charges is the monetary breakdown of an invoice. Every figure is rounded
// to two places on its own; Total is the rounded sum of the rounded terms.
type Charges struct {
	Rent  valueobject.Money
	Other valueobject.Money
	Media valueobject.Money
	Total valueobject.Money
	Flat  bool
}

// ComputeCharges prices an apartment of the given area under a tariff.
// A nil readings argument selects flat billing.
func ComputeCharges(tariff property.Tariff, area decimal.Decimal, readings *metering.Values) Charges {
	rent, other := AreaCharges(tariff, area)
	media, flat := MediaCharge(tariff, readings)
	return Charges{
		Rent:  rent,
		Other: other,
		Media: media,
		Total: TotalOf(rent, other, media),
		Flat:  flat,
	}
}

// AreaCharges returns round2(area x rentRatePerM2) and round2(area x otherChargesPerM2)
func AreaCharges(tariff property.Tariff, area decimal.Decimal) (rent, other valueobject.Money) {
	rent = valueobject.NewMoneyPLN(area).Multiply(tariff.RentRatePerM2).RoundHalfUp()
	other = valueobject.NewMoneyPLN(area).Multiply(tariff.OtherChargesPerM2).RoundHalfUp()
	return rent, other
}

// MediaCharge returns the metered utility charge, or the flat sums when readings is nil
func MediaCharge(tariff property.Tariff, readings *metering.Values) (valueobject.Money, bool) {
	if readings == nil {
		return valueobject.NewMoneyPLN(tariff.FlatMediaSum()).RoundHalfUp(), true
	}
	sum := readings.Electricity.Mul(tariff.ElectricityRate).
		Add(readings.ColdWater.Mul(tariff.ColdWaterRate)).
		Add(readings.HotWater.Mul(tariff.HotWaterRate)).
		Add(readings.Heating.Mul(tariff.HeatingRate))
	return valueobject.NewMoneyPLN(sum).RoundHalfUp(), false
}

// TotalOf sums already rounded terms and rounds the result again
func TotalOf(rent, other, media valueobject.Money) valueobject.Money {
	return rent.MustAdd(other).MustAdd(media).RoundHalfUp()
}
