package property

import (
	"fmt"

	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MinimumRate is the smallest accepted unit rate or flat sum
var MinimumRate = decimal.RequireFromString("0.01")

// Decimal places kept for unit rates and flat sums
const (
	RateScale int32 = 4
	FlatScale int32 = 2
)

// Tariff holds a building's per-unit rates and per-apartment flat sums
type Tariff struct {
	ElectricityRate   decimal.Decimal
	ColdWaterRate     decimal.Decimal
	HotWaterRate      decimal.Decimal
	HeatingRate       decimal.Decimal
	RentRatePerM2     decimal.Decimal
	OtherChargesPerM2 decimal.Decimal
	ElectricityFlat   decimal.Decimal
	ColdWaterFlat     decimal.Decimal
	HotWaterFlat      decimal.Decimal
	HeatingFlat       decimal.Decimal
}

type namedRate struct {
	name  string
	value decimal.Decimal
	scale int32
}

func (t Tariff) rates() []namedRate {
	return []namedRate{
		{"electricity rate", t.ElectricityRate, RateScale},
		{"cold water rate", t.ColdWaterRate, RateScale},
		{"hot water rate", t.HotWaterRate, RateScale},
		{"heating rate", t.HeatingRate, RateScale},
		{"rent rate per m2", t.RentRatePerM2, RateScale},
		{"other charges per m2", t.OtherChargesPerM2, RateScale},
		{"flat electricity", t.ElectricityFlat, FlatScale},
		{"flat cold water", t.ColdWaterFlat, FlatScale},
		{"flat hot water", t.HotWaterFlat, FlatScale},
		{"flat heating", t.HeatingFlat, FlatScale},
	}
}

// Validate checks that every rate and flat sum is at least MinimumRate and
// fits its stored scale
func (t Tariff) Validate() error {
	for _, r := range t.rates() {
		if r.value.LessThan(MinimumRate) {
			return shared.NewValidationError("INVALID_RATE",
				fmt.Sprintf("%s must be at least %s", r.name, MinimumRate))
		}
		if !valueobject.FitsScale(r.value, r.scale) {
			return shared.NewValidationError("INVALID_RATE",
				fmt.Sprintf("%s cannot have more than %d decimal places", r.name, r.scale))
		}
	}
	return nil
}

// Equals compares all ten values numerically
func (t Tariff) Equals(other Tariff) bool {
	mine, theirs := t.rates(), other.rates()
	for i := range mine {
		if !mine[i].value.Equal(theirs[i].value) {
			return false
		}
	}
	return true
}

// FlatMediaSum is the unrounded sum of the four flat sums
func (t Tariff) FlatMediaSum() decimal.Decimal {
	return t.ElectricityFlat.Add(t.ColdWaterFlat).Add(t.HotWaterFlat).Add(t.HeatingFlat)
}
