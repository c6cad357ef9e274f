package billing

import (
	"testing"

	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/stretchr/testify/assert"
)

func TestComputeCharges_Flat(t *testing.T) {
	tariff := property.Tariff{
		ElectricityRate:   d("0.5"),
		ColdWaterRate:     d("5"),
		HotWaterRate:      d("10"),
		HeatingRate:       d("3"),
		RentRatePerM2:     d("10"),
		OtherChargesPerM2: d("2"),
		ElectricityFlat:   d("20"),
		ColdWaterFlat:     d("15"),
		HotWaterFlat:      d("25"),
		HeatingFlat:       d("40"),
	}

	c := ComputeCharges(tariff, d("50"), nil)

	assert.True(t, c.Flat)
	assert.True(t, c.Rent.Amount().Equal(d("500.00")))
	assert.True(t, c.Other.Amount().Equal(d("100.00")))
	assert.True(t, c.Media.Amount().Equal(d("100")))
	assert.True(t, c.Total.Amount().Equal(d("700")))
}

func TestComputeCharges_Metered(t *testing.T) {
	tariff := testTariff()
	readings := &metering.Values{
		Electricity: d("0"),
		ColdWater:   d("3"),
		HotWater:    d("0"),
		Heating:     d("0"),
	}

	c := ComputeCharges(tariff, d("50"), readings)

	assert.False(t, c.Flat)
	assert.True(t, c.Media.Amount().Equal(d("15.00")), "media %s", c.Media.Amount())
	assert.True(t, c.Total.Amount().Equal(d("615.00")))
}

func TestComputeCharges_RoundsEachTermHalfUp(t *testing.T) {
	tariff := testTariff()
	tariff.RentRatePerM2 = d("10.125")
	tariff.OtherChargesPerM2 = d("1.005")

	// 1 m2: rent 10.125 -> 10.13, other 1.005 -> 1.01
	c := ComputeCharges(tariff, d("1"), &metering.Values{
		Electricity: d("0.01"),
		ColdWater:   d("0"),
		HotWater:    d("0"),
		Heating:     d("0"),
	})

	assert.True(t, c.Rent.Amount().Equal(d("10.13")))
	assert.True(t, c.Other.Amount().Equal(d("1.01")))
	// 0.01 x 0.75 = 0.0075 -> 0.01
	assert.True(t, c.Media.Amount().Equal(d("0.01")))
	assert.True(t, c.Total.Amount().Equal(d("11.15")))
}

func TestComputeCharges_TotalMatchesRoundedSum(t *testing.T) {
	tariff := testTariff()
	areas := []string{"33.33", "47.77", "50", "61.01", "100.99"}
	for _, area := range areas {
		t.Run(area, func(t *testing.T) {
			for _, readings := range []*metering.Values{nil, {
				Electricity: d("123.456"),
				ColdWater:   d("7.777"),
				HotWater:    d("2.333"),
				Heating:     d("9.999"),
			}} {
				c := ComputeCharges(tariff, d(area), readings)
				sum := c.Rent.Amount().Add(c.Other.Amount()).Add(c.Media.Amount()).Round(2)
				assert.True(t, c.Total.Amount().Equal(sum))
				assert.Equal(t, readings == nil, c.Flat)
			}
		})
	}
}
