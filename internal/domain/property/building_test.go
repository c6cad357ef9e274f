package property

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTariff() Tariff {
	return Tariff{
		ElectricityRate:   d("0.80"),
		ColdWaterRate:     d("5"),
		HotWaterRate:      d("12.5"),
		HeatingRate:       d("2.1"),
		RentRatePerM2:     d("10"),
		OtherChargesPerM2: d("2"),
		ElectricityFlat:   d("40"),
		ColdWaterFlat:     d("30"),
		HotWaterFlat:      d("50"),
		HeatingFlat:       d("80"),
	}
}

func sampleAddress() valueobject.Address {
	return valueobject.MustNewAddress("Gdańsk", "Długa", "5", "80-831")
}

func TestNewBuilding(t *testing.T) {
	t.Run("creates building with managers", func(t *testing.T) {
		m1, m2 := uuid.New(), uuid.New()
		b, err := NewBuilding(sampleAddress(), 4, sampleTariff(), m1, m2, m1)
		require.NoError(t, err)
		assert.Equal(t, 4, b.NumberOfFloors)
		assert.Equal(t, []uuid.UUID{m1, m2}, b.ManagerIDs)
		require.Len(t, b.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeBuildingCreated, b.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects zero floors", func(t *testing.T) {
		_, err := NewBuilding(sampleAddress(), 0, sampleTariff())
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects rates below one grosz", func(t *testing.T) {
		tariff := sampleTariff()
		tariff.HeatingFlat = d("0.009")
		_, err := NewBuilding(sampleAddress(), 1, tariff)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Contains(t, err.Error(), "flat heating")
	})

	t.Run("rejects values beyond their stored scale", func(t *testing.T) {
		rate := sampleTariff()
		rate.ColdWaterRate = d("5.00001")
		_, err := NewBuilding(sampleAddress(), 1, rate)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cold water rate")

		flat := sampleTariff()
		flat.HotWaterFlat = d("50.005")
		_, err = NewBuilding(sampleAddress(), 1, flat)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flat hot water")

		padded := sampleTariff()
		padded.ColdWaterRate = d("5.12340")
		padded.HotWaterFlat = d("50.100")
		_, err = NewBuilding(sampleAddress(), 1, padded)
		assert.NoError(t, err)
	})

	t.Run("rejects empty address", func(t *testing.T) {
		_, err := NewBuilding(valueobject.Address{}, 1, sampleTariff())
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestBuilding_UpdateTariff(t *testing.T) {
	b, err := NewBuilding(sampleAddress(), 2, sampleTariff())
	require.NoError(t, err)
	b.ClearDomainEvents()

	changed, err := b.UpdateTariff(sampleTariff())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, b.GetDomainEvents())

	tariff := sampleTariff()
	tariff.RentRatePerM2 = d("11")
	changed, err = b.UpdateTariff(tariff)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, b.GetVersion())
	require.Len(t, b.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeBuildingTariffChanged, b.GetDomainEvents()[0].EventType())
}

func TestBuilding_ChangeFloors(t *testing.T) {
	b, err := NewBuilding(sampleAddress(), 5, sampleTariff())
	require.NoError(t, err)

	err = b.ChangeFloors(3, 3)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Equal(t, 5, b.NumberOfFloors)

	require.NoError(t, b.ChangeFloors(4, 3))
	assert.Equal(t, 4, b.NumberOfFloors)

	require.NoError(t, b.ChangeFloors(1, -1))
}

func TestBuilding_RemoveManager(t *testing.T) {
	m1, m2 := uuid.New(), uuid.New()

	t.Run("removes one of several managers", func(t *testing.T) {
		b, err := NewBuilding(sampleAddress(), 1, sampleTariff(), m1, m2)
		require.NoError(t, err)
		require.NoError(t, b.RemoveManager(m1))
		assert.Equal(t, []uuid.UUID{m2}, b.ManagerIDs)
	})

	t.Run("refuses to remove the last manager", func(t *testing.T) {
		b, err := NewBuilding(sampleAddress(), 1, sampleTariff(), m1)
		require.NoError(t, err)
		err = b.RemoveManager(m1)
		assert.True(t, errors.Is(err, ErrLastManagerRequired))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.True(t, b.IsManagedBy(m1))
	})

	t.Run("removing a non manager is a no-op", func(t *testing.T) {
		b, err := NewBuilding(sampleAddress(), 1, sampleTariff(), m1)
		require.NoError(t, err)
		require.NoError(t, b.RemoveManager(m2))
		assert.Len(t, b.ManagerIDs, 1)
	})

	t.Run("detach ignores the last manager rule", func(t *testing.T) {
		b, err := NewBuilding(sampleAddress(), 1, sampleTariff(), m1)
		require.NoError(t, err)
		b.DetachManager(m1)
		assert.Empty(t, b.ManagerIDs)
	})
}

func TestTariff_FlatMediaSum(t *testing.T) {
	assert.True(t, sampleTariff().FlatMediaSum().Equal(d("200")))
}
