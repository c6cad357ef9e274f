package billing

import (
	"testing"
	"time"

	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTariff() property.Tariff {
	return property.Tariff{
		ElectricityRate:   d("0.75"),
		ColdWaterRate:     d("5"),
		HotWaterRate:      d("12.40"),
		HeatingRate:       d("3.05"),
		RentRatePerM2:     d("10"),
		OtherChargesPerM2: d("2"),
		ElectricityFlat:   d("60"),
		ColdWaterFlat:     d("45.50"),
		HotWaterFlat:      d("70"),
		HeatingFlat:       d("120.25"),
	}
}

type fixture struct {
	building  *property.Building
	apartment *property.Apartment
	tenant    *identity.User
	manager   *identity.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	building, err := property.NewBuilding(valueobject.MustNewAddress("Wrocław", "Rynek", "1", "50-101"), 4, testTariff())
	require.NoError(t, err)
	apartment, err := property.NewApartment(building, "7", d("50"), 1)
	require.NoError(t, err)
	tenant, err := identity.NewUser("tenant@example.com",
		identity.Profile{FirstName: "Jan", LastName: "Kowalski", Telephone: "600100200"}, "44051401359", "password1")
	require.NoError(t, err)
	manager, err := identity.NewUser("manager@example.com",
		identity.Profile{FirstName: "Ewa", LastName: "Zielińska", Telephone: "600100300"}, "02070803628", "password1")
	require.NoError(t, err)
	require.NoError(t, manager.ChangeRole(identity.RoleManager))
	require.NoError(t, apartment.AssignTenant(tenant.ID))
	return fixture{building: building, apartment: apartment, tenant: tenant, manager: manager}
}

func march(day int) time.Time {
	return time.Date(2024, time.March, day, 0, 0, 0, 0, time.UTC)
}

func newReading(t *testing.T, f fixture, cold string) *metering.Reading {
	t.Helper()
	r, err := metering.NewReading(f.apartment.ID, march(20), metering.Values{
		Electricity: d("100"),
		ColdWater:   d(cold),
		HotWater:    d("1.5"),
		Heating:     d("4"),
	})
	require.NoError(t, err)
	return r
}
