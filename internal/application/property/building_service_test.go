package property

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/application/cascade"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type propertyEnv struct {
	buildings  *BuildingService
	apartments *ApartmentService
	seed       *testutil.Seeder
	publisher  *testutil.RecordingPublisher
}

func newPropertyEnv(t *testing.T) propertyEnv {
	scope, _ := testutil.NewSQLiteScope(t)
	publisher := testutil.NewRecordingPublisher()
	engine := billing.NewEngine(zap.NewNop(), nil)
	coordinator := cascade.NewCoordinator(scope, zap.NewNop(), nil)
	coordinator.SetEventPublisher(publisher)

	buildings := NewBuildingService(scope, engine, coordinator, zap.NewNop())
	buildings.SetEventPublisher(publisher)
	apartments := NewApartmentService(scope, engine, coordinator, zap.NewNop())
	apartments.SetEventPublisher(publisher)

	return propertyEnv{
		buildings:  buildings,
		apartments: apartments,
		seed:       testutil.NewSeeder(t, scope),
		publisher:  publisher,
	}
}

func tariffRequest() TariffRequest {
	t := testutil.Tariff()
	return TariffRequest{
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

func createRequest(number string, managers ...uuid.UUID) CreateBuildingRequest {
	return CreateBuildingRequest{
		Address: AddressRequest{
			City:       "Poznań",
			Street:     "Półwiejska",
			Number:     number,
			PostalCode: "61-888",
		},
		NumberOfFloors: 4,
		Tariff:         tariffRequest(),
		ManagerIDs:     managers,
	}
}

func TestBuildingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates building with managers", func(t *testing.T) {
		env := newPropertyEnv(t)
		manager := env.seed.Manager("manager@example.com")

		resp, err := env.buildings.Create(ctx, createRequest("12A", manager.ID))
		require.NoError(t, err)
		assert.Equal(t, "Półwiejska 12A, 61-888 Poznań", resp.FullAddress)
		assert.Equal(t, 4, resp.NumberOfFloors)
		assert.Equal(t, []uuid.UUID{manager.ID}, resp.ManagerIDs)
		assert.Equal(t, []string{property.EventTypeBuildingCreated}, env.publisher.Types())

		managed, err := env.buildings.ListManagedBy(ctx, manager.ID)
		require.NoError(t, err)
		require.Len(t, managed, 1)
		assert.Equal(t, resp.ID, managed[0].ID)
	})

	t.Run("address is unique regardless of case", func(t *testing.T) {
		env := newPropertyEnv(t)
		_, err := env.buildings.Create(ctx, createRequest("12a"))
		require.NoError(t, err)

		req := createRequest("12A")
		req.Address.City = "POZNAŃ"
		req.Address.Street = "półwiejska"
		_, err = env.buildings.Create(ctx, req)
		assert.True(t, errors.Is(err, ErrDuplicateAddress))
		assert.True(t, errors.Is(err, shared.ErrConflict))
	})

	t.Run("managers must exist and hold the manager role", func(t *testing.T) {
		env := newPropertyEnv(t)
		tenant := env.seed.User("tenant@example.com")

		_, err := env.buildings.Create(ctx, createRequest("1", tenant.ID))
		testutil.AssertDomainCode(t, err, "NOT_A_MANAGER")

		_, err = env.buildings.Create(ctx, createRequest("1", uuid.New()))
		assert.True(t, errors.Is(err, identity.ErrUserNotFound))
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		env := newPropertyEnv(t)

		req := createRequest("1")
		req.Tariff.HeatingRate = testutil.D("0")
		_, err := env.buildings.Create(ctx, req)
		testutil.AssertDomainCode(t, err, "INVALID_RATE")

		req = createRequest("1")
		req.Address.PostalCode = "61888"
		_, err = env.buildings.Create(ctx, req)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		req = createRequest("1")
		req.NumberOfFloors = 0
		_, err = env.buildings.Create(ctx, req)
		testutil.AssertDomainCode(t, err, "INVALID_FLOORS")
		assert.Empty(t, env.publisher.Events())
	})
}

func TestBuildingService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("tariff change reprices drafts only", func(t *testing.T) {
		env := newPropertyEnv(t)
		building := env.seed.Building()
		apartment := env.seed.Apartment(building, "1", "50", 0)
		confirmed := env.seed.Invoice(apartment, testutil.Date(2024, time.February, 1))
		env.seed.Confirm(confirmed)
		draft := env.seed.Invoice(apartment, testutil.Date(2024, time.March, 1))

		tariff := tariffRequest()
		tariff.RentRatePerM2 = testutil.D("12")
		resp, err := env.buildings.Update(ctx, building.ID, UpdateBuildingRequest{Tariff: &tariff})
		require.NoError(t, err)
		assert.Equal(t, "12.00", resp.Tariff.RentRatePerM2.StringFixed(2))

		repriced := env.seed.MustLoadInvoice(draft.ID)
		assert.Equal(t, "600.00", repriced.RentAmount.StringFixed(2))
		assert.Equal(t, "900.00", repriced.TotalAmount.StringFixed(2))
		assert.Equal(t, "12.00", repriced.Info.Tariff.RentRatePerM2.StringFixed(2))

		frozen := env.seed.MustLoadInvoice(confirmed.ID)
		assert.Equal(t, "500.00", frozen.RentAmount.StringFixed(2))
		assert.Equal(t, "800.00", frozen.TotalAmount.StringFixed(2))

		assert.Contains(t, env.publisher.Types(), property.EventTypeBuildingTariffChanged)
	})

	t.Run("unchanged tariff does not publish a tariff change", func(t *testing.T) {
		env := newPropertyEnv(t)
		building := env.seed.Building()
		tariff := tariffRequest()

		_, err := env.buildings.Update(ctx, building.ID, UpdateBuildingRequest{Tariff: &tariff})
		require.NoError(t, err)
		assert.NotContains(t, env.publisher.Types(), property.EventTypeBuildingTariffChanged)
	})

	t.Run("relocating onto another building's address conflicts", func(t *testing.T) {
		env := newPropertyEnv(t)
		first, err := env.buildings.Create(ctx, createRequest("1"))
		require.NoError(t, err)
		second, err := env.buildings.Create(ctx, createRequest("2"))
		require.NoError(t, err)

		address := createRequest("1").Address
		_, err = env.buildings.Update(ctx, second.ID, UpdateBuildingRequest{Address: &address})
		assert.True(t, errors.Is(err, ErrDuplicateAddress))

		// keeping its own address is fine
		address = createRequest("1").Address
		_, err = env.buildings.Update(ctx, first.ID, UpdateBuildingRequest{Address: &address})
		assert.NoError(t, err)
	})

	t.Run("floors cannot drop below an occupied floor", func(t *testing.T) {
		env := newPropertyEnv(t)
		building := env.seed.Building()
		env.seed.Apartment(building, "1", "50", 2)

		floors := 2
		_, err := env.buildings.Update(ctx, building.ID, UpdateBuildingRequest{NumberOfFloors: &floors})
		testutil.AssertDomainCode(t, err, "FLOOR_OUT_OF_RANGE")

		floors = 3
		_, err = env.buildings.Update(ctx, building.ID, UpdateBuildingRequest{NumberOfFloors: &floors})
		assert.NoError(t, err)
		floors = 5
		resp, err := env.buildings.Update(ctx, building.ID, UpdateBuildingRequest{NumberOfFloors: &floors})
		require.NoError(t, err)
		assert.Equal(t, 5, resp.NumberOfFloors)
	})

	t.Run("unknown building", func(t *testing.T) {
		env := newPropertyEnv(t)
		floors := 2
		_, err := env.buildings.Update(ctx, uuid.New(), UpdateBuildingRequest{NumberOfFloors: &floors})
		assert.True(t, errors.Is(err, property.ErrBuildingNotFound))
	})
}

func TestBuildingService_DeleteGetList(t *testing.T) {
	ctx := context.Background()
	env := newPropertyEnv(t)
	manager := env.seed.Manager("manager@example.com")
	kept := env.seed.Building(manager)
	doomed := env.seed.Building(manager)
	env.seed.Apartment(doomed, "1", "50", 0)

	list, err := env.buildings.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, env.buildings.Delete(ctx, doomed.ID))

	_, err = env.buildings.Get(ctx, doomed.ID)
	assert.True(t, errors.Is(err, property.ErrBuildingNotFound))

	got, err := env.buildings.Get(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{manager.ID}, got.ManagerIDs)

	available, err := env.apartments.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)
}
