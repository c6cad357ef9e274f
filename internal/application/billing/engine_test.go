package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type engineEnv struct {
	scope  uow.TransactionScope
	seed   *testutil.Seeder
	engine *Engine
}

func newEngineEnv(t *testing.T) engineEnv {
	scope, _ := testutil.NewSQLiteScope(t)
	return engineEnv{
		scope:  scope,
		seed:   testutil.NewSeeder(t, scope),
		engine: NewEngine(zap.NewNop(), nil),
	}
}

func coldWaterOnly(v string) metering.Values {
	return metering.Values{
		Electricity: testutil.D("0"),
		ColdWater:   testutil.D(v),
		HotWater:    testutil.D("0"),
		Heating:     testutil.D("0"),
	}
}

func march(day int) time.Time {
	return testutil.Date(2024, time.March, day)
}

func february(day int) time.Time {
	return testutil.Date(2024, time.February, day)
}

func assertAmounts(t *testing.T, inv *billing.Invoice, rent, other, media, total string) {
	t.Helper()
	assert.Equal(t, rent, inv.RentAmount.StringFixed(2), "rent")
	assert.Equal(t, other, inv.OtherCharges.StringFixed(2), "other charges")
	assert.Equal(t, media, inv.TotalMediaAmount.StringFixed(2), "media")
	assert.Equal(t, total, inv.TotalAmount.StringFixed(2), "total")
}

func TestEngine_RecalculateForBuilding(t *testing.T) {
	ctx := context.Background()
	env := newEngineEnv(t)
	building := env.seed.Building()
	apartment := env.seed.Apartment(building, "1", "50", 0)

	draft := env.seed.Invoice(apartment, march(10))
	confirmed := env.seed.Invoice(apartment, february(10))
	env.seed.Confirm(confirmed)
	assertAmounts(t, draft, "500.00", "100.00", "200.00", "800.00")

	tariff := testutil.Tariff()
	tariff.RentRatePerM2 = testutil.D("11")
	tariff.HeatingFlat = testutil.D("90")

	recalc := func() []*billing.Invoice {
		var changed []*billing.Invoice
		err := env.scope.Execute(ctx, func(repos uow.Repositories) error {
			b, err := repos.Buildings().FindByID(ctx, building.ID)
			if err != nil {
				return err
			}
			if _, err := b.UpdateTariff(tariff); err != nil {
				return err
			}
			if err := repos.Buildings().Save(ctx, b); err != nil {
				return err
			}
			changed, err = env.engine.RecalculateForBuilding(ctx, repos, b)
			return err
		})
		require.NoError(t, err)
		return changed
	}

	changed := recalc()
	require.Len(t, changed, 1)
	assert.Equal(t, draft.ID, changed[0].ID)

	got := env.seed.MustLoadInvoice(draft.ID)
	assertAmounts(t, got, "550.00", "100.00", "210.00", "860.00")
	assert.True(t, got.Flat)
	assert.True(t, got.Info.Tariff.RentRatePerM2.Equal(testutil.D("11")))

	t.Run("confirmed invoice keeps its amounts and tariff", func(t *testing.T) {
		frozen := env.seed.MustLoadInvoice(confirmed.ID)
		assertAmounts(t, frozen, "500.00", "100.00", "200.00", "800.00")
		assert.True(t, frozen.Info.Tariff.RentRatePerM2.Equal(testutil.D("10")))
		assert.Equal(t, confirmed.Version, frozen.Version)
	})

	t.Run("second pass is idempotent", func(t *testing.T) {
		recalc()
		again := env.seed.MustLoadInvoice(draft.ID)
		assertAmounts(t, again, "550.00", "100.00", "210.00", "860.00")
	})
}

func TestEngine_RecalculateForApartment(t *testing.T) {
	ctx := context.Background()
	env := newEngineEnv(t)
	building := env.seed.Building()
	apartment := env.seed.Apartment(building, "1", "50", 0)
	other := env.seed.Apartment(building, "2", "40", 0)

	draft := env.seed.Invoice(apartment, march(10))
	untouched := env.seed.Invoice(other, march(10))

	var changed []*billing.Invoice
	err := env.scope.Execute(ctx, func(repos uow.Repositories) error {
		a, err := repos.Apartments().FindByID(ctx, apartment.ID)
		if err != nil {
			return err
		}
		if _, err := a.Resize(testutil.D("60.5")); err != nil {
			return err
		}
		if err := repos.Apartments().Save(ctx, a); err != nil {
			return err
		}
		changed, err = env.engine.RecalculateForApartment(ctx, repos, a, building)
		return err
	})
	require.NoError(t, err)
	require.Len(t, changed, 1)

	got := env.seed.MustLoadInvoice(draft.ID)
	assertAmounts(t, got, "605.00", "121.00", "200.00", "926.00")
	assert.True(t, got.Info.ApartmentArea.Equal(testutil.D("60.5")))

	same := env.seed.MustLoadInvoice(untouched.ID)
	assertAmounts(t, same, "400.00", "80.00", "200.00", "680.00")
}

func TestEngine_RecalculateForReadingChange(t *testing.T) {
	ctx := context.Background()

	upsert := func(env engineEnv, r *metering.Reading, change ReadingChange) (*billing.Invoice, error) {
		var inv *billing.Invoice
		err := env.scope.Execute(ctx, func(repos uow.Repositories) error {
			var err error
			inv, err = env.engine.RecalculateForReadingChange(ctx, repos, r, change)
			if err != nil {
				return err
			}
			if change == ReadingDeleted {
				return repos.Readings().Delete(ctx, r.ID)
			}
			return repos.Readings().Save(ctx, r)
		})
		return inv, err
	}

	t.Run("reading switches the draft to metered billing", func(t *testing.T) {
		env := newEngineEnv(t)
		building := env.seed.Building()
		apartment := env.seed.Apartment(building, "1", "50", 0)
		draft := env.seed.Invoice(apartment, march(10))

		reading := env.seed.Reading(apartment, march(28), coldWaterOnly("3"))
		inv, err := upsert(env, reading, ReadingUpserted)
		require.NoError(t, err)
		require.NotNil(t, inv)

		got := env.seed.MustLoadInvoice(draft.ID)
		assertAmounts(t, got, "500.00", "100.00", "15.00", "615.00")
		assert.False(t, got.Flat)
		require.NotNil(t, got.ReadingID)
		assert.Equal(t, reading.ID, *got.ReadingID)
		assert.True(t, got.Info.Readings.ColdWater.Equal(testutil.D("3")))

		stored := env.seed.MustLoadReading(reading.ID)
		require.NotNil(t, stored.InvoiceID)
		assert.Equal(t, draft.ID, *stored.InvoiceID)
	})

	t.Run("no invoice for the period is a no-op", func(t *testing.T) {
		env := newEngineEnv(t)
		building := env.seed.Building()
		apartment := env.seed.Apartment(building, "1", "50", 0)
		env.seed.Invoice(apartment, february(10))

		reading := env.seed.Reading(apartment, march(28), coldWaterOnly("3"))
		inv, err := upsert(env, reading, ReadingUpserted)
		require.NoError(t, err)
		assert.Nil(t, inv)
		assert.Nil(t, env.seed.MustLoadReading(reading.ID).InvoiceID)
	})

	t.Run("confirmed invoice refuses the reading", func(t *testing.T) {
		env := newEngineEnv(t)
		building := env.seed.Building()
		apartment := env.seed.Apartment(building, "1", "50", 0)
		confirmed := env.seed.Invoice(apartment, march(10))
		env.seed.Confirm(confirmed)

		reading := env.seed.Reading(apartment, march(28), coldWaterOnly("3"))
		_, err := upsert(env, reading, ReadingUpserted)
		require.Error(t, err)
		assert.True(t, errors.Is(err, billing.ErrInvoiceFrozen))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))

		frozen := env.seed.MustLoadInvoice(confirmed.ID)
		assertAmounts(t, frozen, "500.00", "100.00", "200.00", "800.00")
		assert.Nil(t, frozen.ReadingID)
	})

	t.Run("deleting the reading restores flat billing", func(t *testing.T) {
		env := newEngineEnv(t)
		building := env.seed.Building()
		apartment := env.seed.Apartment(building, "1", "50", 0)
		reading := env.seed.Reading(apartment, march(5), coldWaterOnly("3"))
		draft := env.seed.Invoice(apartment, march(10))
		assertAmounts(t, draft, "500.00", "100.00", "15.00", "615.00")

		linked := env.seed.MustLoadReading(reading.ID)
		inv, err := upsert(env, linked, ReadingDeleted)
		require.NoError(t, err)
		require.NotNil(t, inv)

		got := env.seed.MustLoadInvoice(draft.ID)
		assertAmounts(t, got, "500.00", "100.00", "200.00", "800.00")
		assert.True(t, got.Flat)
		assert.Nil(t, got.ReadingID)
		assert.True(t, got.Info.Readings.ColdWater.IsZero())

		_, err = env.seed.LoadReading(reading.ID)
		assert.True(t, errors.Is(err, metering.ErrReadingNotFound))
	})

	t.Run("unlinked reading deletion touches nothing", func(t *testing.T) {
		env := newEngineEnv(t)
		building := env.seed.Building()
		apartment := env.seed.Apartment(building, "1", "50", 0)
		reading := env.seed.Reading(apartment, march(5), coldWaterOnly("3"))

		inv, err := upsert(env, reading, ReadingDeleted)
		require.NoError(t, err)
		assert.Nil(t, inv)
	})
}

func TestEngine_UsesCurrentTariffForMeteredDrafts(t *testing.T) {
	ctx := context.Background()
	env := newEngineEnv(t)
	tariff := testutil.Tariff()
	tariff.ColdWaterRate = testutil.D("4.333")
	building := env.seed.BuildingWith(tariff, 2)
	apartment := env.seed.Apartment(building, "1", "33.33", 1)
	env.seed.Reading(apartment, march(1), coldWaterOnly("3"))
	draft := env.seed.Invoice(apartment, march(31))

	// 33.33 x 10 = 333.30, 33.33 x 2 = 66.66, 3 x 4.333 = 12.999
	assertAmounts(t, draft, "333.30", "66.66", "13.00", "412.96")

	var b *property.Building
	err := env.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		b, err = repos.Buildings().FindByID(ctx, building.ID)
		if err != nil {
			return err
		}
		_, err = env.engine.RecalculateForBuilding(ctx, repos, b)
		return err
	})
	require.NoError(t, err)
	assertAmounts(t, env.seed.MustLoadInvoice(draft.ID), "333.30", "66.66", "13.00", "412.96")
}
