package metering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/billing"
	domainbilling "github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type readingEnv struct {
	svc       *ReadingService
	seed      *testutil.Seeder
	publisher *testutil.RecordingPublisher
	apartment *property.Apartment
}

func newReadingEnv(t *testing.T) readingEnv {
	scope, _ := testutil.NewSQLiteScope(t)
	seed := testutil.NewSeeder(t, scope)
	publisher := testutil.NewRecordingPublisher()
	svc := NewReadingService(scope, billing.NewEngine(zap.NewNop(), nil), zap.NewNop())
	svc.SetEventPublisher(publisher)

	building := seed.Building()
	return readingEnv{
		svc:       svc,
		seed:      seed,
		publisher: publisher,
		apartment: seed.Apartment(building, "1", "50", 0),
	}
}

func coldWater(date time.Time, v string) ReadingRequest {
	return ReadingRequest{
		MeasurementDate: date,
		Electricity:     testutil.D("0"),
		ColdWater:       testutil.D(v),
		HotWater:        testutil.D("0"),
		Heating:         testutil.D("0"),
	}
}

func TestReadingService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("bills the draft of the same period", func(t *testing.T) {
		env := newReadingEnv(t)
		draft := env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))

		resp, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 20), "3"))
		require.NoError(t, err)
		assert.Equal(t, "2024-03-01", resp.PeriodStart)
		assert.Equal(t, "2024-03-31", resp.PeriodEnd)
		require.NotNil(t, resp.InvoiceID)
		assert.Equal(t, draft.ID, *resp.InvoiceID)

		inv := env.seed.MustLoadInvoice(draft.ID)
		assert.False(t, inv.Flat)
		require.NotNil(t, inv.ReadingID)
		assert.Equal(t, resp.ID, *inv.ReadingID)
		assert.Equal(t, "15.00", inv.TotalMediaAmount.StringFixed(2))
		assert.Equal(t, "615.00", inv.TotalAmount.StringFixed(2))
		assert.Equal(t, []string{domainbilling.EventTypeInvoiceRecalculated}, env.publisher.Types())

		stored := env.seed.MustLoadReading(resp.ID)
		require.NotNil(t, stored.InvoiceID)
	})

	t.Run("without an invoice the reading is only stored", func(t *testing.T) {
		env := newReadingEnv(t)
		resp, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 20), "3"))
		require.NoError(t, err)
		assert.Nil(t, resp.InvoiceID)
		assert.Empty(t, env.publisher.Events())
	})

	t.Run("one reading per period", func(t *testing.T) {
		env := newReadingEnv(t)
		_, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 1), "3"))
		require.NoError(t, err)

		_, err = env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 31), "4"))
		assert.True(t, errors.Is(err, metering.ErrDuplicateReading))
		assert.True(t, errors.Is(err, shared.ErrConflict))

		_, err = env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.April, 1), "4"))
		assert.NoError(t, err)
	})

	t.Run("confirmed invoice rejects the reading", func(t *testing.T) {
		env := newReadingEnv(t)
		confirmed := env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))
		env.seed.Confirm(confirmed)

		_, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 20), "3"))
		assert.True(t, errors.Is(err, domainbilling.ErrInvoiceFrozen))

		list, err := env.svc.ListByApartment(ctx, env.apartment.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
		inv := env.seed.MustLoadInvoice(confirmed.ID)
		assert.True(t, inv.Flat)
		assert.Equal(t, "800.00", inv.TotalAmount.StringFixed(2))
	})

	t.Run("negative values and unknown apartment", func(t *testing.T) {
		env := newReadingEnv(t)
		_, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 1), "-1"))
		testutil.AssertDomainCode(t, err, "INVALID_READING_VALUE")

		_, err = env.svc.Create(ctx, uuid.New(), coldWater(testutil.Date(2024, time.March, 1), "1"))
		assert.True(t, errors.Is(err, property.ErrApartmentNotFound))
	})
}

func TestReadingService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("new values reprice the linked draft", func(t *testing.T) {
		env := newReadingEnv(t)
		draft := env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))
		created, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 5), "3"))
		require.NoError(t, err)

		_, err = env.svc.Update(ctx, created.ID, coldWater(testutil.Date(2024, time.March, 6), "10"))
		require.NoError(t, err)

		inv := env.seed.MustLoadInvoice(draft.ID)
		assert.Equal(t, "50.00", inv.TotalMediaAmount.StringFixed(2))
		assert.Equal(t, "650.00", inv.TotalAmount.StringFixed(2))
		assert.True(t, inv.Info.Readings.ColdWater.Equal(testutil.D("10")))
	})

	t.Run("moving the period releases the old draft", func(t *testing.T) {
		env := newReadingEnv(t)
		march := env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))
		april := env.seed.Invoice(env.apartment, testutil.Date(2024, time.April, 1))
		created, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 5), "3"))
		require.NoError(t, err)

		resp, err := env.svc.Update(ctx, created.ID, coldWater(testutil.Date(2024, time.April, 5), "4"))
		require.NoError(t, err)
		assert.Equal(t, "2024-04-01", resp.PeriodStart)
		require.NotNil(t, resp.InvoiceID)
		assert.Equal(t, april.ID, *resp.InvoiceID)

		released := env.seed.MustLoadInvoice(march.ID)
		assert.True(t, released.Flat)
		assert.Nil(t, released.ReadingID)
		assert.Equal(t, "800.00", released.TotalAmount.StringFixed(2))

		billed := env.seed.MustLoadInvoice(april.ID)
		assert.False(t, billed.Flat)
		assert.Equal(t, "620.00", billed.TotalAmount.StringFixed(2))
	})

	t.Run("moving onto an occupied period conflicts", func(t *testing.T) {
		env := newReadingEnv(t)
		march, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 5), "3"))
		require.NoError(t, err)
		_, err = env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.April, 5), "3"))
		require.NoError(t, err)

		_, err = env.svc.Update(ctx, march.ID, coldWater(testutil.Date(2024, time.April, 10), "3"))
		assert.True(t, errors.Is(err, metering.ErrDuplicateReading))
	})

	t.Run("reading billed on a confirmed invoice is frozen", func(t *testing.T) {
		env := newReadingEnv(t)
		env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))
		created, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 5), "3"))
		require.NoError(t, err)
		env.seed.Confirm(env.seed.MustLoadInvoice(*created.InvoiceID))

		_, err = env.svc.Update(ctx, created.ID, coldWater(testutil.Date(2024, time.March, 5), "9"))
		assert.True(t, errors.Is(err, domainbilling.ErrInvoiceFrozen))
		_, err = env.svc.Update(ctx, created.ID, coldWater(testutil.Date(2024, time.May, 5), "3"))
		assert.True(t, errors.Is(err, domainbilling.ErrInvoiceFrozen))

		stored := env.seed.MustLoadReading(created.ID)
		assert.True(t, stored.Values.ColdWater.Equal(testutil.D("3")))
	})
}

func TestReadingService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("draft falls back to flat billing", func(t *testing.T) {
		env := newReadingEnv(t)
		draft := env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))
		created, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 5), "3"))
		require.NoError(t, err)

		require.NoError(t, env.svc.Delete(ctx, created.ID))

		_, err = env.svc.Get(ctx, created.ID)
		assert.True(t, errors.Is(err, metering.ErrReadingNotFound))
		inv := env.seed.MustLoadInvoice(draft.ID)
		assert.True(t, inv.Flat)
		assert.Nil(t, inv.ReadingID)
		assert.Equal(t, "800.00", inv.TotalAmount.StringFixed(2))
		assert.True(t, inv.Info.Readings.ColdWater.IsZero())
	})

	t.Run("reading billed on a confirmed invoice is locked", func(t *testing.T) {
		env := newReadingEnv(t)
		env.seed.Invoice(env.apartment, testutil.Date(2024, time.March, 1))
		created, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, time.March, 5), "3"))
		require.NoError(t, err)
		env.seed.Confirm(env.seed.MustLoadInvoice(*created.InvoiceID))

		err = env.svc.Delete(ctx, created.ID)
		assert.True(t, errors.Is(err, metering.ErrReadingLocked))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))

		_, err = env.svc.Get(ctx, created.ID)
		assert.NoError(t, err)
	})
}

func TestReadingService_ListForTenant(t *testing.T) {
	ctx := context.Background()
	env := newReadingEnv(t)
	tenant := env.seed.User("tenant@example.com")
	stranger := env.seed.User("stranger@example.com")
	env.seed.MoveIn(tenant, env.apartment)

	for _, m := range []time.Month{time.January, time.February} {
		_, err := env.svc.Create(ctx, env.apartment.ID, coldWater(testutil.Date(2024, m, 3), "1"))
		require.NoError(t, err)
	}

	list, err := env.svc.ListForTenant(ctx, "tenant@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-02-01", list[0].PeriodStart)

	list, err = env.svc.ListForTenant(ctx, stranger.Email)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.svc.ListForTenant(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
