package billing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	t.Run("flat invoice without reading", func(t *testing.T) {
		f := newFixture(t)
		manager := f.manager.Snapshot()
		inv, err := NewInvoice(IssueParams{
			Building:  f.building,
			Apartment: f.apartment,
			IssueDate: march(10),
			Tenant:    f.tenant,
			Manager:   &manager,
		})
		require.NoError(t, err)

		assert.Equal(t, StatusDraft, inv.Status())
		assert.False(t, inv.Paid)
		assert.True(t, inv.Flat)
		assert.Nil(t, inv.ReadingID)
		assert.Equal(t, march(1), inv.Period.Start())
		assert.Equal(t, march(31), inv.Period.End())
		assert.True(t, inv.RentAmount.Equal(d("500")))
		assert.True(t, inv.OtherCharges.Equal(d("100")))
		assert.True(t, inv.TotalMediaAmount.Equal(d("295.75")))
		assert.True(t, inv.TotalAmount.Equal(d("895.75")))

		assert.Equal(t, "Rynek 1, 50-101 Wrocław", inv.Info.FullAddress())
		assert.Equal(t, "7", inv.Info.ApartmentNumber)
		assert.Equal(t, 1, inv.Info.ApartmentFloor)
		assert.True(t, inv.Info.Tariff.Equals(testTariff()))
		assert.Equal(t, "tenant@example.com", inv.Info.Tenant.Email)
		assert.Equal(t, "44051401359", inv.Info.Tenant.NationalID)
		assert.Equal(t, "manager@example.com", inv.Info.Manager.Email)
		assert.True(t, inv.Info.Readings.ColdWater.IsZero())
		require.NotNil(t, inv.TenantID)
		assert.Equal(t, f.tenant.ID, *inv.TenantID)

		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceIssued, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("metered invoice links the reading", func(t *testing.T) {
		f := newFixture(t)
		reading := newReading(t, f, "3")
		inv, err := NewInvoice(IssueParams{
			Building:  f.building,
			Apartment: f.apartment,
			IssueDate: march(31),
			Reading:   reading,
		})
		require.NoError(t, err)

		assert.False(t, inv.Flat)
		require.NotNil(t, inv.ReadingID)
		assert.Equal(t, reading.ID, *inv.ReadingID)
		// 100x0.75 + 3x5 + 1.5x12.40 + 4x3.05 = 75 + 15 + 18.6 + 12.2
		assert.True(t, inv.TotalMediaAmount.Equal(d("120.80")))
		assert.True(t, inv.TotalAmount.Equal(d("720.80")))
		assert.True(t, inv.Info.Readings.ColdWater.Equal(d("3")))
		assert.True(t, inv.Info.Tenant.IsEmpty())
		assert.Nil(t, inv.TenantID)
	})

	t.Run("reading from another period is rejected", func(t *testing.T) {
		f := newFixture(t)
		reading := newReading(t, f, "3")
		_, err := NewInvoice(IssueParams{
			Building:  f.building,
			Apartment: f.apartment,
			IssueDate: march(1).AddDate(0, 1, 0),
			Reading:   reading,
		})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("apartment of another building is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.apartment.BuildingID = uuid.New()
		_, err := NewInvoice(IssueParams{Building: f.building, Apartment: f.apartment, IssueDate: march(1)})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func newDraft(t *testing.T, f fixture) *Invoice {
	t.Helper()
	inv, err := NewInvoice(IssueParams{
		Building:  f.building,
		Apartment: f.apartment,
		IssueDate: march(5),
		Tenant:    f.tenant,
	})
	require.NoError(t, err)
	inv.ClearDomainEvents()
	return inv
}

func TestInvoice_Confirm(t *testing.T) {
	f := newFixture(t)
	inv := newDraft(t, f)

	manager := f.manager.Snapshot()
	assert.True(t, inv.Confirm(&manager))
	assert.Equal(t, StatusConfirmed, inv.Status())
	assert.Equal(t, "manager@example.com", inv.Info.Manager.Email)
	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoiceConfirmed, inv.GetDomainEvents()[0].EventType())

	t.Run("confirming again is a no-op", func(t *testing.T) {
		before := *inv
		assert.False(t, inv.Confirm(nil))
		assert.Equal(t, before.Version, inv.Version)
		assert.Len(t, inv.GetDomainEvents(), 1)
	})

	t.Run("confirming again may refresh only the manager", func(t *testing.T) {
		total := inv.TotalAmount
		other := identity.PersonSnapshot{FirstName: "Piotr", LastName: "Wiśniewski", Email: "piotr@example.com"}
		assert.False(t, inv.Confirm(&other))
		assert.Equal(t, "piotr@example.com", inv.Info.Manager.Email)
		assert.True(t, inv.TotalAmount.Equal(total))
		assert.Equal(t, "tenant@example.com", inv.Info.Tenant.Email)
	})

	t.Run("reopening is refused", func(t *testing.T) {
		assert.True(t, errors.Is(inv.Reopen(), ErrInvoiceFrozen))
		assert.NoError(t, newDraft(t, f).Reopen())
	})
}

func TestInvoice_Pay(t *testing.T) {
	f := newFixture(t)
	inv := newDraft(t, f)

	require.NoError(t, inv.Pay())
	assert.True(t, inv.Paid)

	err := inv.Pay()
	assert.True(t, errors.Is(err, ErrAlreadyPaid))
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestInvoice_CanDelete(t *testing.T) {
	f := newFixture(t)
	inv := newDraft(t, f)
	assert.NoError(t, inv.CanDelete())

	inv.Confirm(nil)
	assert.True(t, errors.Is(inv.CanDelete(), ErrInvoiceFrozen))
}

func TestInvoice_Recalculate(t *testing.T) {
	t.Run("draft follows tariff and area changes", func(t *testing.T) {
		f := newFixture(t)
		inv := newDraft(t, f)

		tariff := testTariff()
		tariff.RentRatePerM2 = d("12")
		_, err := f.building.UpdateTariff(tariff)
		require.NoError(t, err)
		_, err = f.apartment.Resize(d("60"))
		require.NoError(t, err)

		require.NoError(t, inv.Recalculate(f.building, f.apartment, nil))
		assert.True(t, inv.RentAmount.Equal(d("720")))
		assert.True(t, inv.OtherCharges.Equal(d("120")))
		assert.True(t, inv.TotalAmount.Equal(d("1135.75")))
		assert.True(t, inv.Info.ApartmentArea.Equal(d("60")))
		assert.True(t, inv.Info.Tariff.RentRatePerM2.Equal(d("12")))
		assert.Equal(t, "tenant@example.com", inv.Info.Tenant.Email)
	})

	t.Run("recalculation is idempotent", func(t *testing.T) {
		f := newFixture(t)
		inv := newDraft(t, f)
		require.NoError(t, inv.Recalculate(f.building, f.apartment, nil))
		first := []string{inv.RentAmount.String(), inv.OtherCharges.String(), inv.TotalMediaAmount.String(), inv.TotalAmount.String()}
		require.NoError(t, inv.Recalculate(f.building, f.apartment, nil))
		second := []string{inv.RentAmount.String(), inv.OtherCharges.String(), inv.TotalMediaAmount.String(), inv.TotalAmount.String()}
		assert.Equal(t, first, second)
	})

	t.Run("confirmed invoice is frozen", func(t *testing.T) {
		f := newFixture(t)
		inv := newDraft(t, f)
		inv.Confirm(nil)
		snapshot := inv.Info
		total := inv.TotalAmount

		_, err := f.apartment.Resize(d("80"))
		require.NoError(t, err)
		err = inv.Recalculate(f.building, f.apartment, nil)
		assert.True(t, errors.Is(err, ErrInvoiceFrozen))
		assert.Equal(t, snapshot, inv.Info)
		assert.True(t, inv.TotalAmount.Equal(total))

		err = inv.AttachReading(newReading(t, f, "3"), f.building.Tariff)
		assert.True(t, errors.Is(err, ErrInvoiceFrozen))
		assert.True(t, inv.Flat)
		assert.Nil(t, inv.ReadingID)
	})
}

func TestInvoice_ReadingLifecycle(t *testing.T) {
	f := newFixture(t)
	inv := newDraft(t, f)
	reading := newReading(t, f, "3")

	require.NoError(t, inv.AttachReading(reading, f.building.Tariff))
	assert.False(t, inv.Flat)
	require.NotNil(t, inv.ReadingID)
	assert.True(t, inv.TotalMediaAmount.Equal(d("120.80")))
	assert.True(t, inv.TotalAmount.Equal(d("720.80")))
	assert.True(t, inv.Info.Readings.HotWater.Equal(d("1.5")))

	inv.DetachReading(f.building.Tariff)
	assert.True(t, inv.Flat)
	assert.Nil(t, inv.ReadingID)
	assert.True(t, inv.TotalMediaAmount.Equal(d("295.75")))
	assert.True(t, inv.TotalAmount.Equal(d("895.75")))
	assert.True(t, inv.Info.Readings.HotWater.IsZero())

	t.Run("confirmed invoice only loses the link", func(t *testing.T) {
		inv := newDraft(t, f)
		require.NoError(t, inv.AttachReading(reading, f.building.Tariff))
		inv.Confirm(nil)

		inv.DetachReading(f.building.Tariff)
		assert.Nil(t, inv.ReadingID)
		assert.False(t, inv.Flat)
		assert.True(t, inv.TotalAmount.Equal(d("720.80")))
		assert.True(t, inv.Info.Readings.ColdWater.Equal(d("3")))
	})
}

func TestInvoice_Detach(t *testing.T) {
	f := newFixture(t)
	inv := newDraft(t, f)
	inv.Confirm(nil)
	info := inv.Info

	inv.DetachApartment()
	inv.DetachTenant()

	assert.True(t, inv.IsOrphaned())
	assert.Nil(t, inv.TenantID)
	assert.Equal(t, info, inv.Info)
}
