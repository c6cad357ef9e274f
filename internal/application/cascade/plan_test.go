package cascade

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/rentflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilding(t *testing.T, managers ...uuid.UUID) *property.Building {
	t.Helper()
	b, err := property.NewBuilding(valueobject.MustNewAddress("Kraków", "Floriańska", "3", "31-019"), 3, testutil.Tariff(), managers...)
	require.NoError(t, err)
	return b
}

func newApartment(t *testing.T, b *property.Building, number string) *property.Apartment {
	t.Helper()
	a, err := property.NewApartment(b, number, testutil.D("50"), 0)
	require.NoError(t, err)
	return a
}

func newUser(t *testing.T, n int) *identity.User {
	t.Helper()
	u, err := identity.NewUser(
		"user"+string(rune('a'+n))+"@example.com",
		identity.Profile{FirstName: "Anna", LastName: "Nowak", Telephone: "60000000" + string(rune('0'+n))},
		testutil.PESEL(n), testutil.TestPassword)
	require.NoError(t, err)
	return u
}

func newInvoice(t *testing.T, b *property.Building, a *property.Apartment, issued time.Time, tenant *identity.User) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(billing.IssueParams{Building: b, Apartment: a, IssueDate: issued, Tenant: tenant})
	require.NoError(t, err)
	return inv
}

func TestPlanBuildingDeletion(t *testing.T) {
	manager := newUser(t, 1)
	require.NoError(t, manager.ChangeRole(identity.RoleManager))
	building := newBuilding(t, manager.ID)
	manager.StartManaging(building.ID)

	a1 := newApartment(t, building, "1")
	a2 := newApartment(t, building, "2")
	i1 := newInvoice(t, building, a1, testutil.Date(2024, time.January, 10), nil)
	i1.Confirm(nil)
	snapshot := i1.Info
	total := i1.TotalAmount

	g := NewGraph()
	g.AddBuilding(building)
	g.AddUser(manager)
	g.AddApartment(a1)
	g.AddApartment(a2)
	g.AddInvoice(i1)

	plan, err := PlanBuildingDeletion(g, building.ID)
	require.NoError(t, err)

	assert.Equal(t, []Step{
		{Op: OpSave, Kind: KindInvoice, ID: i1.ID},
		{Op: OpDelete, Kind: KindApartment, ID: a1.ID},
		{Op: OpDelete, Kind: KindApartment, ID: a2.ID},
		{Op: OpDelete, Kind: KindBuilding, ID: building.ID},
	}, plan.Steps)

	assert.Nil(t, i1.ApartmentID)
	assert.Nil(t, i1.ReadingID)
	assert.True(t, i1.Confirmed)
	assert.Equal(t, snapshot, i1.Info)
	assert.True(t, total.Equal(i1.TotalAmount))

	assert.Empty(t, building.ManagerIDs)
	assert.False(t, manager.Manages(building.ID))
}

func TestPlanApartmentDeletion(t *testing.T) {
	building := newBuilding(t)
	apartment := newApartment(t, building, "4")
	tenant := newUser(t, 2)
	require.NoError(t, apartment.AssignTenant(tenant.ID))
	tenant.MoveInto(apartment.ID)

	reading, err := metering.NewReading(apartment.ID, testutil.Date(2024, time.March, 3), metering.Values{
		Electricity: testutil.D("1"), ColdWater: testutil.D("1"), HotWater: testutil.D("1"), Heating: testutil.D("1"),
	})
	require.NoError(t, err)
	confirmed := newInvoice(t, building, apartment, testutil.Date(2024, time.February, 1), tenant)
	confirmed.Confirm(nil)
	draft, err := billing.NewInvoice(billing.IssueParams{
		Building: building, Apartment: apartment, IssueDate: testutil.Date(2024, time.March, 9), Reading: reading, Tenant: tenant,
	})
	require.NoError(t, err)
	reading.LinkInvoice(draft.ID)

	g := NewGraph()
	g.AddApartment(apartment)
	g.AddUser(tenant)
	g.AddReading(reading)
	g.AddInvoice(confirmed)
	g.AddInvoice(draft)

	plan, err := PlanApartmentDeletion(g, apartment.ID)
	require.NoError(t, err)

	assert.Equal(t, []Step{
		{Op: OpSave, Kind: KindInvoice, ID: confirmed.ID},
		{Op: OpDelete, Kind: KindInvoice, ID: draft.ID},
		{Op: OpDelete, Kind: KindReading, ID: reading.ID},
		{Op: OpSave, Kind: KindUser, ID: tenant.ID},
		{Op: OpDelete, Kind: KindApartment, ID: apartment.ID},
	}, plan.Steps)
	assert.Nil(t, tenant.ApartmentID)
	assert.Nil(t, reading.InvoiceID)
	require.NotNil(t, confirmed.TenantID)
	assert.Equal(t, tenant.ID, *confirmed.TenantID)

	events := apartment.GetDomainEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, property.EventTypeApartmentDeleted, events[len(events)-1].EventType())

	_, err = PlanApartmentDeletion(g, uuid.New())
	assert.True(t, errors.Is(err, property.ErrApartmentNotFound))
}

func TestPlanUserDeletion(t *testing.T) {
	t.Run("sole manager cannot be deleted", func(t *testing.T) {
		manager := newUser(t, 1)
		require.NoError(t, manager.ChangeRole(identity.RoleManager))
		building := newBuilding(t, manager.ID)
		g := NewGraph()
		g.AddUser(manager)
		g.AddBuilding(building)

		_, err := PlanUserDeletion(g, manager.ID)
		assert.True(t, errors.Is(err, property.ErrLastManagerRequired))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("co-manager and tenant references are cleared", func(t *testing.T) {
		m1, m2 := newUser(t, 1), newUser(t, 2)
		building := newBuilding(t, m1.ID, m2.ID)
		apartment := newApartment(t, building, "1")
		require.NoError(t, apartment.AssignTenant(m1.ID))
		m1.MoveInto(apartment.ID)
		inv := newInvoice(t, building, apartment, testutil.Date(2024, time.May, 1), m1)

		g := NewGraph()
		g.AddUser(m1)
		g.AddBuilding(building)
		g.AddApartment(apartment)
		g.AddInvoice(inv)

		plan, err := PlanUserDeletion(g, m1.ID)
		require.NoError(t, err)
		assert.Equal(t, []Step{
			{Op: OpSave, Kind: KindApartment, ID: apartment.ID},
			{Op: OpSave, Kind: KindBuilding, ID: building.ID},
			{Op: OpSave, Kind: KindInvoice, ID: inv.ID},
			{Op: OpDelete, Kind: KindUser, ID: m1.ID},
		}, plan.Steps)
		assert.Equal(t, []uuid.UUID{m2.ID}, building.ManagerIDs)
		assert.True(t, apartment.IsAvailable())
		assert.Nil(t, inv.TenantID)
		assert.Equal(t, m1.Email, inv.Info.Tenant.Email)
	})
}

func TestPlanManagedBuildings(t *testing.T) {
	manager := newUser(t, 1)
	require.NoError(t, manager.ChangeRole(identity.RoleManager))
	other := newUser(t, 2)
	shared1 := newBuilding(t, manager.ID, other.ID)
	sole := newBuilding(t, manager.ID)
	fresh := newBuilding(t)
	manager.StartManaging(shared1.ID)
	manager.StartManaging(sole.ID)

	graph := func() *Graph {
		g := NewGraph()
		g.AddUser(manager)
		g.AddBuilding(shared1)
		g.AddBuilding(sole)
		g.AddBuilding(fresh)
		return g
	}

	t.Run("dropping the sole manager fails", func(t *testing.T) {
		_, err := PlanManagedBuildings(graph(), manager.ID, []uuid.UUID{shared1.ID})
		assert.True(t, errors.Is(err, property.ErrLastManagerRequired))
	})

	t.Run("adds and removes", func(t *testing.T) {
		plan, err := PlanManagedBuildings(graph(), manager.ID, []uuid.UUID{sole.ID, fresh.ID, fresh.ID})
		require.NoError(t, err)
		assert.Equal(t, []Step{
			{Op: OpSave, Kind: KindBuilding, ID: shared1.ID},
			{Op: OpSave, Kind: KindBuilding, ID: fresh.ID},
		}, plan.Steps)
		assert.Equal(t, []uuid.UUID{other.ID}, shared1.ManagerIDs)
		assert.True(t, fresh.IsManagedBy(manager.ID))
		assert.ElementsMatch(t, []uuid.UUID{sole.ID, fresh.ID}, manager.ManagedBuildingIDs)
	})

	t.Run("tenants cannot manage", func(t *testing.T) {
		tenant := newUser(t, 3)
		g := graph()
		g.AddUser(tenant)
		_, err := PlanManagedBuildings(g, tenant.ID, []uuid.UUID{fresh.ID})
		assert.True(t, errors.Is(err, ErrNotAManager))
	})
}

func TestPlanApartmentAssignment(t *testing.T) {
	building := newBuilding(t)
	a1 := newApartment(t, building, "1")
	a2 := newApartment(t, building, "2")
	tenant := newUser(t, 1)
	neighbour := newUser(t, 2)
	require.NoError(t, a2.AssignTenant(neighbour.ID))

	g := NewGraph()
	g.AddUser(tenant)
	g.AddUser(neighbour)
	g.AddApartment(a1)
	g.AddApartment(a2)

	_, err := PlanApartmentAssignment(g, tenant.ID, &a2.ID)
	assert.True(t, errors.Is(err, ErrApartmentOccupied))
	assert.True(t, errors.Is(err, shared.ErrConflict))

	plan, err := PlanApartmentAssignment(g, tenant.ID, &a1.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Count(OpSave, KindApartment))
	assert.True(t, plan.Has(OpSave, KindUser, tenant.ID))
	require.NotNil(t, tenant.ApartmentID)
	assert.Equal(t, a1.ID, *tenant.ApartmentID)

	plan, err = PlanApartmentAssignment(g, tenant.ID, &a1.ID)
	require.NoError(t, err)
	assert.Empty(t, plan.Steps)

	plan, err = PlanApartmentAssignment(g, tenant.ID, nil)
	require.NoError(t, err)
	assert.True(t, plan.Has(OpSave, KindApartment, a1.ID))
	assert.True(t, a1.IsAvailable())
	assert.Nil(t, tenant.ApartmentID)
}
