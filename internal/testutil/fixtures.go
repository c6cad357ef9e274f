package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestPassword is the password of every seeded user
const TestPassword = "password123"

// D parses a decimal literal and panics on malformed input
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Tariff is the default building tariff: rent 10 and other 2 per m2,
// flat media sums adding up to 200.00
func Tariff() property.Tariff {
	return property.Tariff{
		ElectricityRate:   D("0.80"),
		ColdWaterRate:     D("5"),
		HotWaterRate:      D("12.50"),
		HeatingRate:       D("2.10"),
		RentRatePerM2:     D("10"),
		OtherChargesPerM2: D("2"),
		ElectricityFlat:   D("40"),
		ColdWaterFlat:     D("30"),
		HotWaterFlat:      D("50"),
		HeatingFlat:       D("80"),
	}
}

// PESEL derives a valid national id from n
func PESEL(n int) identity.NationalID {
	weights := [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}
	base := fmt.Sprintf("%010d", 8001010000+n%1000000)
	sum := 0
	for i := 0; i < 10; i++ {
		sum += int(base[i]-'0') * weights[i]
	}
	return identity.NationalID(fmt.Sprintf("%s%d", base, (10-sum%10)%10))
}

// Seeder saves aggregates through a unit of work. Every seeded aggregate has
// its pending events cleared so tests only observe what they trigger.
type Seeder struct {
	t     *testing.T
	ctx   context.Context
	scope uow.TransactionScope
	seq   int
}

// NewSeeder creates a Seeder writing through scope
func NewSeeder(t *testing.T, scope uow.TransactionScope) *Seeder {
	return &Seeder{t: t, ctx: context.Background(), scope: scope}
}

func (s *Seeder) next() int {
	s.seq++
	return s.seq
}

func (s *Seeder) exec(fn func(repos uow.Repositories) error) {
	s.t.Helper()
	require.NoError(s.t, s.scope.Execute(s.ctx, fn))
}

// User registers a tenant account
func (s *Seeder) User(email string) *identity.User {
	s.t.Helper()
	n := s.next()
	u, err := identity.NewUser(email, identity.Profile{
		FirstName: "First" + fmt.Sprint(n),
		LastName:  "Last" + fmt.Sprint(n),
		Telephone: fmt.Sprintf("600%06d", n),
	}, PESEL(n), TestPassword)
	require.NoError(s.t, err)
	s.exec(func(repos uow.Repositories) error {
		return repos.Users().Save(s.ctx, u)
	})
	u.ClearDomainEvents()
	return u
}

// Manager registers an account with the manager role
func (s *Seeder) Manager(email string) *identity.User {
	s.t.Helper()
	u := s.User(email)
	require.NoError(s.t, u.ChangeRole(identity.RoleManager))
	s.exec(func(repos uow.Repositories) error {
		return repos.Users().Save(s.ctx, u)
	})
	return u
}

// Building creates a three floor building with the default tariff
func (s *Seeder) Building(managers ...*identity.User) *property.Building {
	s.t.Helper()
	return s.BuildingWith(Tariff(), 3, managers...)
}

// BuildingWith creates a building with a given tariff and number of floors
func (s *Seeder) BuildingWith(tariff property.Tariff, floors int, managers ...*identity.User) *property.Building {
	s.t.Helper()
	n := s.next()
	address := valueobject.MustNewAddress("Gdańsk", "Długa", fmt.Sprint(n), "80-831")
	ids := make([]uuid.UUID, len(managers))
	for i, m := range managers {
		ids[i] = m.ID
	}
	b, err := property.NewBuilding(address, floors, tariff, ids...)
	require.NoError(s.t, err)
	s.exec(func(repos uow.Repositories) error {
		return repos.Buildings().Save(s.ctx, b)
	})
	b.ClearDomainEvents()
	for _, m := range managers {
		m.StartManaging(b.ID)
	}
	return b
}

// Apartment adds an apartment to a building
func (s *Seeder) Apartment(b *property.Building, number, area string, floor int) *property.Apartment {
	s.t.Helper()
	a, err := property.NewApartment(b, number, D(area), floor)
	require.NoError(s.t, err)
	s.exec(func(repos uow.Repositories) error {
		return repos.Apartments().Save(s.ctx, a)
	})
	a.ClearDomainEvents()
	return a
}

// MoveIn makes u the tenant of a
func (s *Seeder) MoveIn(u *identity.User, a *property.Apartment) {
	s.t.Helper()
	require.NoError(s.t, a.AssignTenant(u.ID))
	u.MoveInto(a.ID)
	s.exec(func(repos uow.Repositories) error {
		if err := repos.Apartments().Save(s.ctx, a); err != nil {
			return err
		}
		return repos.Users().Save(s.ctx, u)
	})
}

// Reading stores a reading without touching invoices
func (s *Seeder) Reading(a *property.Apartment, measured time.Time, values metering.Values) *metering.Reading {
	s.t.Helper()
	r, err := metering.NewReading(a.ID, measured, values)
	require.NoError(s.t, err)
	s.exec(func(repos uow.Repositories) error {
		return repos.Readings().Save(s.ctx, r)
	})
	return r
}

// Invoice issues a draft for the period of issued, linking the period's reading if one exists
func (s *Seeder) Invoice(a *property.Apartment, issued time.Time) *billing.Invoice {
	s.t.Helper()
	var inv *billing.Invoice
	s.exec(func(repos uow.Repositories) error {
		building, err := repos.Buildings().FindByID(s.ctx, a.BuildingID)
		if err != nil {
			return err
		}
		apartment, err := repos.Apartments().FindByID(s.ctx, a.ID)
		if err != nil {
			return err
		}
		params := billing.IssueParams{Building: building, Apartment: apartment, IssueDate: issued}
		if r, err := repos.Readings().FindByApartmentAndPeriod(s.ctx, a.ID, valueobject.PeriodOf(issued)); err == nil {
			params.Reading = r
		}
		if apartment.TenantID != nil {
			tenant, err := repos.Users().FindByID(s.ctx, *apartment.TenantID)
			if err != nil {
				return err
			}
			params.Tenant = tenant
		}
		inv, err = billing.NewInvoice(params)
		if err != nil {
			return err
		}
		if err := repos.Invoices().Save(s.ctx, inv); err != nil {
			return err
		}
		if params.Reading != nil {
			params.Reading.LinkInvoice(inv.ID)
			return repos.Readings().Save(s.ctx, params.Reading)
		}
		return nil
	})
	inv.ClearDomainEvents()
	return inv
}

// Confirm freezes an invoice
func (s *Seeder) Confirm(inv *billing.Invoice) {
	s.t.Helper()
	inv.Confirm(nil)
	s.exec(func(repos uow.Repositories) error {
		return repos.Invoices().Save(s.ctx, inv)
	})
	inv.ClearDomainEvents()
}

// LoadInvoice reads an invoice back from the store
func (s *Seeder) LoadInvoice(id uuid.UUID) (*billing.Invoice, error) {
	var inv *billing.Invoice
	err := s.scope.Execute(s.ctx, func(repos uow.Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(s.ctx, id)
		return err
	})
	return inv, err
}

// LoadReading reads a reading back from the store
func (s *Seeder) LoadReading(id uuid.UUID) (*metering.Reading, error) {
	var r *metering.Reading
	err := s.scope.Execute(s.ctx, func(repos uow.Repositories) error {
		var err error
		r, err = repos.Readings().FindByID(s.ctx, id)
		return err
	})
	return r, err
}

// LoadApartment reads an apartment back from the store
func (s *Seeder) LoadApartment(id uuid.UUID) (*property.Apartment, error) {
	var a *property.Apartment
	err := s.scope.Execute(s.ctx, func(repos uow.Repositories) error {
		var err error
		a, err = repos.Apartments().FindByID(s.ctx, id)
		return err
	})
	return a, err
}

// LoadBuilding reads a building back from the store
func (s *Seeder) LoadBuilding(id uuid.UUID) (*property.Building, error) {
	var b *property.Building
	err := s.scope.Execute(s.ctx, func(repos uow.Repositories) error {
		var err error
		b, err = repos.Buildings().FindByID(s.ctx, id)
		return err
	})
	return b, err
}

// LoadUser reads a user back from the store
func (s *Seeder) LoadUser(id uuid.UUID) (*identity.User, error) {
	var u *identity.User
	err := s.scope.Execute(s.ctx, func(repos uow.Repositories) error {
		var err error
		u, err = repos.Users().FindByID(s.ctx, id)
		return err
	})
	return u, err
}

// MustLoadInvoice is LoadInvoice failing the test on error
func (s *Seeder) MustLoadInvoice(id uuid.UUID) *billing.Invoice {
	s.t.Helper()
	inv, err := s.LoadInvoice(id)
	require.NoError(s.t, err)
	return inv
}

// MustLoadReading is LoadReading failing the test on error
func (s *Seeder) MustLoadReading(id uuid.UUID) *metering.Reading {
	s.t.Helper()
	r, err := s.LoadReading(id)
	require.NoError(s.t, err)
	return r
}
