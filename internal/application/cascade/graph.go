// Package cascade keeps the entity graph consistent when buildings,
// apartments or users are deleted or re-linked.
//
// The affected entities are loaded into a Graph, a pure planning function
// mutates them in memory and emits an ordered Plan of saves and deletes,
// and the Coordinator applies that plan through the repositories of one
// unit of work.
package cascade

import (
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
)

// Graph is an arena of loaded entities keyed by id, with relation indexes
// kept in insertion order so plans are deterministic.
type Graph struct {
	Buildings  map[uuid.UUID]*property.Building
	Apartments map[uuid.UUID]*property.Apartment
	Readings   map[uuid.UUID]*metering.Reading
	Invoices   map[uuid.UUID]*billing.Invoice
	Users      map[uuid.UUID]*identity.User

	buildingOrder        []uuid.UUID
	apartmentOrder       []uuid.UUID
	apartmentsByBuilding map[uuid.UUID][]uuid.UUID
	readingsByApartment  map[uuid.UUID][]uuid.UUID
	invoicesByApartment  map[uuid.UUID][]uuid.UUID
	invoicesByTenant     map[uuid.UUID][]uuid.UUID
}

// NewGraph creates an empty Graph
func NewGraph() *Graph {
	return &Graph{
		Buildings:            make(map[uuid.UUID]*property.Building),
		Apartments:           make(map[uuid.UUID]*property.Apartment),
		Readings:             make(map[uuid.UUID]*metering.Reading),
		Invoices:             make(map[uuid.UUID]*billing.Invoice),
		Users:                make(map[uuid.UUID]*identity.User),
		apartmentsByBuilding: make(map[uuid.UUID][]uuid.UUID),
		readingsByApartment:  make(map[uuid.UUID][]uuid.UUID),
		invoicesByApartment:  make(map[uuid.UUID][]uuid.UUID),
		invoicesByTenant:     make(map[uuid.UUID][]uuid.UUID),
	}
}

// AddBuilding puts a building into the arena; re-adding is a no-op
func (g *Graph) AddBuilding(b *property.Building) {
	if _, ok := g.Buildings[b.ID]; ok {
		return
	}
	g.Buildings[b.ID] = b
	g.buildingOrder = append(g.buildingOrder, b.ID)
}

// AddApartment puts an apartment into the arena; re-adding is a no-op
func (g *Graph) AddApartment(a *property.Apartment) {
	if _, ok := g.Apartments[a.ID]; ok {
		return
	}
	g.Apartments[a.ID] = a
	g.apartmentOrder = append(g.apartmentOrder, a.ID)
	g.apartmentsByBuilding[a.BuildingID] = append(g.apartmentsByBuilding[a.BuildingID], a.ID)
}

// AddReading puts a reading into the arena; re-adding is a no-op
func (g *Graph) AddReading(r *metering.Reading) {
	if _, ok := g.Readings[r.ID]; ok {
		return
	}
	g.Readings[r.ID] = r
	g.readingsByApartment[r.ApartmentID] = append(g.readingsByApartment[r.ApartmentID], r.ID)
}

// AddInvoice puts an invoice into the arena; re-adding is a no-op
func (g *Graph) AddInvoice(inv *billing.Invoice) {
	if _, ok := g.Invoices[inv.ID]; ok {
		return
	}
	g.Invoices[inv.ID] = inv
	if inv.ApartmentID != nil {
		g.invoicesByApartment[*inv.ApartmentID] = append(g.invoicesByApartment[*inv.ApartmentID], inv.ID)
	}
	if inv.TenantID != nil {
		g.invoicesByTenant[*inv.TenantID] = append(g.invoicesByTenant[*inv.TenantID], inv.ID)
	}
}

// AddUser puts a user into the arena; re-adding is a no-op
func (g *Graph) AddUser(u *identity.User) {
	if _, ok := g.Users[u.ID]; ok {
		return
	}
	g.Users[u.ID] = u
}

// ApartmentsOf returns the loaded apartments of a building
func (g *Graph) ApartmentsOf(buildingID uuid.UUID) []*property.Apartment {
	ids := g.apartmentsByBuilding[buildingID]
	out := make([]*property.Apartment, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Apartments[id])
	}
	return out
}

// ReadingsOf returns the loaded readings of an apartment
func (g *Graph) ReadingsOf(apartmentID uuid.UUID) []*metering.Reading {
	ids := g.readingsByApartment[apartmentID]
	out := make([]*metering.Reading, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Readings[id])
	}
	return out
}

// InvoicesOf returns the loaded invoices of an apartment
func (g *Graph) InvoicesOf(apartmentID uuid.UUID) []*billing.Invoice {
	return g.invoices(g.invoicesByApartment[apartmentID])
}

// InvoicesOfTenant returns the loaded invoices referencing a user as tenant
func (g *Graph) InvoicesOfTenant(userID uuid.UUID) []*billing.Invoice {
	return g.invoices(g.invoicesByTenant[userID])
}

func (g *Graph) invoices(ids []uuid.UUID) []*billing.Invoice {
	out := make([]*billing.Invoice, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Invoices[id])
	}
	return out
}

// ApartmentsRentedBy returns the loaded apartments listing a user as tenant
func (g *Graph) ApartmentsRentedBy(userID uuid.UUID) []*property.Apartment {
	var out []*property.Apartment
	for _, id := range g.apartmentOrder {
		a := g.Apartments[id]
		if a.TenantID != nil && *a.TenantID == userID {
			out = append(out, a)
		}
	}
	return out
}

// BuildingsManagedBy returns the loaded buildings listing a user as manager
func (g *Graph) BuildingsManagedBy(userID uuid.UUID) []*property.Building {
	var out []*property.Building
	for _, id := range g.buildingOrder {
		if b := g.Buildings[id]; b.IsManagedBy(userID) {
			out = append(out, b)
		}
	}
	return out
}

func (g *Graph) aggregate(kind EntityKind, id uuid.UUID) shared.AggregateRoot {
	switch kind {
	case KindBuilding:
		if b, ok := g.Buildings[id]; ok {
			return b
		}
	case KindApartment:
		if a, ok := g.Apartments[id]; ok {
			return a
		}
	case KindReading:
		if r, ok := g.Readings[id]; ok {
			return r
		}
	case KindInvoice:
		if inv, ok := g.Invoices[id]; ok {
			return inv
		}
	case KindUser:
		if u, ok := g.Users[id]; ok {
			return u
		}
	}
	return nil
}
