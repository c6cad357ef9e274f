package cascade

import (
	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
)

// Op is a write applied by a plan step
type Op string

const (
	OpSave   Op = "save"
	OpDelete Op = "delete"
)

// EntityKind names the store a plan step writes to
type EntityKind string

const (
	KindBuilding  EntityKind = "building"
	KindApartment EntityKind = "apartment"
	KindReading   EntityKind = "reading"
	KindInvoice   EntityKind = "invoice"
	KindUser      EntityKind = "user"
)

// Step is one write of a plan
type Step struct {
	Op   Op
	Kind EntityKind
	ID   uuid.UUID
}

// Plan is the ordered list of writes produced by a planning function
type Plan struct {
	Steps []Step
}

func (p *Plan) save(kind EntityKind, id uuid.UUID) {
	p.Steps = append(p.Steps, Step{Op: OpSave, Kind: kind, ID: id})
}

func (p *Plan) delete(kind EntityKind, id uuid.UUID) {
	p.Steps = append(p.Steps, Step{Op: OpDelete, Kind: kind, ID: id})
}

// Count returns how many steps perform op on kind
func (p *Plan) Count(op Op, kind EntityKind) int {
	n := 0
	for _, s := range p.Steps {
		if s.Op == op && s.Kind == kind {
			n++
		}
	}
	return n
}

// Has reports whether the plan contains the step
func (p *Plan) Has(op Op, kind EntityKind, id uuid.UUID) bool {
	for _, s := range p.Steps {
		if s.Op == op && s.Kind == kind && s.ID == id {
			return true
		}
	}
	return false
}

// PlanApartmentDeletion removes an apartment with its readings and draft
// invoices. Confirmed invoices stay as history with their apartment and
// reading references cleared; the tenant, if loaded, moves out.
func PlanApartmentDeletion(g *Graph, apartmentID uuid.UUID) (*Plan, error) {
	apartment, ok := g.Apartments[apartmentID]
	if !ok {
		return nil, property.ErrApartmentNotFound
	}
	plan := &Plan{}
	planApartment(g, plan, apartment)
	return plan, nil
}

func planApartment(g *Graph, plan *Plan, apartment *property.Apartment) {
	for _, inv := range g.InvoicesOf(apartment.ID) {
		if inv.Confirmed {
			inv.DetachApartment()
			plan.save(KindInvoice, inv.ID)
			continue
		}
		plan.delete(KindInvoice, inv.ID)
	}

	for _, r := range g.ReadingsOf(apartment.ID) {
		r.UnlinkInvoice()
		plan.delete(KindReading, r.ID)
	}

	if apartment.TenantID != nil {
		if tenant, ok := g.Users[*apartment.TenantID]; ok {
			tenant.MoveOut()
			plan.save(KindUser, tenant.ID)
		}
		apartment.DetachTenant()
	}

	apartment.MarkDeleted()
	plan.delete(KindApartment, apartment.ID)
}

// PlanBuildingDeletion drops the building from its managers' sets, deletes
// every apartment as PlanApartmentDeletion does and then the building.
// Manager sets live on the building, so managers are not written.
func PlanBuildingDeletion(g *Graph, buildingID uuid.UUID) (*Plan, error) {
	building, ok := g.Buildings[buildingID]
	if !ok {
		return nil, property.ErrBuildingNotFound
	}
	plan := &Plan{}

	for _, managerID := range append([]uuid.UUID(nil), building.ManagerIDs...) {
		if manager, ok := g.Users[managerID]; ok {
			manager.StopManaging(building.ID)
		}
		building.DetachManager(managerID)
	}

	for _, apartment := range g.ApartmentsOf(building.ID) {
		planApartment(g, plan, apartment)
	}

	building.MarkDeleted()
	plan.delete(KindBuilding, building.ID)
	return plan, nil
}

// PlanUserDeletion moves the user out, removes them from every managed
// building and clears the tenant reference of their invoices. It fails with
// property.ErrLastManagerRequired when a building would lose its last manager.
func PlanUserDeletion(g *Graph, userID uuid.UUID) (*Plan, error) {
	user, ok := g.Users[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	plan := &Plan{}

	for _, apartment := range g.ApartmentsRentedBy(user.ID) {
		apartment.DetachTenant()
		plan.save(KindApartment, apartment.ID)
	}
	user.MoveOut()

	for _, building := range g.BuildingsManagedBy(user.ID) {
		if err := building.RemoveManager(user.ID); err != nil {
			return nil, err
		}
		user.StopManaging(building.ID)
		plan.save(KindBuilding, building.ID)
	}

	for _, inv := range g.InvoicesOfTenant(user.ID) {
		inv.DetachTenant()
		plan.save(KindInvoice, inv.ID)
	}

	user.MarkDeleted()
	plan.delete(KindUser, user.ID)
	return plan, nil
}

// PlanManagedBuildings replaces a manager's building set with buildingIDs.
// Every building in the new set and every building currently managed must
// be loaded. Dropping a building's last manager fails with
// property.ErrLastManagerRequired.
func PlanManagedBuildings(g *Graph, userID uuid.UUID, buildingIDs []uuid.UUID) (*Plan, error) {
	user, ok := g.Users[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	if !user.IsManager() && len(buildingIDs) > 0 {
		return nil, ErrNotAManager
	}

	wanted := make(map[uuid.UUID]bool, len(buildingIDs))
	for _, id := range buildingIDs {
		if _, ok := g.Buildings[id]; !ok {
			return nil, property.ErrBuildingNotFound
		}
		wanted[id] = true
	}

	plan := &Plan{}
	for _, building := range g.BuildingsManagedBy(user.ID) {
		if wanted[building.ID] {
			continue
		}
		if err := building.RemoveManager(user.ID); err != nil {
			return nil, err
		}
		user.StopManaging(building.ID)
		plan.save(KindBuilding, building.ID)
	}

	for _, id := range dedupe(buildingIDs) {
		building := g.Buildings[id]
		if building.IsManagedBy(user.ID) {
			continue
		}
		building.AddManager(user.ID)
		user.StartManaging(building.ID)
		plan.save(KindBuilding, building.ID)
	}
	return plan, nil
}

// PlanApartmentAssignment moves a tenant into apartmentID, or out of their
// current apartment when apartmentID is nil. The target apartment must be
// free; re-assigning the current apartment is a no-op.
func PlanApartmentAssignment(g *Graph, userID uuid.UUID, apartmentID *uuid.UUID) (*Plan, error) {
	user, ok := g.Users[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	plan := &Plan{}

	if apartmentID != nil && user.ApartmentID != nil && *user.ApartmentID == *apartmentID {
		return plan, nil
	}

	var target *property.Apartment
	if apartmentID != nil {
		if user.Role != identity.RoleUser {
			return nil, ErrNotATenant
		}
		target, ok = g.Apartments[*apartmentID]
		if !ok {
			return nil, property.ErrApartmentNotFound
		}
		if !target.IsAvailable() {
			return nil, ErrApartmentOccupied
		}
	}

	if user.ApartmentID != nil {
		if current, ok := g.Apartments[*user.ApartmentID]; ok {
			current.DetachTenant()
			plan.save(KindApartment, current.ID)
		}
		user.MoveOut()
	}

	if target != nil {
		if err := target.AssignTenant(user.ID); err != nil {
			return nil, err
		}
		user.MoveInto(target.ID)
		plan.save(KindApartment, target.ID)
	}

	plan.save(KindUser, user.ID)
	return plan, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Errors raised while planning re-links
var (
	ErrApartmentOccupied = shared.NewConflictError("APARTMENT_OCCUPIED", "Apartment already has a tenant")
	ErrNotAManager       = shared.NewValidationError("NOT_A_MANAGER", "Only managers can manage buildings")
	ErrNotATenant        = shared.NewValidationError("NOT_A_TENANT", "Only tenants can be assigned to an apartment")
)
