package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
)

// loadApartment loads an apartment with its invoices, readings and tenant
func loadApartment(ctx context.Context, repos uow.Repositories, g *Graph, id uuid.UUID) error {
	apartment, err := repos.Apartments().FindByID(ctx, id)
	if err != nil {
		return err
	}
	return loadApartmentContents(ctx, repos, g, apartment)
}

func loadApartmentContents(ctx context.Context, repos uow.Repositories, g *Graph, apartment *property.Apartment) error {
	g.AddApartment(apartment)

	invoices, err := repos.Invoices().FindByApartment(ctx, apartment.ID)
	if err != nil {
		return fmt.Errorf("failed to load invoices of apartment %s: %w", apartment.ID, err)
	}
	for i := range invoices {
		g.AddInvoice(&invoices[i])
	}

	readings, err := repos.Readings().FindByApartment(ctx, apartment.ID)
	if err != nil {
		return fmt.Errorf("failed to load readings of apartment %s: %w", apartment.ID, err)
	}
	for i := range readings {
		g.AddReading(&readings[i])
	}

	if apartment.TenantID != nil {
		tenant, err := repos.Users().FindByID(ctx, *apartment.TenantID)
		switch {
		case err == nil:
			g.AddUser(tenant)
		case !errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("failed to load tenant of apartment %s: %w", apartment.ID, err)
		}
	}
	return nil
}

// loadBuilding loads a building, its managers and every apartment's contents
func loadBuilding(ctx context.Context, repos uow.Repositories, g *Graph, id uuid.UUID) error {
	building, err := repos.Buildings().FindByID(ctx, id)
	if err != nil {
		return err
	}
	g.AddBuilding(building)

	managers, err := repos.Users().FindByIDs(ctx, building.ManagerIDs)
	if err != nil {
		return fmt.Errorf("failed to load managers of building %s: %w", id, err)
	}
	for i := range managers {
		g.AddUser(&managers[i])
	}

	apartments, err := repos.Apartments().FindByBuilding(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load apartments of building %s: %w", id, err)
	}
	for i := range apartments {
		if err := loadApartmentContents(ctx, repos, g, &apartments[i]); err != nil {
			return err
		}
	}
	return nil
}

// loadUser loads a user with the apartment they rent, the buildings they
// manage and the invoices naming them as tenant
func loadUser(ctx context.Context, repos uow.Repositories, g *Graph, id uuid.UUID) error {
	user, err := repos.Users().FindByID(ctx, id)
	if err != nil {
		return err
	}
	g.AddUser(user)

	rented, err := repos.Apartments().FindByTenant(ctx, id)
	switch {
	case err == nil:
		g.AddApartment(rented)
	case !errors.Is(err, shared.ErrNotFound):
		return fmt.Errorf("failed to load apartment of user %s: %w", id, err)
	}
	if user.ApartmentID != nil {
		if err := loadOptionalApartment(ctx, repos, g, *user.ApartmentID); err != nil {
			return err
		}
	}

	buildings, err := repos.Buildings().FindByManager(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load buildings of user %s: %w", id, err)
	}
	for i := range buildings {
		g.AddBuilding(&buildings[i])
	}

	invoices, err := repos.Invoices().FindByTenant(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load invoices of user %s: %w", id, err)
	}
	for i := range invoices {
		g.AddInvoice(&invoices[i])
	}
	return nil
}

func loadOptionalApartment(ctx context.Context, repos uow.Repositories, g *Graph, id uuid.UUID) error {
	if _, ok := g.Apartments[id]; ok {
		return nil
	}
	apartment, err := repos.Apartments().FindByID(ctx, id)
	switch {
	case err == nil:
		g.AddApartment(apartment)
		return nil
	case errors.Is(err, shared.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to load apartment %s: %w", id, err)
	}
}

// loadBuildings loads the given buildings, failing on the first unknown id
func loadBuildings(ctx context.Context, repos uow.Repositories, g *Graph, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, ok := g.Buildings[id]; ok {
			continue
		}
		building, err := repos.Buildings().FindByID(ctx, id)
		if err != nil {
			return err
		}
		g.AddBuilding(building)
	}
	return nil
}

// apply performs the plan's writes in order
func apply(ctx context.Context, repos uow.Repositories, g *Graph, plan *Plan) error {
	for _, step := range plan.Steps {
		if err := applyStep(ctx, repos, g, step); err != nil {
			return fmt.Errorf("failed to %s %s %s: %w", step.Op, step.Kind, step.ID, err)
		}
	}
	return nil
}

func applyStep(ctx context.Context, repos uow.Repositories, g *Graph, step Step) error {
	del := step.Op == OpDelete
	switch step.Kind {
	case KindBuilding:
		if del {
			return repos.Buildings().Delete(ctx, step.ID)
		}
		return repos.Buildings().Save(ctx, g.Buildings[step.ID])
	case KindApartment:
		if del {
			return repos.Apartments().Delete(ctx, step.ID)
		}
		return repos.Apartments().Save(ctx, g.Apartments[step.ID])
	case KindReading:
		if del {
			return repos.Readings().Delete(ctx, step.ID)
		}
		return repos.Readings().Save(ctx, g.Readings[step.ID])
	case KindInvoice:
		if del {
			return repos.Invoices().Delete(ctx, step.ID)
		}
		return repos.Invoices().Save(ctx, g.Invoices[step.ID])
	case KindUser:
		if del {
			return repos.Users().Delete(ctx, step.ID)
		}
		return repos.Users().Save(ctx, g.Users[step.ID])
	default:
		return fmt.Errorf("unknown entity kind %q", step.Kind)
	}
}

// touched returns the aggregates written by the plan, each once, in step order
func touched(g *Graph, plan *Plan) []shared.AggregateRoot {
	seen := make(map[uuid.UUID]bool, len(plan.Steps))
	out := make([]shared.AggregateRoot, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		if seen[step.ID] {
			continue
		}
		seen[step.ID] = true
		if agg := g.aggregate(step.Kind, step.ID); agg != nil {
			out = append(out, agg)
		}
	}
	return out
}
