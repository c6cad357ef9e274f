package cascade

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Coordinator applies deletion cascades and relationship changes as one
// all-or-nothing unit of work each
type Coordinator struct {
	scope          uow.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	metrics        *telemetry.BillingMetrics
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(scope uow.TransactionScope, logger *zap.Logger, metrics *telemetry.BillingMetrics) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		scope:   scope,
		logger:  logger,
		metrics: metrics,
	}
}

// SetEventPublisher sets the publisher that receives deletion events after commit
func (c *Coordinator) SetEventPublisher(publisher shared.EventPublisher) {
	c.eventPublisher = publisher
}

type planner func(ctx context.Context, repos uow.Repositories, g *Graph) (*Plan, error)

// DeleteApartment deletes an apartment with its readings and drafts, keeping confirmed invoices as history
func (c *Coordinator) DeleteApartment(ctx context.Context, apartmentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "cascade", "delete_apartment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApartmentID, apartmentID.String())

	plan, err := c.execute(ctx, func(ctx context.Context, repos uow.Repositories, g *Graph) (*Plan, error) {
		if err := loadApartment(ctx, repos, g, apartmentID); err != nil {
			return nil, err
		}
		return PlanApartmentDeletion(g, apartmentID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	c.applied(ctx, KindApartment, apartmentID, plan)
	return nil
}

// DeleteBuilding deletes a building and cascades to every apartment in it
func (c *Coordinator) DeleteBuilding(ctx context.Context, buildingID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "cascade", "delete_building")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, buildingID.String())

	plan, err := c.execute(ctx, func(ctx context.Context, repos uow.Repositories, g *Graph) (*Plan, error) {
		if err := loadBuilding(ctx, repos, g, buildingID); err != nil {
			return nil, err
		}
		return PlanBuildingDeletion(g, buildingID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	c.applied(ctx, KindBuilding, buildingID, plan)
	return nil
}

// DeleteUser deletes a user after moving them out, removing them from the
// buildings they manage and clearing the tenant of their invoices
func (c *Coordinator) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "cascade", "delete_user")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	plan, err := c.execute(ctx, func(ctx context.Context, repos uow.Repositories, g *Graph) (*Plan, error) {
		if err := loadUser(ctx, repos, g, userID); err != nil {
			return nil, err
		}
		return PlanUserDeletion(g, userID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		c.refused("delete_user", userID, err)
		return err
	}
	c.applied(ctx, KindUser, userID, plan)
	return nil
}

// UpdateManagedBuildings replaces the set of buildings a manager manages
func (c *Coordinator) UpdateManagedBuildings(ctx context.Context, userID uuid.UUID, buildingIDs []uuid.UUID) (*identity.User, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cascade", "update_managed_buildings")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	var user *identity.User
	plan, err := c.execute(ctx, func(ctx context.Context, repos uow.Repositories, g *Graph) (*Plan, error) {
		if err := loadUser(ctx, repos, g, userID); err != nil {
			return nil, err
		}
		if err := loadBuildings(ctx, repos, g, buildingIDs); err != nil {
			return nil, err
		}
		user = g.Users[userID]
		return PlanManagedBuildings(g, userID, buildingIDs)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		c.refused("update_managed_buildings", userID, err)
		return nil, err
	}

	c.logger.Info("Managed buildings updated",
		zap.String("user_id", userID.String()),
		zap.Int("building_count", len(user.ManagedBuildingIDs)),
		zap.Int("changed_buildings", plan.Count(OpSave, KindBuilding)),
	)
	return user, nil
}

// AssignApartment moves a tenant into an apartment, or out of their current
// one when apartmentID is nil. An occupied apartment fails with ErrApartmentOccupied.
func (c *Coordinator) AssignApartment(ctx context.Context, userID uuid.UUID, apartmentID *uuid.UUID) (*identity.User, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cascade", "assign_apartment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	var user *identity.User
	_, err := c.execute(ctx, func(ctx context.Context, repos uow.Repositories, g *Graph) (*Plan, error) {
		if err := loadUser(ctx, repos, g, userID); err != nil {
			return nil, err
		}
		if apartmentID != nil {
			if _, ok := g.Apartments[*apartmentID]; !ok {
				apartment, err := repos.Apartments().FindByID(ctx, *apartmentID)
				if err != nil {
					return nil, err
				}
				g.AddApartment(apartment)
			}
		}
		user = g.Users[userID]
		return PlanApartmentAssignment(g, userID, apartmentID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	fields := []zap.Field{zap.String("user_id", userID.String())}
	if apartmentID != nil {
		fields = append(fields, zap.String("apartment_id", apartmentID.String()))
	}
	c.logger.Info("Apartment assignment updated", fields...)
	return user, nil
}

// execute loads, plans and applies inside one unit of work, then publishes
// the events of every written aggregate
func (c *Coordinator) execute(ctx context.Context, build planner) (*Plan, error) {
	var (
		plan   *Plan
		events uow.EventBuffer
	)
	err := c.scope.Execute(ctx, func(repos uow.Repositories) error {
		g := NewGraph()
		p, err := build(ctx, repos, g)
		if err != nil {
			return err
		}
		if err := apply(ctx, repos, g, p); err != nil {
			return err
		}
		events.Collect(touched(g, p)...)
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.Flush(ctx, c.eventPublisher, c.logger)
	return plan, nil
}

func (c *Coordinator) applied(ctx context.Context, root EntityKind, id uuid.UUID, plan *Plan) {
	c.metrics.CascadeApplied(ctx, string(root))
	c.logger.Info("Deletion cascade applied",
		zap.String("root", string(root)),
		zap.String("root_id", id.String()),
		zap.Int("steps", len(plan.Steps)),
		zap.Int("apartments_deleted", plan.Count(OpDelete, KindApartment)),
		zap.Int("invoices_deleted", plan.Count(OpDelete, KindInvoice)),
		zap.Int("invoices_kept", plan.Count(OpSave, KindInvoice)),
		zap.Int("readings_deleted", plan.Count(OpDelete, KindReading)),
	)
}

func (c *Coordinator) refused(operation string, userID uuid.UUID, err error) {
	if !errors.Is(err, shared.ErrInvalidState) {
		return
	}
	c.logger.Warn("Cascade refused",
		zap.String("operation", operation),
		zap.String("user_id", userID.String()),
		zap.Error(err),
	)
}
