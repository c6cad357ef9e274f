package property

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/application/cascade"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrDuplicateApartmentNumber is returned when the building already has an apartment with the number
var ErrDuplicateApartmentNumber = shared.NewConflictError("DUPLICATE_APARTMENT_NUMBER",
	"An apartment with this number already exists in the building")

// ApartmentService manages apartments within buildings
type ApartmentService struct {
	scope          uow.TransactionScope
	engine         *billing.Engine
	coordinator    *cascade.Coordinator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewApartmentService creates a new ApartmentService
func NewApartmentService(scope uow.TransactionScope, engine *billing.Engine, coordinator *cascade.Coordinator, logger *zap.Logger) *ApartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApartmentService{
		scope:       scope,
		engine:      engine,
		coordinator: coordinator,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives apartment and invoice events after commit
func (s *ApartmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds an apartment to a building
func (s *ApartmentService) Create(ctx context.Context, buildingID uuid.UUID, req CreateApartmentRequest) (*ApartmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "apartment", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, buildingID.String())

	var (
		apartment *property.Apartment
		events    uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		building, err := repos.Buildings().FindByID(ctx, buildingID)
		if err != nil {
			return err
		}
		if err := checkNumber(ctx, repos.Apartments(), building.ID, req.Number, nil); err != nil {
			return err
		}
		apartment, err = property.NewApartment(building, req.Number, req.Area, req.Floor)
		if err != nil {
			return err
		}
		if err := repos.Apartments().Save(ctx, apartment); err != nil {
			return err
		}
		events.Collect(apartment)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Apartment created",
		zap.String("apartment_id", apartment.ID.String()),
		zap.String("building_id", buildingID.String()),
		zap.String("number", apartment.Number),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToApartmentResponse(apartment)
	return &response, nil
}

// Update changes the number, area or floor of an apartment. An area change
// reprices its draft invoices in the same unit of work.
func (s *ApartmentService) Update(ctx context.Context, id uuid.UUID, req UpdateApartmentRequest) (*ApartmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "apartment", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApartmentID, id.String())

	var (
		apartment    *property.Apartment
		recalculated int
		events       uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		apartment, err = repos.Apartments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		building, err := repos.Buildings().FindByID(ctx, apartment.BuildingID)
		if err != nil {
			return err
		}

		// a case-only change keeps the same key but still reaches the snapshots
		renumbered := false
		if req.Number != nil && strings.TrimSpace(*req.Number) != apartment.Number {
			if err := checkNumber(ctx, repos.Apartments(), building.ID, *req.Number, &apartment.ID); err != nil {
				return err
			}
			if err := apartment.Renumber(*req.Number); err != nil {
				return err
			}
			renumbered = true
		}
		moved := false
		if req.Floor != nil && *req.Floor != apartment.Floor {
			if err := apartment.MoveToFloor(building, *req.Floor); err != nil {
				return err
			}
			moved = true
		}
		resized := false
		if req.Area != nil {
			resized, err = apartment.Resize(*req.Area)
			if err != nil {
				return err
			}
		}

		if err := repos.Apartments().Save(ctx, apartment); err != nil {
			return err
		}
		events.Collect(apartment)

		// number and floor are part of the draft snapshot as well
		if resized || renumbered || moved {
			invoices, err := s.engine.RecalculateForApartment(ctx, repos, apartment, building)
			if err != nil {
				return err
			}
			recalculated = len(invoices)
			for _, inv := range invoices {
				events.Collect(inv)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Apartment updated",
		zap.String("apartment_id", id.String()),
		zap.Int("recalculated_invoices", recalculated),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToApartmentResponse(apartment)
	return &response, nil
}

// Delete removes an apartment with its readings and draft invoices
func (s *ApartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.coordinator.DeleteApartment(ctx, id)
}

// Get returns one apartment
func (s *ApartmentService) Get(ctx context.Context, id uuid.UUID) (*ApartmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "apartment", "get")
	defer span.End()

	var apartment *property.Apartment
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		apartment, err = repos.Apartments().FindByID(ctx, id)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	response := ToApartmentResponse(apartment)
	return &response, nil
}

// ListByBuilding returns the apartments of a building
func (s *ApartmentService) ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]ApartmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "apartment", "list_by_building")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, buildingID.String())

	var apartments []property.Apartment
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Buildings().FindByID(ctx, buildingID); err != nil {
			return err
		}
		var err error
		apartments, err = repos.Apartments().FindByBuilding(ctx, buildingID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToApartmentResponses(apartments), nil
}

// ListAvailable returns apartments without a tenant
func (s *ApartmentService) ListAvailable(ctx context.Context) ([]ApartmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "apartment", "list_available")
	defer span.End()

	var apartments []property.Apartment
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		apartments, err = repos.Apartments().FindAvailable(ctx)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToApartmentResponses(apartments), nil
}

func checkNumber(ctx context.Context, apartments property.ApartmentRepository, buildingID uuid.UUID, number string, excludeID *uuid.UUID) error {
	exists, err := apartments.ExistsByNumber(ctx, buildingID, number, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check apartment number: %w", err)
	}
	if exists {
		return ErrDuplicateApartmentNumber
	}
	return nil
}
