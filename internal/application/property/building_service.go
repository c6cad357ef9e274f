package property

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/application/cascade"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrDuplicateAddress is returned when another building has the same address
var ErrDuplicateAddress = shared.NewConflictError("DUPLICATE_ADDRESS", "A building with this address already exists")

// BuildingService manages buildings and their tariffs
type BuildingService struct {
	scope          uow.TransactionScope
	engine         *billing.Engine
	coordinator    *cascade.Coordinator
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewBuildingService creates a new BuildingService
func NewBuildingService(scope uow.TransactionScope, engine *billing.Engine, coordinator *cascade.Coordinator, logger *zap.Logger) *BuildingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BuildingService{
		scope:       scope,
		engine:      engine,
		coordinator: coordinator,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives building and invoice events after commit
func (s *BuildingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a building with an optional initial manager set
func (s *BuildingService) Create(ctx context.Context, req CreateBuildingRequest) (*BuildingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "building", "create")
	defer span.End()

	address, err := req.Address.toAddress()
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		building *property.Building
		events   uow.EventBuffer
	)
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if err := checkAddress(ctx, repos.Buildings(), address, nil); err != nil {
			return err
		}
		if err := checkManagers(ctx, repos.Users(), req.ManagerIDs); err != nil {
			return err
		}

		var err error
		building, err = property.NewBuilding(address, req.NumberOfFloors, req.Tariff.ToTariff(), req.ManagerIDs...)
		if err != nil {
			return err
		}
		if err := repos.Buildings().Save(ctx, building); err != nil {
			return err
		}
		events.Collect(building)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, building.ID.String())
	s.logger.Info("Building created",
		zap.String("building_id", building.ID.String()),
		zap.String("address", building.Address.FullAddress()),
		zap.Int("manager_count", len(building.ManagerIDs)),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToBuildingResponse(building)
	return &response, nil
}

// Update changes the address, floors or tariff of a building. A tariff
// change reprices every draft invoice of the building in the same unit of work.
func (s *BuildingService) Update(ctx context.Context, id uuid.UUID, req UpdateBuildingRequest) (*BuildingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "building", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, id.String())

	var (
		building     *property.Building
		recalculated int
		events       uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		building, err = repos.Buildings().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Address != nil {
			address, err := req.Address.toAddress()
			if err != nil {
				return err
			}
			if !address.Equals(building.Address) {
				if err := checkAddress(ctx, repos.Buildings(), address, &building.ID); err != nil {
					return err
				}
			}
			if err := building.Relocate(address); err != nil {
				return err
			}
		}

		if req.NumberOfFloors != nil && *req.NumberOfFloors != building.NumberOfFloors {
			highest, err := highestFloor(ctx, repos.Apartments(), building.ID)
			if err != nil {
				return err
			}
			if err := building.ChangeFloors(*req.NumberOfFloors, highest); err != nil {
				return err
			}
		}

		tariffChanged := false
		if req.Tariff != nil {
			tariffChanged, err = building.UpdateTariff(req.Tariff.ToTariff())
			if err != nil {
				return err
			}
		}

		if err := repos.Buildings().Save(ctx, building); err != nil {
			return err
		}
		events.Collect(building)

		// address changes reach draft snapshots too
		if tariffChanged || req.Address != nil {
			invoices, err := s.engine.RecalculateForBuilding(ctx, repos, building)
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

	s.logger.Info("Building updated",
		zap.String("building_id", id.String()),
		zap.Int("recalculated_invoices", recalculated),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToBuildingResponse(building)
	return &response, nil
}

// Delete removes a building together with its apartments
func (s *BuildingService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.coordinator.DeleteBuilding(ctx, id)
}

// Get returns one building
func (s *BuildingService) Get(ctx context.Context, id uuid.UUID) (*BuildingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "building", "get")
	defer span.End()

	var building *property.Building
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		building, err = repos.Buildings().FindByID(ctx, id)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	response := ToBuildingResponse(building)
	return &response, nil
}

// List returns every building ordered by address
func (s *BuildingService) List(ctx context.Context) ([]BuildingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "building", "list")
	defer span.End()

	var buildings []property.Building
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		buildings, err = repos.Buildings().FindAll(ctx)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToBuildingResponses(buildings), nil
}

// ListManagedBy returns the buildings a user manages
func (s *BuildingService) ListManagedBy(ctx context.Context, userID uuid.UUID) ([]BuildingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "building", "list_managed_by")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, userID.String())

	var buildings []property.Building
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		buildings, err = repos.Buildings().FindByManager(ctx, userID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToBuildingResponses(buildings), nil
}

func checkAddress(ctx context.Context, buildings property.BuildingRepository, address valueobject.Address, excludeID *uuid.UUID) error {
	exists, err := buildings.ExistsByAddress(ctx, address, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check address uniqueness: %w", err)
	}
	if exists {
		return ErrDuplicateAddress
	}
	return nil
}

// checkManagers requires every id to belong to an existing manager
func checkManagers(ctx context.Context, users identity.UserRepository, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load managers: %w", err)
	}
	byID := make(map[uuid.UUID]*identity.User, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return identity.ErrUserNotFound
		}
		if !u.IsManager() {
			return cascade.ErrNotAManager
		}
	}
	return nil
}

// highestFloor returns the highest occupied floor of a building, or -1 when it has no apartments
func highestFloor(ctx context.Context, apartments property.ApartmentRepository, buildingID uuid.UUID) (int, error) {
	list, err := apartments.FindByBuilding(ctx, buildingID)
	if err != nil {
		return 0, fmt.Errorf("failed to load apartments: %w", err)
	}
	highest := -1
	for _, a := range list {
		highest = max(highest, a.Floor)
	}
	return highest, nil
}
