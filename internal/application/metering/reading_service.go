package metering

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/billing"
	"github.com/rentflow/backend/internal/application/uow"
	domainbilling "github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReadingService records meter readings and keeps the invoice of the same
// billing period in step with them
type ReadingService struct {
	scope          uow.TransactionScope
	engine         *billing.Engine
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReadingService creates a new ReadingService
func NewReadingService(scope uow.TransactionScope, engine *billing.Engine, logger *zap.Logger) *ReadingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingService{
		scope:  scope,
		engine: engine,
		logger: logger,
	}
}

// SetEventPublisher sets the publisher that receives invoice events after commit
func (s *ReadingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create records a reading. A draft invoice of the same period switches to
// metered billing; a confirmed one makes the whole write fail with
// billing.ErrInvoiceFrozen.
func (s *ReadingService) Create(ctx context.Context, apartmentID uuid.UUID, req ReadingRequest) (*ReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApartmentID, apartmentID.String())

	var (
		reading *metering.Reading
		events  uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Apartments().FindByID(ctx, apartmentID); err != nil {
			return err
		}
		var err error
		reading, err = metering.NewReading(apartmentID, req.MeasurementDate, req.values())
		if err != nil {
			return err
		}
		if err := checkPeriod(ctx, repos.Readings(), reading, nil); err != nil {
			return err
		}
		if err := repos.Readings().Save(ctx, reading); err != nil {
			return err
		}
		return s.upserted(ctx, repos, reading, &events)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.refused(err, apartmentID)
		return nil, err
	}

	s.logger.Info("Reading created",
		zap.String("reading_id", reading.ID.String()),
		zap.String("apartment_id", apartmentID.String()),
		zap.String("period", reading.Period.String()),
		zap.Bool("billed", reading.InvoiceID != nil),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToReadingResponse(reading)
	return &response, nil
}

// Update replaces the values and measurement date of a reading. When the
// date moves into another month the draft of the old period is released
// first. Readings billed on a confirmed invoice cannot change.
func (s *ReadingService) Update(ctx context.Context, id uuid.UUID, req ReadingRequest) (*ReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "update")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReadingID, id.String())

	var (
		reading *metering.Reading
		events  uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		reading, err = repos.Readings().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureUnlocked(ctx, repos, reading, domainbilling.ErrInvoiceFrozen); err != nil {
			return err
		}

		moved := !reading.Period.Contains(req.MeasurementDate)
		if moved {
			released, err := s.engine.RecalculateForReadingChange(ctx, repos, reading, billing.ReadingDeleted)
			if err != nil {
				return err
			}
			if released != nil {
				events.Collect(released)
			}
		}

		if _, err := reading.Update(req.MeasurementDate, req.values()); err != nil {
			return err
		}
		if moved {
			if err := checkPeriod(ctx, repos.Readings(), reading, &reading.ID); err != nil {
				return err
			}
		}
		if err := repos.Readings().Save(ctx, reading); err != nil {
			return err
		}
		return s.upserted(ctx, repos, reading, &events)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.refused(err, id)
		return nil, err
	}

	s.logger.Info("Reading updated",
		zap.String("reading_id", id.String()),
		zap.String("period", reading.Period.String()),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToReadingResponse(reading)
	return &response, nil
}

// Delete removes a reading; its draft invoice falls back to flat billing.
// A reading billed on a confirmed invoice fails with metering.ErrReadingLocked.
func (s *ReadingService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReadingID, id.String())

	var events uow.EventBuffer
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		reading, err := repos.Readings().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := ensureUnlocked(ctx, repos, reading, metering.ErrReadingLocked); err != nil {
			return err
		}
		invoice, err := s.engine.RecalculateForReadingChange(ctx, repos, reading, billing.ReadingDeleted)
		if err != nil {
			return err
		}
		if invoice != nil {
			events.Collect(invoice)
		}
		return repos.Readings().Delete(ctx, reading.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.refused(err, id)
		return err
	}

	s.logger.Info("Reading deleted", zap.String("reading_id", id.String()))
	events.Flush(ctx, s.eventPublisher, s.logger)
	return nil
}

// Get returns one reading
func (s *ReadingService) Get(ctx context.Context, id uuid.UUID) (*ReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "get")
	defer span.End()

	var reading *metering.Reading
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		reading, err = repos.Readings().FindByID(ctx, id)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	response := ToReadingResponse(reading)
	return &response, nil
}

// ListByApartment returns the readings of an apartment, newest period first
func (s *ReadingService) ListByApartment(ctx context.Context, apartmentID uuid.UUID) ([]ReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "list_by_apartment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApartmentID, apartmentID.String())

	var readings []metering.Reading
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Apartments().FindByID(ctx, apartmentID); err != nil {
			return err
		}
		var err error
		readings, err = repos.Readings().FindByApartment(ctx, apartmentID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToReadingResponses(readings), nil
}

// ListForTenant returns the readings of the apartment rented by the user with the given email
func (s *ReadingService) ListForTenant(ctx context.Context, email string) ([]ReadingResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "list_for_tenant")
	defer span.End()

	readings := []metering.Reading{}
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		user, err := repos.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user.ApartmentID == nil {
			return nil
		}
		readings, err = repos.Readings().FindByApartment(ctx, *user.ApartmentID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToReadingResponses(readings), nil
}

// upserted lets the engine bill the reading and persists the resulting back-link
func (s *ReadingService) upserted(ctx context.Context, repos uow.Repositories, reading *metering.Reading, events *uow.EventBuffer) error {
	invoice, err := s.engine.RecalculateForReadingChange(ctx, repos, reading, billing.ReadingUpserted)
	if err != nil {
		return err
	}
	if invoice == nil {
		return nil
	}
	events.Collect(invoice)
	return repos.Readings().Save(ctx, reading)
}

func (s *ReadingService) refused(err error, id uuid.UUID) {
	if errors.Is(err, shared.ErrInvalidState) {
		s.logger.Warn("Reading change refused",
			zap.String("id", id.String()),
			zap.Error(err),
		)
	}
}

func checkPeriod(ctx context.Context, readings metering.ReadingRepository, reading *metering.Reading, self *uuid.UUID) error {
	existing, err := readings.FindByApartmentAndPeriod(ctx, reading.ApartmentID, reading.Period)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check reading uniqueness: %w", err)
	}
	if self != nil && existing.ID == *self {
		return nil
	}
	return metering.ErrDuplicateReading
}

// ensureUnlocked fails with locked when the reading is billed on a confirmed invoice
func ensureUnlocked(ctx context.Context, repos uow.Repositories, reading *metering.Reading, locked error) error {
	if reading.InvoiceID == nil {
		return nil
	}
	invoice, err := repos.Invoices().FindByID(ctx, *reading.InvoiceID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load linked invoice: %w", err)
	}
	if invoice.Confirmed {
		return locked
	}
	return nil
}
