package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ReadingChange tells the engine what happened to a reading
type ReadingChange int

const (
	// ReadingUpserted covers creation and update
	ReadingUpserted ReadingChange = iota
	// ReadingDeleted covers deletion and the release of a moved reading
	ReadingDeleted
)

// String implements fmt.Stringer
func (c ReadingChange) String() string {
	if c == ReadingDeleted {
		return "deleted"
	}
	return "upserted"
}

// Engine reprices draft invoices after tariff, geometry or reading changes.
// It never opens a unit of work itself: every method runs inside the
// caller's, persists the invoices it touches and returns them so the caller
// can collect their events. Confirmed invoices are never modified.
type Engine struct {
	logger  *zap.Logger
	metrics *telemetry.BillingMetrics
}

// NewEngine creates a new Engine
func NewEngine(logger *zap.Logger, metrics *telemetry.BillingMetrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, metrics: metrics}
}

// RecalculateForApartment reprices the drafts of one apartment, typically after its area changed
func (e *Engine) RecalculateForApartment(ctx context.Context, repos uow.Repositories, apartment *property.Apartment, building *property.Building) ([]*billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing_engine", "recalculate_for_apartment")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApartmentID, apartment.ID.String())
	start := time.Now()

	drafts, err := repos.Invoices().FindUnconfirmedByApartments(ctx, []uuid.UUID{apartment.ID})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load draft invoices: %w", err)
	}

	changed := make([]*billing.Invoice, 0, len(drafts))
	for i := range drafts {
		inv := &drafts[i]
		if err := e.reprice(ctx, repos, inv, building, apartment); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		changed = append(changed, inv)
	}

	e.finish(ctx, span, telemetry.TriggerApartment, len(changed), start,
		zap.String("apartment_id", apartment.ID.String()))
	return changed, nil
}

// RecalculateForBuilding reprices the drafts of every apartment in a building, typically after a tariff change
func (e *Engine) RecalculateForBuilding(ctx context.Context, repos uow.Repositories, building *property.Building) ([]*billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing_engine", "recalculate_for_building")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, building.ID.String())
	start := time.Now()

	apartments, err := repos.Apartments().FindByBuilding(ctx, building.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load apartments: %w", err)
	}
	byID := make(map[uuid.UUID]*property.Apartment, len(apartments))
	ids := make([]uuid.UUID, 0, len(apartments))
	for i := range apartments {
		byID[apartments[i].ID] = &apartments[i]
		ids = append(ids, apartments[i].ID)
	}

	drafts, err := repos.Invoices().FindUnconfirmedByApartments(ctx, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load draft invoices: %w", err)
	}

	changed := make([]*billing.Invoice, 0, len(drafts))
	for i := range drafts {
		inv := &drafts[i]
		apartment, ok := byID[*inv.ApartmentID]
		if !ok {
			continue
		}
		if err := e.reprice(ctx, repos, inv, building, apartment); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		changed = append(changed, inv)
	}

	e.finish(ctx, span, telemetry.TriggerBuilding, len(changed), start,
		zap.String("building_id", building.ID.String()))
	return changed, nil
}

// RecalculateForReadingChange keeps the invoice of the reading's billing period in step with it.
//
// On ReadingUpserted the matching draft is linked to the reading and switched
// to metered billing; a matching confirmed invoice fails with
// billing.ErrInvoiceFrozen. On ReadingDeleted the linked draft falls back to
// flat billing, while a linked confirmed invoice is only unlinked.
//
// The reading itself is updated in memory (its invoice link); persisting or
// deleting it is left to the caller. The returned invoice is nil when no
// invoice was affected.
func (e *Engine) RecalculateForReadingChange(ctx context.Context, repos uow.Repositories, reading *metering.Reading, change ReadingChange) (*billing.Invoice, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "billing_engine", "recalculate_for_reading_change")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrReadingID, reading.ID.String(),
		telemetry.SpanAttrApartmentID, reading.ApartmentID.String(),
		telemetry.SpanAttrBillingPeriod, reading.Period.String(),
		telemetry.SpanAttrTrigger, change.String(),
	)
	start := time.Now()

	var (
		inv *billing.Invoice
		err error
	)
	switch change {
	case ReadingUpserted:
		inv, err = e.attach(ctx, repos, reading)
	case ReadingDeleted:
		inv, err = e.detach(ctx, repos, reading)
	default:
		err = fmt.Errorf("unknown reading change %d", change)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	n := 0
	if inv != nil {
		n = 1
		telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, inv.ID.String())
	}
	e.finish(ctx, span, telemetry.TriggerReading, n, start,
		zap.String("reading_id", reading.ID.String()),
		zap.Stringer("change", change))
	return inv, nil
}

func (e *Engine) attach(ctx context.Context, repos uow.Repositories, reading *metering.Reading) (*billing.Invoice, error) {
	inv, err := repos.Invoices().FindByApartmentAndPeriod(ctx, reading.ApartmentID, reading.Period)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invoice for reading: %w", err)
	}
	if inv.Confirmed {
		e.logger.Warn("Reading change refused, invoice is confirmed",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("reading_id", reading.ID.String()),
		)
		return nil, billing.ErrInvoiceFrozen
	}

	building, err := e.buildingOf(ctx, repos, reading.ApartmentID)
	if err != nil {
		return nil, err
	}
	if err := inv.AttachReading(reading, building.Tariff); err != nil {
		return nil, err
	}
	if err := repos.Invoices().Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	reading.LinkInvoice(inv.ID)
	return inv, nil
}

func (e *Engine) detach(ctx context.Context, repos uow.Repositories, reading *metering.Reading) (*billing.Invoice, error) {
	if reading.InvoiceID == nil {
		return nil, nil
	}
	inv, err := repos.Invoices().FindByID(ctx, *reading.InvoiceID)
	if errors.Is(err, shared.ErrNotFound) {
		reading.UnlinkInvoice()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load linked invoice: %w", err)
	}

	var tariff property.Tariff
	if !inv.Confirmed {
		building, err := e.buildingOf(ctx, repos, reading.ApartmentID)
		if err != nil {
			return nil, err
		}
		tariff = building.Tariff
	}
	inv.DetachReading(tariff)
	if err := repos.Invoices().Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	reading.UnlinkInvoice()
	return inv, nil
}

// reprice recomputes one draft from the current tariff, geometry and its linked reading
func (e *Engine) reprice(ctx context.Context, repos uow.Repositories, inv *billing.Invoice, building *property.Building, apartment *property.Apartment) error {
	var reading *metering.Reading
	if inv.ReadingID != nil {
		r, err := repos.Readings().FindByID(ctx, *inv.ReadingID)
		if err != nil {
			return fmt.Errorf("failed to load reading of invoice %s: %w", inv.ID, err)
		}
		reading = r
	}
	if err := inv.Recalculate(building, apartment, reading); err != nil {
		return err
	}
	if err := repos.Invoices().Save(ctx, inv); err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

func (e *Engine) buildingOf(ctx context.Context, repos uow.Repositories, apartmentID uuid.UUID) (*property.Building, error) {
	apartment, err := repos.Apartments().FindByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}
	return repos.Buildings().FindByID(ctx, apartment.BuildingID)
}

func (e *Engine) finish(ctx context.Context, span trace.Span, trigger string, n int, start time.Time, fields ...zap.Field) {
	telemetry.RecordRecalculated(span, trigger, n)
	e.metrics.InvoicesRecalculated(ctx, trigger, n, time.Since(start))
	if n == 0 {
		return
	}
	e.logger.Info("Draft invoices recalculated",
		append(fields, zap.String("trigger", trigger), zap.Int("affected_count", n))...)
}
