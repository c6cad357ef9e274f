package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/shared/valueobject"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrManagerNotFound is returned when a manager email does not match any user
var ErrManagerNotFound = shared.NewNotFoundError("MANAGER_NOT_FOUND", "Manager not found")

// InvoiceService issues invoices and drives their confirmation and payment
type InvoiceService struct {
	scope          uow.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	metrics        *telemetry.BillingMetrics
	now            func() time.Time
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(scope uow.TransactionScope, logger *zap.Logger, metrics *telemetry.BillingMetrics) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		scope:   scope,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// SetEventPublisher sets the publisher that receives invoice events after commit
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateInvoice issues a draft invoice for the billing period of the issue date.
// A reading of the same period, if one exists, is linked and billed; otherwise
// the building's flat sums apply.
func (s *InvoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrApartmentID, req.ApartmentID.String())

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}

	var (
		invoice *billing.Invoice
		events  uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		apartment, err := repos.Apartments().FindByID(ctx, req.ApartmentID)
		if err != nil {
			return err
		}
		building, err := repos.Buildings().FindByID(ctx, apartment.BuildingID)
		if err != nil {
			return err
		}

		params := billing.IssueParams{
			Building:  building,
			Apartment: apartment,
			IssueDate: issueDate,
		}
		period := valueobject.PeriodOf(issueDate)

		exists, err := repos.Invoices().ExistsByApartmentAndPeriod(ctx, apartment.ID, period)
		if err != nil {
			return fmt.Errorf("failed to check invoice uniqueness: %w", err)
		}
		if exists {
			return billing.ErrDuplicateInvoice
		}

		reading, err := repos.Readings().FindByApartmentAndPeriod(ctx, apartment.ID, period)
		switch {
		case err == nil:
			params.Reading = reading
		case !errors.Is(err, shared.ErrNotFound):
			return fmt.Errorf("failed to load reading: %w", err)
		}

		if apartment.TenantID != nil {
			tenant, err := repos.Users().FindByID(ctx, *apartment.TenantID)
			if err != nil {
				return fmt.Errorf("failed to load tenant: %w", err)
			}
			params.Tenant = tenant
		}

		if req.ManagerEmail != "" {
			manager, err := resolveManager(ctx, repos.Users(), req.ManagerEmail)
			if err != nil {
				return err
			}
			params.Manager = &manager
		}

		invoice, err = billing.NewInvoice(params)
		if err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		if reading != nil {
			reading.LinkInvoice(invoice.ID)
			if err := repos.Readings().Save(ctx, reading); err != nil {
				return fmt.Errorf("failed to link reading: %w", err)
			}
		}
		events.Collect(invoice)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrBillingPeriod, invoice.Period.String(),
	)
	s.metrics.InvoiceIssued(ctx)
	s.logger.Info("Invoice issued",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("apartment_id", req.ApartmentID.String()),
		zap.String("period", invoice.Period.String()),
		zap.Bool("flat", invoice.Flat),
		zap.String("total_amount", invoice.TotalAmount.StringFixed(2)),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// UpdateConfirmation confirms a draft. Confirming twice is a no-op, except
// that a supplied manager email refreshes the manager snapshot. Returning a
// confirmed invoice to draft fails with billing.ErrInvoiceFrozen.
func (s *InvoiceService) UpdateConfirmation(ctx context.Context, id uuid.UUID, req UpdateConfirmationRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "update_confirmation")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	var (
		invoice   *billing.Invoice
		confirmed bool
		events    uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}

		if !req.Confirmed {
			// nothing to change on a draft
			return invoice.Reopen()
		}

		var manager *identity.PersonSnapshot
		if req.ManagerEmail != "" {
			snapshot, err := resolveManager(ctx, repos.Users(), req.ManagerEmail)
			if err != nil {
				return err
			}
			manager = &snapshot
		}

		confirmed = invoice.Confirm(manager)
		if !confirmed && manager == nil {
			return nil
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		events.Collect(invoice)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, billing.ErrInvoiceFrozen) {
			s.logger.Warn("Refused to reopen confirmed invoice", zap.String("invoice_id", id.String()))
		}
		return nil, err
	}

	if confirmed {
		s.metrics.InvoiceConfirmed(ctx)
		s.logger.Info("Invoice confirmed",
			zap.String("invoice_id", id.String()),
			zap.String("manager_email", invoice.Info.Manager.Email),
		)
	}
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// PayInvoice marks an invoice paid; paying twice fails with billing.ErrAlreadyPaid
func (s *InvoiceService) PayInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "pay")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	var (
		invoice *billing.Invoice
		events  uow.EventBuffer
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := invoice.Pay(); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		events.Collect(invoice)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.metrics.InvoicePaid(ctx)
	s.logger.Info("Invoice paid",
		zap.String("invoice_id", id.String()),
		zap.String("total_amount", invoice.TotalAmount.StringFixed(2)),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// DeleteInvoice removes a draft and releases its reading
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, id.String())

	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		invoice, err := repos.Invoices().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := invoice.CanDelete(); err != nil {
			return err
		}
		if err := releaseReading(ctx, repos.Readings(), invoice.ID); err != nil {
			return err
		}
		return repos.Invoices().Delete(ctx, invoice.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("Invoice deleted", zap.String("invoice_id", id.String()))
	return nil
}

// GetInvoice returns one invoice with its snapshot
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "get")
	defer span.End()

	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		invoice, err = repos.Invoices().FindByID(ctx, id)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// ListByBuilding lists the invoices of the apartments currently in a building
func (s *InvoiceService) ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]InvoiceListItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list_by_building")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrBuildingID, buildingID.String())

	var invoices []billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Buildings().FindByID(ctx, buildingID); err != nil {
			return err
		}
		var err error
		invoices, err = repos.Invoices().FindByBuilding(ctx, buildingID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToInvoiceListItemResponses(invoices), nil
}

// ListForTenant lists the confirmed invoices of the tenant with the given email.
// Drafts stay invisible to tenants until a manager confirms them.
func (s *InvoiceService) ListForTenant(ctx context.Context, email string) ([]InvoiceListItemResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list_for_tenant")
	defer span.End()

	var invoices []billing.Invoice
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		user, err := repos.Users().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		all, err := repos.Invoices().FindByTenant(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, inv := range all {
			if inv.Confirmed {
				invoices = append(invoices, inv)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToInvoiceListItemResponses(invoices), nil
}

func resolveManager(ctx context.Context, users identity.UserRepository, email string) (identity.PersonSnapshot, error) {
	snapshot, err := identity.ResolveSnapshot(ctx, users, email)
	if errors.Is(err, shared.ErrNotFound) {
		return identity.PersonSnapshot{}, ErrManagerNotFound
	}
	return snapshot, err
}

// releaseReading clears the back-link of the reading billed on an invoice, if any
func releaseReading(ctx context.Context, readings metering.ReadingRepository, invoiceID uuid.UUID) error {
	reading, err := readings.FindByInvoice(ctx, invoiceID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load linked reading: %w", err)
	}
	reading.UnlinkInvoice()
	return readings.Save(ctx, reading)
}
