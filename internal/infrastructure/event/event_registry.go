package event

import (
	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/property"
)

// knownEventTypes maps every event type raised by the domain to its aggregate type
var knownEventTypes = map[string]string{
	billing.EventTypeInvoiceIssued:       billing.AggregateTypeInvoice,
	billing.EventTypeInvoiceConfirmed:    billing.AggregateTypeInvoice,
	billing.EventTypeInvoicePaid:         billing.AggregateTypeInvoice,
	billing.EventTypeInvoiceRecalculated: billing.AggregateTypeInvoice,

	property.EventTypeBuildingCreated:       property.AggregateTypeBuilding,
	property.EventTypeBuildingTariffChanged: property.AggregateTypeBuilding,
	property.EventTypeBuildingDeleted:       property.AggregateTypeBuilding,
	property.EventTypeApartmentCreated:      property.AggregateTypeApartment,
	property.EventTypeApartmentResized:      property.AggregateTypeApartment,
	property.EventTypeApartmentDeleted:      property.AggregateTypeApartment,

	identity.EventTypeUserRegistered: identity.AggregateTypeUser,
	identity.EventTypeUserDeleted:    identity.AggregateTypeUser,
}

// IsKnownEventType reports whether the domain raises events of this type
func IsKnownEventType(eventType string) bool {
	_, ok := knownEventTypes[eventType]
	return ok
}

// AggregateTypeOf returns the aggregate type that raises eventType
func AggregateTypeOf(eventType string) (string, bool) {
	aggregate, ok := knownEventTypes[eventType]
	return aggregate, ok
}
