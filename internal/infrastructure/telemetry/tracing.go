package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used by application services
const TracerName = "rentflow-backend"

// Attribute keys shared by billing and coordinator spans.
const (
	SpanAttrInvoiceID     = "invoice_id"
	SpanAttrApartmentID   = "apartment_id"
	SpanAttrBuildingID    = "building_id"
	SpanAttrReadingID     = "reading_id"
	SpanAttrUserID        = "user_id"
	SpanAttrBillingPeriod = "billing_period"
	SpanAttrTrigger       = "trigger"
	SpanAttrAffected      = "affected_count"
)

// EventDraftsRecalculated is added to a span once a recalculation has repriced drafts
const EventDraftsRecalculated = "drafts_recalculated"

// StartSpan starts an internal span tagged with alternating key/value pairs.
// The caller ends the span.
func StartSpan(ctx context.Context, name string, keyValues ...any) (context.Context, trace.Span) {
	var opts []trace.SpanStartOption
	if attrs := attributes(keyValues); len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span named "{service}.{method}", e.g. "invoice.confirm".
//
//	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "update",
//	    telemetry.SpanAttrReadingID, id)
//	defer span.End()
func StartServiceSpan(ctx context.Context, service, method string, keyValues ...any) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, keyValues...)
}

// SetAttributes tags span with alternating key/value pairs. Pairs whose key
// is not a string are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	span.SetAttributes(attributes(keyValues)...)
}

// RecordRecalculated stores the number of repriced drafts on span and, when
// any were touched, an event naming what triggered the recalculation.
func RecordRecalculated(span trace.Span, trigger string, affected int) {
	if span == nil {
		return
	}
	span.SetAttributes(attribute.Int(SpanAttrAffected, affected))
	if affected > 0 {
		span.AddEvent(EventDraftsRecalculated, trace.WithAttributes(
			attribute.String(SpanAttrTrigger, trigger),
			attribute.Int(SpanAttrAffected, affected),
		))
	}
}

// RecordError records err on span and marks it failed.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func attributes(keyValues []any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, toAttribute(key, keyValues[i+1]))
	}
	return attrs
}

// toAttribute keeps numbers and booleans typed; ids, decimals and periods
// go through their String method.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprint(v))
	}
}
