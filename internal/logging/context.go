package logging

import (
	"context"
	"log/slog"

	"pmpayout/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for payout run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCreator is the standardized structured logging key for creator names.
	FieldCreator = "creator"
	// FieldPlatform is the standardized structured logging key for source platforms.
	FieldPlatform = "platform"
	// FieldLink is the standardized structured logging key for video links.
	FieldLink = "link"
	// FieldReason is the standardized structured logging key for exception reasons.
	FieldReason = "reason"
	// FieldEventType tags a record with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the operator's next step for a warning or error.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// Event types emitted by more than one package.
const (
	EventSignatureLookupFailed = "signature_lookup_failed"
	EventRecordExcluded        = "record_excluded"
	EventRunCompleted          = "run_completed"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if creator, ok := services.CreatorFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCreator, creator))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}
