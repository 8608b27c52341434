package logging

import (
	"context"
	"log/slog"

	"feedscribe/internal/services"
)

// Structured keys shared by every feedscribe component. The console handler
// lifts component, stage and item_id into the bracketed line prefix.
const (
	FieldComponent     = "component"
	FieldItemID        = "item_id" // video id, or source base name during analysis
	FieldStage         = "stage"
	FieldCorrelationID = "correlation_id"
	FieldAttempt       = "attempt"  // 1-based, inside a retry envelope
	FieldProgress      = "progress" // "index/total" inside a batch
)

// ContextFields collects the item, stage and correlation values carried by ctx.
func ContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var fields []any
	lookups := []struct {
		key   string
		value func(context.Context) (string, bool)
	}{
		{FieldItemID, services.ItemIDFromContext},
		{FieldStage, services.StageFromContext},
		{FieldCorrelationID, services.RequestIDFromContext},
	}
	for _, l := range lookups {
		if v, ok := l.value(ctx); ok {
			fields = append(fields, slog.String(l.key, v))
		}
	}
	return fields
}

// WithContext binds the fields carried by ctx onto logger.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	if fields := ContextFields(ctx); len(fields) > 0 {
		return logger.With(fields...)
	}
	return logger
}
