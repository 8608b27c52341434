package services

import "context"

type ctxKey int

const (
	itemIDKey ctxKey = iota
	stageKey
	requestIDKey
)

func withString(ctx context.Context, key ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithItemID records the item being processed: a video id while harvesting
// or downloading, the source base name while analyzing.
func WithItemID(ctx context.Context, id string) context.Context {
	return withString(ctx, itemIDKey, id)
}

func ItemIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, itemIDKey) }

// WithStage records the pipeline stage (harvest, download, transcribe, ...).
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, stageKey) }

// WithRequestID records the correlation id stamped on one CLI run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, requestIDKey) }
