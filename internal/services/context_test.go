package services_test

import (
	"context"
	"testing"

	"feedscribe/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithItemID(ctx, "7372484719365098803")
	ctx = services.WithStage(ctx, "download")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.ItemIDFromContext(ctx); !ok || id != "7372484719365098803" {
		t.Fatalf("unexpected item id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "download" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithItemID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage for blank input")
	}
	if _, ok := services.ItemIDFromContext(ctx); ok {
		t.Fatal("expected no item id for blank input")
	}
}

func TestInnerStageShadowsOuter(t *testing.T) {
	outer := services.WithStage(context.Background(), "download")
	inner := services.WithStage(outer, "transcribe")
	if stage, _ := services.StageFromContext(inner); stage != "transcribe" {
		t.Fatalf("inner stage = %q", stage)
	}
	if stage, _ := services.StageFromContext(outer); stage != "download" {
		t.Fatalf("outer stage = %q", stage)
	}
}
