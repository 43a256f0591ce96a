package services_test

import (
	"context"
	"testing"

	"pandora/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-123")
	ctx = services.WithStage(ctx, "render")
	ctx = services.WithBlockIndex(ctx, 4)

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-123" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "render" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if index, ok := services.BlockIndexFromContext(ctx); !ok || index != 4 {
		t.Fatalf("unexpected block index: %v %v", index, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}

func TestNegativeBlockIndexIgnored(t *testing.T) {
	ctx := services.WithBlockIndex(context.Background(), -1)
	if _, ok := services.BlockIndexFromContext(ctx); ok {
		t.Fatal("expected no block index value")
	}
}
