package services_test

import (
	"context"
	"testing"

	"docingest/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithWorker(ctx, 2)
	ctx = services.WithFile(ctx, "/data/a.pdf")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if worker, ok := services.WorkerFromContext(ctx); !ok || worker != 2 {
		t.Fatalf("unexpected worker: %v %v", worker, ok)
	}
	if file, ok := services.FileFromContext(ctx); !ok || file != "/data/a.pdf" {
		t.Fatalf("unexpected file: %v %v", file, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithFile(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
	if _, ok := services.FileFromContext(ctx); ok {
		t.Fatal("expected no file value")
	}
	if _, ok := services.WorkerFromContext(ctx); ok {
		t.Fatal("expected no worker value")
	}
}
