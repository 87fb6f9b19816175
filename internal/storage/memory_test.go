package storage

import (
	"context"
	"testing"

	"minefield/internal/model"
)

func TestMemoryStoreRunsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs := []model.Run{
		{RunID: "b", Generation: 2, Fitness: 0.75},
		{RunID: "b", Generation: 1, Fitness: 0.5},
		{RunID: "a", Generation: 1, Fitness: 1},
	}
	if err := SaveRuns(ctx, store, runs); err != nil {
		t.Fatalf("save runs: %v", err)
	}
	// Upsert replaces the existing generation.
	if err := store.SaveRun(ctx, model.Run{RunID: "b", Generation: 2, Fitness: 0.8}); err != nil {
		t.Fatalf("save run: %v", err)
	}

	ids, err := store.ListRunIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Fatalf("unexpected run ids: %v", ids)
	}

	got, err := store.ListRuns(ctx, "b")
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(got) != 2 || got[0].Generation != 1 || got[1].Generation != 2 || got[1].Fitness != 0.8 {
		t.Fatalf("unexpected runs: %+v", got)
	}
	if got[0].VersionedRecord != CurrentVersion() {
		t.Fatalf("expected stamped version, got %+v", got[0].VersionedRecord)
	}

	missing, err := store.ListRuns(ctx, "nope")
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected no runs, got %v err=%v", missing, err)
	}
}

func TestMemoryStoreCopiesRunSlices(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	run := model.Run{RunID: "r", Generation: 1, Outputs: []float64{1, 2}}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save: %v", err)
	}
	run.Outputs[0] = 99
	got, _ := store.ListRuns(ctx, "r")
	if got[0].Outputs[0] != 1 {
		t.Fatalf("stored run aliased caller slice: %+v", got[0])
	}
}

func TestMemoryStoreGenomeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.SaveGenome(ctx, model.Genome{ID: "g"}); err == nil {
		t.Fatal("expected error before init")
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := store.SaveGenome(ctx, model.Genome{ID: "g", Inputs: []string{"i0"}}); err != nil {
		t.Fatalf("save genome: %v", err)
	}
	genome, ok, err := store.GetGenome(ctx, "g")
	if err != nil || !ok {
		t.Fatalf("get genome: ok=%v err=%v", ok, err)
	}
	if genome.ID != "g" || len(genome.Inputs) != 1 {
		t.Fatalf("unexpected genome: %+v", genome)
	}
	if _, ok, _ := store.GetGenome(ctx, "missing"); ok {
		t.Fatal("expected missing genome")
	}
	if err := store.SaveRun(ctx, model.Run{}); err == nil {
		t.Fatal("expected error for run without id")
	}
}
