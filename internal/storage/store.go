package storage

import (
	"context"

	"minefield/internal/model"
)

// Store persists per-generation run records and the genomes they refer to.
type Store interface {
	Init(ctx context.Context) error
	SaveGenome(ctx context.Context, genome model.Genome) error
	GetGenome(ctx context.Context, id string) (model.Genome, bool, error)
	// SaveRun upserts one generation record, keyed by run ID and generation.
	SaveRun(ctx context.Context, run model.Run) error
	// ListRuns returns the records of one run ordered by generation.
	ListRuns(ctx context.Context, runID string) ([]model.Run, error)
	// ListRunIDs returns every run ID in the order runs were first saved.
	ListRunIDs(ctx context.Context) ([]string, error)
}

// SaveRuns stores records one at a time, stopping at the first failure.
func SaveRuns(ctx context.Context, store Store, runs []model.Run) error {
	for _, run := range runs {
		if err := store.SaveRun(ctx, run); err != nil {
			return err
		}
	}
	return nil
}
