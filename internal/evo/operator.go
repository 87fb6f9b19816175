package evo

import (
	"context"

	"minefield/internal/model"
)

// Operator derives a child genome from a parent when a population refills
// its non-elite slots. Implementations must not modify the parent.
type Operator interface {
	Name() string
	Apply(ctx context.Context, genome model.Genome) (model.Genome, error)
}
