package experiment

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"minefield/internal/logging"
	"minefield/internal/model"
	"minefield/internal/scape"
	"minefield/internal/storage"
)

var ErrInvalidConfig = errors.New("invalid experiment config")

// PopulationFactory builds a fresh population for one run.
type PopulationFactory func(runIndex int) (scape.Population, error)

type Config struct {
	Evaluator     scape.Evaluator
	NewPopulation PopulationFactory
	Logger        logrus.FieldLogger
	// NewRunID names each run. Defaults to a random UUID.
	NewRunID func() string
}

// Driver is the generational scheduler: it advances a population one epoch
// at a time and reports the champion of every generation.
type Driver struct {
	evaluator     scape.Evaluator
	newPopulation PopulationFactory
	newRunID      func() string
	log           logrus.FieldLogger
}

func New(cfg Config) (*Driver, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", ErrInvalidConfig)
	}
	if cfg.NewPopulation == nil {
		return nil, fmt.Errorf("%w: population factory is required", ErrInvalidConfig)
	}
	d := &Driver{
		evaluator:     cfg.Evaluator,
		newPopulation: cfg.NewPopulation,
		newRunID:      cfg.NewRunID,
		log:           logging.OrDiscard(cfg.Logger),
	}
	if d.newRunID == nil {
		d.newRunID = uuid.NewString
	}
	return d, nil
}

// Runs lazily yields one record per generation for runs independent runs of
// generations epochs each. Nothing is cached: ranging over the sequence twice
// runs the whole experiment twice. The sequence stops at the first error,
// which is yielded with a zero record.
func (d *Driver) Runs(ctx context.Context, runs, generations int) iter.Seq2[model.Run, error] {
	return func(yield func(model.Run, error) bool) {
		for runIndex := 0; runIndex < runs; runIndex++ {
			pop, err := d.newPopulation(runIndex)
			if err != nil {
				yield(model.Run{}, fmt.Errorf("run %d: build population: %w", runIndex, err))
				return
			}
			runID := d.newRunID()
			d.log.WithFields(logrus.Fields{
				"run_id":    runID,
				"run_index": runIndex,
				"size":      pop.Size(),
			}).Info("run started")

			for generation := 1; generation <= generations; generation++ {
				if err := ctx.Err(); err != nil {
					yield(model.Run{}, err)
					return
				}
				run, err := d.epoch(ctx, pop, runID, runIndex, generation)
				if err != nil {
					yield(model.Run{}, fmt.Errorf("run %d generation %d: %w", runIndex, generation, err))
					return
				}
				d.log.WithFields(logrus.Fields{
					"run_id":     run.RunID,
					"generation": run.Generation,
					"champion":   run.ChampionID,
					"fitness":    run.Fitness,
					"won":        run.Won(),
				}).Debug("generation complete")
				if !yield(run, nil) {
					return
				}
			}
		}
	}
}

// Collect drains Runs into a slice, stopping at the first error.
func (d *Driver) Collect(ctx context.Context, runs, generations int) ([]model.Run, error) {
	var out []model.Run
	for run, err := range d.Runs(ctx, runs, generations) {
		if err != nil {
			return out, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (d *Driver) epoch(ctx context.Context, pop scape.Population, runID string, runIndex, generation int) (model.Run, error) {
	started := time.Now()
	if err := pop.Epoch(ctx, generation, d.evaluator); err != nil {
		return model.Run{}, err
	}
	champion := pop.Champion()
	if champion == nil {
		return model.Run{}, errors.New("population reported no champion")
	}
	res, err := d.evaluator.Evaluate(ctx, champion)
	if err != nil {
		return model.Run{}, fmt.Errorf("evaluate champion %s: %w", champion.ID(), err)
	}

	run := model.Run{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		RunID:      runID,
		RunIndex:   runIndex,
		Generation: generation,
		ChampionID: champion.ID(),
		Fitness:    pop.HighestFitness(),
		Targets:    scape.TargetsOf(d.evaluator),
		Outputs:    append([]float64{}, res.Outputs...),
	}
	if res.Won {
		id := champion.ID()
		run.Winner = &id
	}
	run.Elapsed = time.Since(started)
	return run, nil
}
