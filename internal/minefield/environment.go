package minefield

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"minefield/internal/grid"
	"minefield/internal/logging"
	"minefield/internal/scape"
)

var ErrInvalidConfig = errors.New("invalid environment config")

// PopulationFactory builds the population bound to the agent roster. It is
// called at construction and on every Reset.
type PopulationFactory func() (scape.Population, error)

type Config struct {
	Layout  grid.Layout
	Avatars int
	Timeout int
	Seed    int64
	// ShapeTimeouts scores agents still active at regeneration by their
	// surroundings instead of leaving them at the default fitness.
	ShapeTimeouts bool
	Logger        logrus.FieldLogger
	OnRegenerate  func(GenerationSummary)
}

func DefaultConfig() Config {
	return Config{
		Layout:  grid.Layout{Width: 50, Height: 50, Bases: 3, Mines: 6},
		Avatars: 5,
		Timeout: 50,
	}
}

func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if c.Avatars <= 0 {
		return fmt.Errorf("%w: avatars must be > 0", ErrInvalidConfig)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be > 0", ErrInvalidConfig)
	}
	return nil
}

// GenerationSummary describes how the roster fared in one finished generation.
type GenerationSummary struct {
	Generation     int
	Ticks          int
	Wins           int
	Losses         int
	Timeouts       int
	ChampionID     string
	HighestFitness float64
}

// Environment is the continuous shared simulation: every agent acts on the
// same grid each tick, and the population advances one epoch whenever the
// roster is finished or the tick budget runs out. It is not safe for
// concurrent use; one scheduler owns all calls.
type Environment struct {
	cfg           Config
	log           logrus.FieldLogger
	rng           *rand.Rand
	grid          *grid.Grid
	agents        []*Agent
	population    scape.Population
	newPopulation PopulationFactory
	generation    int
	tick          int
}

var _ scape.Evaluator = (*Environment)(nil)

func New(cfg Config, newPopulation PopulationFactory) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if newPopulation == nil {
		return nil, fmt.Errorf("%w: population factory is required", ErrInvalidConfig)
	}
	e := &Environment{
		cfg:           cfg,
		log:           logging.OrDiscard(cfg.Logger),
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		newPopulation: newPopulation,
	}
	g, err := grid.New(cfg.Layout, e.rng)
	if err != nil {
		return nil, err
	}
	e.grid = g
	if err := e.bindPopulation(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewWithGrid builds an environment over a fixed grid layout. Reset keeps
// reshuffling that grid's composition.
func NewWithGrid(cfg Config, g *grid.Grid, newPopulation PopulationFactory) (*Environment, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: grid is required", ErrInvalidConfig)
	}
	cfg.Layout = g.Layout()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if newPopulation == nil {
		return nil, fmt.Errorf("%w: population factory is required", ErrInvalidConfig)
	}
	e := &Environment{
		cfg:           cfg,
		log:           logging.OrDiscard(cfg.Logger),
		rng:           rand.New(rand.NewSource(cfg.Seed)),
		grid:          g,
		newPopulation: newPopulation,
	}
	if err := e.bindPopulation(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Environment) bindPopulation() error {
	pop, err := e.newPopulation()
	if err != nil {
		return fmt.Errorf("build population: %w", err)
	}
	if pop == nil || pop.Size() < e.cfg.Avatars {
		return fmt.Errorf("%w: population must hold at least %d controllers", ErrInvalidConfig, e.cfg.Avatars)
	}
	e.population = pop
	e.generation = 1
	e.tick = 0

	sx, sy := e.grid.Start()
	e.agents = make([]*Agent, e.cfg.Avatars)
	for i := range e.agents {
		e.agents[i] = newAgent(i, sx, sy)
	}
	return nil
}

// Reset reshuffles the grid, rebuilds the population and starts over at
// generation 1.
func (e *Environment) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.grid.Reset(e.rng)
	if err := e.bindPopulation(); err != nil {
		return err
	}
	e.log.WithField("generation", e.generation).Info("environment reset")
	return nil
}

// Tick advances the simulation by one step. When every agent has finished or
// the tick budget is spent it instead regenerates: the population runs one
// epoch against the current agent fitness and all agents return to start.
func (e *Environment) Tick(ctx context.Context) error {
	e.tick++
	if e.tick >= e.cfg.Timeout || !e.anyActive() {
		return e.regenerate(ctx)
	}
	for i, a := range e.agents {
		if a.Active {
			a.Step(e.grid, e.population.Network(i))
		}
	}
	return nil
}

func (e *Environment) anyActive() bool {
	for _, a := range e.agents {
		if a.Active {
			return true
		}
	}
	return false
}

func (e *Environment) regenerate(ctx context.Context) error {
	summary := GenerationSummary{Generation: e.generation, Ticks: e.tick}
	for _, a := range e.agents {
		switch {
		case a.Active:
			summary.Timeouts++
			if e.cfg.ShapeTimeouts {
				a.Fitness = e.grid.ShapedFitness(a.X, a.Y)
			}
		case a.Won:
			summary.Wins++
		default:
			summary.Losses++
		}
	}

	if err := e.population.Epoch(ctx, e.generation, e); err != nil {
		return fmt.Errorf("epoch %d: %w", e.generation, err)
	}
	if champion := e.population.Champion(); champion != nil {
		summary.ChampionID = champion.ID()
	}
	summary.HighestFitness = e.population.HighestFitness()

	e.generation++
	e.tick = 0
	sx, sy := e.grid.Start()
	for _, a := range e.agents {
		a.reset(sx, sy)
	}

	e.log.WithFields(logrus.Fields{
		"generation": summary.Generation,
		"ticks":      summary.Ticks,
		"wins":       summary.Wins,
		"losses":     summary.Losses,
		"timeouts":   summary.Timeouts,
		"champion":   summary.ChampionID,
		"fitness":    summary.HighestFitness,
	}).Info("regenerated")
	if e.cfg.OnRegenerate != nil {
		e.cfg.OnRegenerate(summary)
	}
	return nil
}

// Evaluate reports the fitness of the agent bound to controller. Controllers
// not bound to any agent get a neutral zero result, which is not a loss.
func (e *Environment) Evaluate(_ context.Context, controller scape.Controller) (scape.Result, error) {
	if controller == nil {
		return scape.Result{Outputs: []float64{}}, nil
	}
	for i, a := range e.agents {
		bound := e.population.Network(i)
		if bound == nil || bound.ID() != controller.ID() {
			continue
		}
		return scape.Result{
			Fitness: a.Fitness,
			Outputs: []float64{},
			Error:   1.0 - a.Fitness,
			Won:     a.Won,
		}, nil
	}
	return scape.Result{Outputs: []float64{}}, nil
}

// Targets is the number of bases on the grid.
func (e *Environment) Targets() int { return e.cfg.Layout.Bases }

func (e *Environment) Generation() int { return e.generation }

func (e *Environment) TickCount() int { return e.tick }

func (e *Environment) Timeout() int { return e.cfg.Timeout }

func (e *Environment) Grid() *grid.Grid { return e.grid }

func (e *Environment) Population() scape.Population { return e.population }

// Agents returns a snapshot of the roster in stepping order.
func (e *Environment) Agents() []Agent {
	out := make([]Agent, len(e.agents))
	for i, a := range e.agents {
		out[i] = *a
	}
	return out
}

// ActiveCount is the number of agents still playing this generation.
func (e *Environment) ActiveCount() int {
	n := 0
	for _, a := range e.agents {
		if a.Active {
			n++
		}
	}
	return n
}

// RegenerationPending reports whether the next Tick will regenerate.
func (e *Environment) RegenerationPending() bool {
	return e.tick+1 >= e.cfg.Timeout || !e.anyActive()
}
