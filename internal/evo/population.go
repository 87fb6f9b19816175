package evo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"minefield/internal/genotype"
	"minefield/internal/logging"
	"minefield/internal/model"
	"minefield/internal/nn"
	"minefield/internal/scape"
)

// Organism is one population member and the controller compiled from it.
type Organism struct {
	network  *nn.Network
	fitness  float64
	parentID string
}

func (o *Organism) Network() *nn.Network { return o.network }
func (o *Organism) Fitness() float64     { return o.fitness }
func (o *Organism) ParentID() string     { return o.parentID }

type Config struct {
	Size       int
	EliteCount int
	Selector   Selector
	Mutation   Operator
	Seed       int64
	Logger     logrus.FieldLogger
}

// Population evolves controller weights. Each Epoch scores every organism,
// keeps the elites and refills the rest with mutated offspring of selected
// parents.
type Population struct {
	cfg       Config
	rng       *rand.Rand
	log       logrus.FieldLogger
	seedID    string
	organisms []*Organism
	champion  *nn.Network
	highest   float64
	nextID    int
}

var _ scape.Population = (*Population)(nil)

func NewPopulation(seed model.Genome, cfg Config) (*Population, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}
	if cfg.EliteCount <= 0 {
		cfg.EliteCount = 1
	}
	if cfg.EliteCount > cfg.Size {
		return nil, fmt.Errorf("elite count must be in [1, population size]")
	}
	if cfg.Selector == nil {
		cfg.Selector = EliteSelector{}
	}

	p := &Population{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		log:    logging.OrDiscard(cfg.Logger),
		seedID: seed.ID,
	}
	if p.cfg.Mutation == nil {
		p.cfg.Mutation = &PerturbWeightsProportional{Rand: p.rng, MaxDelta: 0.5}
	}

	p.organisms = make([]*Organism, 0, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		genome := genotype.CloneGenome(seed)
		if i > 0 {
			mutated, err := p.cfg.Mutation.Apply(context.Background(), genome)
			if err != nil {
				return nil, fmt.Errorf("seed mutation: %w", err)
			}
			genome = mutated
		}
		org, err := p.spawn(genome, seed.ID)
		if err != nil {
			return nil, err
		}
		p.organisms = append(p.organisms, org)
	}
	p.champion = p.organisms[0].network
	return p, nil
}

func (p *Population) spawn(genome model.Genome, parentID string) (*Organism, error) {
	genome.ID = fmt.Sprintf("%s-%d", p.seedID, p.nextID)
	p.nextID++
	network, err := nn.New(genome)
	if err != nil {
		return nil, fmt.Errorf("compile organism %s: %w", genome.ID, err)
	}
	return &Organism{network: network, parentID: parentID}, nil
}

func (p *Population) Size() int { return len(p.organisms) }

// Network returns the controller of organism i, or nil when i is out of range.
func (p *Population) Network(i int) scape.Controller {
	if i < 0 || i >= len(p.organisms) {
		return nil
	}
	return p.organisms[i].network
}

func (p *Population) Organisms() []*Organism {
	return append([]*Organism(nil), p.organisms...)
}

// Champion is the best controller of the most recent epoch, or the seed
// organism before any epoch ran.
func (p *Population) Champion() scape.Controller { return p.champion }

func (p *Population) HighestFitness() float64 { return p.highest }

func (p *Population) Epoch(ctx context.Context, generation int, evaluator scape.Evaluator) error {
	if evaluator == nil {
		return fmt.Errorf("evaluator is required")
	}

	for _, org := range p.organisms {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := evaluator.Evaluate(ctx, org.network)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", org.network.ID(), err)
		}
		org.fitness = res.Fitness
	}

	ranked := make([]*Organism, len(p.organisms))
	copy(ranked, p.organisms)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].fitness > ranked[j].fitness
	})
	p.champion = ranked[0].network
	p.highest = ranked[0].fitness

	scored := make([]ScoredGenome, len(ranked))
	for i, org := range ranked {
		scored[i] = ScoredGenome{Genome: org.network.Genome(), Fitness: org.fitness}
	}

	next := make([]*Organism, 0, len(ranked))
	for i := 0; i < p.cfg.EliteCount; i++ {
		next = append(next, ranked[i])
	}
	for len(next) < len(ranked) {
		parent, err := p.cfg.Selector.PickParent(p.rng, scored, p.cfg.EliteCount)
		if err != nil {
			return fmt.Errorf("select parent: %w", err)
		}
		child, err := p.cfg.Mutation.Apply(ctx, parent)
		if err != nil {
			return fmt.Errorf("mutate %s: %w", parent.ID, err)
		}
		org, err := p.spawn(child, parent.ID)
		if err != nil {
			return err
		}
		next = append(next, org)
	}
	p.organisms = next

	p.log.WithFields(logrus.Fields{
		"generation": generation,
		"champion":   p.champion.ID(),
		"fitness":    p.highest,
	}).Debug("epoch complete")
	return nil
}
