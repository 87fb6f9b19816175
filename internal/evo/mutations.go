package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"minefield/internal/genotype"
	"minefield/internal/model"
)

var (
	ErrNoSynapses = errors.New("genome has no synapses")
	ErrNoNeurons  = errors.New("genome has no neurons")
)

// PerturbRandomWeight mutates a random synapse using uniform delta in [-MaxDelta, MaxDelta].
type PerturbRandomWeight struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbRandomWeight) Name() string {
	return "perturb_random_weight"
}

func (o *PerturbRandomWeight) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoSynapses
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	idx := o.Rand.Intn(len(genome.Synapses))
	delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta

	mutated := genotype.CloneGenome(genome)
	mutated.Synapses[idx].Weight += delta
	return mutated, nil
}

// PerturbWeightsProportional mutates each synapse with probability
// 1/sqrt(total_weights). At least one synapse is always perturbed when
// synapses are present.
type PerturbWeightsProportional struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbWeightsProportional) Name() string {
	return "perturb_weights_proportional"
}

func (o *PerturbWeightsProportional) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoSynapses
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	mutated := genotype.CloneGenome(genome)
	mp := 1 / math.Sqrt(float64(len(mutated.Synapses)))
	mutatedCount := 0
	for i := range mutated.Synapses {
		if o.Rand.Float64() >= mp {
			continue
		}
		mutated.Synapses[i].Weight += (o.Rand.Float64()*2 - 1) * o.MaxDelta
		mutatedCount++
	}
	if mutatedCount == 0 {
		idx := o.Rand.Intn(len(mutated.Synapses))
		mutated.Synapses[idx].Weight += (o.Rand.Float64()*2 - 1) * o.MaxDelta
	}
	return mutated, nil
}

// PerturbRandomBias mutates a random neuron bias using uniform delta in [-MaxDelta, MaxDelta].
type PerturbRandomBias struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbRandomBias) Name() string {
	return "perturb_random_bias"
}

func (o *PerturbRandomBias) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	idx := o.Rand.Intn(len(genome.Neurons))
	mutated := genotype.CloneGenome(genome)
	mutated.Neurons[idx].Bias += (o.Rand.Float64()*2 - 1) * o.MaxDelta
	return mutated, nil
}

// Chain applies every operator in order.
type Chain []Operator

func (c Chain) Name() string {
	name := ""
	for i, op := range c {
		if i > 0 {
			name += "+"
		}
		name += op.Name()
	}
	return name
}

func (c Chain) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	var err error
	for _, op := range c {
		genome, err = op.Apply(ctx, genome)
		if err != nil {
			return model.Genome{}, err
		}
	}
	return genome, nil
}

// MutationByName resolves the mutation operators accepted on the command line.
func MutationByName(name string, rng *rand.Rand, maxDelta float64) (Operator, error) {
	switch name {
	case "", "proportional":
		return &PerturbWeightsProportional{Rand: rng, MaxDelta: maxDelta}, nil
	case "weight":
		return &PerturbRandomWeight{Rand: rng, MaxDelta: maxDelta}, nil
	case "bias":
		return &PerturbRandomBias{Rand: rng, MaxDelta: maxDelta}, nil
	case "mixed":
		return Chain{
			&PerturbWeightsProportional{Rand: rng, MaxDelta: maxDelta},
			&PerturbRandomBias{Rand: rng, MaxDelta: maxDelta},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported mutation operator: %s", name)
	}
}
