package genotype

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"minefield/internal/model"
	"minefield/internal/nn"
)

const DefaultActivation = "steep_sigmoid"

// SeedSpec describes a fully connected starting genome. With Hidden > 0 the
// inputs feed a single hidden layer that feeds the outputs.
type SeedSpec struct {
	ID         string
	Inputs     int
	Outputs    int
	Hidden     int
	Activation string
	WeightSpan float64
}

// ConstructSeed builds the seed genome described by spec with random weights
// drawn uniformly from [-WeightSpan, WeightSpan].
func ConstructSeed(spec SeedSpec, rng *rand.Rand) (model.Genome, error) {
	if spec.Inputs <= 0 || spec.Outputs <= 0 {
		return model.Genome{}, fmt.Errorf("seed genome requires inputs and outputs, got %d/%d", spec.Inputs, spec.Outputs)
	}
	if spec.Hidden < 0 {
		return model.Genome{}, fmt.Errorf("hidden neuron count must be >= 0")
	}
	if spec.ID == "" {
		spec.ID = "seed"
	}
	if spec.Activation == "" {
		spec.Activation = DefaultActivation
	}
	if spec.WeightSpan <= 0 {
		spec.WeightSpan = 1
	}
	rng = ensureRNG(rng)

	g := model.Genome{ID: spec.ID}
	inputs := make([]string, spec.Inputs)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("i%d", i)
		g.Neurons = append(g.Neurons, model.Neuron{ID: inputs[i], Activation: "identity"})
	}
	hidden := make([]string, spec.Hidden)
	for i := range hidden {
		hidden[i] = fmt.Sprintf("h%d", i)
		g.Neurons = append(g.Neurons, model.Neuron{ID: hidden[i], Activation: spec.Activation})
	}
	outputs := make([]string, spec.Outputs)
	for i := range outputs {
		outputs[i] = fmt.Sprintf("o%d", i)
		g.Neurons = append(g.Neurons, model.Neuron{ID: outputs[i], Activation: spec.Activation})
	}
	g.Inputs = inputs
	g.Outputs = outputs

	connect := func(from, to []string) {
		for _, src := range from {
			for _, dst := range to {
				g.Synapses = append(g.Synapses, model.Synapse{
					ID:      src + "->" + dst,
					From:    src,
					To:      dst,
					Weight:  (rng.Float64()*2 - 1) * spec.WeightSpan,
					Enabled: true,
				})
			}
		}
	}
	if len(hidden) > 0 {
		connect(inputs, hidden)
		connect(hidden, outputs)
	} else {
		connect(inputs, outputs)
	}
	return g, nil
}

// Load decodes a seed genome from JSON and checks that it compiles into a
// controller.
func Load(r io.Reader) (model.Genome, error) {
	var g model.Genome
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return model.Genome{}, fmt.Errorf("decode seed genome: %w", err)
	}
	if _, err := nn.New(g); err != nil {
		return model.Genome{}, fmt.Errorf("invalid seed genome: %w", err)
	}
	return g, nil
}

func LoadFile(path string) (model.Genome, error) {
	if path == "" {
		return model.Genome{}, errors.New("seed genome path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Genome{}, err
	}
	defer f.Close()
	return Load(f)
}

// CheckShape verifies the genome exposes exactly the input and output widths
// an experiment drives.
func CheckShape(g model.Genome, inputs, outputs int) error {
	if len(g.Inputs) != inputs || len(g.Outputs) != outputs {
		return fmt.Errorf("genome %s has %d inputs and %d outputs, want %d and %d", g.ID, len(g.Inputs), len(g.Outputs), inputs, outputs)
	}
	return nil
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// CloneGenome returns a deep copy of g.
func CloneGenome(g model.Genome) model.Genome {
	out := g
	out.Inputs = append([]string(nil), g.Inputs...)
	out.Outputs = append([]string(nil), g.Outputs...)
	out.Neurons = append([]model.Neuron(nil), g.Neurons...)
	out.Synapses = append([]model.Synapse(nil), g.Synapses...)
	return out
}
