package nn

import (
	"fmt"

	"minefield/internal/model"
)

type link struct {
	from   int
	weight float64
}

type unit struct {
	index    int
	bias     float64
	activate ActivationFunc
	incoming []link
}

// Network is a fixed-topology controller compiled from a genome. Each Activate
// call moves signal one synapse further, so a path of depth d needs d+1 calls.
type Network struct {
	id       string
	genome   model.Genome
	inputs   []int
	outputs  []int
	units    []unit
	values   []float64
	next     []float64
	maxDepth int
}

func New(genome model.Genome) (*Network, error) {
	if genome.ID == "" {
		return nil, fmt.Errorf("genome id is required")
	}
	if len(genome.Inputs) == 0 {
		return nil, fmt.Errorf("genome %s: input neuron ids are required", genome.ID)
	}
	if len(genome.Outputs) == 0 {
		return nil, fmt.Errorf("genome %s: output neuron ids are required", genome.ID)
	}

	index := make(map[string]int, len(genome.Neurons)+len(genome.Inputs))
	isInput := make(map[string]bool, len(genome.Inputs))
	for _, id := range genome.Inputs {
		if _, dup := index[id]; dup {
			return nil, fmt.Errorf("genome %s: duplicate input neuron %s", genome.ID, id)
		}
		index[id] = len(index)
		isInput[id] = true
	}
	for _, neuron := range genome.Neurons {
		if isInput[neuron.ID] {
			continue
		}
		if _, dup := index[neuron.ID]; dup {
			return nil, fmt.Errorf("genome %s: duplicate neuron %s", genome.ID, neuron.ID)
		}
		index[neuron.ID] = len(index)
	}

	n := &Network{
		id:     genome.ID,
		genome: cloneGenome(genome),
		values: make([]float64, len(index)),
		next:   make([]float64, len(index)),
	}
	for _, id := range genome.Inputs {
		n.inputs = append(n.inputs, index[id])
	}
	for _, id := range genome.Outputs {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("genome %s: unknown output neuron %s", genome.ID, id)
		}
		n.outputs = append(n.outputs, i)
	}

	unitByIndex := make(map[int]int, len(genome.Neurons))
	for _, neuron := range genome.Neurons {
		if isInput[neuron.ID] {
			continue
		}
		fn, err := GetActivation(neuron.Activation)
		if err != nil {
			return nil, fmt.Errorf("neuron %s: %w", neuron.ID, err)
		}
		unitByIndex[index[neuron.ID]] = len(n.units)
		n.units = append(n.units, unit{index: index[neuron.ID], bias: neuron.Bias, activate: fn})
	}
	for _, synapse := range genome.Synapses {
		if !synapse.Enabled {
			continue
		}
		from, ok := index[synapse.From]
		if !ok {
			return nil, fmt.Errorf("synapse %s: unknown source neuron %s", synapse.ID, synapse.From)
		}
		to, ok := index[synapse.To]
		if !ok {
			return nil, fmt.Errorf("synapse %s: unknown target neuron %s", synapse.ID, synapse.To)
		}
		if isInput[synapse.To] {
			continue
		}
		u := &n.units[unitByIndex[to]]
		u.incoming = append(u.incoming, link{from: from, weight: synapse.Weight})
	}

	n.maxDepth = n.computeMaxDepth(unitByIndex)
	return n, nil
}

func (n *Network) ID() string { return n.id }

// Genome returns a copy of the genome the network was compiled from.
func (n *Network) Genome() model.Genome { return cloneGenome(n.genome) }

// Clear zeroes every neuron's signal.
func (n *Network) Clear() {
	for i := range n.values {
		n.values[i] = 0
	}
}

// SetInput loads input neuron values. Missing values read as zero and extra
// values are ignored.
func (n *Network) SetInput(values []float64) {
	for i, idx := range n.inputs {
		if i < len(values) {
			n.values[idx] = values[i]
		} else {
			n.values[idx] = 0
		}
	}
}

// Activate performs one synchronous propagation step over all non-input neurons.
func (n *Network) Activate() {
	for _, u := range n.units {
		total := u.bias
		for _, l := range u.incoming {
			total += n.values[l.from] * l.weight
		}
		n.next[u.index] = u.activate(total)
	}
	for _, u := range n.units {
		n.values[u.index] = n.next[u.index]
	}
}

func (n *Network) Outputs() []float64 {
	out := make([]float64, len(n.outputs))
	for i, idx := range n.outputs {
		out[i] = n.values[idx]
	}
	return out
}

// MaxDepth is the number of hidden layers on the longest acyclic path into
// an output neuron.
func (n *Network) MaxDepth() int { return n.maxDepth }

func (n *Network) computeMaxDepth(unitByIndex map[int]int) int {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(n.values))
	depth := make([]int, len(n.values))

	var visit func(idx int) int
	visit = func(idx int) int {
		switch state[idx] {
		case done:
			return depth[idx]
		case visiting:
			return -1
		}
		state[idx] = visiting
		best := 0
		if ui, ok := unitByIndex[idx]; ok {
			for _, l := range n.units[ui].incoming {
				d := visit(l.from)
				if d < 0 {
					continue
				}
				if d+1 > best {
					best = d + 1
				}
			}
		}
		state[idx] = done
		depth[idx] = best
		return best
	}

	maxLinks := 0
	for _, idx := range n.outputs {
		if d := visit(idx); d > maxLinks {
			maxLinks = d
		}
	}
	if maxLinks == 0 {
		return 0
	}
	return maxLinks - 1
}

func cloneGenome(g model.Genome) model.Genome {
	out := g
	out.Inputs = append([]string(nil), g.Inputs...)
	out.Outputs = append([]string(nil), g.Outputs...)
	out.Neurons = append([]model.Neuron(nil), g.Neurons...)
	out.Synapses = append([]model.Synapse(nil), g.Synapses...)
	return out
}
