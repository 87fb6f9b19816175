package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is a fixed-topology controller definition. Input neurons listed in
// Inputs receive values directly; Outputs are read back in order.
type Genome struct {
	VersionedRecord
	ID       string    `json:"id"`
	Inputs   []string  `json:"inputs"`
	Outputs  []string  `json:"outputs"`
	Neurons  []Neuron  `json:"neurons"`
	Synapses []Synapse `json:"synapses"`
}

type Neuron struct {
	ID         string  `json:"id"`
	Activation string  `json:"activation"`
	Bias       float64 `json:"bias"`
}

type Synapse struct {
	ID      string  `json:"id"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Weight  float64 `json:"weight"`
	Enabled bool    `json:"enabled"`
}

// Run is the result record produced once per generation by the driver.
type Run struct {
	VersionedRecord
	RunID      string        `json:"run_id"`
	RunIndex   int           `json:"run_index"`
	Generation int           `json:"generation"`
	ChampionID string        `json:"champion_id"`
	Fitness    float64       `json:"fitness"`
	Targets    int           `json:"targets"`
	Outputs    []float64     `json:"outputs"`
	Winner     *string       `json:"winner,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Won reports whether the generation's champion solved the task.
func (r Run) Won() bool {
	return r.Winner != nil
}
