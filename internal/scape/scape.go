package scape

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotImplemented = errors.New("not implemented")

// Controller is the decision network bound to one agent or organism.
type Controller interface {
	ID() string
	Clear()
	SetInput(values []float64)
	Activate()
	Outputs() []float64
	MaxDepth() int
}

// Result is the outcome of scoring one controller. Outputs and Error feed
// result reporting even when they do not drive the simulation.
type Result struct {
	Fitness float64
	Outputs []float64
	Error   float64
	Won     bool
}

type Evaluator interface {
	Evaluate(ctx context.Context, controller Controller) (Result, error)
}

// TargetCounter is an optional evaluator capability reporting how many goal
// targets an experiment exposes.
type TargetCounter interface {
	Targets() int
}

// Population is the generational algorithm driven by schedulers. Epoch scores
// every member through the evaluator and breeds the next generation.
type Population interface {
	Epoch(ctx context.Context, generation int, evaluator Evaluator) error
	Champion() Controller
	HighestFitness() float64
	Size() int
	Network(i int) Controller
}

// UnimplementedEvaluator is the unbound evaluation contract. Experiments must
// supply their own Evaluate; calling this one always fails.
type UnimplementedEvaluator struct{}

func (UnimplementedEvaluator) Evaluate(context.Context, Controller) (Result, error) {
	return Result{}, fmt.Errorf("%w: override the Evaluate method in your experiment", ErrNotImplemented)
}

// EvaluateFunc adapts a function to Evaluator.
type EvaluateFunc func(ctx context.Context, controller Controller) (Result, error)

func (f EvaluateFunc) Evaluate(ctx context.Context, controller Controller) (Result, error) {
	if f == nil {
		return UnimplementedEvaluator{}.Evaluate(ctx, controller)
	}
	return f(ctx, controller)
}

// TargetsOf returns the evaluator's target count, or zero when it has none.
func TargetsOf(evaluator Evaluator) int {
	counter, ok := evaluator.(TargetCounter)
	if !ok {
		return 0
	}
	return counter.Targets()
}
