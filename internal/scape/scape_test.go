package scape

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type idController struct{ id string }

func (c idController) ID() string       { return c.id }
func (idController) Clear()             {}
func (idController) SetInput([]float64) {}
func (idController) Activate()          {}
func (idController) Outputs() []float64 { return nil }
func (idController) MaxDepth() int      { return 0 }

type countingEvaluator struct{ targets int }

func (e countingEvaluator) Evaluate(context.Context, Controller) (Result, error) {
	return Result{Fitness: 1, Won: true}, nil
}

func (e countingEvaluator) Targets() int { return e.targets }

func TestUnimplementedEvaluatorAlwaysFails(t *testing.T) {
	_, err := UnimplementedEvaluator{}.Evaluate(context.Background(), idController{id: "n1"})
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	if !strings.Contains(err.Error(), "Evaluate") {
		t.Fatalf("expected error to name the Evaluate method, got %q", err)
	}
}

func TestEmbeddedUnimplementedEvaluatorFails(t *testing.T) {
	type experiment struct {
		UnimplementedEvaluator
	}
	var ev Evaluator = experiment{}
	if _, err := ev.Evaluate(context.Background(), idController{id: "n1"}); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented from embedded base, got %v", err)
	}
}

func TestEvaluateFunc(t *testing.T) {
	fn := EvaluateFunc(func(_ context.Context, c Controller) (Result, error) {
		return Result{Fitness: float64(len(c.ID()))}, nil
	})
	res, err := fn.Evaluate(context.Background(), idController{id: "abc"})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Fitness != 3 {
		t.Fatalf("unexpected fitness: %f", res.Fitness)
	}

	var unset EvaluateFunc
	if _, err := unset.Evaluate(context.Background(), idController{id: "abc"}); !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected nil func to be unimplemented, got %v", err)
	}
}

func TestTargetsOf(t *testing.T) {
	if got := TargetsOf(countingEvaluator{targets: 3}); got != 3 {
		t.Fatalf("expected 3 targets, got %d", got)
	}
	if got := TargetsOf(UnimplementedEvaluator{}); got != 0 {
		t.Fatalf("expected 0 targets for evaluator without targets, got %d", got)
	}
}
