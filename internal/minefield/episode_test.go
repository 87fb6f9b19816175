package minefield

import (
	"context"
	"errors"
	"testing"

	"minefield/internal/grid"
	"minefield/internal/scape"
)

func TestEpisodeEvaluatorIdleControllerTimesOut(t *testing.T) {
	ev := EpisodeEvaluator{Layout: grid.Layout{Width: 8, Height: 8, Bases: 2, Mines: 2}, Timeout: 6, Seed: 3}
	c := &scriptedController{id: "idle", outputs: channel(0)}
	res, err := ev.Evaluate(context.Background(), c)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.Fitness != DefaultFitness || res.Won || res.Error != 0.5 {
		t.Fatalf("unexpected idle result: %+v", res)
	}
	if c.clears != 5 {
		t.Fatalf("expected timeout-1 steps, got %d", c.clears)
	}
	if len(res.Outputs) != len(Directions) {
		t.Fatalf("expected last controller outputs, got %v", res.Outputs)
	}
	if scape.TargetsOf(ev) != 2 {
		t.Fatalf("expected 2 targets, got %d", scape.TargetsOf(ev))
	}
}

func TestEpisodeEvaluatorIsDeterministic(t *testing.T) {
	ev := EpisodeEvaluator{Layout: grid.Layout{Width: 5, Height: 5, Bases: 4, Mines: 4}, Timeout: 20, Seed: 9}
	first, err := ev.Evaluate(context.Background(), &scriptedController{id: "walker", outputs: channel(6)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	second, err := ev.Evaluate(context.Background(), &scriptedController{id: "walker", outputs: channel(6)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if first.Fitness != second.Fitness || first.Won != second.Won {
		t.Fatalf("same seed gave different episodes: %+v vs %+v", first, second)
	}
}

func TestEpisodeEvaluatorRejectsBadInput(t *testing.T) {
	ev := EpisodeEvaluator{Layout: grid.Layout{Width: 3, Height: 3}, Timeout: 0}
	if _, err := ev.Evaluate(context.Background(), &scriptedController{id: "c"}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	ev.Timeout = 3
	if _, err := ev.Evaluate(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil controller")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ev.Evaluate(ctx, &scriptedController{id: "c", outputs: channel(0)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
