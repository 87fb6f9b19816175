package minefield

import (
	"context"
	"fmt"
	"testing"
)

type recordingSink struct {
	ops []string
}

func (s *recordingSink) Circle(x, y int, fill string) {
	s.ops = append(s.ops, fmt.Sprintf("circle %d,%d %s", x, y, fill))
}

func (s *recordingSink) Triangle(x, y int) {
	s.ops = append(s.ops, fmt.Sprintf("triangle %d,%d", x, y))
}

func (s *recordingSink) Rectangle(x, y int) {
	s.ops = append(s.ops, fmt.Sprintf("rectangle %d,%d", x, y))
}

func (s *recordingSink) Status(text string) {
	s.ops = append(s.ops, "status "+text)
}

func TestDrawEmitsGridThenAgentsThenStatus(t *testing.T) {
	env, _ := newCrossEnv(t, Config{Timeout: 10},
		&scriptedController{id: "a", outputs: channel(3)},
		&scriptedController{id: "b", outputs: channel(1)},
	)
	if err := env.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}

	sink := &recordingSink{}
	env.Draw(sink)
	want := []string{
		"triangle 0,1",
		"circle 1,1 black",
		"rectangle 2,1",
		"circle 1,0 yellow",
		"status generation 1  tick 1/10  active 1/2",
	}
	if len(sink.ops) != len(want) {
		t.Fatalf("unexpected draw ops: %v", sink.ops)
	}
	for i := range want {
		if sink.ops[i] != want[i] {
			t.Fatalf("op %d: got %q want %q", i, sink.ops[i], want[i])
		}
	}
}
