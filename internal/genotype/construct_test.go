package genotype

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"minefield/internal/nn"
)

func TestConstructSeedDirect(t *testing.T) {
	g, err := ConstructSeed(SeedSpec{Inputs: 9, Outputs: 9}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("construct seed: %v", err)
	}
	if g.ID != "seed" {
		t.Fatalf("expected default id seed, got %s", g.ID)
	}
	if err := CheckShape(g, 9, 9); err != nil {
		t.Fatalf("check shape: %v", err)
	}
	if len(g.Synapses) != 81 {
		t.Fatalf("expected 81 synapses, got %d", len(g.Synapses))
	}
	for _, s := range g.Synapses {
		if s.Weight < -1 || s.Weight > 1 {
			t.Fatalf("weight out of span: %+v", s)
		}
	}
	n, err := nn.New(g)
	if err != nil {
		t.Fatalf("compile seed: %v", err)
	}
	if n.MaxDepth() != 0 {
		t.Fatalf("expected direct seed depth 0, got %d", n.MaxDepth())
	}
}

func TestConstructSeedHidden(t *testing.T) {
	g, err := ConstructSeed(SeedSpec{ID: "h", Inputs: 9, Outputs: 9, Hidden: 4, WeightSpan: 0.5}, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("construct seed: %v", err)
	}
	if len(g.Synapses) != 9*4+4*9 {
		t.Fatalf("unexpected synapse count: %d", len(g.Synapses))
	}
	n, err := nn.New(g)
	if err != nil {
		t.Fatalf("compile seed: %v", err)
	}
	if n.MaxDepth() != 1 {
		t.Fatalf("expected hidden seed depth 1, got %d", n.MaxDepth())
	}
}

func TestConstructSeedRejectsEmptyShape(t *testing.T) {
	if _, err := ConstructSeed(SeedSpec{Inputs: 0, Outputs: 9}, nil); err == nil {
		t.Fatal("expected error for zero inputs")
	}
	if _, err := ConstructSeed(SeedSpec{Inputs: 9, Outputs: 9, Hidden: -1}, nil); err == nil {
		t.Fatal("expected error for negative hidden count")
	}
}

func TestLoadFileRoundTrip(t *testing.T) {
	g, err := ConstructSeed(SeedSpec{ID: "file-seed", Inputs: 9, Outputs: 9}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("construct seed: %v", err)
	}
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if loaded.ID != "file-seed" || len(loaded.Synapses) != len(g.Synapses) {
		t.Fatalf("unexpected loaded genome: id=%s synapses=%d", loaded.ID, len(loaded.Synapses))
	}
}

func TestLoadRejectsInvalidGenome(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"id":"bad","inputs":["i0"],"outputs":["missing"]}`)); err == nil {
		t.Fatal("expected error for genome with unknown output")
	}
	if _, err := Load(strings.NewReader(`not json`)); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := LoadFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
