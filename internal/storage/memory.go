package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"minefield/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	genomes     map[string]model.Genome
	runs        map[string]map[int]model.Run
	runOrder    []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.genomes = make(map[string]model.Genome)
	s.runs = make(map[string]map[int]model.Run)
	s.runOrder = nil
	return nil
}

func (s *MemoryStore) SaveGenome(_ context.Context, genome model.Genome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	stamp(&genome.VersionedRecord)
	s.genomes[genome.ID] = genome
	return nil
}

func (s *MemoryStore) GetGenome(_ context.Context, id string) (model.Genome, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	genome, ok := s.genomes[id]
	return genome, ok, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	if run.RunID == "" {
		return errMissingRunID
	}
	stamp(&run.VersionedRecord)
	generations, ok := s.runs[run.RunID]
	if !ok {
		generations = make(map[int]model.Run)
		s.runs[run.RunID] = generations
		s.runOrder = append(s.runOrder, run.RunID)
	}
	generations[run.Generation] = cloneRun(run)
	return nil
}

func (s *MemoryStore) ListRuns(_ context.Context, runID string) ([]model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	generations := s.runs[runID]
	out := make([]model.Run, 0, len(generations))
	for _, run := range generations {
		out = append(out, cloneRun(run))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Generation < out[j].Generation })
	return out, nil
}

func (s *MemoryStore) ListRunIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.runOrder...), nil
}

var (
	errNotInitialized = errors.New("store is not initialized")
	errMissingRunID   = errors.New("run id is required")
)
