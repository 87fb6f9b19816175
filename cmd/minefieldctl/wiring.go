package main

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"minefield/internal/evo"
	"minefield/internal/genotype"
	"minefield/internal/grid"
	"minefield/internal/logging"
	"minefield/internal/minefield"
	"minefield/internal/model"
	"minefield/internal/scape"
)

func newLogger(s settings) *logrus.Logger {
	return logging.New(logging.Options{Level: s.LogLevel, Format: s.LogFormat})
}

func (s settings) layout() grid.Layout {
	return grid.Layout{Width: s.Width, Height: s.Height, Bases: s.Bases, Mines: s.Mines}
}

// loadSeed reads the seed genome from disk, or generates a fully connected
// one sized for the minefield controller interface.
func loadSeed(s settings) (model.Genome, error) {
	if s.GenomePath != "" {
		g, err := genotype.LoadFile(s.GenomePath)
		if err != nil {
			return model.Genome{}, err
		}
		if err := genotype.CheckShape(g, minefield.InputWidth, len(minefield.Directions)); err != nil {
			return model.Genome{}, err
		}
		return g, nil
	}
	return genotype.ConstructSeed(genotype.SeedSpec{
		ID:      "seed",
		Inputs:  minefield.InputWidth,
		Outputs: len(minefield.Directions),
		Hidden:  s.Hidden,
	}, rand.New(rand.NewSource(s.Seed)))
}

func newPopulation(seed model.Genome, s settings, salt int64, log logrus.FieldLogger) (*evo.Population, error) {
	selector, err := evo.SelectorByName(s.Selection)
	if err != nil {
		return nil, err
	}
	mutation, err := evo.MutationByName(s.Mutation, rand.New(rand.NewSource(s.Seed+salt)), s.MutationDelta)
	if err != nil {
		return nil, err
	}
	return evo.NewPopulation(seed, evo.Config{
		Size:       s.populationSize(),
		EliteCount: s.EliteCount,
		Selector:   selector,
		Mutation:   mutation,
		Seed:       s.Seed + salt,
		Logger:     log,
	})
}

// newEnvironment builds the shared continuous simulation. Every Reset draws a
// fresh population, salted so successive resets do not repeat.
func newEnvironment(s settings, seed model.Genome, log logrus.FieldLogger, onRegenerate func(minefield.GenerationSummary)) (*minefield.Environment, error) {
	var resets int64
	return minefield.New(minefield.Config{
		Layout:        s.layout(),
		Avatars:       s.Avatars,
		Timeout:       s.Timeout,
		Seed:          s.Seed,
		ShapeTimeouts: s.ShapeTimeouts,
		Logger:        log,
		OnRegenerate:  onRegenerate,
	}, func() (scape.Population, error) {
		resets++
		return newPopulation(seed, s, resets, log)
	})
}
