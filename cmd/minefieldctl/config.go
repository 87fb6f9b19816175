package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
)

// settings holds every numeric and naming parameter of one experiment. Values
// are read once at startup and never change afterwards.
type settings struct {
	Runs          int
	Generations   int
	Width         int
	Height        int
	Bases         int
	Mines         int
	Avatars       int
	Population    int
	Timeout       int
	Seed          int64
	EliteCount    int
	MutationDelta float64
	Mutation      string
	Selection     string
	Hidden        int
	GenomePath    string
	ShapeTimeouts bool
	LogLevel      string
	LogFormat     string
}

func defaultSettings() settings {
	return settings{
		Runs:          1,
		Generations:   50,
		Width:         50,
		Height:        50,
		Bases:         3,
		Mines:         6,
		Avatars:       5,
		Timeout:       50,
		Seed:          1,
		EliteCount:    1,
		MutationDelta: 0.5,
		Mutation:      "proportional",
		Selection:     "elite",
	}
}

// populationSize defaults to one controller per avatar.
func (s settings) populationSize() int {
	if s.Population > 0 {
		return s.Population
	}
	return s.Avatars
}

func (s settings) validate() error {
	switch {
	case s.Runs <= 0:
		return errors.New("runs must be > 0")
	case s.Generations <= 0:
		return errors.New("generations must be > 0")
	case s.populationSize() < s.Avatars:
		return fmt.Errorf("population %d is smaller than avatars %d", s.populationSize(), s.Avatars)
	case s.EliteCount <= 0 || s.EliteCount > s.populationSize():
		return fmt.Errorf("elite count must be in [1, %d]", s.populationSize())
	case s.MutationDelta <= 0:
		return errors.New("mutation delta must be > 0")
	case s.Hidden < 0:
		return errors.New("hidden must be >= 0")
	}
	return nil
}

func loadSettingsFromConfig(path string) (settings, error) {
	s := defaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return settings{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return settings{}, err
	}

	if v, ok := asInt(raw["runs"]); ok {
		s.Runs = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		s.Generations = v
	}
	if v, ok := asInt(raw["width"]); ok {
		s.Width = v
	}
	if v, ok := asInt(raw["height"]); ok {
		s.Height = v
	}
	if v, ok := asInt(raw["bases"]); ok {
		s.Bases = v
	}
	if v, ok := asInt(raw["mines"]); ok {
		s.Mines = v
	}
	if v, ok := asInt(raw["avatars"]); ok {
		s.Avatars = v
	}
	if v, ok := asInt(raw["population"]); ok {
		s.Population = v
	}
	if v, ok := asInt(raw["timeout"]); ok {
		s.Timeout = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		s.Seed = v
	}
	if v, ok := asInt(raw["elite_count"]); ok {
		s.EliteCount = v
	}
	if v, ok := asFloat64(raw["mutation_delta"]); ok {
		s.MutationDelta = v
	}
	if v, ok := asString(raw["mutation"]); ok {
		s.Mutation = v
	}
	if v, ok := asString(raw["selection"]); ok {
		s.Selection = v
	}
	if v, ok := asInt(raw["hidden"]); ok {
		s.Hidden = v
	}
	if v, ok := asString(raw["genome"]); ok {
		s.GenomePath = v
	}
	if v, ok := asBool(raw["shape_timeouts"]); ok {
		s.ShapeTimeouts = v
	}
	if v, ok := asString(raw["log_level"]); ok {
		s.LogLevel = v
	}
	if v, ok := asString(raw["log_format"]); ok {
		s.LogFormat = v
	}
	return s, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// settingsFlags registers the shared experiment flags on fs. Call resolve
// after fs.Parse: it starts from the config file (or defaults) and applies
// only the flags that were set explicitly.
type settingsFlags struct {
	fs         *flag.FlagSet
	configPath *string
	values     map[string]any
}

func registerSettingsFlags(fs *flag.FlagSet) *settingsFlags {
	d := defaultSettings()
	return &settingsFlags{
		fs:         fs,
		configPath: fs.String("config", "", "optional experiment config JSON path"),
		values: map[string]any{
			"runs":           fs.Int("runs", d.Runs, "independent run count"),
			"gens":           fs.Int("gens", d.Generations, "generation count per run"),
			"width":          fs.Int("width", d.Width, "grid width"),
			"height":         fs.Int("height", d.Height, "grid height"),
			"bases":          fs.Int("bases", d.Bases, "base cell count"),
			"mines":          fs.Int("mines", d.Mines, "mine cell count"),
			"avatars":        fs.Int("avatars", d.Avatars, "agents sharing the environment"),
			"pop":            fs.Int("pop", d.Population, "population size (0 uses avatars)"),
			"timeout":        fs.Int("timeout", d.Timeout, "ticks before forced regeneration"),
			"seed":           fs.Int64("seed", d.Seed, "rng seed"),
			"elite":          fs.Int("elite", d.EliteCount, "elite organisms kept per epoch"),
			"mutation-delta": fs.Float64("mutation-delta", d.MutationDelta, "maximum weight perturbation"),
			"mutation":       fs.String("mutation", d.Mutation, "mutation operator: proportional|weight|bias|mixed"),
			"selection":      fs.String("selection", d.Selection, "parent selection strategy: elite|tournament"),
			"hidden":         fs.Int("hidden", d.Hidden, "hidden neurons in a generated seed genome"),
			"genome":         fs.String("genome", "", "seed genome JSON path (generated when empty)"),
			"shape-timeouts": fs.Bool("shape-timeouts", false, "score timed-out agents by their surroundings"),
			"log-level":      fs.String("log-level", "", "log level (default LOG_LEVEL or info)"),
			"log-format":     fs.String("log-format", "", "log format: text|json (default LOG_FORMAT or text)"),
		},
	}
}

func (f *settingsFlags) resolve() (settings, error) {
	s := defaultSettings()
	if *f.configPath != "" {
		loaded, err := loadSettingsFromConfig(*f.configPath)
		if err != nil {
			return settings{}, fmt.Errorf("load config: %w", err)
		}
		s = loaded
	}
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	overrideFromFlags(&s, set, f.values)
	if err := s.validate(); err != nil {
		return settings{}, err
	}
	return s, nil
}

func overrideFromFlags(s *settings, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "runs":
			s.Runs = *v.(*int)
		case "gens":
			s.Generations = *v.(*int)
		case "width":
			s.Width = *v.(*int)
		case "height":
			s.Height = *v.(*int)
		case "bases":
			s.Bases = *v.(*int)
		case "mines":
			s.Mines = *v.(*int)
		case "avatars":
			s.Avatars = *v.(*int)
		case "pop":
			s.Population = *v.(*int)
		case "timeout":
			s.Timeout = *v.(*int)
		case "seed":
			s.Seed = *v.(*int64)
		case "elite":
			s.EliteCount = *v.(*int)
		case "mutation-delta":
			s.MutationDelta = *v.(*float64)
		case "mutation":
			s.Mutation = *v.(*string)
		case "selection":
			s.Selection = *v.(*string)
		case "hidden":
			s.Hidden = *v.(*int)
		case "genome":
			s.GenomePath = *v.(*string)
		case "shape-timeouts":
			s.ShapeTimeouts = *v.(*bool)
		case "log-level":
			s.LogLevel = *v.(*string)
		case "log-format":
			s.LogFormat = *v.(*string)
		}
	}
}
