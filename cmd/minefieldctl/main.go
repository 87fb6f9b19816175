package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"minefield/internal/experiment"
	"minefield/internal/logging"
	"minefield/internal/minefield"
	"minefield/internal/model"
	"minefield/internal/scape"
	"minefield/internal/stats"
	"minefield/internal/storage"
	"minefield/internal/viewer"
)

const exportsDir = "exports"

// stdout is swapped by tests.
var stdout io.Writer = os.Stdout

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "simulate":
		return runSimulate(ctx, args[1:])
	case "live":
		return runLive(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func openStore(ctx context.Context, kind, path string) (storage.Store, error) {
	store, err := storage.NewStore(kind, path)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return store, nil
}

// runRun drives the generational experiment: every candidate plays its own
// episode on a fixed layout and each generation's champion is recorded.
func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	sf := registerSettingsFlags(fs)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "minefield.db", "sqlite database path")
	exportFormat := fs.String("export", "", "also export each run: json|csv|parquet")
	outDir := fs.String("out", exportsDir, "export output directory")
	quiet := fs.Bool("quiet", false, "only print the final summary")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := sf.resolve()
	if err != nil {
		return err
	}
	log := newLogger(s)

	seed, err := loadSeed(s)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.SaveGenome(ctx, seed); err != nil {
		return fmt.Errorf("save seed genome: %w", err)
	}

	driver, err := experiment.New(experiment.Config{
		Evaluator: minefield.EpisodeEvaluator{Layout: s.layout(), Timeout: s.Timeout, Seed: s.Seed},
		NewPopulation: func(runIndex int) (scape.Population, error) {
			return newPopulation(seed, s, int64(runIndex), log)
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	var all []model.Run
	byRun := make(map[string][]model.Run)
	var order []string
	for r, err := range driver.Runs(ctx, s.Runs, s.Generations) {
		if err != nil {
			return err
		}
		if err := store.SaveRun(ctx, r); err != nil {
			return fmt.Errorf("save run %s: %w", r.RunID, err)
		}
		if _, ok := byRun[r.RunID]; !ok {
			order = append(order, r.RunID)
		}
		byRun[r.RunID] = append(byRun[r.RunID], r)
		all = append(all, r)
		if !*quiet {
			fmt.Fprintln(stdout, formatRun(r))
		}
	}

	fmt.Fprintln(stdout, stats.Summarize(all))
	if *exportFormat == "" {
		return nil
	}
	for _, id := range order {
		if err := exportAndReport(*outDir, id, *exportFormat, byRun[id]); err != nil {
			return err
		}
	}
	return nil
}

func formatRun(r model.Run) string {
	winner := "-"
	if r.Winner != nil {
		winner = *r.Winner
	}
	return fmt.Sprintf("run=%d gen=%d champion=%s fitness=%.4f targets=%d winner=%s elapsed=%s",
		r.RunIndex, r.Generation, r.ChampionID, r.Fitness, r.Targets, winner, r.Elapsed.Round(time.Microsecond))
}

func exportAndReport(outDir, runID, format string, runs []model.Run) error {
	path, err := stats.ExportRuns(outDir, runID, format, runs)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s to=%s (%s)\n", runID, filepath.Clean(path), humanize.Bytes(uint64(info.Size())))
	return nil
}

// runSimulate ticks the shared environment headlessly, printing one line per
// regeneration.
func runSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	sf := registerSettingsFlags(fs)
	ticks := fs.Int("ticks", 0, "ticks to run (0 runs until -gens regenerations)")
	render := fs.Bool("render", false, "print the final grid")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := sf.resolve()
	if err != nil {
		return err
	}
	log := newLogger(s)
	seed, err := loadSeed(s)
	if err != nil {
		return err
	}

	regenerations := 0
	env, err := newEnvironment(s, seed, log, func(g minefield.GenerationSummary) {
		regenerations++
		fmt.Fprintf(stdout, "gen=%d ticks=%d wins=%d losses=%d timeouts=%d champion=%s fitness=%.4f\n",
			g.Generation, g.Ticks, g.Wins, g.Losses, g.Timeouts, g.ChampionID, g.HighestFitness)
	})
	if err != nil {
		return err
	}

	total := 0
	for {
		if *ticks > 0 && total >= *ticks {
			break
		}
		if *ticks <= 0 && regenerations >= s.Generations {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := env.Tick(ctx); err != nil {
			return err
		}
		total++
	}
	fmt.Fprintf(stdout, "simulated %s ticks, %s regenerations\n", humanize.Comma(int64(total)), humanize.Comma(int64(regenerations)))
	if *render {
		fmt.Fprintln(stdout, viewer.Render(env))
	}
	return nil
}

func runLive(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("live", flag.ContinueOnError)
	sf := registerSettingsFlags(fs)
	interval := fs.Duration("interval", viewer.DefaultInterval, "tick interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := sf.resolve()
	if err != nil {
		return err
	}
	seed, err := loadSeed(s)
	if err != nil {
		return err
	}
	// The terminal owns the screen; log entries would corrupt it.
	log := logging.Discard()
	env, err := newEnvironment(s, seed, log, nil)
	if err != nil {
		return err
	}
	err = viewer.RunTerminal(ctx, env, *interval, log, tea.WithAltScreen())
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	sf := registerSettingsFlags(fs)
	addr := fs.String("addr", ":8080", "listen address")
	interval := fs.Duration("interval", viewer.DefaultInterval, "tick interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := sf.resolve()
	if err != nil {
		return err
	}
	log := newLogger(s)
	seed, err := loadSeed(s)
	if err != nil {
		return err
	}
	env, err := newEnvironment(s, seed, log, nil)
	if err != nil {
		return err
	}

	frames := viewer.NewServer(env, viewer.ServerConfig{Interval: *interval, Logger: log})
	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: frames.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
		}
	}()
	log.WithField("addr", ln.Addr().String()).Info("serving frames on /ws")

	runErr := frames.Run(ctx)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown")
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "minefield.db", "sqlite database path")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	ids, err := store.ListRunIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	// Newest first.
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	if len(ids) > *limit {
		ids = ids[:*limit]
	}

	type runsItem struct {
		RunID       string  `json:"run_id"`
		Generations int     `json:"generations"`
		BestFitness float64 `json:"best_fitness"`
		Wins        int     `json:"wins"`
		FirstWin    int     `json:"first_win,omitempty"`
	}
	items := make([]runsItem, 0, len(ids))
	for _, id := range ids {
		runs, err := store.ListRuns(ctx, id)
		if err != nil {
			return err
		}
		sum := stats.Summarize(runs)
		items = append(items, runsItem{
			RunID:       id,
			Generations: sum.Records,
			BestFitness: sum.BestFitness,
			Wins:        sum.Wins,
			FirstWin:    sum.FirstWin,
		})
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, item := range items {
		fmt.Fprintf(stdout, "run_id=%s generations=%d best=%.4f wins=%d first_win=%d\n",
			item.RunID, item.Generations, item.BestFitness, item.Wins, item.FirstWin)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "minefield.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	format := fs.String("format", stats.FormatJSON, "export format: json|csv|parquet")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	store, err := openStore(ctx, *storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if *latest {
		ids, err := store.ListRunIDs(ctx)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return errors.New("no runs available to export")
		}
		*runID = ids[len(ids)-1]
	}
	runs, err := store.ListRuns(ctx, *runID)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("run %s not found", *runID)
	}
	return exportAndReport(*outDir, *runID, *format, runs)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: minefieldctl <run|simulate|live|serve|runs|export> [flags]", msg)
}
