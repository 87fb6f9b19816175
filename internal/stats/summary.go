package stats

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"minefield/internal/model"
)

// Summary aggregates the generation records of one or more runs.
type Summary struct {
	Records      int
	Runs         int
	Wins         int
	FirstWin     int
	BestFitness  float64
	MeanFitness  float64
	TotalElapsed time.Duration
}

// Summarize folds runs into a Summary. FirstWin is the earliest generation
// whose champion won, or 0 when none did.
func Summarize(runs []model.Run) Summary {
	var s Summary
	seen := make(map[string]struct{})
	var total float64
	for _, r := range runs {
		s.Records++
		if _, ok := seen[r.RunID]; !ok {
			seen[r.RunID] = struct{}{}
			s.Runs++
		}
		if r.Won() {
			s.Wins++
			if s.FirstWin == 0 || r.Generation < s.FirstWin {
				s.FirstWin = r.Generation
			}
		}
		if s.Records == 1 || r.Fitness > s.BestFitness {
			s.BestFitness = r.Fitness
		}
		total += r.Fitness
		s.TotalElapsed += r.Elapsed
	}
	if s.Records > 0 {
		s.MeanFitness = total / float64(s.Records)
	}
	return s
}

func (s Summary) String() string {
	first := "none"
	if s.FirstWin > 0 {
		first = humanize.Ordinal(s.FirstWin) + " generation"
	}
	return fmt.Sprintf("%s records over %s runs, %s wins (first: %s), best %s, mean %s, elapsed %s",
		humanize.Comma(int64(s.Records)),
		humanize.Comma(int64(s.Runs)),
		humanize.Comma(int64(s.Wins)),
		first,
		humanize.FtoaWithDigits(s.BestFitness, 4),
		humanize.FtoaWithDigits(s.MeanFitness, 4),
		s.TotalElapsed.Round(time.Millisecond),
	)
}
