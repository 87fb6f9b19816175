package stats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"minefield/internal/model"
)

const runRowSchema = "minefield_run_v1"

// RunRow is the columnar form of one generation record.
type RunRow struct {
	RunID      string    `parquet:"run_id,dict"`
	RunIndex   int32     `parquet:"run_index"`
	Generation int32     `parquet:"generation"`
	ChampionID string    `parquet:"champion_id,dict"`
	Fitness    float64   `parquet:"fitness"`
	Targets    int32     `parquet:"targets"`
	Won        bool      `parquet:"won"`
	Winner     string    `parquet:"winner,dict,optional"`
	ElapsedNS  int64     `parquet:"elapsed_ns"`
	Outputs    []float64 `parquet:"outputs"`
}

func RowFromRun(r model.Run) RunRow {
	row := RunRow{
		RunID:      r.RunID,
		RunIndex:   int32(r.RunIndex),
		Generation: int32(r.Generation),
		ChampionID: r.ChampionID,
		Fitness:    r.Fitness,
		Targets:    int32(r.Targets),
		Won:        r.Won(),
		ElapsedNS:  r.Elapsed.Nanoseconds(),
		Outputs:    append([]float64(nil), r.Outputs...),
	}
	if r.Winner != nil {
		row.Winner = *r.Winner
	}
	return row
}

func (row RunRow) Run() model.Run {
	r := model.Run{
		RunID:      row.RunID,
		RunIndex:   int(row.RunIndex),
		Generation: int(row.Generation),
		ChampionID: row.ChampionID,
		Fitness:    row.Fitness,
		Targets:    int(row.Targets),
		Elapsed:    time.Duration(row.ElapsedNS),
		Outputs:    append([]float64{}, row.Outputs...),
	}
	if row.Won {
		winner := row.Winner
		r.Winner = &winner
	}
	return r
}

// WriteRunsParquet writes runs as zstd-compressed parquet through a temp
// file renamed into place.
func WriteRunsParquet(outPath string, runs []model.Run) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	rows := make([]RunRow, len(runs))
	for i, r := range runs {
		rows[i] = RowFromRun(r)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", runRowSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

func ReadRunsParquet(path string) ([]model.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := parquet.NewGenericReader[RunRow](f)
	defer reader.Close()

	var out []model.Run
	buf := make([]RunRow, 128)
	for {
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			out = append(out, buf[i].Run())
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("read parquet: %w", err)
		}
		if n == 0 {
			return out, nil
		}
	}
}
