package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunsParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.parquet")
	in := sampleRuns()
	if err := WriteRunsParquet(path, in); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}

	out, err := ReadRunsParquet(path)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d rows, got %d", len(in), len(out))
	}
	if out[0].Won() || out[0].ChampionID != "seed-0" || len(out[0].Outputs) != 2 || out[0].Outputs[1] != 0.9 {
		t.Fatalf("unexpected first row: %+v", out[0])
	}
	if !out[1].Won() || *out[1].Winner != "seed-7" || out[1].Elapsed != in[1].Elapsed || out[1].Targets != 3 {
		t.Fatalf("unexpected second row: %+v", out[1])
	}
}

func TestRowFromRunWithoutWinner(t *testing.T) {
	row := RowFromRun(sampleRuns()[0])
	if row.Won || row.Winner != "" || row.Generation != 1 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if back := row.Run(); back.Winner != nil || back.Fitness != 0.5 {
		t.Fatalf("unexpected run: %+v", back)
	}
}
