package stats

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"minefield/internal/model"
)

func sampleRuns() []model.Run {
	winner := "seed-7"
	return []model.Run{
		{RunID: "r1", RunIndex: 0, Generation: 1, ChampionID: "seed-0", Fitness: 0.5, Targets: 3, Outputs: []float64{0.1, 0.9}, Elapsed: 3 * time.Millisecond},
		{RunID: "r1", RunIndex: 0, Generation: 2, ChampionID: "seed-7", Fitness: 1, Targets: 3, Outputs: []float64{}, Winner: &winner, Elapsed: 5 * time.Millisecond},
	}
}

func TestWriteRunsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRunsCSV(&buf, sampleRuns()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(csvHeader, ",") {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][6] != "" || records[1][8] != "0.1;0.9" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][6] != "seed-7" || records[2][4] != "1" || records[2][7] != "5000000" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
}

func TestExportRunsJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportRuns(dir, "r1", "JSON", sampleRuns())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if path != filepath.Join(dir, "r1.json") {
		t.Fatalf("unexpected path %s", path)
	}
	runs, err := ReadRunsJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(runs) != 2 || runs[0].Won() || !runs[1].Won() || *runs[1].Winner != "seed-7" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[1].Elapsed != 5*time.Millisecond {
		t.Fatalf("elapsed not preserved: %v", runs[1].Elapsed)
	}
}

func TestExportRunsRejectsUnknownFormat(t *testing.T) {
	if _, err := ExportRuns(t.TempDir(), "r1", "xml", nil); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := ExportRuns(t.TempDir(), "", FormatJSON, nil); err == nil {
		t.Fatal("expected missing run id error")
	}
}

func TestExportRunsEmptyJSONIsArray(t *testing.T) {
	path, err := ExportRuns(t.TempDir(), "empty", FormatJSON, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	runs, err := ReadRunsJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Fatalf("expected empty array, got %#v", runs)
	}
}
