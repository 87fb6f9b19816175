package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"minefield/internal/model"
)

const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

var csvHeader = []string{
	"run_id", "run_index", "generation", "champion_id", "fitness",
	"targets", "winner", "elapsed_ns", "outputs",
}

// ExportRuns writes runs to outDir as <runID>.<format> and returns the path.
func ExportRuns(outDir, runID, format string, runs []model.Run) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	format = strings.ToLower(format)
	path := filepath.Join(outDir, runID+"."+format)
	switch format {
	case FormatJSON:
		return path, WriteRunsJSON(path, runs)
	case FormatCSV:
		return path, WriteRunsCSVFile(path, runs)
	case FormatParquet:
		return path, WriteRunsParquet(path, runs)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func WriteRunsJSON(path string, runs []model.Run) error {
	if runs == nil {
		runs = []model.Run{}
	}
	return writeJSON(path, runs)
}

func ReadRunsJSON(path string) ([]model.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var runs []model.Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return runs, nil
}

func WriteRunsCSVFile(path string, runs []model.Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteRunsCSV(file, runs); err != nil {
		return err
	}
	return file.Sync()
}

// WriteRunsCSV writes one row per generation. Outputs are joined with ';'
// and the winner column is empty when the champion did not win.
func WriteRunsCSV(w io.Writer, runs []model.Run) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, run := range runs {
		winner := ""
		if run.Winner != nil {
			winner = *run.Winner
		}
		outputs := make([]string, len(run.Outputs))
		for i, v := range run.Outputs {
			outputs[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := writer.Write([]string{
			run.RunID,
			strconv.Itoa(run.RunIndex),
			strconv.Itoa(run.Generation),
			run.ChampionID,
			strconv.FormatFloat(run.Fitness, 'f', -1, 64),
			strconv.Itoa(run.Targets),
			winner,
			strconv.FormatInt(run.Elapsed.Nanoseconds(), 10),
			strings.Join(outputs, ";"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
