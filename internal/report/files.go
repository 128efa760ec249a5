package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// WriteCSV writes one row per process with its category and heavy flags.
func WriteCSV(w io.Writer, s model.Snapshot) error {
	heavyCPU := make(map[int]bool)
	for _, warn := range s.WarningsOf(model.WarnHeavyCPU) {
		heavyCPU[warn.PID] = true
	}
	heavyRAM := make(map[int]bool)
	for _, warn := range s.WarningsOf(model.WarnHeavyRAM) {
		heavyRAM[warn.PID] = true
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "PID", "Category", "CPU %", "RAM MB", "Heavy CPU", "Heavy RAM"}); err != nil {
		return err
	}
	for _, p := range s.Processes {
		row := []string{
			p.Name,
			strconv.Itoa(p.PID),
			string(p.Category),
			strconv.FormatFloat(p.CPUPercent, 'f', -1, 64),
			strconv.FormatFloat(p.RAMMB(), 'f', 1, 64),
			strconv.FormatBool(heavyCPU[p.PID]),
			strconv.FormatBool(heavyRAM[p.PID]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the snapshot as indented JSON.
func WriteJSON(w io.Writer, s model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteRun stores summary.txt, report.csv, report.json and the raw source
// dumps under dir/run_<timestamp>, returning the directory.
func WriteRun(dir string, s model.Snapshot, raw map[model.Section]string) (string, error) {
	runDir := filepath.Join(dir, "run_"+s.Timestamp.Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	sections := make([]string, 0, len(raw))
	for sec := range raw {
		sections = append(sections, string(sec))
	}
	sort.Strings(sections)
	for _, sec := range sections {
		name := filepath.Join(runDir, sec+"_raw.txt")
		if err := os.WriteFile(name, []byte(raw[model.Section(sec)]), 0o644); err != nil {
			return runDir, fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := os.WriteFile(filepath.Join(runDir, "summary.txt"), []byte(Render(s)), 0o644); err != nil {
		return runDir, fmt.Errorf("write summary: %w", err)
	}
	if err := writeFile(filepath.Join(runDir, "report.csv"), func(w io.Writer) error { return WriteCSV(w, s) }); err != nil {
		return runDir, err
	}
	if err := writeFile(filepath.Join(runDir, "report.json"), func(w io.Writer) error { return WriteJSON(w, s) }); err != nil {
		return runDir, err
	}
	return runDir, nil
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
