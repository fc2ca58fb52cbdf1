package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/fluidsim/internal/fluid"
	"github.com/san-kum/fluidsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	seriesFile    = "series.csv"
	densityFile   = "density.csv"
	snapshotsFile = "snapshots.csv"
)

var ErrCorrupt = errors.New("storage: malformed run file")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Name       string  `json:"name"`
	Emitter    string  `json:"emitter"`
	Seed       int64   `json:"seed"`
	Size       int     `json:"size"`
	Dt         float64 `json:"dt"`
	Diffusion  float64 `json:"diffusion"`
	Viscosity  float64 `json:"viscosity"`
	Iterations int     `json:"iterations"`
	Steps      int     `json:"steps"`
}

type RunMetadata struct {
	RunInfo
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	StepsTaken int                `json:"steps_taken"`
	Snapshots  int                `json:"snapshots"`
	Metrics    map[string]float64 `json:"metrics"`
	Errors     []string           `json:"errors,omitempty"`
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID, runDir, err := s.newRunDir(info.Name)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		RunInfo:    info,
		ID:         runID,
		Timestamp:  time.Now(),
		StepsTaken: result.StepsTaken,
		Snapshots:  len(result.Snapshots),
		Metrics:    finiteMetrics(result.Metrics),
	}
	for _, e := range result.Errors {
		meta.Errors = append(meta.Errors, e.Error())
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result); err != nil {
		return "", err
	}
	if err := writeField(filepath.Join(runDir, densityFile), result.Final, result.Size); err != nil {
		return "", err
	}
	if len(result.Snapshots) > 0 {
		if err := writeSnapshots(filepath.Join(runDir, snapshotsFile), result.Snapshots); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) newRunDir(name string) (string, string, error) {
	if name == "" {
		name = "run"
	}
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	runID := base
	for k := 1; ; k++ {
		dir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return runID, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s-%d", base, k)
	}
}

// finiteMetrics drops NaN and Inf values, which JSON cannot encode.
func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, fill func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// SeriesNames returns the metric columns of a result in a stable order.
func SeriesNames(result *sim.Result) []string {
	names := make([]string, 0, len(result.Series))
	for name := range result.Series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeSeries(path string, result *sim.Result) error {
	names := SeriesNames(result)
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write(append([]string{"time"}, names...)); err != nil {
			return err
		}
		for i, t := range result.Times {
			row := []string{formatFloat(t)}
			for _, name := range names {
				val := 0.0
				if i < len(result.Series[name]) {
					val = result.Series[name][i]
				}
				row = append(row, formatFloat(val))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeField(path string, f fluid.Field, n int) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for j := 0; j < n; j++ {
			row := make([]string, n)
			for i := 0; i < n; i++ {
				row[i] = formatFloat(f[i+j*n])
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSnapshots(path string, snaps []sim.Snapshot) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for _, snap := range snaps {
			row := make([]string, 0, len(snap.Density)+2)
			row = append(row, strconv.Itoa(snap.Step), formatFloat(snap.Time))
			for _, v := range snap.Density {
				row = append(row, formatFloat(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the most recent run, or nil when the store is empty.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, metadataFile, err)
	}

	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseRow(record []string) ([]float64, error) {
	vals := make([]float64, len(record))
	for i, s := range record {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// LoadSeries returns the per-step metric samples of a run keyed by metric
// name, plus the step times.
func (s *Store) LoadSeries(runID string) (map[string][]float64, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no header", ErrCorrupt, seriesFile)
	}

	header := records[0]
	series := make(map[string][]float64, len(header)-1)
	times := make([]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) != len(header) {
			return nil, nil, fmt.Errorf("%w: %s row has %d columns, want %d", ErrCorrupt, seriesFile, len(record), len(header))
		}
		vals, err := parseRow(record)
		if err != nil {
			return nil, nil, err
		}
		times = append(times, vals[0])
		for k, name := range header[1:] {
			series[name] = append(series[name], vals[k+1])
		}
	}

	return series, times, nil
}

// LoadDensity returns the final density field of a run and its side length.
func (s *Store) LoadDensity(runID string) (fluid.Field, int, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, densityFile))
	if err != nil {
		return nil, 0, err
	}

	n := len(records)
	field := make(fluid.Field, 0, n*n)
	for _, record := range records {
		if len(record) != n {
			return nil, 0, fmt.Errorf("%w: %s is not square", ErrCorrupt, densityFile)
		}
		vals, err := parseRow(record)
		if err != nil {
			return nil, 0, err
		}
		field = append(field, vals...)
	}
	return field, n, nil
}

// LoadSnapshots returns the density snapshots of a run. Runs saved without
// snapshots return an empty slice.
func (s *Store) LoadSnapshots(runID string) ([]sim.Snapshot, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, snapshotsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []sim.Snapshot{}, nil
		}
		return nil, err
	}

	snaps := make([]sim.Snapshot, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: short snapshot row", ErrCorrupt)
		}
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		vals, err := parseRow(record[1:])
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, sim.Snapshot{Step: step, Time: vals[0], Density: fluid.Field(vals[1:])})
	}
	return snaps, nil
}
