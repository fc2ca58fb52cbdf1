package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	Metadata RunMetadata          `json:"metadata"`
	Times    []float64            `json:"times"`
	Series   map[string][]float64 `json:"series"`
	Density  [][]float64          `json:"density"`
}

// ExportJSON writes a run's metadata, metric series and final density as one
// JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, times, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}
	field, n, err := s.LoadDensity(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Metadata: *meta,
		Times:    times,
		Series:   series,
		Density:  make([][]float64, n),
	}
	for j := 0; j < n; j++ {
		data.Density[j] = []float64(field[j*n : (j+1)*n])
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
