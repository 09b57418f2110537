package dataset

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
)

// ColumnReport describes one generated column.
type ColumnReport struct {
	Name     string        `json:"name"`
	Rows     int           `json:"rows"`
	Duration time.Duration `json:"duration_ns"`
	WorkerID int           `json:"worker_id"`
}

// OutputReport describes one written file.
type OutputReport struct {
	Format      string        `json:"format"`
	Path        string        `json:"path"`
	Compression string        `json:"compression"`
	Bytes       int64         `json:"bytes"`
	Duration    time.Duration `json:"duration_ns"`
}

// PublishReport describes a dataset streamed over ZeroMQ.
type PublishReport struct {
	Endpoint string `json:"endpoint"`
	Messages int    `json:"messages"`
	Rows     int64  `json:"rows"`
	Bytes    int64  `json:"bytes"`
}

// Report summarizes a completed run.
type Report struct {
	RunID     string         `json:"run_id"`
	Seed      uint64         `json:"seed"`
	Seeded    bool           `json:"seeded"`
	Rows      int            `json:"rows"`
	Words     int            `json:"words"`
	Columns   []ColumnReport `json:"columns"`
	Outputs   []OutputReport `json:"outputs"`
	Published *PublishReport `json:"published,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration_ns"`
}

// Output returns the report of the named format, or nil.
func (r *Report) Output(format string) *OutputReport {
	for i := range r.Outputs {
		if r.Outputs[i].Format == format {
			return &r.Outputs[i]
		}
	}
	return nil
}

// WriteReport saves report as indented JSON.
func WriteReport(path string, report *Report) error {
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport loads a report saved by WriteReport.
func ReadReport(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}
