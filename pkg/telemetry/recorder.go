package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// Recorder appends FrameStats records to a CSV file. Returns nil from
// NewRecorder when dir is empty, and every method tolerates a nil receiver,
// so callers can leave recording disabled without guarding each call site.
type Recorder struct {
	file          *os.File
	headerWritten bool
}

// NewRecorder creates dir and opens flock.csv inside it for writing.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "flock.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating flock.csv: %w", err)
	}
	return &Recorder{file: f}, nil
}

// Write appends one record; the first call also writes the header row.
func (r *Recorder) Write(stats FrameStats) error {
	if r == nil {
		return nil
	}
	records := []FrameStats{stats}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.file); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		r.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, r.file); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// Close flushes and closes the output file.
func (r *Recorder) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}
