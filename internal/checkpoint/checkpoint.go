// Package checkpoint persists progress snapshots for long-running batched
// loads, so external monitors can inspect progress and a crash leaves the
// last successfully written snapshot intact.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/axym-research/ingestbench/internal/bench"
)

// ErrNoCheckpoint is returned when no checkpoint exists at the given path.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Status is the lifecycle state recorded in a checkpoint.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// State is one progress snapshot. The derived fields are recomputed from the
// journal's fixed start instant on every write, never carried over from a
// previous snapshot.
type State struct {
	RowsLoaded     int64     `json:"rows_loaded"`
	TotalRows      int64     `json:"total_rows"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	RowsPerSecond  float64   `json:"rows_per_second"`
	PctComplete    float64   `json:"pct_complete"`
	Status         Status    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// Journal records progress snapshots. The caller controls write cadence;
// the journal only persists state atomically when asked.
type Journal interface {
	// Write persists the current progress. Derived rates and percentages
	// are computed from the journal's start instant and the current time.
	Write(ctx context.Context, rowsLoaded, totalRows int64, status Status) error

	// Path returns the checkpoint file path, or "" for a no-op journal.
	Path() string
}

// Config configures a journal.
type Config struct {
	Enabled bool
	Path    string
	// Observer, if set, is invoked with every successfully written state.
	Observer func(State)
}

// New creates a journal. The start instant for all derived fields is
// captured here, at operation start.
func New(cfg Config) (Journal, error) {
	if !cfg.Enabled {
		return &noopJournal{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	return &fileJournal{
		path:     cfg.Path,
		start:    time.Now(),
		observer: cfg.Observer,
	}, nil
}

// fileJournal persists snapshots to a single JSON file via atomic replace.
type fileJournal struct {
	path     string
	start    time.Time
	observer func(State)
}

func (j *fileJournal) Write(ctx context.Context, rowsLoaded, totalRows int64, status Status) error {
	now := time.Now()
	elapsed := now.Sub(j.start).Seconds()

	st := State{
		RowsLoaded:     rowsLoaded,
		TotalRows:      totalRows,
		ElapsedSeconds: bench.Round3(elapsed),
		Status:         status,
		Timestamp:      now.UTC(),
	}
	if elapsed > 0 && rowsLoaded > 0 {
		st.RowsPerSecond = bench.Round1(float64(rowsLoaded) / elapsed)
	}
	if totalRows > 0 {
		st.PctComplete = bench.Round1(float64(rowsLoaded) / float64(totalRows) * 100)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	// Atomic replace: a crash mid-write must never corrupt the previous
	// snapshot.
	tempPath := j.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write checkpoint temp file: %w", err)
	}
	if err := os.Rename(tempPath, j.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename checkpoint file: %w", err)
	}

	if j.observer != nil {
		j.observer(st)
	}
	return nil
}

func (j *fileJournal) Path() string {
	return j.path
}

// noopJournal is used when checkpointing is disabled.
type noopJournal struct{}

func (j *noopJournal) Write(ctx context.Context, rowsLoaded, totalRows int64, status Status) error {
	return nil
}

func (j *noopJournal) Path() string {
	return ""
}

// Load reads the checkpoint at path. External monitors use this to inspect
// a point-in-time progress snapshot.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoCheckpoint
		}
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse checkpoint file: %w", err)
	}
	return &st, nil
}
