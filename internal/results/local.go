package results

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/axym-research/ingestbench/internal/bench"
)

// localStore writes one JSON file per workload under a results directory.
type localStore struct {
	dir string
}

func newLocalStore(dir string) (*localStore, error) {
	if dir == "" {
		dir = "results"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create results directory: %w", err)
	}
	return &localStore{dir: dir}, nil
}

func (s *localStore) Save(ctx context.Context, res *bench.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(s.dir, Key(res.Name))
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write result temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename result file: %w", err)
	}
	return nil
}

func (s *localStore) Load(ctx context.Context, name string) (*bench.Result, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, Key(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read result file: %w", err)
	}
	var res bench.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse result file: %w", err)
	}
	return &res, nil
}

func (s *localStore) List(ctx context.Context) ([]*bench.Result, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read results directory: %w", err)
	}

	var out []*bench.Result
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "ingest_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var res bench.Result
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out = append(out, &res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *localStore) Close() error {
	return nil
}
