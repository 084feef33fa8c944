package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/serial"
)

const (
	metadataFile = "metadata.json"
	snapshotFile = "snapshot.json"
	paramsFile   = "params.csv"
)

// Dir keeps one directory per snapshot under baseDir.
type Dir struct {
	baseDir string
}

func NewDir(baseDir string) *Dir {
	return &Dir{baseDir: baseDir}
}

func (s *Dir) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Dir) Close() error { return nil }

func (s *Dir) Save(ctx context.Context, m *model.Model, note string) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	snap, err := serial.Take(m)
	if err != nil {
		return Metadata{}, err
	}
	meta := newMetadata(m, note)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return Metadata{}, err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return Metadata{}, err
	}
	if err := writeJSON(filepath.Join(runDir, snapshotFile), snap); err != nil {
		return Metadata{}, err
	}
	if err := writeParams(filepath.Join(runDir, paramsFile), paramRows(m)); err != nil {
		return Metadata{}, err
	}
	return meta, nil
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

func writeParams(path string, rows []ParamRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "value", "free"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Name, formatFloat(r.Value), strconv.FormatBool(r.Free)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable snapshot, oldest first. Directories without
// valid metadata are skipped.
func (s *Dir) List(ctx context.Context) ([]Metadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, err
	}

	runs := make([]Metadata, 0)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		meta, err := s.loadMetadata(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Dir) loadMetadata(id string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Dir) Load(ctx context.Context, id string) (*serial.Snapshot, Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, Metadata{}, err
	}
	if id == "" || filepath.Base(id) != id {
		return nil, Metadata{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	meta, err := s.loadMetadata(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Metadata{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, Metadata{}, err
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, id, snapshotFile))
	if err != nil {
		return nil, Metadata{}, err
	}
	var snap serial.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, Metadata{}, fmt.Errorf("%w: %v", serial.ErrMalformed, err)
	}
	return &snap, *meta, nil
}

// LoadParams reads the working parameter table written next to a snapshot.
func (s *Dir) LoadParams(ctx context.Context, id string) ([]ParamRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, id, paramsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []ParamRow{}, nil
	}

	rows := make([]ParamRow, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != 3 {
			return nil, fmt.Errorf("%w: params row %v", serial.ErrMalformed, record)
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", serial.ErrMalformed, err)
		}
		free, err := strconv.ParseBool(record[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", serial.ErrMalformed, err)
		}
		rows = append(rows, ParamRow{Name: record[0], Value: v, Free: free})
	}
	return rows, nil
}
