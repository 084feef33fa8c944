// Package storage persists model snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/modelspace/internal/model"
	"github.com/san-kum/modelspace/internal/param"
	"github.com/san-kum/modelspace/internal/serial"
)

const (
	BackendDir    = "dir"
	BackendSQLite = "sqlite"
)

var (
	ErrNotFound       = errors.New("storage: snapshot not found")
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

type Metadata struct {
	ID        string    `json:"id"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
	Params    int       `json:"params"`
	Free      int       `json:"free"`
	Reparam   string    `json:"reparam,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// ParamRow is one working parameter as listed next to a snapshot.
type ParamRow struct {
	Name  string
	Value float64
	Free  bool
}

// Store saves and loads snapshots. Snapshots hold original-space values;
// the reparam kind is recorded in the metadata only.
type Store interface {
	Save(ctx context.Context, m *model.Model, note string) (Metadata, error)
	List(ctx context.Context) ([]Metadata, error)
	Load(ctx context.Context, id string) (*serial.Snapshot, Metadata, error)
	LoadParams(ctx context.Context, id string) ([]ParamRow, error)
	Close() error
}

var (
	_ Store = (*Dir)(nil)
	_ Store = (*SQLite)(nil)
)

// Open returns the named backend rooted at dataDir.
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendDir, "":
		s := NewDir(dataDir)
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, err
		}
		return OpenSQLite(filepath.Join(dataDir, "models.db"))
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
}

func newMetadata(m *model.Model, note string) Metadata {
	meta := Metadata{
		ID:        uuid.NewString(),
		Model:     m.Schema().Name(),
		Timestamp: time.Now().UTC(),
		Params:    m.Len(),
		Free:      m.FreeParamsLen(),
		Note:      note,
	}
	if r := m.Reparam(); r != nil {
		meta.Reparam = r.Kind()
	}
	return meta
}

func paramRows(m *model.Model) []ParamRow {
	names := m.ParamNames()
	rows := make([]ParamRow, len(names))
	for i, name := range names {
		rows[i] = ParamRow{
			Name:  name,
			Value: m.ParamGet(i),
			Free:  m.ParamFitType(i) == param.Free,
		}
	}
	return rows
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
