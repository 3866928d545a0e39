package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
)

// ErrMissing wraps the error for a workbook that does not exist.
var ErrMissing = errors.New("workbook not found")

// Fingerprint identifies one version of a source file.
type Fingerprint struct {
	Path    string    `json:"path"`
	Sheet   string    `json:"sheet,omitempty"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Source is a table read from disk together with the file version it came from.
type Source struct {
	Table       Table
	Fingerprint Fingerprint
	Cached      bool
}

// Same reports whether both fingerprints name the same file version.
func (f Fingerprint) Same(o Fingerprint) bool {
	return f.Path == o.Path && f.Sheet == o.Sheet && f.Size == o.Size && f.ModTime.Equal(o.ModTime)
}

type memoKey struct {
	path  string
	sheet string
}

// Store memoizes table reads by file identity. A read is reused while the
// file's path, modification time and size are unchanged.
type Store struct {
	mu      sync.Mutex
	entries map[memoKey]Source
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewStore creates an empty store.
func NewStore(metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{
		entries: make(map[memoKey]Source),
		metrics: metrics,
		logger:  logger,
	}
}

// Load returns the named sheet of path, reading the workbook only when its
// fingerprint changed since the last read. name labels logs and metrics.
func (s *Store) Load(name, path, sheet string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.metrics.DatasetLoads.WithLabelValues(name, "missing").Inc()
			return Source{}, fmt.Errorf("%s %s: %w", name, path, ErrMissing)
		}
		s.metrics.DatasetLoads.WithLabelValues(name, "error").Inc()
		return Source{}, fmt.Errorf("stat %s: %w", path, err)
	}

	fp := Fingerprint{Path: path, Sheet: sheet, ModTime: info.ModTime(), Size: info.Size()}
	key := memoKey{path: path, sheet: sheet}

	s.mu.Lock()
	defer s.mu.Unlock()

	if src, ok := s.entries[key]; ok && src.Fingerprint.Same(fp) {
		s.metrics.DatasetLoads.WithLabelValues(name, "cached").Inc()
		src.Cached = true
		return src, nil
	}

	start := time.Now()
	table, err := ReadTable(path, sheet)
	if err != nil {
		delete(s.entries, key)
		s.metrics.DatasetLoads.WithLabelValues(name, "error").Inc()
		return Source{}, err
	}

	src := Source{Table: table, Fingerprint: fp}
	s.entries[key] = src
	s.metrics.DatasetLoads.WithLabelValues(name, "loaded").Inc()
	s.logger.Info("workbook loaded",
		"dataset", name,
		"path", path,
		"sheet", table.Sheet,
		"rows", len(table.Rows),
		"duration", time.Since(start),
	)
	return src, nil
}

// Invalidate forgets every memoized read.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}
