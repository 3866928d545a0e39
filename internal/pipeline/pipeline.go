// Package pipeline loads the workbooks, normalizes and geocodes them, and
// produces the snapshot that filtering and rendering work from.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
)

// Publisher receives a summary after every completed load.
type Publisher interface {
	Publish(ctx context.Context, snapshot domain.RecoverySnapshot) error
}

// Purger is implemented by geocoders that memoize lookups.
type Purger interface {
	Purge()
}

// Sources names the input workbooks.
type Sources struct {
	CablePath     string
	RecoveryPath  string
	ProgressPath  string
	RepeaterSheet string
}

// DatasetStatus reports whether a dataset is available and how it loaded.
type DatasetStatus struct {
	Name        string              `json:"name"`
	Path        string              `json:"path"`
	Available   bool                `json:"available"`
	Reason      string              `json:"reason,omitempty"`
	Stats       dataset.Stats       `json:"stats"`
	Fingerprint dataset.Fingerprint `json:"fingerprint"`
}

// Snapshot is the normalized result of one load. It is never modified after
// it is returned.
type Snapshot struct {
	Entities  filter.Entities         `json:"-"`
	Catalog   filter.Catalog          `json:"catalog"`
	Datasets  []DatasetStatus         `json:"datasets"`
	Progress  *dataset.Table          `json:"-"` // nil when unavailable
	Repeaters *dataset.Table          `json:"-"` // nil when unavailable
	Summary   domain.RecoverySnapshot `json:"summary"`
}

// Dataset returns the status of the named dataset.
func (s Snapshot) Dataset(name string) (DatasetStatus, bool) {
	for _, d := range s.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return DatasetStatus{}, false
}

// Pipeline orchestrates loading. Loads are serialized; a load whose source
// files are all unchanged returns the previous snapshot.
type Pipeline struct {
	sources   Sources
	store     *dataset.Store
	geocoder  domain.Geocoder
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu      sync.Mutex
	last    *Snapshot
	lastKey string
}

// New creates a Pipeline. A nil geocoder disables address geocoding and a
// nil publisher disables snapshot publication.
func New(sources Sources, store *dataset.Store, geocoder domain.Geocoder, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if sources.RepeaterSheet == "" {
		sources.RepeaterSheet = dataset.RepeaterSheet
	}
	if geocoder != nil {
		metrics.GeocodeEnabled.Set(1)
	} else {
		metrics.GeocodeEnabled.Set(0)
	}
	return &Pipeline{
		sources:   sources,
		store:     store,
		geocoder:  geocoder,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a load has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no workbook load has completed yet")
	}
	return nil
}

// Load returns the current snapshot, reading and geocoding only when a
// source file changed since the previous load.
func (p *Pipeline) Load(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(ctx)
}

// Refresh forgets every memoized read and geocoding result and loads again.
func (p *Pipeline) Refresh(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.Invalidate()
	if purger, ok := p.geocoder.(Purger); ok {
		purger.Purge()
	}
	p.last = nil
	p.lastKey = ""
	p.logger.Info("caches invalidated, reloading")
	return p.load(ctx)
}

func (p *Pipeline) load(ctx context.Context) (Snapshot, error) {
	start := time.Now()

	cables := p.readSource(dataset.NameCable, p.sources.CablePath, "")
	recovery := p.readSource(dataset.NameRecovery, p.sources.RecoveryPath, "")
	progress := p.readSource(dataset.NameProgress, p.sources.ProgressPath, "")
	repeaters := p.readSource(dataset.NameRepeater, p.sources.ProgressPath, p.sources.RepeaterSheet)

	key := sourceKey(cables, recovery, progress, repeaters)
	if p.last != nil && key == p.lastKey {
		p.logger.Debug("sources unchanged, reusing snapshot")
		return *p.last, nil
	}

	var snap Snapshot
	cableStatus, segments := p.normalizeCables(cables)
	recoveryStatus, sites, unmappable, err := p.normalizeSites(ctx, recovery)
	if err != nil {
		return Snapshot{}, err
	}
	progressStatus, entries := p.normalizeProgress(progress)
	repeaterStatus := repeaters.status()
	repeaterStatus.Stats = dataset.Stats{Rows: repeaters.rows(), Loaded: repeaters.rows()}
	if repeaters.err == nil {
		snap.Repeaters = &repeaters.src.Table
	}
	if progress.err == nil {
		snap.Progress = &progress.src.Table
	}

	snap.Entities = filter.Entities{Cables: segments, Sites: sites, Progress: entries}
	snap.Catalog = filter.NewCatalog(segments, sites)
	snap.Datasets = []DatasetStatus{cableStatus, recoveryStatus, progressStatus, repeaterStatus}

	records := make(map[string]int, len(snap.Datasets))
	for _, d := range snap.Datasets {
		records[d.Name] = d.Stats.Loaded
		p.metrics.DatasetRecords.WithLabelValues(d.Name).Set(float64(d.Stats.Loaded))
		p.metrics.RecordsSkipped.WithLabelValues(d.Name).Set(float64(d.Stats.Skipped))
	}
	p.metrics.SitesUnmappable.Set(float64(unmappable))
	snap.Summary = domain.NewRecoverySnapshot(sites, unmappable, records)

	p.last = &snap
	p.lastKey = key
	p.metrics.ReloadDuration.Observe(time.Since(start).Seconds())
	p.metrics.PipelineReady.Set(1)
	p.ready.Store(true)

	p.logger.Info("load complete",
		"cables", len(segments),
		"sites", len(sites),
		"unmappable_sites", unmappable,
		"progress_entries", len(entries),
		"duration", time.Since(start),
	)

	p.publish(ctx, snap.Summary)
	return snap, nil
}

func (p *Pipeline) publish(ctx context.Context, snapshot domain.RecoverySnapshot) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, snapshot); err != nil {
		p.metrics.SnapshotErrors.Inc()
		p.logger.Warn("snapshot publish failed", "snapshot_id", snapshot.ID, "error", err)
		return
	}
	p.metrics.SnapshotsPublished.Inc()
}

// read is the outcome of reading one source.
type read struct {
	name string
	path string
	src  dataset.Source
	err  error
}

func (r read) status() DatasetStatus {
	st := DatasetStatus{Name: r.name, Path: r.path, Available: r.err == nil, Fingerprint: r.src.Fingerprint}
	if r.err != nil {
		st.Reason = r.err.Error()
	}
	return st
}

func (r read) rows() int {
	if r.err != nil {
		return 0
	}
	return len(r.src.Table.Rows)
}

func (p *Pipeline) readSource(name, path, sheet string) read {
	src, err := p.store.Load(name, path, sheet)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, dataset.ErrMissing) {
			level = slog.LevelInfo
		}
		p.logger.Log(context.Background(), level, "dataset unavailable", "dataset", name, "path", path, "error", err)
	}
	return read{name: name, path: path, src: src, err: err}
}

// sourceKey identifies the combined version of all sources. Unavailable
// sources contribute their error so a file appearing later changes the key.
func sourceKey(reads ...read) string {
	var b strings.Builder
	for _, r := range reads {
		b.WriteString(r.name)
		b.WriteByte('=')
		if r.err != nil {
			b.WriteString("!")
			b.WriteString(r.err.Error())
		} else {
			fp := r.src.Fingerprint
			b.WriteString(fp.Path)
			b.WriteByte('@')
			b.WriteString(fp.ModTime.UTC().Format(time.RFC3339Nano))
			b.WriteByte('#')
			b.WriteString(formatInt(fp.Size))
		}
		b.WriteByte(';')
	}
	return b.String()
}
