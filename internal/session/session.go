// Package session holds one user's map session: the loaded snapshot, the
// filter state and the scene rendered from them. All access is serialized so
// the state has a single writer even when driven by concurrent requests.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
	"github.com/couchcryptid/wireline-recovery-map/internal/pipeline"
	"github.com/couchcryptid/wireline-recovery-map/internal/render"
)

// Messages shown in place of missing data.
const (
	NoRecoveryDataMessage = "복구 현황 데이터가 없습니다."
	NoProgressDataMessage = "진행 현황 데이터가 없습니다."
	NoRepeaterDataMessage = "'진행현황.xlsx' 파일의 'Sheet2'를 찾을 수 없거나 데이터가 없습니다."
)

// nearbyLimit is how many sites a reverse lookup reports.
const nearbyLimit = 3

// Loader produces snapshots. *pipeline.Pipeline implements it.
type Loader interface {
	Load(ctx context.Context) (pipeline.Snapshot, error)
	Refresh(ctx context.Context) (pipeline.Snapshot, error)
}

// Session is safe for concurrent use.
type Session struct {
	loader   Loader
	geocoder domain.Geocoder
	opts     render.Options
	logger   *slog.Logger
	metrics  *observability.Metrics

	// loadMu orders loads so snapshots are adopted in the order they were
	// produced. mu guards everything below and is never held across a load.
	loadMu sync.Mutex

	mu     sync.Mutex
	loaded bool
	snap   pipeline.Snapshot
	state  filter.State
	scene  render.Scene
	index  *render.Index
}

// New creates a session. geocoder serves reverse lookups and may be nil.
func New(loader Loader, geocoder domain.Geocoder, opts render.Options, mapHeight int, logger *slog.Logger, metrics *observability.Metrics) *Session {
	s := &Session{
		loader:   loader,
		geocoder: geocoder,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		state:    filter.NewState(filter.Catalog{}, mapHeight),
	}
	s.rerender()
	return s
}

// Load performs the initial load, or reuses the current snapshot when the
// sources are unchanged.
// Reads and dispatches keep being served from the previous snapshot while the
// load runs.
func (s *Session) Load(ctx context.Context) error {
	return s.reload(ctx, s.loader.Load)
}

// Refresh drops every cache and reloads from disk.
func (s *Session) Refresh(ctx context.Context) error {
	return s.reload(ctx, s.loader.Refresh)
}

func (s *Session) reload(ctx context.Context, load func(context.Context) (pipeline.Snapshot, error)) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	snap, err := load(ctx)
	if err != nil {
		return err
	}
	s.adopt(snap)
	return nil
}

func (s *Session) adopt(snap pipeline.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap
	s.loaded = true
	next, _ := filter.Reduce(s.state, filter.CatalogLoaded{Catalog: snap.Catalog})
	s.state = next
	s.rerender()
}

// Dispatch applies one filter action and re-renders. On error the state is
// unchanged.
func (s *Session) Dispatch(a filter.Action) (filter.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := filter.Reduce(s.state, a)
	if err != nil {
		return s.state.Clone(), err
	}
	s.state = next
	s.logger.Debug("filter action applied", "action", a.Name())
	s.rerender()
	return s.state.Clone(), nil
}

// rerender runs one filter and render cycle. Callers hold mu.
func (s *Session) rerender() {
	start := time.Now()
	visible := filter.Apply(s.snap.Entities, s.state)
	s.scene = render.Build(visible, s.state, s.opts)
	s.index = render.NewIndex(s.scene)
	s.metrics.RenderCycles.Inc()
	s.metrics.RenderDuration.Observe(time.Since(start).Seconds())
}

// State returns a copy of the filter state.
func (s *Session) State() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Scene returns the current scene.
func (s *Session) Scene() render.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

// SceneWithin returns the current scene clipped to b.
func (s *Session) SceneWithin(b orb.Bound) render.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return render.Clip(s.scene, b)
}

// Datasets reports the status of every source of the current snapshot.
func (s *Session) Datasets() []pipeline.DatasetStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pipeline.DatasetStatus(nil), s.snap.Datasets...)
}

// Summaries is the metrics block: every mappable site and the wired RM subset.
type Summaries struct {
	Available  bool           `json:"available"`
	Message    string         `json:"message,omitempty"`
	Global     domain.Summary `json:"global"`
	GlobalRate string         `json:"global_rate"`
	RM         domain.Summary `json:"rm"`
	RMRate     string         `json:"rm_rate"`
	Unmappable int            `json:"unmappable"`
	LoadedAt   time.Time      `json:"loaded_at"`
}

// Summary returns the metrics of the current snapshot. The values do not
// depend on the filter state.
func (s *Session) Summary() Summaries {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := s.snap.Summary
	out := Summaries{
		Global:     sum.Summary,
		GlobalRate: sum.Summary.RateLabel(),
		RM:         sum.RMSummary,
		RMRate:     sum.RMSummary.RateLabel(),
		Unmappable: sum.Unmappable,
		LoadedAt:   sum.LoadedAt,
	}
	if d, ok := s.snap.Dataset(dataset.NameRecovery); ok && d.Available {
		out.Available = true
	} else {
		out.Message = NoRecoveryDataMessage
	}
	return out
}

// TableView is a verbatim table or the reason it is missing.
type TableView struct {
	Available bool           `json:"available"`
	Message   string         `json:"message,omitempty"`
	Table     *dataset.Table `json:"table,omitempty"`
}

// ProgressTable returns the progress sheet as loaded.
func (s *Session) ProgressTable() TableView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tableView(s.snap.Progress, NoProgressDataMessage)
}

// RepeaterTable returns the repeater sheet as loaded.
func (s *Session) RepeaterTable() TableView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tableView(s.snap.Repeaters, NoRepeaterDataMessage)
}

func tableView(t *dataset.Table, missing string) TableView {
	if t == nil || len(t.Rows) == 0 {
		return TableView{Message: missing}
	}
	return TableView{Available: true, Table: t}
}

// ReverseResult answers a map click.
type ReverseResult struct {
	domain.ReverseLookup
	Cluster string       `json:"cluster,omitempty"`
	Nearby  []render.Hit `json:"nearby"`
}

// Reverse describes a clicked point: its address, the cluster it falls in
// and the nearest drawn sites. The provider call runs outside the session
// lock.
func (s *Session) Reverse(ctx context.Context, lat, lon float64) ReverseResult {
	point := domain.LatLon{Lat: lat, Lon: lon}

	s.mu.Lock()
	nearby := s.index.NearestSites(point, nearbyLimit)
	s.mu.Unlock()

	out := ReverseResult{
		ReverseLookup: domain.DescribeLocation(ctx, lat, lon, s.geocoder, s.logger),
		Nearby:        nearby,
	}
	if name, ok := render.ClusterAt(s.opts.Clusters, point); ok {
		out.Cluster = name
	}
	return out
}

// Loaded reports whether a load has completed.
func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
