package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
	"github.com/couchcryptid/wireline-recovery-map/internal/pipeline"
	"github.com/couchcryptid/wireline-recovery-map/internal/render"
)

// --- mocks ---

type fakeLoader struct {
	snaps     []pipeline.Snapshot // returned in turn, last one repeats
	loads     int
	refreshes int
	err       error
}

func (f *fakeLoader) next() (pipeline.Snapshot, error) {
	if f.err != nil {
		return pipeline.Snapshot{}, f.err
	}
	i := min(f.loads+f.refreshes-1, len(f.snaps)-1)
	return f.snaps[i], nil
}

func (f *fakeLoader) Load(_ context.Context) (pipeline.Snapshot, error) {
	f.loads++
	return f.next()
}

func (f *fakeLoader) Refresh(_ context.Context) (pipeline.Snapshot, error) {
	f.refreshes++
	return f.next()
}

// blockingLoader holds Refresh open until release is closed.
type blockingLoader struct {
	snap    pipeline.Snapshot
	next    pipeline.Snapshot
	started chan struct{}
	release chan struct{}
}

func (b *blockingLoader) Load(_ context.Context) (pipeline.Snapshot, error) {
	return b.snap, nil
}

func (b *blockingLoader) Refresh(ctx context.Context) (pipeline.Snapshot, error) {
	close(b.started)
	select {
	case <-b.release:
		return b.next, nil
	case <-ctx.Done():
		return pipeline.Snapshot{}, ctx.Err()
	}
}

type reverseGeocoder struct {
	address string
	err     error
}

func (r *reverseGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{}, domain.ErrNoMatch
}

func (r *reverseGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	if r.err != nil {
		return domain.GeocodingResult{}, r.err
	}
	if r.address == "" {
		return domain.GeocodingResult{}, domain.ErrNoMatch
	}
	return domain.GeocodingResult{FormattedAddress: r.address}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fixtures ---

func testSnapshot(categories ...string) pipeline.Snapshot {
	sites := []domain.RecoverySite{
		{ID: "s1", Name: "가평국소", Status: domain.StatusRecovered, Category: "선로불량", Geocoded: domain.NewCandidate(37.83, 127.51)},
		{ID: "s2", Name: "청평국소", Status: domain.StatusUnrecovered, Category: "정전/선로불량", DMSDerived: domain.NewCandidate(37.73, 127.42)},
		{ID: "s3", Name: "설악국소", Status: domain.StatusUnrecovered, Category: "유니트", DMSDerived: domain.NewCandidate(37.67, 127.49)},
	}
	if len(categories) > 0 {
		for i := range sites {
			sites[i].Category = categories[i%len(categories)]
		}
	}
	cables := []domain.CableSegment{
		{ID: "c1", Region: "가평읍", Path: []domain.LatLon{{Lat: 37.80, Lon: 127.50}, {Lat: 37.81, Lon: 127.51}}},
		{ID: "c2", Region: "청평면", Path: []domain.LatLon{{Lat: 37.70, Lon: 127.40}, {Lat: 37.71, Lon: 127.41}}},
	}
	progress := &dataset.Table{Header: []string{"구분"}, Rows: [][]string{{"이동기지국"}}}

	return pipeline.Snapshot{
		Entities: filter.Entities{Cables: cables, Sites: sites},
		Catalog:  filter.NewCatalog(cables, sites),
		Datasets: []pipeline.DatasetStatus{
			{Name: dataset.NameRecovery, Available: true},
			{Name: dataset.NameRepeater, Available: false, Reason: "missing"},
		},
		Progress: progress,
		Summary:  domain.NewRecoverySnapshot(sites, 1, nil),
	}
}

func newSession(loader Loader, geocoder domain.Geocoder) (*Session, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return New(loader, geocoder, render.DefaultOptions(), filter.DefaultMapHeight, discardLogger(), metrics), metrics
}

// --- tests ---

func TestSession_EmptyBeforeLoad(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)

	assert.False(t, s.Loaded())
	assert.Empty(t, s.Scene().Circles)
	assert.False(t, s.Summary().Available)
	assert.Equal(t, NoRecoveryDataMessage, s.Summary().Message)
}

func TestSession_LoadRendersDefaults(t *testing.T) {
	s, metrics := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)

	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Loaded())

	scene := s.Scene()
	assert.Empty(t, scene.Polylines, "cables start hidden")
	require.Len(t, scene.Circles, 2, "only unrecovered sites by default")
	assert.Equal(t, "s2", scene.Circles[0].ID)

	state := s.State()
	assert.Equal(t, []string{"선로불량", "유니트", "정전/선로불량"}, state.Categories)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RenderCycles), "one cycle at construction, one after load")
}

func TestSession_Dispatch(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)
	require.NoError(t, s.Load(context.Background()))

	state, err := s.Dispatch(filter.ShowCablesByRegion{Regions: []string{"청평면"}})
	require.NoError(t, err)
	assert.Equal(t, filter.CableByRegion, state.CableMode)
	require.Len(t, s.Scene().Polylines, 1)
	assert.Equal(t, "청평면", s.Scene().Polylines[0].Tooltip)

	_, err = s.Dispatch(filter.SetStatuses{Statuses: []domain.RecoveryStatus{domain.StatusRecovered}})
	require.NoError(t, err)
	require.Len(t, s.Scene().Circles, 1)
	assert.Equal(t, "s1", s.Scene().Circles[0].ID)

	_, err = s.Dispatch(filter.ToggleClusters{})
	require.NoError(t, err)
	assert.Len(t, s.Scene().Overlays, 5)

	before := s.State()
	_, err = s.Dispatch(filter.SetMapHeight{Height: 10})
	require.ErrorIs(t, err, filter.ErrInvalidAction)
	assert.Equal(t, before, s.State())
}

func TestSession_RefreshPrunesCustomizedCategories(t *testing.T) {
	loader := &fakeLoader{snaps: []pipeline.Snapshot{testSnapshot(), testSnapshot("선로불량", "정전")}}
	s, _ := newSession(loader, nil)
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Dispatch(filter.SetCategories{Categories: []string{"유니트", "선로불량"}})
	require.NoError(t, err)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, loader.refreshes)
	assert.Equal(t, []string{"선로불량"}, s.State().Categories)
}

func TestSession_LoadError(t *testing.T) {
	s, _ := newSession(&fakeLoader{err: errors.New("disk gone")}, nil)
	require.Error(t, s.Load(context.Background()))
	assert.False(t, s.Loaded())
}

func TestSession_Summary(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)
	require.NoError(t, s.Load(context.Background()))

	sum := s.Summary()
	assert.True(t, sum.Available)
	assert.Equal(t, 3, sum.Global.Total)
	assert.Equal(t, "33.3 %", sum.GlobalRate)
	assert.Equal(t, 2, sum.RM.Total)
	assert.Equal(t, "50.0 %", sum.RMRate)
	assert.Equal(t, 1, sum.Unmappable)

	_, err := s.Dispatch(filter.SetStatuses{Statuses: nil})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Summary().Global.Total, "summaries ignore the filter")
}

func TestSession_Tables(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)
	require.NoError(t, s.Load(context.Background()))

	progress := s.ProgressTable()
	assert.True(t, progress.Available)
	assert.Equal(t, []string{"구분"}, progress.Table.Header)

	repeaters := s.RepeaterTable()
	assert.False(t, repeaters.Available)
	assert.Equal(t, NoRepeaterDataMessage, repeaters.Message)
}

func TestSession_Reverse(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, &reverseGeocoder{address: "경기도 가평군 가평읍"})
	require.NoError(t, s.Load(context.Background()))

	res := s.Reverse(context.Background(), 37.845, 127.48)
	assert.Equal(t, "선택한 위치의 주소: 경기도 가평군 가평읍", res.Message)
	assert.False(t, res.Failed)
	assert.Equal(t, "클러스터 5", res.Cluster)
	require.NotEmpty(t, res.Nearby)
	assert.Equal(t, "s2", res.Nearby[0].ID, "only drawn sites are candidates")
}

func TestSession_ReverseFailures(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, &reverseGeocoder{err: errors.New("timeout")})
	require.NoError(t, s.Load(context.Background()))

	res := s.Reverse(context.Background(), 37.5, 127.0)
	assert.True(t, res.Failed)
	assert.Equal(t, "주소 변환 중 오류가 발생했습니다: timeout", res.Message)
	assert.Empty(t, res.Cluster)

	s2, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, &reverseGeocoder{})
	res = s2.Reverse(context.Background(), 37.5, 127.0)
	assert.Equal(t, "주소를 찾을 수 없습니다.", res.Message)
	assert.Empty(t, res.Nearby)
}

func TestSession_SceneWithin(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)
	require.NoError(t, s.Load(context.Background()))

	clipped := s.SceneWithin(orb.Bound{Min: orb.Point{127.40, 37.70}, Max: orb.Point{127.45, 37.75}})
	require.Len(t, clipped.Circles, 1)
	assert.Equal(t, "s2", clipped.Circles[0].ID)
}

func TestSession_ConcurrentDispatch(t *testing.T) {
	s, _ := newSession(&fakeLoader{snaps: []pipeline.Snapshot{testSnapshot()}}, nil)
	require.NoError(t, s.Load(context.Background()))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Dispatch(filter.ToggleClusters{})
		}()
		go func() {
			defer wg.Done()
			_ = s.Scene()
		}()
	}
	wg.Wait()

	assert.False(t, s.State().ShowClusters, "an even number of toggles")
}

func TestSession_ServesPreviousSnapshotDuringRefresh(t *testing.T) {
	loader := &blockingLoader{
		snap:    testSnapshot(),
		next:    testSnapshot("유니트"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, _ := newSession(loader, &reverseGeocoder{address: "경기도 가평군 가평읍"})
	require.NoError(t, s.Load(context.Background()))

	refreshed := make(chan error, 1)
	go func() { refreshed <- s.Refresh(context.Background()) }()
	<-loader.started

	served := make(chan struct{})
	go func() {
		defer close(served)
		assert.Len(t, s.Scene().Circles, 2)
		assert.True(t, s.Summary().Available)
		assert.Equal(t, "클러스터 5", s.Reverse(context.Background(), 37.845, 127.48).Cluster)
		_, err := s.Dispatch(filter.ToggleClusters{})
		assert.NoError(t, err)
	}()

	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("reads blocked while a refresh was running")
	}
	assert.Equal(t, []string{"선로불량", "유니트", "정전/선로불량"}, s.State().Categories)

	close(loader.release)
	require.NoError(t, <-refreshed)

	state := s.State()
	assert.Equal(t, []string{"유니트"}, state.Categories)
	assert.True(t, state.ShowClusters, "a dispatch made during the refresh survives it")
}
