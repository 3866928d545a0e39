package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

func testEntities() Entities {
	return Entities{
		Cables: []domain.CableSegment{
			{ID: "c1", Region: "가평읍"},
			{ID: "c2", Region: "청평면"},
			{ID: "c3", Region: "가평읍"},
		},
		Sites: []domain.RecoverySite{
			{ID: "s1", Status: domain.StatusRecovered, Category: "정전"},
			{ID: "s2", Status: domain.StatusUnrecovered, Category: "선로불량"},
			{ID: "s3", Status: domain.StatusUnrecovered, Category: "유니트"},
			{ID: "s4", Status: domain.StatusUnrecovered, Category: ""},
			{ID: "s5", Status: domain.StatusUnknown, StatusRaw: "확인중", Category: "정전"},
		},
		Progress: []domain.ProgressEntry{{ID: "p1"}, {ID: "p2"}},
	}
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}

func siteIDs(e Entities) []string {
	return ids(e.Sites, func(s domain.RecoverySite) string { return s.ID })
}

func cableIDs(e Entities) []string {
	return ids(e.Cables, func(c domain.CableSegment) string { return c.ID })
}

func TestApply_Defaults(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)

	got := Apply(testEntities(), s)

	assert.Empty(t, got.Cables, "cables are hidden by default")
	assert.Equal(t, []string{"s2", "s3"}, siteIDs(got))
	assert.Len(t, got.Progress, 2)
}

func TestApply_CableModes(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)

	s.CableMode = CableAll
	assert.Equal(t, []string{"c1", "c2", "c3"}, cableIDs(Apply(testEntities(), s)))

	s.CableMode = CableByRegion
	s.Regions = []string{"가평읍"}
	assert.Equal(t, []string{"c1", "c3"}, cableIDs(Apply(testEntities(), s)))

	s.Regions = nil
	assert.Empty(t, Apply(testEntities(), s).Cables)
}

func TestApply_StatusAndCategoryCompose(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)
	s.Statuses = []domain.RecoveryStatus{domain.StatusRecovered, domain.StatusUnrecovered}
	s.Categories = []string{"정전", "선로불량"}

	assert.Equal(t, []string{"s1", "s2"}, siteIDs(Apply(testEntities(), s)))
}

func TestApply_EmptyCategorySelectionDisablesAxis(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)
	s.Categories = []string{}

	assert.Equal(t, []string{"s2", "s3", "s4"}, siteIDs(Apply(testEntities(), s)))
}

func TestApply_EmptyStatusSelectionPassesNothing(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)
	s.Statuses = nil

	assert.Empty(t, Apply(testEntities(), s).Sites)
}

func TestApply_UnknownStatusSelectable(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)
	s.Statuses = []domain.RecoveryStatus{domain.StatusUnknown}

	assert.Equal(t, []string{"s5"}, siteIDs(Apply(testEntities(), s)))
}

func TestApply_Idempotent(t *testing.T) {
	s := NewState(testCatalog(), DefaultMapHeight)
	s.CableMode = CableByRegion
	s.Regions = []string{"청평면"}
	s.Statuses = domain.RecoveryStatuses()

	once := Apply(testEntities(), s)
	twice := Apply(once, s)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Apply is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestApply_DoesNotMutateInputs(t *testing.T) {
	e := testEntities()
	s := NewState(testCatalog(), DefaultMapHeight)
	s.CableMode = CableAll
	eBefore, sBefore := testEntities(), s.Clone()

	got := Apply(e, s)
	require.NotEmpty(t, got.Sites)
	got.Sites[0].ID = "changed"
	got.Cables[0].ID = "changed"

	if diff := cmp.Diff(eBefore, e); diff != "" {
		t.Errorf("entities mutated (-before +after):\n%s", diff)
	}
	assert.Equal(t, sBefore, s)
}
