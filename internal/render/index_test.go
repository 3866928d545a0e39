package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
)

func indexedScene() Scene {
	return Build(sceneEntities(), filter.NewState(filter.Catalog{}, filter.DefaultMapHeight), DefaultOptions())
}

func TestIndex_Search(t *testing.T) {
	ix := NewIndex(indexedScene())
	assert.Equal(t, 5, ix.Size())

	// Box around 가평읍 only.
	hits := ix.Search(orb.Bound{Min: orb.Point{127.49, 37.79}, Max: orb.Point{127.52, 37.84}})

	var ids []string
	for _, h := range hits {
		ids = append(ids, h.Kind+"/"+h.ID)
	}
	assert.Equal(t, []string{"cable/c1", "site/s1"}, ids)
}

func TestIndex_NearestSites(t *testing.T) {
	ix := NewIndex(indexedScene())

	hits := ix.NearestSites(domain.LatLon{Lat: 37.74, Lon: 127.43}, 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "s2", hits[0].ID)
	assert.Equal(t, "청평국소", hits[0].Label)
	assert.InDelta(t, 1400, hits[0].DistanceMeters, 300)

	all := ix.NearestSites(domain.LatLon{Lat: 37.74, Lon: 127.43}, 10)
	require.Len(t, all, 2, "only sites are returned")
	assert.Less(t, all[0].DistanceMeters, all[1].DistanceMeters)
}

func TestIndex_NearestSitesEmpty(t *testing.T) {
	ix := NewIndex(Scene{})
	assert.Empty(t, ix.NearestSites(domain.LatLon{Lat: 37.8, Lon: 127.5}, 3))
	assert.Empty(t, NewIndex(indexedScene()).NearestSites(domain.LatLon{}, 0))
}

func TestClip(t *testing.T) {
	scene := indexedScene()
	clipped := Clip(scene, orb.Bound{Min: orb.Point{127.39, 37.69}, Max: orb.Point{127.46, 37.76}})

	require.Len(t, clipped.Polylines, 1)
	assert.Equal(t, "c2", clipped.Polylines[0].ID)
	require.Len(t, clipped.Circles, 1)
	assert.Equal(t, "s2", clipped.Circles[0].ID)
	require.Len(t, clipped.Icons, 1)

	assert.Len(t, scene.Circles, 2, "clip does not modify its input")
}

func TestClip_BoundaryIsInclusiveAndExact(t *testing.T) {
	scene := Scene{Circles: []Circle{
		{ID: "onMaxLon", Coord: domain.LatLon{Lat: 37.75, Lon: 127.50}},
		{ID: "onMaxLat", Coord: domain.LatLon{Lat: 37.80, Lon: 127.45}},
		{ID: "onMinCorner", Coord: domain.LatLon{Lat: 37.70, Lon: 127.40}},
		{ID: "westOfMin", Coord: domain.LatLon{Lat: 37.75, Lon: 127.39995}},
		{ID: "southOfMin", Coord: domain.LatLon{Lat: 37.69995, Lon: 127.45}},
		{ID: "eastOfMax", Coord: domain.LatLon{Lat: 37.75, Lon: 127.50005}},
	}}

	clipped := Clip(scene, orb.Bound{Min: orb.Point{127.40, 37.70}, Max: orb.Point{127.50, 37.80}})

	var ids []string
	for _, c := range clipped.Circles {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"onMaxLon", "onMaxLat", "onMinCorner"}, ids)
}

func TestIndex_SearchZeroSizeBound(t *testing.T) {
	ix := NewIndex(Scene{Circles: []Circle{
		{ID: "here", Coord: domain.LatLon{Lat: 37.75, Lon: 127.45}},
		{ID: "near", Coord: domain.LatLon{Lat: 37.75, Lon: 127.45004}},
	}})

	hits := ix.Search(orb.Point{127.45, 37.75}.Bound())
	require.Len(t, hits, 1)
	assert.Equal(t, "here", hits[0].ID)
}
