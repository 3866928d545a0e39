package render

import (
	_ "embed"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

//go:embed clusters.geojson
var clustersGeoJSON []byte

var defaultClusters = mustParseClusters(clustersGeoJSON)

// Cluster is a named service area drawn as an overlay.
type Cluster struct {
	Name    string
	Polygon orb.Polygon
}

// DefaultClusters returns the built-in cluster areas.
func DefaultClusters() []Cluster {
	out := make([]Cluster, len(defaultClusters))
	for i, c := range defaultClusters {
		out[i] = Cluster{Name: c.Name, Polygon: c.Polygon.Clone()}
	}
	return out
}

// ParseClusters reads cluster areas from a GeoJSON FeatureCollection. Polygon
// and MultiPolygon features are accepted; a feature's "name" property names
// the cluster.
func ParseClusters(data []byte) ([]Cluster, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse cluster geojson: %w", err)
	}

	var clusters []Cluster
	for i, f := range fc.Features {
		name := f.Properties.MustString("name", fmt.Sprintf("클러스터 %d", i+1))
		if f.Geometry == nil {
			return nil, fmt.Errorf("cluster feature %d: missing geometry", i)
		}
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			clusters = append(clusters, Cluster{Name: name, Polygon: g})
		case orb.MultiPolygon:
			for _, p := range g {
				clusters = append(clusters, Cluster{Name: name, Polygon: p})
			}
		default:
			return nil, fmt.Errorf("cluster feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
	}
	return clusters, nil
}

func mustParseClusters(data []byte) []Cluster {
	c, err := ParseClusters(data)
	if err != nil {
		panic(err)
	}
	return c
}

// ClusterAt returns the name of the first cluster containing p.
func ClusterAt(clusters []Cluster, p domain.LatLon) (string, bool) {
	point := orb.Point{p.Lon, p.Lat}
	for _, c := range clusters {
		if !c.Polygon.Bound().Contains(point) {
			continue
		}
		if planar.PolygonContains(c.Polygon, point) {
			return c.Name, true
		}
	}
	return "", false
}

func ringToPath(r orb.Ring) []domain.LatLon {
	path := make([]domain.LatLon, len(r))
	for i, pt := range r {
		path[i] = domain.LatLon{Lat: pt.Lat(), Lon: pt.Lon()}
	}
	return path
}
