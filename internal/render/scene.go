// Package render turns filtered entities into drawable map primitives. Styles
// come from a fixed rule table, so a scene can be checked without a map
// library.
package render

import (
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
)

// BaseLayer is a selectable tile layer.
type BaseLayer struct {
	Name        string `json:"name" toml:"name"`
	URL         string `json:"url" toml:"url"`
	Attribution string `json:"attribution" toml:"attribution"`
}

// DefaultBaseLayers are the street and satellite layers.
func DefaultBaseLayers() []BaseLayer {
	return []BaseLayer{
		{
			Name:        "일반 지도",
			URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
			Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
		},
		{
			Name:        "위성 지도",
			URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
			Attribution: "Esri",
		},
	}
}

// Options are the fixed view parameters of a scene.
type Options struct {
	Center     domain.LatLon
	Zoom       int
	BaseLayers []BaseLayer
	Clusters   []Cluster
}

// DefaultOptions centres the map on Gapyeong.
func DefaultOptions() Options {
	return Options{
		Center:     domain.LatLon{Lat: 37.8313, Lon: 127.5095},
		Zoom:       11,
		BaseLayers: DefaultBaseLayers(),
		Clusters:   DefaultClusters(),
	}
}

const (
	cableTooltip       = "광케이블"
	clusterLayerName   = "클러스터 영역"
	provenanceLabelKey = "위치정보 소스"
)

// Polyline is a drawn cable segment.
type Polyline struct {
	ID      string          `json:"id"`
	Path    []domain.LatLon `json:"path"`
	Tooltip string          `json:"tooltip"`
	Style   PolylineStyle   `json:"style"`
}

// Circle is a drawn recovery site.
type Circle struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Coord      domain.LatLon         `json:"coord"`
	Status     domain.RecoveryStatus `json:"status"`
	Category   string                `json:"category,omitempty"`
	Provenance domain.Provenance     `json:"provenance"`
	Style      CircleStyle           `json:"style"`
	Details    []domain.Attribute    `json:"details"`
}

// Icon is a drawn progress entry.
type Icon struct {
	ID      string                `json:"id"`
	Label   string                `json:"label"`
	Coord   domain.LatLon         `json:"coord"`
	Status  domain.ProgressStatus `json:"status"`
	Style   IconStyle             `json:"style"`
	Details []domain.Attribute    `json:"details"`
}

// Overlay is a drawn cluster area.
type Overlay struct {
	Name  string            `json:"name"`
	Layer string            `json:"layer"`
	Rings [][]domain.LatLon `json:"rings"`
	Style OverlayStyle      `json:"style"`
}

// Scene is everything one render cycle draws.
type Scene struct {
	Center     domain.LatLon `json:"center"`
	Zoom       int           `json:"zoom"`
	Height     int           `json:"height"`
	BaseLayers []BaseLayer   `json:"base_layers"`
	Polylines  []Polyline    `json:"polylines"`
	Circles    []Circle      `json:"circles"`
	Icons      []Icon        `json:"icons"`
	Overlays   []Overlay     `json:"overlays"`
}

// Build draws already filtered entities. State supplies the cluster toggle
// and map height. Sites without a resolvable location are left out.
func Build(e filter.Entities, s filter.State, opts Options) Scene {
	scene := Scene{
		Center:     opts.Center,
		Zoom:       opts.Zoom,
		Height:     s.MapHeight,
		BaseLayers: append([]BaseLayer(nil), opts.BaseLayers...),
		Polylines:  make([]Polyline, 0, len(e.Cables)),
		Circles:    make([]Circle, 0, len(e.Sites)),
		Icons:      make([]Icon, 0, len(e.Progress)),
		Overlays:   []Overlay{},
	}

	for _, c := range e.Cables {
		scene.Polylines = append(scene.Polylines, cablePolyline(c))
	}
	for _, site := range e.Sites {
		if circle, ok := siteCircle(site); ok {
			scene.Circles = append(scene.Circles, circle)
		}
	}
	for _, p := range e.Progress {
		scene.Icons = append(scene.Icons, progressIcon(p))
	}
	if s.ShowClusters {
		for _, c := range opts.Clusters {
			scene.Overlays = append(scene.Overlays, clusterOverlay(c))
		}
	}
	return scene
}

func cablePolyline(c domain.CableSegment) Polyline {
	tooltip := c.Region
	if tooltip == "" {
		tooltip = cableTooltip
	}
	return Polyline{
		ID:      c.ID,
		Path:    append([]domain.LatLon(nil), c.Path...),
		Tooltip: tooltip,
		Style:   CableStyle(),
	}
}

func siteCircle(site domain.RecoverySite) (Circle, bool) {
	resolved, ok := domain.ResolveLocation(site)
	if !ok {
		return Circle{}, false
	}
	details := append(site.Details(), domain.Attribute{
		Key:   provenanceLabelKey,
		Value: resolved.Provenance.Label(),
	})
	return Circle{
		ID:         site.ID,
		Name:       site.Name,
		Coord:      resolved.Coord,
		Status:     site.Status,
		Category:   site.Category,
		Provenance: resolved.Provenance,
		Style:      SiteStyle(site.Status),
		Details:    details,
	}, true
}

func progressIcon(p domain.ProgressEntry) Icon {
	return Icon{
		ID:      p.ID,
		Label:   p.Division,
		Coord:   p.Coord,
		Status:  p.Status,
		Style:   ProgressStyle(p),
		Details: append([]domain.Attribute(nil), p.Attributes...),
	}
}

func clusterOverlay(c Cluster) Overlay {
	rings := make([][]domain.LatLon, 0, len(c.Polygon))
	for _, r := range c.Polygon {
		rings = append(rings, ringToPath(r))
	}
	return Overlay{
		Name:  c.Name,
		Layer: clusterLayerName,
		Rings: rings,
		Style: ClusterStyle(),
	}
}
