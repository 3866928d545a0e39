package render

import (
	"slices"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// pointEpsilon gives point features a non-zero extent (~11 m); the R-tree
// rejects zero-size rectangles.
const pointEpsilon = 0.0001

// Hit is one indexed primitive returned by a query.
type Hit struct {
	Kind           string        `json:"kind"` // KindSite, KindProgress or KindCable
	ID             string        `json:"id"`
	Label          string        `json:"label"`
	Coord          domain.LatLon `json:"coord"`
	DistanceMeters float64       `json:"distance_m,omitempty"`
}

type indexed struct {
	hit   Hit
	bound orb.Bound
	order int
}

// Bounds implements rtreego.Spatial.
func (e *indexed) Bounds() rtreego.Rect {
	return paddedRect(e.bound)
}

// paddedRect widens any dimension thinner than pointEpsilon to pointEpsilon,
// centred on the original extent.
func paddedRect(b orb.Bound) rtreego.Rect {
	point := rtreego.Point{b.Min.Lon(), b.Min.Lat()}
	lengths := []float64{b.Max.Lon() - b.Min.Lon(), b.Max.Lat() - b.Min.Lat()}
	for i, l := range lengths {
		if l < pointEpsilon {
			point[i] -= (pointEpsilon - l) / 2
			lengths[i] = pointEpsilon
		}
	}

	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// Index is a spatial index over a scene's cables, sites and progress markers.
type Index struct {
	tree  *rtreego.Rtree
	sites int
}

// NewIndex indexes every polyline, circle and icon of s.
func NewIndex(s Scene) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	order := 0
	add := func(h Hit, b orb.Bound) {
		tree.Insert(&indexed{hit: h, bound: b, order: order})
		order++
	}

	for _, p := range s.Polylines {
		if len(p.Path) == 0 {
			continue
		}
		add(Hit{Kind: KindCable, ID: p.ID, Label: p.Tooltip, Coord: p.Path[0]}, toLineString(p.Path).Bound())
	}
	for _, c := range s.Circles {
		add(Hit{Kind: KindSite, ID: c.ID, Label: c.Name, Coord: c.Coord}, toPoint(c.Coord).Bound())
	}
	for _, i := range s.Icons {
		add(Hit{Kind: KindProgress, ID: i.ID, Label: i.Label, Coord: i.Coord}, toPoint(i.Coord).Bound())
	}
	return &Index{tree: tree, sites: len(s.Circles)}
}

// Size is the number of indexed primitives.
func (ix *Index) Size() int {
	return ix.tree.Size()
}

// Search returns the primitives whose extent intersects b, edges included,
// in scene order.
func (ix *Index) Search(b orb.Bound) []Hit {
	// The tree holds padded rects, so its answer is only a candidate set.
	found := ix.tree.SearchIntersect(paddedRect(b.Pad(pointEpsilon)))
	entries := make([]*indexed, 0, len(found))
	for _, sp := range found {
		e := sp.(*indexed)
		if e.bound.Intersects(b) {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *indexed) int { return a.order - b.order })

	hits := make([]Hit, len(entries))
	for i, e := range entries {
		hits[i] = e.hit
	}
	return hits
}

// NearestSites returns up to k recovery sites closest to p, nearest first,
// with their great-circle distance.
func (ix *Index) NearestSites(p domain.LatLon, k int) []Hit {
	if k <= 0 || ix.sites == 0 {
		return []Hit{}
	}
	origin := toPoint(p)

	found := ix.tree.NearestNeighbors(ix.tree.Size(), rtreego.Point{p.Lon, p.Lat})
	hits := make([]Hit, 0, k)
	for _, sp := range found {
		if sp == nil {
			continue
		}
		e := sp.(*indexed)
		if e.hit.Kind != KindSite {
			continue
		}
		h := e.hit
		h.DistanceMeters = geo.Distance(origin, toPoint(h.Coord))
		hits = append(hits, h)
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		default:
			return 0
		}
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Clip keeps the primitives of s that intersect b. Overlays are kept whole.
func Clip(s Scene, b orb.Bound) Scene {
	keep := make(map[string]struct{})
	for _, h := range NewIndex(s).Search(b) {
		keep[h.Kind+"/"+h.ID] = struct{}{}
	}
	in := func(kind, id string) bool {
		_, ok := keep[kind+"/"+id]
		return ok
	}

	out := s
	out.Polylines = make([]Polyline, 0, len(s.Polylines))
	for _, p := range s.Polylines {
		if in(KindCable, p.ID) {
			out.Polylines = append(out.Polylines, p)
		}
	}
	out.Circles = make([]Circle, 0, len(s.Circles))
	for _, c := range s.Circles {
		if in(KindSite, c.ID) {
			out.Circles = append(out.Circles, c)
		}
	}
	out.Icons = make([]Icon, 0, len(s.Icons))
	for _, i := range s.Icons {
		if in(KindProgress, i.ID) {
			out.Icons = append(out.Icons, i)
		}
	}
	return out
}
