package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// Feature kinds written to the "kind" property.
const (
	KindCable    = "cable"
	KindSite     = "site"
	KindProgress = "progress"
	KindCluster  = "cluster"
)

// FeatureCollection exports the scene as GeoJSON. Each feature carries its
// style and detail payload in properties; the collection's bbox is Bound.
func (s Scene) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(s.Bound())

	for _, o := range s.Overlays {
		poly := make(orb.Polygon, 0, len(o.Rings))
		for _, r := range o.Rings {
			poly = append(poly, orb.Ring(toLineString(r)))
		}
		f := geojson.NewFeature(poly)
		f.Properties["kind"] = KindCluster
		f.Properties["name"] = o.Name
		f.Properties["style"] = o.Style
		fc.Append(f)
	}

	for _, p := range s.Polylines {
		f := geojson.NewFeature(toLineString(p.Path))
		f.ID = p.ID
		f.Properties["kind"] = KindCable
		f.Properties["tooltip"] = p.Tooltip
		f.Properties["style"] = p.Style
		fc.Append(f)
	}

	for _, c := range s.Circles {
		f := geojson.NewFeature(toPoint(c.Coord))
		f.ID = c.ID
		f.Properties["kind"] = KindSite
		f.Properties["name"] = c.Name
		f.Properties["status"] = c.Status
		f.Properties["provenance"] = c.Provenance
		f.Properties["style"] = c.Style
		f.Properties["details"] = c.Details
		fc.Append(f)
	}

	for _, i := range s.Icons {
		f := geojson.NewFeature(toPoint(i.Coord))
		f.ID = i.ID
		f.Properties["kind"] = KindProgress
		f.Properties["label"] = i.Label
		f.Properties["status"] = i.Status
		f.Properties["style"] = i.Style
		f.Properties["details"] = i.Details
		fc.Append(f)
	}

	return fc
}

// Bound is the extent of every drawn primitive. An empty scene yields a
// zero-size bound at the map centre.
func (s Scene) Bound() orb.Bound {
	var b orb.Bound
	first := true
	extend := func(ll domain.LatLon) {
		pt := toPoint(ll)
		if first {
			b = pt.Bound()
			first = false
			return
		}
		b = b.Extend(pt)
	}

	for _, p := range s.Polylines {
		for _, ll := range p.Path {
			extend(ll)
		}
	}
	for _, c := range s.Circles {
		extend(c.Coord)
	}
	for _, i := range s.Icons {
		extend(i.Coord)
	}
	for _, o := range s.Overlays {
		for _, r := range o.Rings {
			for _, ll := range r {
				extend(ll)
			}
		}
	}
	if first {
		return toPoint(s.Center).Bound()
	}
	return b
}

func toPoint(ll domain.LatLon) orb.Point {
	return orb.Point{ll.Lon, ll.Lat}
}

func toLineString(path []domain.LatLon) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, ll := range path {
		ls[i] = toPoint(ll)
	}
	return ls
}
