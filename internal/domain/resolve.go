package domain

// Provenance records which candidate produced a resolved coordinate.
type Provenance string

const (
	ProvenanceAddress    Provenance = "address-based"
	ProvenanceCoordinate Provenance = "coordinate-based"
)

// Label is the provenance as shown in popups (위치정보 소스).
func (p Provenance) Label() string {
	switch p {
	case ProvenanceAddress:
		return "주소기반"
	case ProvenanceCoordinate:
		return "엑셀좌표(DMS)"
	default:
		return MissingValue
	}
}

// Resolved is a site's trusted coordinate and where it came from.
type Resolved struct {
	Coord      LatLon     `json:"coord"`
	Provenance Provenance `json:"provenance"`
}

// ResolveLocation picks the single coordinate to trust for a site.
// A complete geocoded candidate wins over a complete DMS candidate; a site
// with neither is excluded (false). There is no default location.
//
// Any code that needs a site's position must go through this function.
func ResolveLocation(site RecoverySite) (Resolved, bool) {
	if p, ok := site.Geocoded.Point(); ok {
		return Resolved{Coord: p, Provenance: ProvenanceAddress}, true
	}
	if p, ok := site.DMSDerived.Point(); ok {
		return Resolved{Coord: p, Provenance: ProvenanceCoordinate}, true
	}
	return Resolved{}, false
}
