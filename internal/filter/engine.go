package filter

import (
	"slices"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// Entities is everything one load produced that can appear on the map.
type Entities struct {
	Cables   []domain.CableSegment  `json:"cables"`
	Sites    []domain.RecoverySite  `json:"sites"`
	Progress []domain.ProgressEntry `json:"progress"`
}

// Apply returns the entities that pass s. The three axes (cable mode,
// recovery status, inspection category) are independent and combined with
// AND. Progress entries are not filtered. Input order is kept, neither
// argument is modified and the returned slices are freshly allocated.
func Apply(e Entities, s State) Entities {
	return Entities{
		Cables:   filterCables(e.Cables, s),
		Sites:    filterSites(e.Sites, s),
		Progress: slices.Clone(e.Progress),
	}
}

func filterCables(cables []domain.CableSegment, s State) []domain.CableSegment {
	out := make([]domain.CableSegment, 0, len(cables))
	switch s.CableMode {
	case CableAll:
		out = append(out, cables...)
	case CableByRegion:
		for _, c := range cables {
			if slices.Contains(s.Regions, c.Region) {
				out = append(out, c)
			}
		}
	}
	return out
}

func filterSites(sites []domain.RecoverySite, s State) []domain.RecoverySite {
	out := make([]domain.RecoverySite, 0, len(sites))
	for _, site := range sites {
		if !slices.Contains(s.Statuses, site.Status) {
			continue
		}
		if len(s.Categories) > 0 && !slices.Contains(s.Categories, site.Category) {
			continue
		}
		out = append(out, site)
	}
	return out
}
