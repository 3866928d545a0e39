// Package filter holds the map's filter state, the actions that change it and
// the pure function that applies it to loaded entities.
package filter

import (
	"slices"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// Map height bounds in pixels.
const (
	MinMapHeight     = 300
	MaxMapHeight     = 1200
	MapHeightStep    = 50
	DefaultMapHeight = 500
)

// CableMode selects which cable segments are drawn. Exactly one mode is
// active at a time.
type CableMode string

const (
	CableHidden   CableMode = "hidden"
	CableAll      CableMode = "all"
	CableByRegion CableMode = "by_region"
)

// Catalog is what the last load discovered: the values a selection may use.
type Catalog struct {
	Regions    []string                `json:"regions"`
	Categories []string                `json:"categories"`
	Statuses   []domain.RecoveryStatus `json:"statuses"`
}

// NewCatalog collects the sorted distinct regions and categories, and the
// selectable statuses. StatusUnknown is selectable only when a site has it.
func NewCatalog(cables []domain.CableSegment, sites []domain.RecoverySite) Catalog {
	regions := make([]string, 0)
	for _, c := range cables {
		if c.Region != "" {
			regions = append(regions, c.Region)
		}
	}
	slices.Sort(regions)

	categories := make([]string, 0)
	unknown := false
	for _, s := range sites {
		if s.Category != "" {
			categories = append(categories, s.Category)
		}
		if s.Status == domain.StatusUnknown {
			unknown = true
		}
	}
	slices.Sort(categories)

	statuses := domain.RecoveryStatuses()
	if unknown {
		statuses = append(statuses, domain.StatusUnknown)
	}

	return Catalog{
		Regions:    slices.Compact(regions),
		Categories: slices.Compact(categories),
		Statuses:   statuses,
	}
}

// State is the user's current selection. It has a single writer (the
// session) and is read-only to Apply and to rendering.
type State struct {
	Catalog Catalog `json:"catalog"`

	Statuses []domain.RecoveryStatus `json:"statuses"`

	// Categories is the selected inspection categories. An empty selection
	// disables the category filter. Until the user edits it, it tracks the
	// full catalog across reloads.
	Categories           []string `json:"categories"`
	CategoriesCustomized bool     `json:"categories_customized"`

	CableMode CableMode `json:"cable_mode"`
	Regions   []string  `json:"regions"` // used only in CableByRegion

	ShowClusters bool `json:"show_clusters"`
	MapHeight    int  `json:"map_height"`
}

// NewState returns the initial selection: unrecovered sites only, every
// category, cables hidden, clusters hidden.
func NewState(catalog Catalog, mapHeight int) State {
	if !validHeight(mapHeight) {
		mapHeight = DefaultMapHeight
	}
	return State{
		Catalog:    cloneCatalog(catalog),
		Statuses:   []domain.RecoveryStatus{domain.StatusUnrecovered},
		Categories: slices.Clone(catalog.Categories),
		CableMode:  CableHidden,
		MapHeight:  mapHeight,
	}
}

// Sync reconciles the selection with a freshly loaded catalog. An
// uncustomized category selection becomes the full new set; a customized one
// and the region selection are pruned to values that still exist.
func (s State) Sync(catalog Catalog) State {
	out := s.Clone()
	out.Catalog = cloneCatalog(catalog)
	if s.CategoriesCustomized {
		out.Categories = intersect(s.Categories, catalog.Categories)
	} else {
		out.Categories = slices.Clone(catalog.Categories)
	}
	out.Regions = intersect(s.Regions, catalog.Regions)
	return out
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Catalog = cloneCatalog(s.Catalog)
	out.Statuses = slices.Clone(s.Statuses)
	out.Categories = slices.Clone(s.Categories)
	out.Regions = slices.Clone(s.Regions)
	return out
}

func cloneCatalog(c Catalog) Catalog {
	return Catalog{
		Regions:    slices.Clone(c.Regions),
		Categories: slices.Clone(c.Categories),
		Statuses:   slices.Clone(c.Statuses),
	}
}

// intersect keeps the values of sel that are in allowed, in sel's order,
// without duplicates. The result is never nil.
func intersect[T comparable](sel, allowed []T) []T {
	out := make([]T, 0, len(sel))
	for _, v := range sel {
		if slices.Contains(allowed, v) && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func validHeight(h int) bool {
	return h >= MinMapHeight && h <= MaxMapHeight && (h-MinMapHeight)%MapHeightStep == 0
}
