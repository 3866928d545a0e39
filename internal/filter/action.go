package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

var (
	// ErrUnknownAction is returned by ParseAction for an unrecognised type.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidAction is returned by Reduce when an action's payload is not
	// acceptable for the current catalog.
	ErrInvalidAction = errors.New("invalid action")
)

// Action is a named transition of State.
type Action interface {
	Name() string
	apply(State) (State, error)
}

// Reduce applies a to s and returns the new state. s is never modified; on
// error the returned state is s unchanged.
func Reduce(s State, a Action) (State, error) {
	next, err := a.apply(s.Clone())
	if err != nil {
		return s, fmt.Errorf("%s: %w", a.Name(), err)
	}
	return next, nil
}

// ShowAllCables draws every cable segment.
type ShowAllCables struct{}

func (ShowAllCables) Name() string { return "show_all_cables" }

func (ShowAllCables) apply(s State) (State, error) {
	s.CableMode = CableAll
	s.Regions = []string{}
	return s, nil
}

// ShowCablesByRegion draws only the segments of the given regions.
type ShowCablesByRegion struct {
	Regions []string `json:"regions"`
}

func (ShowCablesByRegion) Name() string { return "show_cables_by_region" }

func (a ShowCablesByRegion) apply(s State) (State, error) {
	for _, r := range a.Regions {
		if !slices.Contains(s.Catalog.Regions, r) {
			return s, fmt.Errorf("%w: unknown region %q", ErrInvalidAction, r)
		}
	}
	s.CableMode = CableByRegion
	s.Regions = intersect(a.Regions, s.Catalog.Regions)
	return s, nil
}

// HideCables draws no cable segments.
type HideCables struct{}

func (HideCables) Name() string { return "hide_cables" }

func (HideCables) apply(s State) (State, error) {
	s.CableMode = CableHidden
	s.Regions = []string{}
	return s, nil
}

// SetStatuses replaces the recovery status selection.
type SetStatuses struct {
	Statuses []domain.RecoveryStatus `json:"statuses"`
}

func (SetStatuses) Name() string { return "set_statuses" }

func (a SetStatuses) apply(s State) (State, error) {
	for _, st := range a.Statuses {
		if !slices.Contains(s.Catalog.Statuses, st) {
			return s, fmt.Errorf("%w: unknown status %q", ErrInvalidAction, st)
		}
	}
	s.Statuses = intersect(a.Statuses, s.Catalog.Statuses)
	return s, nil
}

// SetCategories replaces the inspection category selection and marks it as
// customized.
type SetCategories struct {
	Categories []string `json:"categories"`
}

func (SetCategories) Name() string { return "set_categories" }

func (a SetCategories) apply(s State) (State, error) {
	for _, c := range a.Categories {
		if !slices.Contains(s.Catalog.Categories, c) {
			return s, fmt.Errorf("%w: unknown category %q", ErrInvalidAction, c)
		}
	}
	s.Categories = intersect(a.Categories, s.Catalog.Categories)
	s.CategoriesCustomized = true
	return s, nil
}

// SelectAllCategories restores the full category set and the tracking default.
type SelectAllCategories struct{}

func (SelectAllCategories) Name() string { return "select_all_categories" }

func (SelectAllCategories) apply(s State) (State, error) {
	s.Categories = slices.Clone(s.Catalog.Categories)
	s.CategoriesCustomized = false
	return s, nil
}

// ToggleClusters flips cluster overlay visibility.
type ToggleClusters struct{}

func (ToggleClusters) Name() string { return "toggle_clusters" }

func (ToggleClusters) apply(s State) (State, error) {
	s.ShowClusters = !s.ShowClusters
	return s, nil
}

// SetMapHeight sets the map height in pixels.
type SetMapHeight struct {
	Height int `json:"height"`
}

func (SetMapHeight) Name() string { return "set_map_height" }

func (a SetMapHeight) apply(s State) (State, error) {
	if !validHeight(a.Height) {
		return s, fmt.Errorf("%w: height %d outside %d..%d step %d",
			ErrInvalidAction, a.Height, MinMapHeight, MaxMapHeight, MapHeightStep)
	}
	s.MapHeight = a.Height
	return s, nil
}

// CatalogLoaded reconciles the selection with a newly loaded catalog.
type CatalogLoaded struct {
	Catalog Catalog `json:"catalog"`
}

func (CatalogLoaded) Name() string { return "catalog_loaded" }

func (a CatalogLoaded) apply(s State) (State, error) {
	return s.Sync(a.Catalog), nil
}

type envelope struct {
	Type string `json:"type"`
}

// ParseAction decodes a JSON action of the form {"type": "<name>", ...}.
// catalog_loaded is internal and cannot be parsed.
func ParseAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	var a Action
	switch env.Type {
	case ShowAllCables{}.Name():
		a = ShowAllCables{}
	case HideCables{}.Name():
		a = HideCables{}
	case SelectAllCategories{}.Name():
		a = SelectAllCategories{}
	case ToggleClusters{}.Name():
		a = ToggleClusters{}
	case ShowCablesByRegion{}.Name():
		var v ShowCablesByRegion
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		a = v
	case SetStatuses{}.Name():
		var v SetStatuses
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		a = v
	case SetCategories{}.Name():
		var v SetCategories
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		a = v
	case SetMapHeight{}.Name():
		var v SetMapHeight
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		a = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
	return a, nil
}
