package dataset

import (
	"fmt"

	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// Issue records why a row was not loaded or loaded with a degraded field.
type Issue struct {
	Row    int    `json:"row"` // worksheet row number, header is row 1
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// Stats summarizes one normalization pass.
type Stats struct {
	Rows    int     `json:"rows"`
	Loaded  int     `json:"loaded"`
	Skipped int     `json:"skipped"`
	Issues  []Issue `json:"issues,omitempty"`
}

func (s *Stats) skip(i int, column, value, reason string) {
	s.Skipped++
	s.note(i, column, value, reason)
}

func (s *Stats) note(i int, column, value, reason string) {
	s.Issues = append(s.Issues, Issue{Row: SheetRowNumber(i), Column: column, Value: value, Reason: reason})
}

// MissingColumnError reports a column a dataset cannot do without.
type MissingColumnError struct {
	Dataset string
	Column  string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: required column %q not found", e.Dataset, e.Column)
}

// LoadCables normalizes the cable table. Rows whose geometry yields fewer
// than two vertices are skipped. A table without the geometry column is
// unusable; a missing region column leaves regions empty.
func LoadCables(t Table) ([]domain.CableSegment, Stats, error) {
	stats := Stats{Rows: len(t.Rows)}
	if !t.Has(ColGeometry) {
		return nil, stats, &MissingColumnError{Dataset: NameCable, Column: ColGeometry}
	}

	segments := make([]domain.CableSegment, 0, len(t.Rows))
	for i := range t.Rows {
		raw := t.Value(i, ColGeometry)
		path, ok := domain.ParseGeometry(raw)
		if !ok {
			stats.skip(i, ColGeometry, raw, "unparseable geometry")
			continue
		}
		if len(path) < 2 {
			stats.skip(i, ColGeometry, raw, "fewer than two vertices")
			continue
		}
		segments = append(segments, domain.CableSegment{
			ID:     fmt.Sprintf("cable-%d", SheetRowNumber(i)),
			Region: t.Value(i, ColRegion),
			Path:   path,
		})
	}
	stats.Loaded = len(segments)
	return segments, stats, nil
}

// LoadSites normalizes the recovery table. Only the DMS candidate is filled
// here; the geocoded candidate is added by the pipeline. Every row is kept so
// the caller can decide displayability after geocoding. Missing columns only
// disable the feature that reads them.
func LoadSites(t Table) ([]domain.RecoverySite, Stats) {
	stats := Stats{Rows: len(t.Rows)}
	hasDMS := t.Has(ColDMSLat, ColDMSLon)

	sites := make([]domain.RecoverySite, 0, len(t.Rows))
	for i := range t.Rows {
		statusRaw := t.Value(i, ColStatus)
		site := domain.RecoverySite{
			ID:          fmt.Sprintf("site-%d", SheetRowNumber(i)),
			Name:        t.Value(i, ColSiteName),
			Address:     t.Value(i, ColAddress),
			Status:      domain.ParseRecoveryStatus(statusRaw),
			StatusRaw:   statusRaw,
			Equipment:   t.Value(i, ColEquipment),
			NetworkType: t.Value(i, ColNetworkType),
			Category:    t.Value(i, ColInspection),
		}

		if hasDMS {
			// Header 경도 holds latitude and 위도 holds longitude.
			latRaw, lonRaw := t.Value(i, ColDMSLat), t.Value(i, ColDMSLon)
			site.DMSDerived = domain.DMSCandidate(latRaw, lonRaw)
			if !site.DMSDerived.Complete() && (latRaw != "" || lonRaw != "") {
				stats.note(i, ColDMSLat+"/"+ColDMSLon, latRaw+" "+lonRaw, "unparseable DMS coordinate")
			}
		}
		if site.Status == domain.StatusUnknown && statusRaw != "" {
			stats.note(i, ColStatus, statusRaw, "unknown recovery status")
		}
		sites = append(sites, site)
	}
	stats.Loaded = len(sites)
	return sites, stats
}

// LoadProgress normalizes the progress sheet. Rows whose 위경도 cell does not
// parse as "lat,lon" are skipped. Attributes hold every other column in
// header order, verbatim.
func LoadProgress(t Table) ([]domain.ProgressEntry, Stats, error) {
	stats := Stats{Rows: len(t.Rows)}
	if !t.Has(ColLatLon) {
		return nil, stats, &MissingColumnError{Dataset: NameProgress, Column: ColLatLon}
	}

	entries := make([]domain.ProgressEntry, 0, len(t.Rows))
	for i, row := range t.Rows {
		raw := t.Value(i, ColLatLon)
		coord, ok := domain.ParseLatLon(raw)
		if !ok {
			stats.skip(i, ColLatLon, raw, "unparseable lat,lon")
			continue
		}

		attrs := make([]domain.Attribute, 0, len(t.Header))
		for c, h := range t.Header {
			if h == ColLatLon || h == "" {
				continue
			}
			attrs = append(attrs, domain.Attribute{Key: h, Value: row[c]})
		}

		entries = append(entries, domain.ProgressEntry{
			ID:         fmt.Sprintf("progress-%d", SheetRowNumber(i)),
			Division:   t.Value(i, ColDivision),
			Status:     domain.ParseProgressStatus(t.Value(i, ColProgress)),
			RawCoord:   raw,
			Coord:      coord,
			Attributes: attrs,
		})
	}
	stats.Loaded = len(entries)
	return entries, stats, nil
}
