package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

func (p *Pipeline) normalizeCables(r read) (DatasetStatus, []domain.CableSegment) {
	st := r.status()
	if r.err != nil {
		return st, []domain.CableSegment{}
	}
	segments, stats, err := dataset.LoadCables(r.src.Table)
	st.Stats = stats
	if err != nil {
		st.Available = false
		st.Reason = err.Error()
		p.logger.Warn("cable dataset unusable", "error", err)
		return st, []domain.CableSegment{}
	}
	p.logSkipped(dataset.NameCable, stats)
	return st, segments
}

// normalizeSites loads the recovery sites, geocodes their addresses one at a
// time and drops sites left without any usable coordinate. The returned count
// is the number of dropped sites.
func (p *Pipeline) normalizeSites(ctx context.Context, r read) (DatasetStatus, []domain.RecoverySite, int, error) {
	st := r.status()
	if r.err != nil {
		return st, []domain.RecoverySite{}, 0, nil
	}
	all, stats := dataset.LoadSites(r.src.Table)

	sites := make([]domain.RecoverySite, 0, len(all))
	unmappable := 0
	for _, site := range all {
		if err := ctx.Err(); err != nil {
			return st, nil, 0, fmt.Errorf("geocode recovery sites: %w", err)
		}
		site = domain.GeocodeSite(ctx, site, p.geocoder, p.logger)
		if !site.Displayable() {
			unmappable++
			p.logger.Debug("site has no usable location", "site_id", site.ID, "name", site.Name)
			continue
		}
		sites = append(sites, site)
	}

	stats.Loaded = len(sites)
	stats.Skipped += unmappable
	st.Stats = stats
	p.logSkipped(dataset.NameRecovery, stats)
	return st, sites, unmappable, nil
}

func (p *Pipeline) normalizeProgress(r read) (DatasetStatus, []domain.ProgressEntry) {
	st := r.status()
	if r.err != nil {
		return st, []domain.ProgressEntry{}
	}
	entries, stats, err := dataset.LoadProgress(r.src.Table)
	st.Stats = stats
	if err != nil {
		// The verbatim table is still shown; only the markers are lost.
		p.logger.Warn("progress markers unavailable", "error", err)
		st.Reason = err.Error()
		return st, []domain.ProgressEntry{}
	}
	p.logSkipped(dataset.NameProgress, stats)
	return st, entries
}

func (p *Pipeline) logSkipped(name string, stats dataset.Stats) {
	if stats.Skipped == 0 {
		return
	}
	p.logger.Info("records skipped",
		"dataset", name,
		"rows", stats.Rows,
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
	)
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
