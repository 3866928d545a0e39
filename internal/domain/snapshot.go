package domain

import "time"

// RecoverySnapshot is the summary published after every completed load.
type RecoverySnapshot struct {
	ID         string         `json:"id"`
	LoadedAt   time.Time      `json:"loaded_at"`
	Summary    Summary        `json:"summary"`
	RMSummary  Summary        `json:"rm_summary"`
	Mappable   int            `json:"mappable_sites"`
	Unmappable int            `json:"unmappable_sites"`
	Records    map[string]int `json:"records"` // loaded records per dataset
}

// NewRecoverySnapshot summarizes the mappable sites of one load.
func NewRecoverySnapshot(sites []RecoverySite, unmappable int, records map[string]int) RecoverySnapshot {
	loadedAt := Now().UTC()
	return RecoverySnapshot{
		ID:         loadedAt.Format("20060102T150405.000Z"),
		LoadedAt:   loadedAt,
		Summary:    Summarize(sites),
		RMSummary:  SummarizeCategories(sites, RMTargetCategories),
		Mappable:   len(sites),
		Unmappable: unmappable,
		Records:    records,
	}
}
