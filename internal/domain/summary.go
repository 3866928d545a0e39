package domain

import "fmt"

// RMTargetCategories are the inspection categories counted by the wired RM
// (line fault) summary.
var RMTargetCategories = []string{"선로불량", "정전/선로불량"}

// Summary is the four-value recovery metric block.
type Summary struct {
	Total       int     `json:"total"`
	Recovered   int     `json:"recovered"`
	Unrecovered int     `json:"unrecovered"`
	RatePercent float64 `json:"rate_percent"`
}

// RateLabel formats the recovery rate the way the dashboard shows it.
func (s Summary) RateLabel() string {
	return fmt.Sprintf("%.1f %%", s.RatePercent)
}

// Summarize counts sites by status. Sites with an unknown status count
// towards the total only.
func Summarize(sites []RecoverySite) Summary {
	var s Summary
	for _, site := range sites {
		s.Total++
		switch site.Status {
		case StatusRecovered:
			s.Recovered++
		case StatusUnrecovered:
			s.Unrecovered++
		}
	}
	if s.Total > 0 {
		s.RatePercent = float64(s.Recovered) / float64(s.Total) * 100
	}
	return s
}

// SummarizeCategories is Summarize restricted to sites whose inspection
// category is one of categories.
func SummarizeCategories(sites []RecoverySite, categories []string) Summary {
	want := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		want[c] = struct{}{}
	}
	subset := make([]RecoverySite, 0, len(sites))
	for _, site := range sites {
		if _, ok := want[site.Category]; ok {
			subset = append(subset, site)
		}
	}
	return Summarize(subset)
}
