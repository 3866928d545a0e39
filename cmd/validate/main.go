// Command validate audits the three source workbooks without geocoding. It
// reports per-row parse failures, missing columns, and sites that can only be
// placed by address or not at all.
//
// Usage:
//
//	go run ./cmd/validate -dir data/mock
//	go run ./cmd/validate -cable a.xlsx -recovery b.xlsx -progress c.xlsx
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// phase tracks pass/fail for one workbook check.
type phase struct {
	name     string
	records  int
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func (p *phase) issues(issues []dataset.Issue) {
	for _, is := range issues {
		p.errorf("row %d %s %q: %s", is.Row, is.Column, is.Value, is.Reason)
	}
}

type paths struct {
	cable, recovery, progress, repeaterSheet string
}

func main() {
	dir := flag.String("dir", ".", "directory holding the workbooks under their default names")
	cable := flag.String("cable", "", "cable workbook (overrides -dir)")
	recovery := flag.String("recovery", "", "recovery workbook (overrides -dir)")
	progress := flag.String("progress", "", "progress workbook (overrides -dir)")
	sheet := flag.String("repeater-sheet", dataset.RepeaterSheet, "repeater sheet of the progress workbook")
	flag.Parse()

	p := paths{
		cable:         orDefault(*cable, filepath.Join(*dir, dataset.CableFile)),
		recovery:      orDefault(*recovery, filepath.Join(*dir, dataset.RecoveryFile)),
		progress:      orDefault(*progress, filepath.Join(*dir, dataset.ProgressFile)),
		repeaterSheet: *sheet,
	}
	os.Exit(run(os.Stdout, p))
}

func run(w io.Writer, p paths) int {
	fmt.Fprintln(w, "=== Recovery Workbook Validation ===")
	fmt.Fprintln(w)

	phases := []*phase{
		validateCables(p.cable),
		validateSites(p.recovery),
		validateProgress(p.progress),
		validateRepeaters(p.progress, p.repeaterSheet),
	}

	allPassed := true
	for _, ph := range phases {
		status := "\033[32mPASS\033[0m"
		if !ph.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(ph.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-36s %5d records  %s\n", ph.name, ph.records, status)
	}

	for _, ph := range phases {
		if ph.passed() && len(ph.warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", ph.name)
		for i, e := range ph.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, warn := range ph.warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func readTable(ph *phase, path, sheet string) (dataset.Table, bool) {
	t, err := dataset.ReadTable(path, sheet)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ph.errorf("workbook not found: %s", path)
		} else {
			ph.errorf("%v", err)
		}
		return dataset.Table{}, false
	}
	return t, true
}

func validateCables(path string) *phase {
	ph := &phase{name: "Cable routes (" + filepath.Base(path) + ")"}
	t, ok := readTable(ph, path, "")
	if !ok {
		return ph
	}
	if !t.Has(dataset.ColRegion) {
		ph.warnf("column %q missing: cables cannot be filtered by region", dataset.ColRegion)
	}
	segments, stats, err := dataset.LoadCables(t)
	if err != nil {
		ph.errorf("%v", err)
		return ph
	}
	ph.records = len(segments)
	ph.issues(stats.Issues)
	return ph
}

func validateSites(path string) *phase {
	ph := &phase{name: "Recovery sites (" + filepath.Base(path) + ")"}
	t, ok := readTable(ph, path, "")
	if !ok {
		return ph
	}
	for _, col := range []string{dataset.ColStatus, dataset.ColInspection, dataset.ColSiteName} {
		if !t.Has(col) {
			ph.warnf("column %q missing", col)
		}
	}
	if !t.Has(dataset.ColDMSLat, dataset.ColDMSLon) && !t.Has(dataset.ColAddress) {
		ph.errorf("neither DMS columns (%s, %s) nor %s present: no site can be placed",
			dataset.ColDMSLat, dataset.ColDMSLon, dataset.ColAddress)
	}

	sites, stats := dataset.LoadSites(t)
	ph.records = len(sites)
	ph.issues(stats.Issues)

	var addressOnly, unplaceable []string
	for _, s := range sites {
		if _, ok := domain.ResolveLocation(s); ok {
			continue
		}
		if strings.TrimSpace(s.Address) != "" {
			addressOnly = append(addressOnly, s.ID)
		} else {
			unplaceable = append(unplaceable, s.ID)
		}
	}
	if len(addressOnly) > 0 {
		ph.warnf("%d sites depend on geocoding: %s", len(addressOnly), strings.Join(addressOnly, ", "))
	}
	if len(unplaceable) > 0 {
		ph.warnf("%d sites have neither coordinates nor address and will not be drawn: %s",
			len(unplaceable), strings.Join(unplaceable, ", "))
	}
	return ph
}

func validateProgress(path string) *phase {
	ph := &phase{name: "Progress (" + filepath.Base(path) + ")"}
	t, ok := readTable(ph, path, "")
	if !ok {
		return ph
	}
	entries, stats, err := dataset.LoadProgress(t)
	if err != nil {
		ph.errorf("%v", err)
		return ph
	}
	ph.records = len(entries)
	ph.issues(stats.Issues)
	return ph
}

func validateRepeaters(path, sheet string) *phase {
	ph := &phase{name: "Repeaters (" + sheet + ")"}
	t, ok := readTable(ph, path, sheet)
	if !ok {
		return ph
	}
	ph.records = len(t.Rows)
	if len(t.Rows) == 0 {
		ph.warnf("sheet %q has no data rows", sheet)
	}
	return ph
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
