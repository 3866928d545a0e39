// Package dataset reads the recovery workbooks into header-keyed tables and
// normalizes them into domain entities.
package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without any worksheet.
var ErrNoSheets = errors.New("no sheets found in workbook")

// Table is one worksheet keyed by its header row. Rows are padded to the
// header width so every cell lookup is in range.
type Table struct {
	Sheet  string     `json:"sheet"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ReadTable opens path and reads sheet. An empty sheet name selects the first
// worksheet. The first row is the header; fully blank rows are dropped.
func ReadTable(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return Table{}, fmt.Errorf("%s: %w", path, ErrNoSheets)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}
	return newTable(sheet, rows), nil
}

func newTable(sheet string, rows [][]string) Table {
	t := Table{Sheet: sheet}
	if len(rows) == 0 {
		return t
	}

	t.Header = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		t.Header[i] = strings.TrimSpace(h)
	}

	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		padded := make([]string, max(len(t.Header), len(row)))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Column returns the index of the named header, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether every named column is present.
func (t Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Column(n) < 0 {
			return false
		}
	}
	return true
}

// Cell returns the trimmed value at row i for the named column. The second
// value is false when the column does not exist.
func (t Table) Cell(i int, name string) (string, bool) {
	c := t.Column(name)
	if c < 0 || i < 0 || i >= len(t.Rows) || c >= len(t.Rows[i]) {
		return "", false
	}
	return strings.TrimSpace(t.Rows[i][c]), true
}

// Value is Cell without the presence flag.
func (t Table) Value(i int, name string) string {
	v, _ := t.Cell(i, name)
	return v
}

// SheetRowNumber converts a data row index to the 1-based worksheet row,
// counting the header. Blank rows dropped on read shift later rows, so the
// number is only a hint for humans.
func SheetRowNumber(i int) int {
	return i + 2
}

// WriteWorkbook saves tables as the worksheets of a new workbook, in order.
func WriteWorkbook(path string, tables ...Table) error {
	if len(tables) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, t := range tables {
		name := t.Sheet
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if name != first {
				if err := f.SetSheetName(first, name); err != nil {
					return fmt.Errorf("rename sheet: %w", err)
				}
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}

		if err := writeRow(f, name, 1, t.Header); err != nil {
			return err
		}
		for r, row := range t.Rows {
			if err := writeRow(f, name, r+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("write row %d of %q: %w", rowNum, sheet, err)
	}
	return nil
}
