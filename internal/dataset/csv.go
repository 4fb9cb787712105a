package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Options controls dataset loading.
type Options struct {
	// Delimiter for CSV. If 0, auto-detects from the file extension.
	Delimiter rune
	// SheetName selects an XLSX sheet by name; empty means by index.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet index (Sheet1 == 1).
	SheetIndex int
}

// DefaultOptions returns reasonable defaults for dataset loading.
func DefaultOptions() Options {
	return Options{SheetIndex: 1}
}

// Load reads a study table from a CSV/TSV or XLSX file, choosing the
// reader by extension, and validates it.
func Load(path string, opt Options) (*Dataset, error) {
	lower := strings.ToLower(path)
	var (
		d   *Dataset
		err error
	)
	if strings.HasSuffix(lower, ".xlsx") {
		d, err = LoadXLSX(path, opt)
	} else {
		d, err = LoadCSV(path, opt)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// LoadCSV reads a CSV/TSV study table. The header row is required and
// columns are matched by name (case-insensitive, with aliases).
func LoadCSV(path string, opt Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: file is empty", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		cp := make([]string, len(rec))
		copy(cp, rec)
		rows = append(rows, cp)
	}
	return decodeRows(filepath.Base(path), header, rows)
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// Column aliases: the canonical header names plus the spellings seen in
// hand-maintained extraction sheets.
var columnAliases = map[string]string{
	"study":             "study",
	"study_label":       "study",
	"author":            "study",
	"nd_events":         "nd_events",
	"nd":                "nd_events",
	"neurodegenerative": "nd_events",
	"cjd_events":        "cjd_events",
	"cjd":               "cjd_events",
	"aie_events":        "aie_events",
	"aie":               "aie_events",
	"autoimmune":        "aie_events",
	"total":             "total",
	"n":                 "total",
	"total_subjects":    "total",
	"nos_selection":     "nos_selection",
	"selection":         "nos_selection",
	"nos_comparability": "nos_comparability",
	"comparability":     "nos_comparability",
	"nos_outcome":       "nos_outcome",
	"outcome":           "nos_outcome",
	"latam":             "latam",
	"latin_america":     "latam",
	"case_def":          "case_def",
	"casedef":           "case_def",
	"case_definition":   "case_def",
}

// required columns; the NOS sub-scores and subgroup markers may be absent.
var requiredColumns = []string{"study", "nd_events", "cjd_events", "aie_events", "total"}

func decodeRows(name string, header []string, rows [][]string) (*Dataset, error) {
	idx := map[string]int{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		key = strings.ReplaceAll(key, "-", "_")
		if canon, ok := columnAliases[key]; ok {
			if _, dup := idx[canon]; !dup {
				idx[canon] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing required column(s): %s.\n"+
			"  Expected schema: study, nd_events, cjd_events, aie_events, total\n"+
			"  Optional: nos_selection, nos_comparability, nos_outcome, latam, case_def",
			name, strings.Join(missing, ", "))
	}

	cell := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	d := &Dataset{Name: name}
	for n, rec := range rows {
		row := n + 2
		// skip fully blank rows (trailing spreadsheet padding)
		if allBlank(rec) {
			continue
		}
		s := Study{Label: cell(rec, "study"), CaseDef: cell(rec, "case_def"), Row: row}
		var err error
		if s.NDEvents, err = parseCount(cell(rec, "nd_events")); err != nil {
			return nil, fmt.Errorf("row %d, column nd_events: %w", row, err)
		}
		if s.CJDEvents, err = parseCount(cell(rec, "cjd_events")); err != nil {
			return nil, fmt.Errorf("row %d, column cjd_events: %w", row, err)
		}
		if s.AIEEvents, err = parseCount(cell(rec, "aie_events")); err != nil {
			return nil, fmt.Errorf("row %d, column aie_events: %w", row, err)
		}
		if s.Total, err = parseCount(cell(rec, "total")); err != nil {
			return nil, fmt.Errorf("row %d, column total: %w", row, err)
		}
		if s.Quality.Selection, err = parseOptCount(cell(rec, "nos_selection")); err != nil {
			return nil, fmt.Errorf("row %d, column nos_selection: %w", row, err)
		}
		if s.Quality.Comparability, err = parseOptCount(cell(rec, "nos_comparability")); err != nil {
			return nil, fmt.Errorf("row %d, column nos_comparability: %w", row, err)
		}
		if s.Quality.Outcome, err = parseOptCount(cell(rec, "nos_outcome")); err != nil {
			return nil, fmt.Errorf("row %d, column nos_outcome: %w", row, err)
		}
		if s.LatAm, err = parseIndicator(cell(rec, "latam")); err != nil {
			return nil, fmt.Errorf("row %d, column latam: %w", row, err)
		}
		d.Studies = append(d.Studies, s)
	}
	return d, nil
}

func allBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseCount(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value (expected a non-negative integer)")
	}
	// tolerate spreadsheet floats like "12.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", s)
	}
	return n, nil
}

func parseOptCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return parseCount(s)
}

func parseIndicator(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "no", "n", "false":
		return false, nil
	case "1", "yes", "y", "true":
		return true, nil
	}
	return false, fmt.Errorf("invalid indicator %q (use yes/no, 1/0, true/false)", s)
}
