package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Category selects which etiology's event counts an analysis runs over.
type Category int

const (
	Neurodegenerative Category = iota
	CJD
	AutoimmuneEncephalitis
)

// ParseCategory accepts the short codes used on the CLI plus a few aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nd", "neurodegenerative":
		return Neurodegenerative, nil
	case "cjd", "creutzfeldt-jakob":
		return CJD, nil
	case "aie", "autoimmune", "autoimmune-encephalitis":
		return AutoimmuneEncephalitis, nil
	}
	return 0, fmt.Errorf("unknown category %q (use 'nd' | 'cjd' | 'aie')", s)
}

func (c Category) String() string {
	switch c {
	case Neurodegenerative:
		return "neurodegenerative"
	case CJD:
		return "cjd"
	case AutoimmuneEncephalitis:
		return "autoimmune-encephalitis"
	}
	return "unknown"
}

// Label is the human-readable category name used in plot titles and reports.
func (c Category) Label() string {
	switch c {
	case Neurodegenerative:
		return "Neurodegenerative disease"
	case CJD:
		return "Creutzfeldt-Jakob disease"
	case AutoimmuneEncephalitis:
		return "Autoimmune encephalitis"
	}
	return "Unknown"
}

// Categories lists all etiologies in report order.
func Categories() []Category {
	return []Category{Neurodegenerative, CJD, AutoimmuneEncephalitis}
}

// NOS holds the Newcastle-Ottawa quality sub-scores for one study.
type NOS struct {
	Selection     int
	Comparability int
	Outcome       int
}

// Total is the overall NOS score.
func (n NOS) Total() int { return n.Selection + n.Comparability + n.Outcome }

// Study is one row of the dataset: per-etiology event counts out of a
// shared denominator, plus quality and subgroup annotations.
type Study struct {
	Label     string
	NDEvents  int
	CJDEvents int
	AIEEvents int
	Total     int
	Quality   NOS
	LatAm     bool
	CaseDef   string
	// Row is the 1-based source spreadsheet row the study was decoded
	// from; 0 for studies constructed in code.
	Row int
}

// Events returns the event count for the given category.
func (s Study) Events(c Category) int {
	switch c {
	case Neurodegenerative:
		return s.NDEvents
	case CJD:
		return s.CJDEvents
	case AutoimmuneEncephalitis:
		return s.AIEEvents
	}
	return 0
}

// Dataset is the full study table plus the source file name.
type Dataset struct {
	Name    string
	Studies []Study
}

// Validate enforces the referential invariants the schema implies:
// positive totals, event counts within totals, unique study labels.
func (d *Dataset) Validate() error {
	if len(d.Studies) == 0 {
		return fmt.Errorf("dataset %s contains no studies", d.Name)
	}
	seen := map[string]int{}
	for i, s := range d.Studies {
		row := s.Row
		if row == 0 {
			row = i + 2 // header is row 1
		}
		if strings.TrimSpace(s.Label) == "" {
			return fmt.Errorf("row %d: empty study label", row)
		}
		if prev, ok := seen[s.Label]; ok {
			return fmt.Errorf("row %d: duplicate study label %q (first seen at row %d)", row, s.Label, prev)
		}
		seen[s.Label] = row
		if s.Total <= 0 {
			return fmt.Errorf("row %d (%s): total subjects must be positive, got %d", row, s.Label, s.Total)
		}
		for _, c := range Categories() {
			if e := s.Events(c); e < 0 || e > s.Total {
				return fmt.Errorf("row %d (%s): %s events %d outside [0, %d]", row, s.Label, c, e, s.Total)
			}
		}
	}
	return nil
}

// SubgroupBy is a dimension the dataset can be split on.
type SubgroupBy int

const (
	ByLatAm SubgroupBy = iota
	ByCaseDef
)

// ParseSubgroupBy accepts the CLI spellings of the subgroup dimensions.
func ParseSubgroupBy(s string) (SubgroupBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latam", "latin-america":
		return ByLatAm, nil
	case "casedef", "case-def", "case-definition":
		return ByCaseDef, nil
	}
	return 0, fmt.Errorf("unknown subgroup dimension %q (use 'latam' | 'casedef')", s)
}

func (b SubgroupBy) String() string {
	switch b {
	case ByLatAm:
		return "latam"
	case ByCaseDef:
		return "casedef"
	}
	return "unknown"
}

// Split partitions the studies along the given dimension. Groups come
// back in deterministic (sorted key) order.
func (d *Dataset) Split(by SubgroupBy) []Subgroup {
	groups := map[string][]Study{}
	for _, s := range d.Studies {
		var key string
		switch by {
		case ByLatAm:
			if s.LatAm {
				key = "Latin America"
			} else {
				key = "Elsewhere"
			}
		case ByCaseDef:
			key = s.CaseDef
			if key == "" {
				key = "(unspecified)"
			}
		}
		groups[key] = append(groups[key], s)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Subgroup, 0, len(keys))
	for _, k := range keys {
		out = append(out, Subgroup{Name: k, Studies: groups[k]})
	}
	return out
}

// Subgroup is a named slice of the dataset.
type Subgroup struct {
	Name    string
	Studies []Study
}
