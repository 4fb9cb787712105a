package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var csvRows = []string{
	"study,nd_events,cjd_events,aie_events,total,nos_selection,nos_comparability,nos_outcome,latam,case_def",
	"Acosta 2019,12,3,2,40,3,1,2,yes,clinical",
	"Bravo 2020,20,5,4,60,4,2,3,1,pathological",
	"Chen 2018,30,10,5,90,3,2,2,no,clinical",
	"Dawson 2021,8.0,2,1,25,2,1,2,,clinical",
}

func writeFixture(t *testing.T, name string, rows []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.Join(rows, "\n")), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeFixture(t, "rpd.csv", csvRows)
	d, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Name != "rpd.csv" {
		t.Fatalf("Name = %q", d.Name)
	}
	want := []Study{
		{Label: "Acosta 2019", NDEvents: 12, CJDEvents: 3, AIEEvents: 2, Total: 40, Quality: NOS{3, 1, 2}, LatAm: true, CaseDef: "clinical", Row: 2},
		{Label: "Bravo 2020", NDEvents: 20, CJDEvents: 5, AIEEvents: 4, Total: 60, Quality: NOS{4, 2, 3}, LatAm: true, CaseDef: "pathological", Row: 3},
		{Label: "Chen 2018", NDEvents: 30, CJDEvents: 10, AIEEvents: 5, Total: 90, Quality: NOS{3, 2, 2}, CaseDef: "clinical", Row: 4},
		{Label: "Dawson 2021", NDEvents: 8, CJDEvents: 2, AIEEvents: 1, Total: 25, Quality: NOS{2, 1, 2}, CaseDef: "clinical", Row: 5},
	}
	if diff := cmp.Diff(want, d.Studies); diff != "" {
		t.Fatalf("studies mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCSVHeaderAliases(t *testing.T) {
	rows := []string{
		"Author,ND,CJD,Autoimmune,N,Selection,Comparability,Outcome,Latin-America,Case-Definition",
		"Acosta 2019,12,3,2,40,3,1,2,yes,clinical",
	}
	path := writeFixture(t, "aliased.csv", rows)
	d, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := d.Studies[0]
	if s.Label != "Acosta 2019" || s.NDEvents != 12 || s.Total != 40 || !s.LatAm {
		t.Fatalf("aliased columns decoded wrong: %+v", s)
	}
	if s.Quality.Total() != 6 {
		t.Fatalf("NOS total = %d, want 6", s.Quality.Total())
	}
}

func TestLoadTSVSniffsDelimiter(t *testing.T) {
	rows := []string{
		"study\tnd_events\tcjd_events\taie_events\ttotal",
		"Acosta 2019\t12\t3\t2\t40",
	}
	path := writeFixture(t, "rpd.tsv", rows)
	d, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Studies) != 1 || d.Studies[0].Total != 40 {
		t.Fatalf("tsv decoded wrong: %+v", d.Studies)
	}
}

func TestLoadCSVSkipsBlankRows(t *testing.T) {
	rows := append(append([]string{}, csvRows...), ",,,,,,,,,", "")
	path := writeFixture(t, "padded.csv", rows)
	d, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Studies) != 4 {
		t.Fatalf("got %d studies, want 4", len(d.Studies))
	}
}

func TestValidateNamesSourceRowPastBlanks(t *testing.T) {
	// a blank padding row before the offending study must not shift
	// the row number in the validation error
	rows := []string{
		"study,nd_events,cjd_events,aie_events,total",
		",,,,",
		"A,50,3,2,40",
	}
	path := writeFixture(t, "padded.csv", rows)
	_, err := Load(path, DefaultOptions())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("error %q should name source row 3", err)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	cases := []struct {
		name    string
		rows    []string
		wantSub string
	}{
		{
			name:    "missing column",
			rows:    []string{"study,nd_events,total", "A,1,10"},
			wantSub: "missing required column",
		},
		{
			name: "bad count",
			rows: []string{
				"study,nd_events,cjd_events,aie_events,total",
				"A,twelve,3,2,40",
			},
			wantSub: "column nd_events",
		},
		{
			name: "bad indicator",
			rows: []string{
				"study,nd_events,cjd_events,aie_events,total,latam",
				"A,1,1,1,40,maybe",
			},
			wantSub: "column latam",
		},
		{
			name: "events exceed total",
			rows: []string{
				"study,nd_events,cjd_events,aie_events,total",
				"A,50,3,2,40",
			},
			wantSub: "outside [0, 40]",
		},
		{
			name:    "empty file",
			rows:    []string{""},
			wantSub: "file is empty",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFixture(t, "bad.csv", tc.rows)
			_, err := Load(path, DefaultOptions())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}
