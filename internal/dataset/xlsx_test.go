package dataset

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildWorkbook writes a minimal .xlsx with one sheet of study rows,
// using shared strings for text cells and inline <v> for numbers.
func buildWorkbook(t *testing.T, sheetName string, header []string, rows [][]string) string {
	t.Helper()

	var shared []string
	sharedIdx := map[string]int{}
	intern := func(s string) int {
		if i, ok := sharedIdx[s]; ok {
			return i
		}
		sharedIdx[s] = len(shared)
		shared = append(shared, s)
		return len(shared) - 1
	}

	colRef := func(i int) string {
		name := ""
		for i >= 0 {
			name = string(rune('A'+i%26)) + name
			i = i/26 - 1
		}
		return name
	}

	var sheet strings.Builder
	sheet.WriteString(`<worksheet><sheetData>`)
	writeRow := func(rowNum int, cells []string) {
		fmt.Fprintf(&sheet, `<row r="%d">`, rowNum)
		for i, v := range cells {
			ref := fmt.Sprintf("%s%d", colRef(i), rowNum)
			if _, err := fmt.Sscanf(v, "%f", new(float64)); err == nil && v != "" {
				fmt.Fprintf(&sheet, `<c r="%s"><v>%s</v></c>`, ref, v)
			} else if v != "" {
				fmt.Fprintf(&sheet, `<c r="%s" t="s"><v>%d</v></c>`, ref, intern(v))
			}
		}
		sheet.WriteString(`</row>`)
	}
	writeRow(1, header)
	for i, r := range rows {
		writeRow(i+2, r)
	}
	sheet.WriteString(`</sheetData></worksheet>`)

	var sst strings.Builder
	sst.WriteString(`<sst>`)
	for _, s := range shared {
		fmt.Fprintf(&sst, `<si><t>%s</t></si>`, s)
	}
	sst.WriteString(`</sst>`)

	workbook := fmt.Sprintf(`<workbook><sheets><sheet name="%s" sheetId="1" r:id="rId1"/></sheets></workbook>`, sheetName)
	rels := `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`

	path := filepath.Join(t.TempDir(), "rpd.xlsx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create xlsx: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range map[string]string{
		"xl/workbook.xml":            workbook,
		"xl/_rels/workbook.xml.rels": rels,
		"xl/sharedStrings.xml":       sst.String(),
		"xl/worksheets/sheet1.xml":   sheet.String(),
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

var xlsxHeader = []string{"study", "nd_events", "cjd_events", "aie_events", "total", "latam", "case_def"}

var xlsxRows = [][]string{
	{"Acosta 2019", "12", "3", "2", "40", "yes", "clinical"},
	{"Bravo 2020", "20", "5", "4", "60", "no", "pathological"},
}

func TestLoadXLSX(t *testing.T) {
	path := buildWorkbook(t, "Extraction", xlsxHeader, xlsxRows)
	d, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Studies) != 2 {
		t.Fatalf("got %d studies, want 2", len(d.Studies))
	}
	s := d.Studies[0]
	if s.Label != "Acosta 2019" || s.NDEvents != 12 || s.Total != 40 || !s.LatAm {
		t.Fatalf("decoded wrong: %+v", s)
	}
	if d.Studies[1].CaseDef != "pathological" {
		t.Fatalf("CaseDef = %q", d.Studies[1].CaseDef)
	}
}

func TestLoadXLSXBySheetName(t *testing.T) {
	path := buildWorkbook(t, "Extraction", xlsxHeader, xlsxRows)
	opt := DefaultOptions()
	opt.SheetName = "extraction" // case-insensitive
	d, err := Load(path, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.Contains(d.Name, "sheet: extraction") {
		t.Fatalf("Name = %q, expected sheet annotation", d.Name)
	}
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	path := buildWorkbook(t, "Extraction", xlsxHeader, xlsxRows)
	opt := DefaultOptions()
	opt.SheetName = "Summary"
	_, err := Load(path, opt)
	if err == nil {
		t.Fatal("expected error for unknown sheet")
	}
	if !strings.Contains(err.Error(), "Available sheets: Extraction") {
		t.Fatalf("error %q should list available sheets", err)
	}
}

// writeZip builds an .xlsx-shaped archive with arbitrary entries.
func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create xlsx: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestLoadXLSXMalformedWorkbookXML(t *testing.T) {
	path := writeZip(t, map[string]string{
		"xl/workbook.xml": `<workbook><sheets><sheet name="S1"`,
	})
	_, err := Load(path, DefaultOptions())
	if err == nil {
		t.Fatal("expected error for malformed workbook.xml")
	}
	if !strings.Contains(err.Error(), "workbook.xml") {
		t.Fatalf("error %q should name workbook.xml", err)
	}
}

func TestLoadXLSXTruncatedWorksheet(t *testing.T) {
	path := writeZip(t, map[string]string{
		"xl/workbook.xml":            `<workbook><sheets><sheet name="S1" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml":   `<worksheet><sheetData><row r="1"><c r="A1"><v>study</v></c></row><row r="2">`,
	})
	_, err := Load(path, DefaultOptions())
	if err == nil {
		t.Fatal("expected error for truncated worksheet")
	}
	if !strings.Contains(err.Error(), "parse worksheet") {
		t.Fatalf("error %q should report the worksheet parse failure", err)
	}
}

func TestLoadXLSXNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.xlsx")
	if err := os.WriteFile(path, []byte("not a workbook"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path, DefaultOptions()); err == nil {
		t.Fatal("expected error for non-zip file")
	}
}
