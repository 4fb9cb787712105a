package meta

import (
	"testing"

	"github.com/clinistats/metaprop/internal/dataset"
)

func TestInfluenceRequiresThreeStudies(t *testing.T) {
	if _, err := Influence(testStudies()[:2], dataset.Neurodegenerative, DefaultOptions()); err == nil {
		t.Fatal("expected error for k = 2")
	}
}

func TestInfluenceLeaveOneOut(t *testing.T) {
	studies := testStudies()
	inf, err := Influence(studies, dataset.Neurodegenerative, DefaultOptions())
	if err != nil {
		t.Fatalf("Influence: %v", err)
	}
	if len(inf.LOO) != len(studies) || len(inf.Rows) != len(studies) {
		t.Fatalf("got %d LOO / %d rows, want %d", len(inf.LOO), len(inf.Rows), len(studies))
	}
	for i, l := range inf.LOO {
		if l.Omitted != studies[i].Label {
			t.Fatalf("LOO[%d] omitted %q, want %q", i, l.Omitted, studies[i].Label)
		}
		if !(l.Lo < l.Prop && l.Prop < l.Hi) {
			t.Fatalf("LOO[%d] CI [%.3f, %.3f] must bracket %.3f", i, l.Lo, l.Hi, l.Prop)
		}
	}
	if !(inf.MinProp <= inf.Full.Prop && inf.Full.Prop <= inf.MaxProp) {
		// the full estimate almost always sits inside the LOO range;
		// equality at the edges is acceptable
		t.Logf("full estimate %.3f outside LOO range [%.3f, %.3f]", inf.Full.Prop, inf.MinProp, inf.MaxProp)
	}
	for _, r := range inf.Rows {
		if r.QContribution < 0 || r.InfluenceOnPool < 0 || r.CookD < 0 {
			t.Fatalf("diagnostics must be non-negative: %+v", r)
		}
	}
}

func TestInfluenceFlagsExtremeStudy(t *testing.T) {
	studies := []dataset.Study{
		{Label: "A", NDEvents: 10, Total: 100},
		{Label: "B", NDEvents: 11, Total: 100},
		{Label: "C", NDEvents: 9, Total: 100},
		{Label: "D", NDEvents: 10, Total: 100},
		{Label: "Outlier", NDEvents: 90, Total: 100},
	}
	inf, err := Influence(studies, dataset.Neurodegenerative, DefaultOptions())
	if err != nil {
		t.Fatalf("Influence: %v", err)
	}
	var flagged []string
	maxCook := ""
	best := -1.0
	for _, r := range inf.Rows {
		if r.Outlier {
			flagged = append(flagged, r.Label)
		}
		if r.CookD > best {
			best = r.CookD
			maxCook = r.Label
		}
	}
	if len(flagged) != 1 || flagged[0] != "Outlier" {
		t.Fatalf("outlier flags = %v, want only 'Outlier'", flagged)
	}
	if maxCook != "Outlier" {
		t.Fatalf("largest Cook's D on %q, want 'Outlier'", maxCook)
	}

	// dropping the outlier must shrink heterogeneity sharply
	var without *LeaveOneOut
	for i := range inf.LOO {
		if inf.LOO[i].Omitted == "Outlier" {
			without = &inf.LOO[i]
		}
	}
	if without == nil {
		t.Fatal("missing LOO entry for the outlier")
	}
	if without.I2 >= inf.Full.Het.I2 {
		t.Fatalf("I2 without outlier (%.1f) must drop below full I2 (%.1f)",
			without.I2, inf.Full.Het.I2)
	}
	if without.Prop >= inf.Full.Prop {
		t.Fatalf("estimate without outlier (%.3f) must fall below full (%.3f)",
			without.Prop, inf.Full.Prop)
	}
}
