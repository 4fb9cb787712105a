package meta

import (
	"math"
	"testing"

	"github.com/clinistats/metaprop/internal/dataset"
)

func testStudies() []dataset.Study {
	return []dataset.Study{
		{Label: "Acosta 2019", NDEvents: 12, CJDEvents: 3, AIEEvents: 2, Total: 40, LatAm: true, CaseDef: "clinical"},
		{Label: "Bravo 2020", NDEvents: 20, CJDEvents: 5, AIEEvents: 4, Total: 60, LatAm: true, CaseDef: "pathological"},
		{Label: "Chen 2018", NDEvents: 30, CJDEvents: 10, AIEEvents: 5, Total: 90, CaseDef: "clinical"},
		{Label: "Dawson 2021", NDEvents: 8, CJDEvents: 2, AIEEvents: 1, Total: 25, CaseDef: "clinical"},
		{Label: "Evans 2017", NDEvents: 15, CJDEvents: 4, AIEEvents: 3, Total: 50, CaseDef: "pathological"},
	}
}

func TestPoolBasics(t *testing.T) {
	res, err := Pool(testStudies(), dataset.Neurodegenerative, DefaultOptions())
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if res.K != 5 {
		t.Fatalf("K = %d, want 5", res.K)
	}
	if !(res.Lo < res.Prop && res.Prop < res.Hi) {
		t.Fatalf("CI [%.3f, %.3f] must bracket estimate %.3f", res.Lo, res.Hi, res.Prop)
	}
	// the pooled proportion must sit inside the range of study proportions
	minP, maxP := 1.0, 0.0
	for _, s := range res.Studies {
		if s.Prop < minP {
			minP = s.Prop
		}
		if s.Prop > maxP {
			maxP = s.Prop
		}
	}
	if res.Prop < minP || res.Prop > maxP {
		t.Fatalf("pooled %.3f outside study range [%.3f, %.3f]", res.Prop, minP, maxP)
	}
	var wsum float64
	for _, s := range res.Studies {
		wsum += s.WeightPct
	}
	almost(t, wsum, 100, 1e-6, "weight sum")
	if res.Het.DF != 4 {
		t.Fatalf("df = %d, want 4", res.Het.DF)
	}
	if res.Het.I2 < 0 || res.Het.I2 > 100 {
		t.Fatalf("I2 = %.2f out of range", res.Het.I2)
	}
	if !res.HasPred {
		t.Fatal("expected a prediction interval for k = 5")
	}
	if !(res.PredLo <= res.Lo && res.Hi <= res.PredHi) {
		t.Fatalf("prediction interval [%.3f, %.3f] must contain CI [%.3f, %.3f]",
			res.PredLo, res.PredHi, res.Lo, res.Hi)
	}
}

func TestPoolHomogeneousStudies(t *testing.T) {
	// identical proportions: no heterogeneity, pooled equals the rate
	studies := []dataset.Study{
		{Label: "A", NDEvents: 10, Total: 40},
		{Label: "B", NDEvents: 10, Total: 40},
		{Label: "C", NDEvents: 10, Total: 40},
	}
	res, err := Pool(studies, dataset.Neurodegenerative, DefaultOptions())
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	almost(t, res.Het.Q, 0, 1e-9, "Q")
	almost(t, res.Het.Tau2, 0, 1e-9, "tau2")
	almost(t, res.Het.I2, 0, 1e-9, "I2")
	almost(t, res.Prop, 0.25, 0.01, "pooled proportion")
	almost(t, res.FixedProp, res.Prop, 1e-9, "fixed == random when tau2 = 0")
}

func TestPoolSingleStudy(t *testing.T) {
	res, err := Pool(testStudies()[:1], dataset.CJD, DefaultOptions())
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if res.K != 1 {
		t.Fatalf("K = %d", res.K)
	}
	if res.Het.DF != 0 || !math.IsNaN(res.Het.P) {
		t.Fatalf("single study must not report a heterogeneity test: df=%d p=%v", res.Het.DF, res.Het.P)
	}
	if res.HasPred {
		t.Fatal("single study must not report a prediction interval")
	}
	almost(t, res.Prop, 3.0/40, 0.02, "single-study estimate")
}

func TestPoolNoStudies(t *testing.T) {
	if _, err := Pool(nil, dataset.CJD, DefaultOptions()); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestPoolRejectsBadLevel(t *testing.T) {
	opt := DefaultOptions()
	opt.Level = 1.5
	if _, err := Pool(testStudies(), dataset.CJD, opt); err == nil {
		t.Fatal("expected error for level outside (0, 1)")
	}
}

func TestPoolLogitTransform(t *testing.T) {
	opt := DefaultOptions()
	opt.Transform = Logit
	res, err := Pool(testStudies(), dataset.AutoimmuneEncephalitis, opt)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if res.Transform != Logit {
		t.Fatalf("Transform = %v", res.Transform)
	}
	if !(0 < res.Prop && res.Prop < 1) {
		t.Fatalf("pooled proportion %v out of (0, 1)", res.Prop)
	}
}

func TestPoolZeroEventCategory(t *testing.T) {
	studies := []dataset.Study{
		{Label: "A", AIEEvents: 0, Total: 40},
		{Label: "B", AIEEvents: 0, Total: 60},
		{Label: "C", AIEEvents: 1, Total: 50},
	}
	for _, tr := range []Transform{FreemanTukey, Logit} {
		opt := DefaultOptions()
		opt.Transform = tr
		res, err := Pool(studies, dataset.AutoimmuneEncephalitis, opt)
		if err != nil {
			t.Fatalf("Pool(%v): %v", tr, err)
		}
		if math.IsNaN(res.Prop) || res.Prop < 0 || res.Prop > 0.1 {
			t.Fatalf("Pool(%v) = %v, want a small proportion", tr, res.Prop)
		}
	}
}

func TestPoolWiderLevelWidensCI(t *testing.T) {
	opt95 := DefaultOptions()
	opt99 := DefaultOptions()
	opt99.Level = 0.99
	r95, err := Pool(testStudies(), dataset.Neurodegenerative, opt95)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	r99, err := Pool(testStudies(), dataset.Neurodegenerative, opt99)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if r99.Hi-r99.Lo <= r95.Hi-r95.Lo {
		t.Fatalf("99%% CI [%.4f, %.4f] not wider than 95%% [%.4f, %.4f]",
			r99.Lo, r99.Hi, r95.Lo, r95.Hi)
	}
}
