package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinistats/metaprop/internal/dataset"
	"github.com/clinistats/metaprop/internal/meta"
)

// Writer renders analysis sections in a fixed Mode.
type Writer struct {
	Mode Mode
}

// RunHeader identifies one analysis run in report output.
func (w Writer) RunHeader(datasetName string) string {
	id := uuid.NewString()
	ts := time.Now().Format(time.RFC3339)
	if w.Mode == Markdown {
		return fmt.Sprintf("# Meta-analysis report\n\nDataset: %s  \nRun: %s  \nGenerated: %s\n", datasetName, id, ts)
	}
	return fmt.Sprintf("Dataset: %s\nRun:     %s\nDate:    %s\n", datasetName, id, ts)
}

func (w Writer) section(title string) string {
	if w.Mode == Markdown {
		return "\n## " + title + "\n\n"
	}
	return "\n" + title + "\n" + strings.Repeat("-", len(title)) + "\n"
}

// StudyTable lists every study's raw proportion, CI and RE weight.
func (w Writer) StudyTable(res *meta.Result) string {
	t := NewTable(w.Mode)
	t.Header("Study", "Events", "Total", "Proportion", ciHeader(res.Level), "Weight %")
	for _, s := range res.Studies {
		t.Row(s.Label, s.Events, s.Total,
			fmt.Sprintf("%.3f", s.Prop),
			fmt.Sprintf("[%.3f; %.3f]", s.Lo, s.Hi),
			fmt.Sprintf("%.1f", s.WeightPct))
	}
	t.AlignRight(2, 3, 4, 5, 6)
	return t.String()
}

// PooledTable summarizes the pooled estimates and heterogeneity.
func (w Writer) PooledTable(res *meta.Result) string {
	t := NewTable(w.Mode)
	t.Header("Model", "Proportion", ciHeader(res.Level))
	t.Row("Random effects (DL)", fmt.Sprintf("%.3f", res.Prop), fmt.Sprintf("[%.3f; %.3f]", res.Lo, res.Hi))
	t.Row("Common effect", fmt.Sprintf("%.3f", res.FixedProp), fmt.Sprintf("[%.3f; %.3f]", res.FixedLo, res.FixedHi))
	if res.HasPred {
		t.Row("Prediction interval", "", fmt.Sprintf("[%.3f; %.3f]", res.PredLo, res.PredHi))
	}
	t.AlignRight(2, 3)
	out := t.String()
	h := res.Het
	out += fmt.Sprintf("\nHeterogeneity: Q = %.2f (df = %d, p = %s), I² = %.1f%%, τ² = %.4f (k = %d, %s transform)\n",
		h.Q, h.DF, fmtP(h.P), h.I2, h.Tau2, res.K, res.Transform)
	return out
}

// LeaveOneOutTable lists the re-pooled estimate per omitted study.
func (w Writer) LeaveOneOutTable(inf *meta.InfluenceResult) string {
	t := NewTable(w.Mode)
	t.Header("Omitted study", "Proportion", ciHeader(inf.Full.Level), "I² %", "τ²")
	for _, l := range inf.LOO {
		t.Row(l.Omitted,
			fmt.Sprintf("%.3f", l.Prop),
			fmt.Sprintf("[%.3f; %.3f]", l.Lo, l.Hi),
			fmt.Sprintf("%.1f", l.I2),
			fmt.Sprintf("%.4f", l.Tau2))
	}
	t.Footer("(none omitted)",
		fmt.Sprintf("%.3f", inf.Full.Prop),
		fmt.Sprintf("[%.3f; %.3f]", inf.Full.Lo, inf.Full.Hi),
		fmt.Sprintf("%.1f", inf.Full.Het.I2),
		fmt.Sprintf("%.4f", inf.Full.Het.Tau2))
	t.AlignRight(2, 3, 4, 5)
	out := t.String()
	out += fmt.Sprintf("\nLeave-one-out estimates span [%.3f; %.3f]\n", inf.MinProp, inf.MaxProp)
	return out
}

// InfluenceTable lists the per-study influence diagnostics.
func (w Writer) InfluenceTable(inf *meta.InfluenceResult) string {
	t := NewTable(w.Mode)
	t.Header("Study", "Std. del. resid.", "Cook's D", "Weight %", "Outlier")
	for _, r := range inf.Rows {
		mark := ""
		if r.Outlier {
			mark = "yes"
		}
		t.Row(r.Label,
			fmt.Sprintf("%.2f", r.StdDelResid),
			fmt.Sprintf("%.3f", r.CookD),
			fmt.Sprintf("%.1f", r.WeightPct),
			mark)
	}
	t.AlignRight(2, 3, 4)
	return t.String()
}

// EggerSummary formats the regression test for funnel asymmetry.
func (w Writer) EggerSummary(e *meta.EggerResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Egger's regression test (k = %d)\n", e.K)
	fmt.Fprintf(&b, "  intercept = %.3f (SE %.3f), t = %.2f (df = %d), p = %s\n",
		e.Intercept, e.SE, e.T, e.DF, fmtP(e.P))
	fmt.Fprintf(&b, "  slope = %.3f\n", e.Slope)
	if e.Warning != "" {
		fmt.Fprintf(&b, "  note: %s\n", e.Warning)
	}
	return b.String()
}

// SubgroupTable lists per-subgroup pooling with the between-group test.
func (w Writer) SubgroupTable(sub *meta.SubgroupResult) string {
	t := NewTable(w.Mode)
	level := 0.95
	if len(sub.Groups) > 0 {
		level = sub.Groups[0].Level
	}
	t.Header("Subgroup", "k", "Proportion", ciHeader(level), "I² %", "τ²")
	for _, g := range sub.Groups {
		t.Row(g.Name, g.K,
			fmt.Sprintf("%.3f", g.Prop),
			fmt.Sprintf("[%.3f; %.3f]", g.Lo, g.Hi),
			fmt.Sprintf("%.1f", g.Het.I2),
			fmt.Sprintf("%.4f", g.Het.Tau2))
	}
	t.AlignRight(2, 3, 4, 5, 6)
	out := t.String()
	out += fmt.Sprintf("\nBetween groups: Q = %.2f (df = %d, p = %s)\n",
		sub.QBetween, sub.DFBetween, fmtP(sub.PBetween))
	return out
}

// GoshSummary formats the subset-reanalysis overview.
func (w Writer) GoshSummary(g *meta.GoshResult) string {
	var b strings.Builder
	mode := "sampled"
	if g.Exhaustive {
		mode = "exhaustive"
	}
	fmt.Fprintf(&b, "GOSH analysis over %d subsets (%s, k = %d)\n", len(g.Points), mode, g.K)
	fmt.Fprintf(&b, "  subset estimates: median %.3f, IQR %.3f\n", g.MedianProp, g.IQRProp)
	fmt.Fprintf(&b, "  k-means clusters: %d; DBSCAN noise points: %d\n", g.Clusters, g.NoiseCount)
	if len(g.Flagged) > 0 {
		fmt.Fprintf(&b, "  studies driving heterogeneity regimes: %s\n", strings.Join(g.Flagged, ", "))
	} else {
		b.WriteString("  no study dominates a heterogeneity regime\n")
	}
	return b.String()
}

// CategorySection titles one etiology's block in the full report.
func (w Writer) CategorySection(cat dataset.Category) string {
	return w.section(cat.Label())
}

// Section titles an arbitrary report block.
func (w Writer) Section(title string) string {
	return w.section(title)
}

func ciHeader(level float64) string {
	return fmt.Sprintf("%.0f%% CI", level*100)
}

func fmtP(p float64) string {
	if math.IsNaN(p) {
		return "n/a"
	}
	if p < 0.0001 {
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}
