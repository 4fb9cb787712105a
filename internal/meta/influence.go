package meta

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/clinistats/metaprop/internal/dataset"
)

// LeaveOneOut is the re-pooled estimate with one study omitted.
type LeaveOneOut struct {
	Omitted      string
	Prop, Lo, Hi float64
	I2           float64
	Tau2         float64
}

// InfluenceRow holds per-study influence and outlier diagnostics.
type InfluenceRow struct {
	Label string
	// StdDelResid is the standardized deleted residual: the study's
	// effect against the leave-one-out pooled estimate.
	StdDelResid float64
	// CookD approximates Cook's distance on the pooled estimate.
	CookD float64
	// WeightPct is the study's random-effects weight share.
	WeightPct float64
	// QContribution and InfluenceOnPool are the Baujat plot axes.
	QContribution   float64
	InfluenceOnPool float64
	// Outlier flags a study whose CI lies entirely outside the
	// pooled CI.
	Outlier bool
}

// InfluenceResult bundles the full pooling, the leave-one-out series
// and the per-study diagnostics.
type InfluenceResult struct {
	Full *Result
	LOO  []LeaveOneOut
	Rows []InfluenceRow
	// Range of leave-one-out estimates, as a robustness summary.
	MinProp, MaxProp float64
}

// Influence runs the leave-one-out and outlier diagnostics for one
// category. Requires at least three studies so every omission still
// pools at least two.
func Influence(studies []dataset.Study, cat dataset.Category, opt Options) (*InfluenceResult, error) {
	k := len(studies)
	if k < 3 {
		return nil, fmt.Errorf("influence analysis requires at least 3 studies, have %d", k)
	}
	full, err := Pool(studies, cat, opt)
	if err != nil {
		return nil, err
	}
	out := &InfluenceResult{Full: full}
	thetaF, _ := full.FixedEffect()

	looProps := make([]float64, 0, k)
	for i := range studies {
		rest := make([]dataset.Study, 0, k-1)
		rest = append(rest, studies[:i]...)
		rest = append(rest, studies[i+1:]...)
		sub, err := Pool(rest, cat, opt)
		if err != nil {
			return nil, fmt.Errorf("re-pool without %s: %w", studies[i].Label, err)
		}
		out.LOO = append(out.LOO, LeaveOneOut{
			Omitted: studies[i].Label,
			Prop:    sub.Prop,
			Lo:      sub.Lo,
			Hi:      sub.Hi,
			I2:      sub.Het.I2,
			Tau2:    sub.Het.Tau2,
		})
		looProps = append(looProps, sub.Prop)

		s := full.Studies[i]
		v := s.SE * s.SE
		row := InfluenceRow{
			Label:     s.Label,
			WeightPct: s.WeightPct,
			// Baujat X: the study's contribution to Cochran's Q.
			QContribution: (s.TE - thetaF) * (s.TE - thetaF) / v,
			Outlier:       s.Lo > full.Hi || s.Hi < full.Lo,
		}
		// Baujat Y: squared shift of the common-effect estimate when
		// the study is dropped, scaled by the reduced-model variance.
		subThetaF, subSEF := sub.FixedEffect()
		row.InfluenceOnPool = (thetaF - subThetaF) * (thetaF - subThetaF) / (subSEF * subSEF)

		denom := math.Sqrt(v + sub.Het.Tau2 + sub.SE*sub.SE)
		row.StdDelResid = (s.TE - sub.TE) / denom
		row.CookD = (full.TE - sub.TE) * (full.TE - sub.TE) / (full.SE * full.SE)
		out.Rows = append(out.Rows, row)
	}

	out.MinProp, _ = stats.Min(looProps)
	out.MaxProp, _ = stats.Max(looProps)
	return out, nil
}
