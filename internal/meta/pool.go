// Package meta implements random-effects meta-analysis of proportions:
// pooling, heterogeneity statistics, publication-bias regression,
// leave-one-out influence diagnostics, GOSH subset reanalysis and
// subgroup comparisons.
package meta

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/clinistats/metaprop/internal/dataset"
)

// Options controls pooling across all analyses.
type Options struct {
	Transform Transform
	// Level is the confidence level, e.g. 0.95.
	Level float64
}

// DefaultOptions returns the standard pooling setup: Freeman-Tukey
// transform at the 95% level.
func DefaultOptions() Options {
	return Options{Transform: FreemanTukey, Level: 0.95}
}

func (o Options) validate() error {
	if o.Level <= 0 || o.Level >= 1 {
		return fmt.Errorf("confidence level must be in (0, 1), got %g", o.Level)
	}
	return nil
}

func (o Options) zCrit() float64 {
	return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-o.Level)/2)
}

// StudyResult is one study's contribution to a pooled analysis.
type StudyResult struct {
	Label  string
	Events int
	Total  int
	// Raw proportion with Wilson score interval, for display.
	Prop, Lo, Hi float64
	// Effect and standard error on the transform scale.
	TE, SE float64
	// WeightPct is the random-effects weight share in percent.
	WeightPct float64
}

// Heterogeneity summarizes between-study variability.
type Heterogeneity struct {
	Q    float64
	DF   int
	P    float64
	I2   float64 // percent
	H    float64
	Tau2 float64
}

// Result is a pooled proportion estimate with diagnostics.
type Result struct {
	K         int
	Transform Transform
	Level     float64
	Studies   []StudyResult

	// Random-effects pooled proportion with CI.
	Prop, Lo, Hi float64
	// Pooled effect and SE on the transform scale.
	TE, SE float64
	// Common-effect (inverse variance) estimate for comparison.
	FixedProp, FixedLo, FixedHi float64
	fixedTE, fixedSE            float64

	Het Heterogeneity
	// Prediction interval (reported when K >= 3).
	PredLo, PredHi float64
	HasPred        bool

	nHarm float64
}

// Pool computes a random-effects (DerSimonian-Laird) pooled proportion
// for one disease category across the given studies.
func Pool(studies []dataset.Study, cat dataset.Category, opt Options) (*Result, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	k := len(studies)
	if k == 0 {
		return nil, fmt.Errorf("no studies to pool for category %s", cat)
	}
	z := opt.zCrit()

	res := &Result{K: k, Transform: opt.Transform, Level: opt.Level}
	ys := make([]float64, k)
	vs := make([]float64, k)
	ns := make([]int, k)
	for i, s := range studies {
		e := s.Events(cat)
		y, v := opt.Transform.transform(e, s.Total)
		ys[i], vs[i], ns[i] = y, v, s.Total
		lo, hi := wilson(e, s.Total, z)
		res.Studies = append(res.Studies, StudyResult{
			Label:  s.Label,
			Events: e,
			Total:  s.Total,
			Prop:   float64(e) / float64(s.Total),
			Lo:     lo,
			Hi:     hi,
			TE:     y,
			SE:     math.Sqrt(v),
		})
	}
	res.nHarm = harmonicMean(ns)

	// Common-effect (inverse variance) pooling.
	var sumW, sumWY, sumW2 float64
	for i := range ys {
		w := 1 / vs[i]
		sumW += w
		sumWY += w * ys[i]
		sumW2 += w * w
	}
	thetaF := sumWY / sumW
	seF := math.Sqrt(1 / sumW)
	res.fixedTE, res.fixedSE = thetaF, seF

	// Cochran's Q and DerSimonian-Laird tau^2.
	var q float64
	for i := range ys {
		d := ys[i] - thetaF
		q += d * d / vs[i]
	}
	res.Het.Q = q
	res.Het.DF = k - 1
	if k > 1 {
		df := float64(k - 1)
		res.Het.P = 1 - distuv.ChiSquared{K: df}.CDF(q)
		res.Het.H = math.Sqrt(math.Max(q/df, 1))
		if q > df {
			res.Het.I2 = (q - df) / q * 100
			c := sumW - sumW2/sumW
			if c > 0 {
				res.Het.Tau2 = (q - df) / c
			}
		}
	} else {
		res.Het.P = math.NaN()
	}

	// Random-effects pooling with DL weights.
	var sumWR, sumWRY float64
	weights := make([]float64, k)
	for i := range ys {
		w := 1 / (vs[i] + res.Het.Tau2)
		weights[i] = w
		sumWR += w
		sumWRY += w * ys[i]
	}
	res.TE = sumWRY / sumWR
	res.SE = math.Sqrt(1 / sumWR)
	for i := range res.Studies {
		res.Studies[i].WeightPct = weights[i] / sumWR * 100
	}

	tr := opt.Transform
	res.Prop = tr.back(res.TE, res.nHarm)
	res.Lo = tr.back(res.TE-z*res.SE, res.nHarm)
	res.Hi = tr.back(res.TE+z*res.SE, res.nHarm)
	res.FixedProp = tr.back(thetaF, res.nHarm)
	res.FixedLo = tr.back(thetaF-z*seF, res.nHarm)
	res.FixedHi = tr.back(thetaF+z*seF, res.nHarm)

	if k >= 3 {
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(k - 2)}.Quantile(1 - (1-opt.Level)/2)
		half := t * math.Sqrt(res.Het.Tau2+res.SE*res.SE)
		res.PredLo = tr.back(res.TE-half, res.nHarm)
		res.PredHi = tr.back(res.TE+half, res.nHarm)
		res.HasPred = true
	}
	return res, nil
}

// BackTransform maps an effect on the pooling scale back to a
// proportion using this result's harmonic mean sample size.
func (r *Result) BackTransform(te float64) float64 {
	return r.Transform.back(te, r.nHarm)
}

// FixedEffect exposes the common-effect estimate and SE on the
// transform scale; funnel contours center on it.
func (r *Result) FixedEffect() (te, se float64) {
	return r.fixedTE, r.fixedSE
}
