package meta

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// EggerResult holds the linear-regression test for funnel plot
// asymmetry: the standardized effect regressed on precision, with the
// intercept as the bias estimate.
type EggerResult struct {
	K         int
	Intercept float64
	SE        float64
	T         float64
	DF        int
	P         float64
	Slope     float64
	// Warning is set when the test is underpowered (k < 10).
	Warning string
}

// Egger runs Egger's regression test on a pooled result. Requires at
// least three studies; below ten the result carries a warning, as the
// test has little power for small meta-analyses.
func Egger(res *Result) (*EggerResult, error) {
	k := len(res.Studies)
	if k < 3 {
		return nil, fmt.Errorf("Egger's test requires at least 3 studies, have %d", k)
	}
	precision := make([]float64, k)
	snd := make([]float64, k)
	for i, s := range res.Studies {
		precision[i] = 1 / s.SE
		snd[i] = s.TE / s.SE
	}
	alpha, beta := stat.LinearRegression(precision, snd, nil, false)

	// Standard OLS error for the intercept.
	var rss, sxx float64
	xbar := stat.Mean(precision, nil)
	for i := range precision {
		r := snd[i] - alpha - beta*precision[i]
		rss += r * r
		dx := precision[i] - xbar
		sxx += dx * dx
	}
	df := k - 2
	s2 := rss / float64(df)
	seAlpha := math.Sqrt(s2 * (1/float64(k) + xbar*xbar/sxx))
	t := alpha / seAlpha
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	p := 2 * tdist.CDF(-math.Abs(t))

	out := &EggerResult{
		K:         k,
		Intercept: alpha,
		SE:        seAlpha,
		T:         t,
		DF:        df,
		P:         p,
		Slope:     beta,
	}
	if k < 10 {
		out.Warning = fmt.Sprintf("only %d studies; Egger's test is underpowered below 10", k)
	}
	return out, nil
}

// FunnelContour is one pseudo-confidence funnel line around the
// common-effect estimate: at each SE, effect = center +/- z*SE.
type FunnelContour struct {
	SEs      []float64
	Lower    []float64
	Upper    []float64
}

// Funnel computes the contour for a result at its configured level,
// sampled over the observed SE range (extended to SE=0 at the tip).
func Funnel(res *Result, points int) FunnelContour {
	if points < 2 {
		points = 50
	}
	maxSE := 0.0
	for _, s := range res.Studies {
		if s.SE > maxSE {
			maxSE = s.SE
		}
	}
	maxSE *= 1.05
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - (1-res.Level)/2)
	center, _ := res.FixedEffect()
	c := FunnelContour{
		SEs:   make([]float64, points),
		Lower: make([]float64, points),
		Upper: make([]float64, points),
	}
	for i := 0; i < points; i++ {
		se := maxSE * float64(i) / float64(points-1)
		c.SEs[i] = se
		c.Lower[i] = center - z*se
		c.Upper[i] = center + z*se
	}
	return c
}
