package meta

import (
	"fmt"
	"math"
	"strings"
)

// Transform selects the scale proportions are pooled on.
type Transform int

const (
	// FreemanTukey is the double-arcsine transform, the default for
	// pooling proportions with zero-event studies.
	FreemanTukey Transform = iota
	// Logit pools on the log-odds scale with a 0.5 continuity
	// correction for boundary studies.
	Logit
)

// ParseTransform accepts the CLI spellings of the pooling transform.
func ParseTransform(s string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ft", "freeman-tukey", "pft":
		return FreemanTukey, nil
	case "logit", "plogit":
		return Logit, nil
	}
	return 0, fmt.Errorf("unknown transform %q (use 'ft' | 'logit')", s)
}

func (t Transform) String() string {
	switch t {
	case FreemanTukey:
		return "freeman-tukey"
	case Logit:
		return "logit"
	}
	return "unknown"
}

// transform maps an event count out of n onto the pooling scale,
// returning the effect and its variance.
func (t Transform) transform(events, n int) (y, v float64) {
	e := float64(events)
	nn := float64(n)
	switch t {
	case Logit:
		if events == 0 || events == n {
			e += 0.5
			nn += 1
		}
		y = math.Log(e / (nn - e))
		v = 1/e + 1/(nn-e)
	default: // FreemanTukey
		y = math.Asin(math.Sqrt(e/(nn+1))) + math.Asin(math.Sqrt((e+1)/(nn+1)))
		v = 1 / (nn + 0.5)
	}
	return y, v
}

// back maps a pooled effect on the transform scale back to a
// proportion. nHarm is the harmonic mean sample size, used by the
// Freeman-Tukey inversion (Miller 1978).
func (t Transform) back(y, nHarm float64) float64 {
	switch t {
	case Logit:
		return 1 / (1 + math.Exp(-y))
	default:
		return backFreemanTukey(y, nHarm)
	}
}

func backFreemanTukey(y, nHarm float64) float64 {
	// Boundary guards: the double-arcsine scale spans [0, pi].
	if y <= 0 {
		return 0
	}
	if y >= math.Pi {
		return 1
	}
	s := math.Sin(y)
	inner := s + (s-1/s)/nHarm
	arg := 1 - inner*inner
	if arg < 0 {
		arg = 0
	}
	p := 0.5 * (1 - sign(math.Cos(y))*math.Sqrt(arg))
	return clamp01(p)
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// wilson computes the score confidence interval for a raw proportion,
// used for the per-study rows on forest plots.
func wilson(events, n int, z float64) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	p := float64(events) / float64(n)
	nn := float64(n)
	z2 := z * z
	denom := 1 + z2/nn
	center := (p + z2/(2*nn)) / denom
	half := z * math.Sqrt(p*(1-p)/nn+z2/(4*nn*nn)) / denom
	return clamp01(center - half), clamp01(center + half)
}

// harmonicMean of study sample sizes; feeds the Freeman-Tukey
// back-transform.
func harmonicMean(ns []int) float64 {
	if len(ns) == 0 {
		return 0
	}
	var inv float64
	for _, n := range ns {
		inv += 1 / float64(n)
	}
	return float64(len(ns)) / inv
}
