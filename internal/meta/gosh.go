package meta

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/clinistats/metaprop/internal/cluster"
	"github.com/clinistats/metaprop/internal/dataset"
)

// Subsets of all sizes are enumerated up to this many studies;
// beyond it the subset space is sampled.
const exhaustiveMaxK = 14

// GoshOptions controls the GOSH subset reanalysis and its clustering.
type GoshOptions struct {
	// Subsets caps the number of sampled subsets when exhaustive
	// enumeration is infeasible.
	Subsets int
	Seed    int64
	// KMeansK is the number of k-means clusters over (estimate, I2).
	KMeansK int
	// DBSCAN density parameters on the normalized GOSH cloud.
	DBSCANEps    float64
	DBSCANMinPts int
}

// DefaultGoshOptions returns the standard GOSH setup.
func DefaultGoshOptions() GoshOptions {
	return GoshOptions{Subsets: 10000, Seed: 1, KMeansK: 2, DBSCANEps: 0.05, DBSCANMinPts: 8}
}

// GoshPoint is one subset's re-pooled result.
type GoshPoint struct {
	Mask    uint64 // bit i set = study i included
	Size    int
	Prop    float64
	I2      float64
	Cluster int
	Noise   bool // DBSCAN marked the point as low-density
}

// GoshResult is the full GOSH cloud plus its cluster structure.
type GoshResult struct {
	K          int
	Exhaustive bool
	Points     []GoshPoint
	Clusters   int
	NoiseCount int

	// Distribution summary of subset estimates.
	MedianProp float64
	IQRProp    float64

	// Shares[c][i] is the fraction of cluster c's subsets containing
	// study i. ClusterMeanI2 orders clusters by heterogeneity.
	Shares        [][]float64
	ClusterMeanI2 []float64
	// Flagged lists studies over-represented in the high-I2 cluster.
	Flagged []string
}

type goshObs struct {
	idx int
	c   clusters.Coordinates
}

func (o goshObs) Coordinates() clusters.Coordinates { return o.c }
func (o goshObs) Distance(p clusters.Coordinates) float64 {
	return o.c.Distance(p)
}

// Gosh runs the graphical-display-of-study-heterogeneity analysis:
// re-pool every subset of studies (exhaustively for small k, sampled
// otherwise), then cluster the (estimate, I2) cloud to expose regimes
// driven by individual studies.
func Gosh(studies []dataset.Study, cat dataset.Category, opt Options, gopt GoshOptions) (*GoshResult, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	k := len(studies)
	if k < 3 {
		return nil, fmt.Errorf("GOSH analysis requires at least 3 studies, have %d", k)
	}
	if gopt.KMeansK < 2 {
		gopt.KMeansK = 2
	}

	ys := make([]float64, k)
	vs := make([]float64, k)
	ns := make([]int, k)
	for i, s := range studies {
		ys[i], vs[i] = opt.Transform.transform(s.Events(cat), s.Total)
		ns[i] = s.Total
	}

	res := &GoshResult{K: k}
	n := gopt.Subsets
	if n <= 0 {
		n = 10000
	}
	// Only 2^k - k - 1 distinct subsets of size >= 2 exist; a sample
	// quota at or past that bound degenerates to full enumeration
	// (rejection sampling could never collect n unique masks).
	exhaustive := k <= exhaustiveMaxK
	if !exhaustive && k < 63 && uint64(n) >= uint64(1)<<uint(k)-uint64(k)-1 {
		exhaustive = true
	}
	if exhaustive {
		res.Exhaustive = true
		for mask := uint64(1); mask < 1<<uint(k); mask++ {
			if bits.OnesCount64(mask) < 2 {
				continue
			}
			res.Points = append(res.Points, poolSubset(mask, ys, vs, ns, opt.Transform))
		}
	} else {
		rng := rand.New(rand.NewSource(gopt.Seed))
		seen := map[uint64]bool{}
		for len(res.Points) < n {
			mask := rng.Uint64() & (1<<uint(k) - 1)
			if bits.OnesCount64(mask) < 2 || seen[mask] {
				continue
			}
			seen[mask] = true
			res.Points = append(res.Points, poolSubset(mask, ys, vs, ns, opt.Transform))
		}
	}

	props := make([]float64, len(res.Points))
	for i, p := range res.Points {
		props[i] = p.Prop
	}
	res.MedianProp, _ = stats.Median(props)
	res.IQRProp, _ = stats.InterQuartileRange(props)

	if err := res.clusterize(gopt); err != nil {
		return nil, err
	}
	res.flagStudies(studies)
	return res, nil
}

// poolSubset is a stripped-down DL pooling over a study bitmask.
func poolSubset(mask uint64, ys, vs []float64, ns []int, tr Transform) GoshPoint {
	var sumW, sumWY, sumW2 float64
	var subNs []int
	for i := range ys {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		w := 1 / vs[i]
		sumW += w
		sumWY += w * ys[i]
		sumW2 += w * w
		subNs = append(subNs, ns[i])
	}
	size := len(subNs)
	thetaF := sumWY / sumW
	var q float64
	for i := range ys {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		d := ys[i] - thetaF
		q += d * d / vs[i]
	}
	df := float64(size - 1)
	var tau2, i2 float64
	if q > df {
		i2 = (q - df) / q * 100
		c := sumW - sumW2/sumW
		if c > 0 {
			tau2 = (q - df) / c
		}
	}
	var sumWR, sumWRY float64
	for i := range ys {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		w := 1 / (vs[i] + tau2)
		sumWR += w
		sumWRY += w * ys[i]
	}
	te := sumWRY / sumWR
	return GoshPoint{
		Mask: mask,
		Size: size,
		Prop: tr.back(te, harmonicMean(subNs)),
		I2:   i2,
	}
}

// clusterize partitions the GOSH cloud with k-means and marks
// low-density points via DBSCAN. Coordinates are (proportion, I2/100)
// so both axes span roughly [0, 1].
func (r *GoshResult) clusterize(gopt GoshOptions) error {
	obs := make(clusters.Observations, len(r.Points))
	pts := make([]cluster.Point, len(r.Points))
	for i, p := range r.Points {
		coord := clusters.Coordinates{p.Prop, p.I2 / 100}
		obs[i] = goshObs{idx: i, c: coord}
		pts[i] = cluster.Point{p.Prop, p.I2 / 100}
	}

	km := kmeans.New()
	parts, err := km.Partition(obs, gopt.KMeansK)
	if err != nil {
		return fmt.Errorf("k-means over GOSH cloud: %w", err)
	}
	r.Clusters = len(parts)
	for ci, part := range parts {
		for _, o := range part.Observations {
			r.Points[o.(goshObs).idx].Cluster = ci
		}
	}

	eps := gopt.DBSCANEps
	if eps <= 0 {
		eps = 0.05
	}
	minPts := gopt.DBSCANMinPts
	if minPts <= 0 {
		minPts = 8
	}
	labels := cluster.DBSCAN(pts, eps, minPts)
	for i, l := range labels {
		if l == cluster.Noise {
			r.Points[i].Noise = true
			r.NoiseCount++
		}
	}
	return nil
}

// flagStudies compares per-study inclusion shares between the
// highest- and lowest-heterogeneity clusters; a large imbalance marks
// a study as driving a heterogeneity regime.
func (r *GoshResult) flagStudies(studies []dataset.Study) {
	if r.Clusters < 2 {
		return
	}
	counts := make([]int, r.Clusters)
	shares := make([][]float64, r.Clusters)
	sumI2 := make([]float64, r.Clusters)
	for c := range shares {
		shares[c] = make([]float64, r.K)
	}
	for _, p := range r.Points {
		counts[p.Cluster]++
		sumI2[p.Cluster] += p.I2
		for i := 0; i < r.K; i++ {
			if p.Mask&(1<<uint(i)) != 0 {
				shares[p.Cluster][i]++
			}
		}
	}
	r.ClusterMeanI2 = make([]float64, r.Clusters)
	for c := range shares {
		if counts[c] == 0 {
			continue
		}
		r.ClusterMeanI2[c] = sumI2[c] / float64(counts[c])
		for i := range shares[c] {
			shares[c][i] /= float64(counts[c])
		}
	}
	r.Shares = shares

	order := make([]int, r.Clusters)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return r.ClusterMeanI2[order[a]] < r.ClusterMeanI2[order[b]]
	})
	lo, hi := order[0], order[len(order)-1]
	const shareGap = 0.25
	for i := 0; i < r.K; i++ {
		if math.Abs(shares[hi][i]-shares[lo][i]) >= shareGap {
			r.Flagged = append(r.Flagged, studies[i].Label)
		}
	}
}
