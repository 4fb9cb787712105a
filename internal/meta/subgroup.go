package meta

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/clinistats/metaprop/internal/dataset"
)

// GroupPool is one subgroup's pooled result.
type GroupPool struct {
	Name string
	*Result
}

// SubgroupResult holds per-subgroup pooling plus the between-group
// heterogeneity test on the subgroup estimates.
type SubgroupResult struct {
	By       dataset.SubgroupBy
	Category dataset.Category
	Groups   []GroupPool

	QBetween  float64
	DFBetween int
	PBetween  float64
}

// Subgroups splits the dataset along the given dimension, pools each
// subgroup and tests whether the subgroup estimates differ.
func Subgroups(d *dataset.Dataset, by dataset.SubgroupBy, cat dataset.Category, opt Options) (*SubgroupResult, error) {
	parts := d.Split(by)
	if len(parts) < 2 {
		return nil, fmt.Errorf("subgroup analysis by %s: only one group present", by)
	}
	out := &SubgroupResult{By: by, Category: cat}
	for _, p := range parts {
		res, err := Pool(p.Studies, cat, opt)
		if err != nil {
			return nil, fmt.Errorf("pool subgroup %q: %w", p.Name, err)
		}
		out.Groups = append(out.Groups, GroupPool{Name: p.Name, Result: res})
	}

	// Between-group Q on the transform scale, inverse-variance
	// weighted over the subgroup estimates.
	var sumW, sumWY float64
	for _, g := range out.Groups {
		w := 1 / (g.SE * g.SE)
		sumW += w
		sumWY += w * g.TE
	}
	mean := sumWY / sumW
	for _, g := range out.Groups {
		w := 1 / (g.SE * g.SE)
		d := g.TE - mean
		out.QBetween += w * d * d
	}
	out.DFBetween = len(out.Groups) - 1
	if out.DFBetween > 0 {
		out.PBetween = 1 - distuv.ChiSquared{K: float64(out.DFBetween)}.CDF(out.QBetween)
	} else {
		out.PBetween = math.NaN()
	}
	return out, nil
}
