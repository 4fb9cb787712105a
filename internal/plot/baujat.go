package plot

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/clinistats/metaprop/internal/meta"
)

// Baujat renders the Baujat diagnostic: each study's contribution to
// overall heterogeneity (X) against its influence on the pooled
// estimate (Y), labeled by study.
func Baujat(inf *meta.InfluenceResult, title, path string, opt Options) error {
	if len(inf.Rows) == 0 {
		return fmt.Errorf("baujat plot: no influence rows")
	}
	w, h := opt.size()

	xs := make([]float64, len(inf.Rows))
	ys := make([]float64, len(inf.Rows))
	notes := make([]chart.Value2, len(inf.Rows))
	for i, r := range inf.Rows {
		xs[i] = r.QContribution
		ys[i] = r.InfluenceOnPool
		notes[i] = chart.Value2{XValue: r.QContribution, YValue: r.InfluenceOnPool, Label: r.Label}
	}

	ch := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 80, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           "Contribution to Q",
			ValueFormatter: propFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Influence on pooled estimate",
			ValueFormatter: propFormatter,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    chart.ColorBlue,
				},
			},
			chart.AnnotationSeries{
				Annotations: notes,
				Style:       chart.Style{StrokeColor: chart.ColorAlternateGray},
			},
		},
	}
	return writePNG(path, &ch)
}
