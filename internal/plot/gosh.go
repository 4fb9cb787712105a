package plot

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/clinistats/metaprop/internal/meta"
)

var goshPalette = []drawing.Color{
	chart.ColorBlue,
	chart.ColorOrange,
	chart.ColorGreen,
	chart.ColorCyan,
	chart.ColorRed,
}

// Gosh renders the GOSH cloud: every subset's pooled estimate against
// its I2, one series per k-means cluster, DBSCAN noise in gray.
func Gosh(res *meta.GoshResult, title, path string, opt Options) error {
	if len(res.Points) == 0 {
		return fmt.Errorf("gosh plot: no subset points")
	}
	w, h := opt.size()

	byCluster := make(map[int][]meta.GoshPoint)
	var noise []meta.GoshPoint
	for _, p := range res.Points {
		if p.Noise {
			noise = append(noise, p)
			continue
		}
		byCluster[p.Cluster] = append(byCluster[p.Cluster], p)
	}

	scatter := func(pts []meta.GoshPoint, name string, col drawing.Color) chart.Series {
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i] = p.Prop
			ys[i] = p.I2
		}
		return chart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2,
				DotColor:    col,
			},
		}
	}

	var series []chart.Series
	for c := 0; c < res.Clusters; c++ {
		pts := byCluster[c]
		if len(pts) == 0 {
			continue
		}
		col := goshPalette[c%len(goshPalette)]
		series = append(series, scatter(pts, fmt.Sprintf("cluster %d", c+1), col))
	}
	if len(noise) > 0 {
		series = append(series, scatter(noise, "noise", chart.ColorAlternateGray))
	}

	ch := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 25, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           "Pooled proportion",
			ValueFormatter: propFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "I² (%)",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return writePNG(path, &ch)
}
