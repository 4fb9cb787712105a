package plot

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/clinistats/metaprop/internal/meta"
)

// Forest renders a forest plot for a pooled result: per-study CI
// whiskers with the pooled band at the bottom.
func Forest(res *meta.Result, title, path string, opt Options) error {
	k := len(res.Studies)
	if k == 0 {
		return fmt.Errorf("forest plot: no studies")
	}
	w, _ := opt.size()
	// scale height with the number of rows so labels stay readable
	h := 140 + 36*(k+1)
	if h < 320 {
		h = 320
	}

	maxX := res.Hi
	for _, s := range res.Studies {
		if s.Hi > maxX {
			maxX = s.Hi
		}
	}
	maxX *= 1.08
	if maxX > 1 {
		maxX = 1
	}

	series := []chart.Series{}
	ticks := []chart.Tick{{Value: -1, Label: ""}}

	// pooled band at y=0: CI bar plus center marker
	pooledStyle := chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 5}
	series = append(series, chart.ContinuousSeries{
		XValues: []float64{res.Lo, res.Hi},
		YValues: []float64{0, 0},
		Style:   pooledStyle,
	})
	series = append(series, chart.ContinuousSeries{
		XValues: []float64{res.Prop, res.Prop},
		YValues: []float64{-0.3, 0.3},
		Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2},
	})
	ticks = append(ticks, chart.Tick{Value: 0, Label: fmt.Sprintf("RE pooled %.3f", res.Prop)})

	// vertical reference line at the pooled estimate
	series = append(series, chart.ContinuousSeries{
		XValues: []float64{res.Prop, res.Prop},
		YValues: []float64{-0.6, float64(k) + 0.6},
		Style: chart.Style{
			StrokeColor:     chart.ColorAlternateGray,
			StrokeWidth:     1,
			StrokeDashArray: []float64{4, 3},
		},
	})

	// studies from the bottom up so the first study sits on top
	estX := make([]float64, 0, k)
	estY := make([]float64, 0, k)
	for i, s := range res.Studies {
		y := float64(k - i)
		series = append(series, chart.ContinuousSeries{
			XValues: []float64{s.Lo, s.Hi},
			YValues: []float64{y, y},
			Style:   chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 2},
		})
		estX = append(estX, s.Prop)
		estY = append(estY, y)
		ticks = append(ticks, chart.Tick{
			Value: y,
			Label: fmt.Sprintf("%s (%d/%d)", s.Label, s.Events, s.Total),
		})
	}
	series = append(series, chart.ContinuousSeries{
		XValues: estX,
		YValues: estY,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    4,
			DotColor:    chart.ColorBlue,
		},
	})
	ticks = append(ticks, chart.Tick{Value: float64(k) + 1, Label: ""})

	ch := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 25, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           "Proportion",
			ValueFormatter: propFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxX},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -1, Max: float64(k) + 1},
			Ticks: ticks,
		},
		Series: series,
	}
	return writePNG(path, &ch)
}
