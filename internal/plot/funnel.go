package plot

import (
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/clinistats/metaprop/internal/meta"
)

// Funnel renders a funnel plot: per-study effects against standard
// error (inverted axis, precise studies on top) with pseudo-confidence
// contours around the common-effect estimate.
func Funnel(res *meta.Result, title, path string, opt Options) error {
	if len(res.Studies) == 0 {
		return fmt.Errorf("funnel plot: no studies")
	}
	w, h := opt.size()
	contour := meta.Funnel(res, 60)
	center, _ := res.FixedEffect()

	// The Y axis plots -SE so the funnel tip points up; ticks carry
	// the positive labels.
	maxSE := contour.SEs[len(contour.SEs)-1]
	negSE := func(se float64) float64 { return -se }

	xs := make([]float64, len(res.Studies))
	ys := make([]float64, len(res.Studies))
	for i, s := range res.Studies {
		xs[i] = s.TE
		ys[i] = negSE(s.SE)
	}

	contourStyle := chart.Style{
		StrokeColor:     chart.ColorAlternateGray,
		StrokeWidth:     1,
		StrokeDashArray: []float64{4, 3},
	}
	loX := make([]float64, len(contour.SEs))
	hiX := make([]float64, len(contour.SEs))
	seY := make([]float64, len(contour.SEs))
	for i := range contour.SEs {
		loX[i] = contour.Lower[i]
		hiX[i] = contour.Upper[i]
		seY[i] = negSE(contour.SEs[i])
	}

	nTicks := 5
	ticks := make([]chart.Tick, 0, nTicks+1)
	for i := nTicks; i >= 0; i-- {
		se := maxSE * float64(i) / float64(nTicks)
		ticks = append(ticks, chart.Tick{Value: -se, Label: fmt.Sprintf("%.3f", se)})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 20, Right: 25, Bottom: 20}},
		XAxis: chart.XAxis{
			Name:           fmt.Sprintf("Effect (%s scale)", res.Transform),
			ValueFormatter: propFormatter,
		},
		YAxis: chart.YAxis{
			Name:  "Standard error",
			Range: &chart.ContinuousRange{Min: -maxSE, Max: 0},
			Ticks: ticks,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{XValues: loX, YValues: seY, Style: contourStyle},
			chart.ContinuousSeries{XValues: hiX, YValues: seY, Style: contourStyle},
			chart.ContinuousSeries{
				XValues: []float64{center, center},
				YValues: []float64{-maxSE, 0},
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 1},
			},
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    chart.ColorBlue,
				},
			},
		},
	}
	return writePNG(path, &ch)
}
