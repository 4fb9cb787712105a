// Package plot renders the analysis figures (forest, funnel, Baujat,
// GOSH) as PNG files via go-chart.
package plot

import (
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
)

// Options sets the pixel dimensions of rendered plots.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns the standard figure size.
func DefaultOptions() Options {
	return Options{Width: 1000, Height: 600}
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1000
	}
	if h <= 0 {
		h = 600
	}
	return w, h
}

// writePNG renders the chart to path, creating parent directories.
func writePNG(path string, ch *chart.Chart) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir plot dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file: %w", err)
	}
	defer f.Close()
	if err := ch.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	return nil
}

func propFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}
