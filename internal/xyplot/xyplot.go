// Package xyplot renders an X/Y voltage trajectory to an image file,
// the offline counterpart of watching the circuit on an oscilloscope in
// X/Y mode.
package xyplot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Render draws the (x, y) trajectory as a single polyline and saves it
// to outPath. The image format follows the file extension (.png, .svg,
// .pdf).
func Render(xs, ys []float64, title, outPath string) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("xyplot: mismatched trace lengths %d and %d", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return fmt.Errorf("xyplot: empty trace")
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x [V]"
	p.Y.Label.Text = "y [V]"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("xyplot: %w", err)
	}
	line.LineStyle.Width = vg.Points(0.5)
	p.Add(line)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, outPath); err != nil {
		return fmt.Errorf("xyplot: saving %s: %w", outPath, err)
	}
	return nil
}
