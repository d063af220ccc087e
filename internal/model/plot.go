package model

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotFit renders the samples as a scatter with the fitted curve over them
// and saves it to path. The format follows the extension (.png, .svg, .pdf).
func PlotFit(samples []Sample, r *Regression, path string) error {
	if len(samples) == 0 {
		return ErrNotEnoughSamples
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Press duration (%d samples, rms %.1f ms)", r.Samples(), r.RMS())
	p.X.Label.Text = "distance (px)"
	p.Y.Label.Text = "duration (ms)"

	var hit, miss plotter.XYs
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		pt := plotter.XY{X: s.Distance, Y: float64(s.Duration)}
		if s.HitCenter {
			hit = append(hit, pt)
		} else {
			miss = append(miss, pt)
		}
		lo = math.Min(lo, s.Distance)
		hi = math.Max(hi, s.Distance)
	}

	if len(miss) > 0 {
		sc, err := plotter.NewScatter(miss)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 70, G: 110, B: 200, A: 255}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("off center", sc)
	}
	if len(hit) > 0 {
		sc, err := plotter.NewScatter(hit)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 30, G: 160, B: 60, A: 255}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("on center", sc)
	}

	const steps = 100
	curve := make(plotter.XYs, 0, steps+1)
	for i := 0; i <= steps; i++ {
		d := lo + (hi-lo)*float64(i)/steps
		curve = append(curve, plotter.XY{X: d, Y: r.Predict(d)})
	}
	line, err := plotter.NewLine(curve)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("degree %d fit", r.Degree()), line)

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
