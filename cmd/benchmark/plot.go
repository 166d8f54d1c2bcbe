package main

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// plotResults draws one bar group per phase, one bar per engine.
func plotResults(results []result, path string) error {
	p := plot.New()
	p.Title.Text = "propindex engines"
	p.Y.Label.Text = "ns/op"

	w := vg.Points(18)
	for i, r := range results {
		values := make(plotter.Values, len(phases))
		for j, ph := range phases {
			values[j] = float64(r.perOp[ph].Nanoseconds())
		}
		bars, err := plotter.NewBarChart(values, w)
		if err != nil {
			return err
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = vg.Length(float64(i)-float64(len(results)-1)/2) * w

		p.Add(bars)
		p.Legend.Add(r.engine, bars)
	}
	p.Legend.Top = true
	p.NominalX(phases...)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
