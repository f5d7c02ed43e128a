package export

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/piwi3910/SquarePack/internal/model"
)

// PlotHistory draws best and mean fitness against generation and saves the
// chart to path. The image format follows the file extension (.png, .svg,
// .pdf, ...).
func PlotHistory(path, title string, rows []model.GenerationStats) error {
	if len(rows) == 0 {
		return fmt.Errorf("no generations to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestPts := make(plotter.XYs, len(rows))
	meanPts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		bestPts[i].X = float64(r.Generation)
		bestPts[i].Y = r.BestFitness
		meanPts[i].X = float64(r.Generation)
		meanPts[i].Y = r.MeanFitness
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(bestLine, meanLine, plotter.NewGrid())
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
