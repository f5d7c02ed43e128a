// Package export writes packing results and run statistics to files: PDF
// reports, DXF drawings, Excel workbooks, fitness plots and plain-text
// generation tables.
package export

import (
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/SquarePack/internal/geometry"
	"github.com/piwi3910/SquarePack/internal/model"
)

// squareColor represents an RGB color for a square.
type squareColor struct {
	R, G, B int
}

// squareColors mirrors the color scheme used by the desktop packing canvas.
var squareColors = []squareColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	sidePanel    = 100.0 // width reserved right of the drawing
	maxTableRows = 20
)

// ExportPDF generates a report of a run: the best packing drawn to scale with
// the run statistics on the first page, and a summary page with the fitness
// history, parameters and a QR run label.
func ExportPDF(path string, last model.Snapshot, summary model.RunSummary, history []model.GenerationStats) error {
	if len(last.BestSquares) == 0 {
		return fmt.Errorf("no packing to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderPackingPage(pdf, last)

	pdf.AddPage()
	if err := renderSummaryPage(pdf, summary, history); err != nil {
		return err
	}

	return pdf.OutputFileAndClose(path)
}

// renderPackingPage draws the container and every square of the snapshot.
func renderPackingPage(pdf *fpdf.Fpdf, snap model.Snapshot) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Best packing: %d squares of side %g in a %g x %g box",
		len(snap.BestSquares), snap.SquareSide, snap.BoxSide, snap.BoxSide)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Run %s | Generation %d | Best %.6g | Mean %.6g | Worst %.6g",
		snap.RunID, snap.Generation, snap.BestFitness, snap.MeanFitness, snap.WorstFitness)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	// Squares may stick out of the box, so the world window includes a margin
	// of one square diagonal on every side.
	reach := snap.SquareSide * math.Sqrt2
	world := snap.BoxSide + 2*reach

	drawWidth := pageWidth - marginLeft - marginRight - sidePanel
	drawHeight := pageHeight - drawAreaTop - marginBottom
	scale := math.Min(drawWidth, drawHeight) / world

	originX := marginLeft + reach*scale
	originY := drawAreaTop + (snap.BoxSide+reach)*scale

	// toPage maps packing coordinates (y up) to page coordinates (y down).
	toPage := func(p geometry.Point) (float64, float64) {
		return originX + p.X*scale, originY - p.Y*scale
	}

	// Container
	boxX, boxY := toPage(geometry.Point{X: 0, Y: snap.BoxSide})
	pdf.SetFillColor(245, 240, 225)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.5)
	pdf.Rect(boxX, boxY, snap.BoxSide*scale, snap.BoxSide*scale, "FD")

	box := geometry.Container(snap.BoxSide)
	for i, sq := range snap.BestSquares {
		col := squareColors[i%len(squareColors)]
		pts := make([]fpdf.PointType, 0, 4)
		for _, v := range sq.Vertices() {
			x, y := toPage(v)
			pts = append(pts, fpdf.PointType{X: x, Y: y})
		}

		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		if !geometry.Contains(sq, box) {
			// Outside the container: red outline
			pdf.SetDrawColor(200, 0, 0)
			pdf.SetLineWidth(0.6)
		}
		pdf.Polygon(pts, "FD")

		if sq.Side*scale > 8 {
			cx, cy := toPage(sq.Center)
			label := fmt.Sprintf("%d", i+1)
			pdf.SetFont("Helvetica", "", labelFontSize(sq.Side*scale))
			pdf.SetTextColor(0, 0, 0)
			w := pdf.GetStringWidth(label)
			pdf.SetXY(cx-w/2, cy-2)
			pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")
		}
	}

	drawDimensionAnnotations(pdf, snap.BoxSide, boxX, boxY, snap.BoxSide*scale)
	drawSquareTable(pdf, snap.BestSquares, pageWidth-marginRight-sidePanel+5, drawAreaTop)
}

// drawDimensionAnnotations adds the box side below and left of the container.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, side, x, y, size float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	label := fmt.Sprintf("L = %g", side)
	w := pdf.GetStringWidth(label)
	pdf.SetXY(x+(size-w)/2, y+size+1)
	pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")

	pdf.TransformBegin()
	pdf.TransformRotate(90, x-3, y+size/2)
	pdf.SetXY(x-3-w/2, y+size/2-2)
	pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawSquareTable lists the centre and rotation of every square.
func drawSquareTable(pdf *fpdf.Fpdf, squares []geometry.Square, x, y float64) {
	colWidths := []float64{12, 26, 26, 26}
	headers := []string{"#", "x", "y", "theta (deg)"}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := x
	for i, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 5, h, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 5

	pdf.SetFont("Helvetica", "", 7)
	rowHeight := 4.0
	for i, sq := range squares {
		if y+rowHeight > pageHeight-marginBottom {
			pdf.SetXY(x, y)
			pdf.CellFormat(90, rowHeight, fmt.Sprintf("... %d more", len(squares)-i), "", 0, "L", false, 0, "")
			break
		}
		col := squareColors[i%len(squareColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(x+1, y+0.75, 2.5, 2.5, "F")

		row := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.4f", sq.Center.X),
			fmt.Sprintf("%.4f", sq.Center.Y),
			fmt.Sprintf("%.2f", sq.Theta*180/math.Pi),
		}
		xPos = x
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, "C", false, 0, "")
			xPos += colWidths[j]
		}
		y += rowHeight
	}
}

// renderSummaryPage draws the run summary, a sampled fitness history table,
// the run parameters and the QR label.
func renderSummaryPage(pdf *fpdf.Fpdf, summary model.RunSummary, history []model.GenerationStats) error {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Packing Run Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	status := "overlap or out of bounds"
	if summary.Valid {
		status = "valid packing"
	}
	summaryItems := []struct {
		label string
		value string
	}{
		{"Run", summary.RunID},
		{"Generations", fmt.Sprintf("%d", summary.Generations)},
		{"Best Fitness", fmt.Sprintf("%.6g", summary.BestFitness)},
		{"Result", status},
		{"Disaster Generations", fmt.Sprintf("%d", summary.Disasters)},
		{"Elapsed", summary.Duration.Round(time.Millisecond).String()},
	}
	y = drawItems(pdf, summaryItems, y, 10)

	// Run parameters on the right
	cfg := summary.Config
	paramItems := []struct {
		label string
		value string
	}{
		{"Squares", fmt.Sprintf("%d x side %g", cfg.GeneSize, cfg.SquareSide)},
		{"Container", fmt.Sprintf("%g x %g", cfg.BoxSide, cfg.BoxSide)},
		{"Population", fmt.Sprintf("%d", cfg.PopulationSize)},
		{"Elitism / Predation", fmt.Sprintf("%.2f / %.2f", cfg.ElitismRate, cfg.PredationRate)},
		{"Tournament Size", fmt.Sprintf("%d", cfg.TournamentSize)},
		{"Mutation Rate", fmt.Sprintf("%.3f", cfg.MutationRate)},
		{"Disaster", fmt.Sprintf("p=%.3f, rate %.2f", cfg.DisasterProbability, cfg.DisasterHypermutationRate)},
		{"Weights", fmt.Sprintf("overlap %g, bounds %g", cfg.OverlapWeight, cfg.OutOfBoundsWeight)},
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(pageWidth/2, marginTop+18)
	pdf.CellFormat(100, 7, "Parameters", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	py := marginTop + 27
	for _, item := range paramItems {
		pdf.SetXY(pageWidth/2+5, py)
		pdf.CellFormat(45, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 5, item.value, "", 0, "L", false, 0, "")
		py += 5
	}

	y += 5
	if len(history) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(100, 7, "Fitness History", "", 0, "L", false, 0, "")
		y += 9
		drawHistoryTable(pdf, sampleHistory(history, maxTableRows), y)
	}

	label := NewRunLabel(summary)
	if err := renderRunLabel(pdf, pageWidth-marginRight-labelWidth, pageHeight-marginBottom-labelHeight-6, label); err != nil {
		return fmt.Errorf("failed to render run label: %w", err)
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by SquarePack - Genetic Square Packing", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	return nil
}

func drawItems(pdf *fpdf.Fpdf, items []struct{ label, value string }, y, size float64) float64 {
	pdf.SetFont("Helvetica", "", size)
	for _, item := range items {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", size)
		pdf.CellFormat(60, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", size)
		y += 6
	}
	return y
}

func drawHistoryTable(pdf *fpdf.Fpdf, rows []model.GenerationStats, y float64) float64 {
	colWidths := []float64{25, 30, 30, 30, 20}
	headers := []string{"Generation", "Best", "Mean", "Worst", "Disaster"}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 5, h, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 5

	pdf.SetFont("Helvetica", "", 8)
	for i, r := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		disaster := ""
		if r.Disaster {
			disaster = "yes"
		}
		cells := []string{
			fmt.Sprintf("%d", r.Generation),
			fmt.Sprintf("%.5g", r.BestFitness),
			fmt.Sprintf("%.5g", r.MeanFitness),
			fmt.Sprintf("%.5g", r.WorstFitness),
			disaster,
		}
		xPos = marginLeft
		for j, cell := range cells {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 5, cell, "1", 0, "C", true, 0, "")
			xPos += colWidths[j]
		}
		y += 5
	}
	return y
}

// sampleHistory picks at most n rows spread evenly over the history, always
// keeping the first and last.
func sampleHistory(history []model.GenerationStats, n int) []model.GenerationStats {
	if len(history) <= n {
		return history
	}
	out := make([]model.GenerationStats, 0, n)
	for i := 0; i < n; i++ {
		idx := i * (len(history) - 1) / (n - 1)
		out = append(out, history[idx])
	}
	return out
}

// labelFontSize returns an appropriate font size for a square of the given
// page size.
func labelFontSize(size float64) float64 {
	switch {
	case size > 30:
		return 9
	case size > 15:
		return 7
	default:
		return 5
	}
}
