package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/SquarePack/internal/model"
)

// RunLabel holds the data encoded into the QR code printed on a report.
type RunLabel struct {
	RunID       string  `json:"run_id"`
	Generation  int     `json:"generation"`
	BestFitness float64 `json:"best_fitness"`
	Valid       bool    `json:"valid"`
	Squares     int     `json:"squares"`
	SquareSide  float64 `json:"square_side"`
	BoxSide     float64 `json:"box_side"`
	Seed        uint64  `json:"seed"`
}

// Label layout constants (mm).
const (
	labelWidth   = 90.0
	labelHeight  = 30.0
	qrSize       = 26.0
	labelPadding = 2.0
)

// NewRunLabel builds the label for a run summary.
func NewRunLabel(summary model.RunSummary) RunLabel {
	return RunLabel{
		RunID:       summary.RunID,
		Generation:  summary.Generations,
		BestFitness: summary.BestFitness,
		Valid:       summary.Valid,
		Squares:     summary.Config.GeneSize,
		SquareSide:  summary.Config.SquareSide,
		BoxSide:     summary.Config.BoxSide,
		Seed:        summary.Config.Seed,
	}
}

// renderRunLabel draws a bordered label with a QR code of the run metadata
// at the given position.
func renderRunLabel(pdf *fpdf.Fpdf, x, y float64, info RunLabel) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := "qr_run_" + info.RunID
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 5, "Run "+info.RunID, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+6)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%d squares, s=%g, L=%g", info.Squares, info.SquareSide, info.BoxSide), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+10)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("Generation %d, fitness %.6g", info.Generation, info.BestFitness), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+14)
	pdf.CellFormat(textW, 3, fmt.Sprintf("Seed %d", info.Seed), "", 1, "L", false, 0, "")

	if info.Valid {
		pdf.SetXY(textX, y+labelPadding+18)
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetTextColor(0, 130, 0)
		pdf.CellFormat(textW, 3, "VALID PACKING", "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}
