package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/SquarePack/internal/model"
)

const statsSheet = "Generations"

// WriteXLSX writes one row per generation (generation, best, mean, worst,
// disaster) to a workbook at path.
func WriteXLSX(path string, rows []model.GenerationStats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), statsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Generation", "Best Fitness", "Mean Fitness", "Worst Fitness", "Disaster"}
	if err := f.SetSheetRow(statsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to create cell reference: %w", err)
		}
		values := []interface{}{r.Generation, r.BestFitness, r.MeanFitness, r.WorstFitness, r.Disaster}
		if err := f.SetSheetRow(statsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write generation %d: %w", r.Generation, err)
		}
	}

	if err := f.SetPanes(statsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
