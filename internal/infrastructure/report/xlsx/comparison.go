// Package xlsx renders comparison runs as spreadsheets.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fintechsquad01/imagescout/internal/core/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	resultsSheet = "Comparison"
	weightsSheet = "Weights"
)

var resultsHeader = []any{
	"Model ID", "Model", "Version", "Score", "Cached", "Execution ms",
	"Labels", "Objects", "Landmarks", "Colors", "Adult", "Violence", "Racy", "Error",
}

var weightsHeader = []any{
	"Model ID", "Labels", "Objects", "Landmarks", "Colors", "Base score", "Max score",
}

// WriteComparison writes one row per result, in result order, plus a sheet with the weights used.
func WriteComparison(w io.Writer, imageName string, results []domain.ModelComparisonResult) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(weightsSheet); err != nil {
		return fmt.Errorf("create weights sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetCellValue(resultsSheet, "A1", "Image"); err != nil {
		return err
	}
	if err := f.SetCellValue(resultsSheet, "B1", imageName); err != nil {
		return err
	}
	if err := writeHeader(f, resultsSheet, 3, resultsHeader, bold); err != nil {
		return err
	}
	if err := writeHeader(f, weightsSheet, 1, weightsHeader, bold); err != nil {
		return err
	}

	for i, r := range results {
		if err := writeRow(f, resultsSheet, 4+i, resultRow(r)); err != nil {
			return err
		}
		if err := writeRow(f, weightsSheet, 2+i, weightsRow(r)); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(resultsSheet, "A", "B", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(resultsSheet, "G", "J", 40); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func resultRow(r domain.ModelComparisonResult) []any {
	return []any{
		r.ModelID,
		r.ModelName,
		r.Version,
		r.Score,
		r.Cached,
		r.ExecutionTimeMs,
		strings.Join(r.VisionData.Labels, ", "),
		strings.Join(r.VisionData.Objects, ", "),
		strings.Join(r.VisionData.Landmarks, ", "),
		strings.Join(r.VisionData.Colors, ", "),
		string(r.VisionData.SafeSearch.Adult),
		string(r.VisionData.SafeSearch.Violence),
		string(r.VisionData.SafeSearch.Racy),
		r.Error,
	}
}

func weightsRow(r domain.ModelComparisonResult) []any {
	return []any{
		r.ModelID,
		r.Weights.Labels,
		r.Weights.Objects,
		r.Weights.Landmarks,
		r.Weights.Colors,
		r.Weights.BaseScore,
		r.Weights.MaxScore,
	}
}

func writeHeader(f *excelize.File, sheet string, row int, values []any, style int) error {
	if err := writeRow(f, sheet, row, values); err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
