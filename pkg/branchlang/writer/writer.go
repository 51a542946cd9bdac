// Package writer adds the county and language columns to the address
// workbook and saves the result as a new file.
package writer

import (
	"fmt"
	"path/filepath"

	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/xuri/excelize/v2"
)

// PreconditionError reports inputs that would misalign the written columns.
// Nothing is written when it is returned.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "cannot write enriched sheet: " + e.Reason
}

// Column is a derived output column: its letter and header text.
type Column struct {
	Name   string
	Header string
}

// Layout describes where the derived columns go.
type Layout struct {
	SheetName string
	// Rows is the address range; its rows receive the derived values.
	Rows models.CellRange
	// HeaderRow holds the column titles.
	HeaderRow int
	County    Column
	Primary   Column
	Secondary Column
	// HeaderFill is the solid fill color of header cells, as RRGGBB.
	HeaderFill string
}

// DefaultHeaderFill is the light blue used for derived column headers.
const DefaultHeaderFill = "B4C6E7"

// WriteEnrichedSheet opens inputPath, writes counties[i] and its languages
// into row Rows.R1+i of the derived columns, styles the headers, and saves
// to outputPath. Counties missing from langs leave the language cells
// unset. The input file is never modified.
func WriteEnrichedSheet(inputPath, outputPath string, layout Layout, counties []string, langs models.LanguageMaps) error {
	if want := layout.Rows.Rows(); len(counties) != want {
		return &PreconditionError{Reason: fmt.Sprintf("have %d counties for %d address rows", len(counties), want)}
	}
	if samePath(inputPath, outputPath) {
		return &PreconditionError{Reason: fmt.Sprintf("output path %s is the input file", outputPath)}
	}

	f, err := excelize.OpenFile(inputPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", inputPath, err)
	}
	defer f.Close()

	if err := Enrich(f, layout, counties, langs); err != nil {
		return err
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving %s: %w", outputPath, err)
	}
	return nil
}

// Enrich writes the derived columns into an open workbook.
func Enrich(f *excelize.File, layout Layout, counties []string, langs models.LanguageMaps) error {
	if want := layout.Rows.Rows(); len(counties) != want {
		return &PreconditionError{Reason: fmt.Sprintf("have %d counties for %d address rows", len(counties), want)}
	}

	idx, err := f.GetSheetIndex(layout.SheetName)
	if err != nil || idx < 0 {
		return fmt.Errorf("sheet %q not found", layout.SheetName)
	}

	countyCol, err := excelize.ColumnNameToNumber(layout.County.Name)
	if err != nil {
		return fmt.Errorf("county column: %w", err)
	}
	primaryCol, err := excelize.ColumnNameToNumber(layout.Primary.Name)
	if err != nil {
		return fmt.Errorf("primary language column: %w", err)
	}
	secondaryCol, err := excelize.ColumnNameToNumber(layout.Secondary.Name)
	if err != nil {
		return fmt.Errorf("secondary language column: %w", err)
	}

	sheet := layout.SheetName
	for i, county := range counties {
		row := layout.Rows.R1 + i

		if err := setCell(f, sheet, countyCol, row, county); err != nil {
			return err
		}
		if primary, ok := langs.Primary[county]; ok {
			if err := setCell(f, sheet, primaryCol, row, primary); err != nil {
				return err
			}
		}
		if secondary, ok := langs.Secondary[county]; ok {
			if err := setCell(f, sheet, secondaryCol, row, secondary); err != nil {
				return err
			}
		}
	}

	return writeHeaders(f, layout, []int{countyCol, primaryCol, secondaryCol},
		[]string{layout.County.Header, layout.Primary.Header, layout.Secondary.Header})
}

// writeHeaders sets header text and the solid header fill.
func writeHeaders(f *excelize.File, layout Layout, cols []int, titles []string) error {
	fill := layout.HeaderFill
	if fill == "" {
		fill = DefaultHeaderFill
	}

	styleID, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, col := range cols {
		cell, err := excelize.CoordinatesToCellName(col, layout.HeaderRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(layout.SheetName, cell, titles[i]); err != nil {
			return fmt.Errorf("writing header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(layout.SheetName, cell, cell, styleID); err != nil {
			return fmt.Errorf("styling header %s: %w", cell, err)
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("writing %s: %w", cell, err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
