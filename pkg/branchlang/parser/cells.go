package parser

import (
	"errors"
	"fmt"

	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound indicates the workbook has no sheet with the requested name.
var ErrSheetNotFound = errors.New("sheet not found")

// Cell is a single cell value read from a column range.
type Cell struct {
	// R is the row index (1-based).
	R int
	// Name is the A1-style cell name.
	Name string
	// Value is the formatted cell text; empty for blank cells.
	Value string
}

// ReadColumn reads every cell of a single-column range, blank cells
// included, so the result has exactly area.Rows() entries in row order.
func ReadColumn(f *excelize.File, sheetName string, area models.CellRange) ([]Cell, error) {
	if !area.SingleColumn() {
		return nil, fmt.Errorf("range spans columns %d-%d, want one column", area.C1, area.C2)
	}

	rows, err := sheetRows(f, sheetName)
	if err != nil {
		return nil, err
	}

	colIdx := area.C1 - 1
	cells := make([]Cell, 0, area.Rows())
	for rowNum := area.R1; rowNum <= area.R2; rowNum++ {
		cell := Cell{R: rowNum, Name: CellName(area.C1, rowNum)}

		// GetRows trims trailing empty rows and cells.
		if rowIdx := rowNum - 1; rowIdx < len(rows) && colIdx < len(rows[rowIdx]) {
			cell.Value = rows[rowIdx][colIdx]
		}
		cells = append(cells, cell)
	}

	return cells, nil
}

// sheetRows returns all rows of the named sheet.
func sheetRows(f *excelize.File, sheetName string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheetName)
	}
	return f.GetRows(sheetName)
}
