// Package parser reads the fixed cell ranges of the address and LEP
// reference workbooks.
package parser

import (
	"fmt"
	"strings"

	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/xuri/excelize/v2"
)

// ParseRange parses a range string like C2:C145 or $A$6:$A$88.
func ParseRange(rangeStr string) (models.CellRange, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(rangeStr), "$", "")

	parts := strings.Split(cleaned, ":")
	if len(parts) != 2 {
		return models.CellRange{}, &SchemaError{Range: rangeStr, Reason: "expected START:END"}
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.CellRange{}, &SchemaError{Range: rangeStr, Reason: err.Error()}
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.CellRange{}, &SchemaError{Range: rangeStr, Reason: err.Error()}
	}

	if endRow < startRow || endCol < startCol {
		return models.CellRange{}, &SchemaError{Range: rangeStr, Reason: "end precedes start"}
	}

	return models.CellRange{
		R1: startRow,
		C1: startCol,
		R2: endRow,
		C2: endCol,
	}, nil
}

// ParseColumnRange parses rangeStr and requires it to span a single column.
func ParseColumnRange(rangeStr string) (models.CellRange, error) {
	area, err := ParseRange(rangeStr)
	if err != nil {
		return models.CellRange{}, err
	}
	if !area.SingleColumn() {
		return models.CellRange{}, &SchemaError{Range: rangeStr, Reason: "range must cover a single column"}
	}
	return area, nil
}

// CellName returns the A1-style name of the cell at col, row.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		// Coordinates come from a parsed range and are always valid.
		panic(fmt.Sprintf("invalid cell coordinates (%d, %d): %v", col, row, err))
	}
	return name
}
