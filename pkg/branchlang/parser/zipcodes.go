package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/xuri/excelize/v2"
)

const (
	// postalTailLen is how much of the address end is searched for a ZIP+4 hyphen.
	postalTailLen = 10
	// postalCodeLen is the length of a US postal code without extension.
	postalCodeLen = 5
)

// ExtractPostalCodes reads the address column range of sheetName and
// derives one postal code per row. The result is index-aligned with the
// range; any unparseable row fails the whole extraction.
func ExtractPostalCodes(f *excelize.File, sheetName string, area models.CellRange) ([]models.BranchRow, error) {
	cells, err := ReadColumn(f, sheetName, area)
	if err != nil {
		return nil, err
	}

	rows := make([]models.BranchRow, 0, len(cells))
	for _, cell := range cells {
		code, reason := postalCode(cell.Value)
		if reason != "" {
			return nil, &ParseError{Row: cell.R, Cell: cell.Name, Value: cell.Value, Reason: reason}
		}
		rows = append(rows, models.BranchRow{
			R:          cell.R,
			Address:    cell.Value,
			PostalCode: code,
		})
	}

	return rows, nil
}

// PostalCode derives the 5-digit postal code from the end of a free-text
// address. A ZIP+4 extension is stripped when the trailing 10 characters
// contain a hyphen. Trailing whitespace is ignored.
func PostalCode(address string) (string, error) {
	code, reason := postalCode(address)
	if reason != "" {
		return "", &ParseError{Value: address, Reason: reason}
	}
	return code, nil
}

// postalCode returns the derived code, or a non-empty reason it cannot.
func postalCode(address string) (code, reason string) {
	trimmed := strings.TrimRightFunc(address, unicode.IsSpace)
	if len(trimmed) < postalTailLen {
		return "", "address too short to end in a postal code"
	}

	tail := trimmed[len(trimmed)-postalTailLen:]

	if hyphen := strings.LastIndexByte(tail, '-'); hyphen >= 0 {
		if hyphen < postalCodeLen {
			return "", "ZIP+4 hyphen too close to the start of the postal code"
		}
		code = tail[hyphen-postalCodeLen : hyphen]
	} else {
		code = tail[postalTailLen-postalCodeLen:]
	}

	if !allDigits(code) {
		return "", fmt.Sprintf("postal code %q is not 5 digits", code)
	}

	return code, ""
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
