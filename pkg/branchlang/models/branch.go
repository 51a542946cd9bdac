// Package models defines data structures shared by the enrichment stages.
package models

// BranchRow represents one office row of the address sheet.
type BranchRow struct {
	// R is the sheet row index (1-based).
	R int `json:"r"`
	// Address is the raw free-text address cell.
	Address string `json:"address"`
	// PostalCode is the 5-digit code derived from Address.
	PostalCode string `json:"postal_code"`
	// County is the resolved county, empty until resolution.
	County string `json:"county,omitempty"`
	// PrimaryLanguage is the county's primary LEP language, if known.
	PrimaryLanguage string `json:"primary_language,omitempty"`
	// SecondaryLanguage is the county's secondary LEP language, if known.
	SecondaryLanguage string `json:"secondary_language,omitempty"`
}

// PostalCodes returns the postal codes of rows in row order.
func PostalCodes(rows []BranchRow) []string {
	codes := make([]string, len(rows))
	for i, row := range rows {
		codes[i] = row.PostalCode
	}
	return codes
}
