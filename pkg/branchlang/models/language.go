package models

// NoLanguageReported is substituted for blank language cells.
const NoLanguageReported = "No language reported"

// CountyLanguage represents one row of the LEP reference sheet.
type CountyLanguage struct {
	// R is the sheet row index (1-based).
	R int `json:"r"`
	// County is the county name, used as the join key.
	County string `json:"county"`
	// Primary is the primary LEP language or the sentinel.
	Primary string `json:"primary"`
	// Secondary is the secondary LEP language or the sentinel.
	Secondary string `json:"secondary"`
}

// LanguageMaps holds the county → language lookups built from the
// reference sheet.
type LanguageMaps struct {
	Primary   map[string]string `json:"primary"`
	Secondary map[string]string `json:"secondary"`
}

// NewLanguageMaps returns empty, ready-to-fill maps.
func NewLanguageMaps() LanguageMaps {
	return LanguageMaps{
		Primary:   make(map[string]string),
		Secondary: make(map[string]string),
	}
}

// Lookup returns the primary and secondary language for county. ok is false
// when the county is not present in the reference data.
func (m LanguageMaps) Lookup(county string) (primary, secondary string, ok bool) {
	primary, okPrimary := m.Primary[county]
	secondary, okSecondary := m.Secondary[county]
	return primary, secondary, okPrimary || okSecondary
}
