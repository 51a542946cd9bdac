package parser

import (
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/xuri/excelize/v2"
)

// LanguageRanges locates the county and language columns of the LEP
// reference sheet.
type LanguageRanges struct {
	County    models.CellRange
	Primary   models.CellRange
	Secondary models.CellRange
}

// LoadLanguageMaps reads the county, primary-language, and
// secondary-language columns in lockstep and builds the county lookups.
// Blank or whitespace-only language cells become sentinel.
func LoadLanguageMaps(f *excelize.File, sheetName string, ranges LanguageRanges, sentinel string) (models.LanguageMaps, []models.CountyLanguage, error) {
	if err := checkLockstep(ranges); err != nil {
		return models.LanguageMaps{}, nil, err
	}

	counties, err := ReadColumn(f, sheetName, ranges.County)
	if err != nil {
		return models.LanguageMaps{}, nil, fmt.Errorf("reading county column: %w", err)
	}
	primary, err := ReadColumn(f, sheetName, ranges.Primary)
	if err != nil {
		return models.LanguageMaps{}, nil, fmt.Errorf("reading primary language column: %w", err)
	}
	secondary, err := ReadColumn(f, sheetName, ranges.Secondary)
	if err != nil {
		return models.LanguageMaps{}, nil, fmt.Errorf("reading secondary language column: %w", err)
	}

	if len(counties) != len(primary) || len(counties) != len(secondary) {
		return models.LanguageMaps{}, nil, &SchemaError{
			Range:  sheetName,
			Reason: fmt.Sprintf("column lengths differ: county=%d primary=%d secondary=%d", len(counties), len(primary), len(secondary)),
		}
	}

	maps := models.NewLanguageMaps()
	entries := make([]models.CountyLanguage, 0, len(counties))
	for i, cell := range counties {
		county := cell.Value
		if strings.TrimSpace(county) == "" {
			log.WithField("cell", cell.Name).Debug("skipping blank county")
			continue
		}

		entry := models.CountyLanguage{
			R:         cell.R,
			County:    county,
			Primary:   NormalizeLanguage(primary[i].Value, sentinel),
			Secondary: NormalizeLanguage(secondary[i].Value, sentinel),
		}

		if _, dup := maps.Primary[county]; dup {
			log.WithFields(log.Fields{"county": county, "cell": cell.Name}).Warn("duplicate county in reference sheet, later row wins")
		}
		maps.Primary[county] = entry.Primary
		maps.Secondary[county] = entry.Secondary
		entries = append(entries, entry)
	}

	return maps, entries, nil
}

// NormalizeLanguage returns sentinel for blank or whitespace-only values and
// value unchanged otherwise.
func NormalizeLanguage(value, sentinel string) string {
	if strings.TrimSpace(value) == "" {
		return sentinel
	}
	return value
}

// checkLockstep verifies the three columns cover the same rows.
func checkLockstep(r LanguageRanges) error {
	for _, other := range []models.CellRange{r.Primary, r.Secondary} {
		if other.R1 != r.County.R1 || other.R2 != r.County.R2 {
			return &SchemaError{
				Range:  fmt.Sprintf("%s:%s", CellName(other.C1, other.R1), CellName(other.C2, other.R2)),
				Reason: fmt.Sprintf("rows %d-%d do not match county rows %d-%d", other.R1, other.R2, r.County.R1, r.County.R2),
			}
		}
	}
	return nil
}
