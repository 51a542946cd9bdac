package branchlang

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/cache"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/geocode"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/parser"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/writer"
	"github.com/xuri/excelize/v2"
)

// Report summarizes a completed run.
type Report struct {
	Rows       []models.BranchRow
	Output     string
	CacheHits  int
	Fetched    int
	Overrides  int
	Fallbacks  int
	Unmatched  int
	CacheTotal int
}

// Deps lets callers replace the geocoding service and cache store. Nil
// fields are built from Options.
type Deps struct {
	Fetcher geocode.CountyFetcher
	Store   cache.Store
}

// Run executes the pipeline: extract postal codes, load the LEP reference
// maps, resolve counties, and write the enriched workbook. Any failure stops
// the run before the output is written.
func Run(ctx context.Context, opts Options, deps Deps) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, NewStageError(StageConfig, err)
	}

	// Ranges were checked by Validate.
	addrRange, _ := parser.ParseColumnRange(opts.Addresses.Range)
	langRanges := parser.LanguageRanges{}
	langRanges.County, _ = parser.ParseColumnRange(opts.Reference.CountyRange)
	langRanges.Primary, _ = parser.ParseColumnRange(opts.Reference.PrimaryRange)
	langRanges.Secondary, _ = parser.ParseColumnRange(opts.Reference.SecondaryRange)

	rows, err := ExtractAddresses(opts.Addresses.Path, opts.Addresses.Sheet, addrRange)
	if err != nil {
		return nil, NewStageError(StageAddresses, err)
	}
	distinct := make(map[string]struct{})
	for _, code := range models.PostalCodes(rows) {
		distinct[code] = struct{}{}
	}
	log.WithFields(log.Fields{"rows": len(rows), "distinct": len(distinct)}).Info("extracted postal codes")

	// Reference data is checked before any geocoding request is made.
	langs, err := LoadLanguages(opts.Reference.Path, opts.Reference.Sheet, langRanges, opts.NoLanguage)
	if err != nil {
		return nil, NewStageError(StageLanguages, err)
	}

	store := deps.Store
	if store == nil {
		store, err = OpenStore(ctx, opts.Cache)
		if err != nil {
			return nil, NewStageError(StageCache, err)
		}
		if closer, ok := store.(interface{ Close() error }); ok {
			defer closer.Close()
		}
	}
	countyCache, err := cache.Open(ctx, store)
	if err != nil {
		return nil, NewStageError(StageCache, err)
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		if opts.Geocoder.APIKey == "" {
			log.Warn("no geocoder API key configured, requests may be rejected")
		}
		fetcher = geocode.NewClient(geocode.Config{
			Endpoint:   opts.Geocoder.Endpoint,
			APIKey:     opts.Geocoder.APIKey,
			Radius:     opts.Geocoder.Radius,
			MaxMatches: opts.Geocoder.MaxMatches,
			Timeout:    opts.Geocoder.Timeout,
		})
	}

	resolver := geocode.NewResolver(fetcher, countyCache, geocode.Policy{
		Overrides:      opts.CountyOverrides,
		FallbackCounty: opts.FallbackCounty,
	})
	counties, err := resolver.ResolveAll(ctx, rows)
	if err != nil {
		return nil, NewStageError(StageCounties, err)
	}

	unmatched := 0
	for i := range rows {
		primary, secondary, ok := langs.Lookup(rows[i].County)
		if !ok {
			unmatched++
			log.WithFields(log.Fields{"row": rows[i].R, "county": rows[i].County}).Debug("county not in reference data")
			continue
		}
		rows[i].PrimaryLanguage = primary
		rows[i].SecondaryLanguage = secondary
	}

	layout := writer.Layout{
		SheetName:  opts.Addresses.Sheet,
		Rows:       addrRange,
		HeaderRow:  opts.Addresses.HeaderRow,
		County:     writer.Column{Name: opts.Addresses.CountyColumn, Header: opts.CountyHeader},
		Primary:    writer.Column{Name: opts.Addresses.PrimaryColumn, Header: opts.PrimaryHeader},
		Secondary:  writer.Column{Name: opts.Addresses.SecondaryColumn, Header: opts.SecondaryHeader},
		HeaderFill: opts.HeaderFill,
	}
	if err := writer.WriteEnrichedSheet(opts.Addresses.Path, opts.Output, layout, counties, langs); err != nil {
		return nil, NewStageError(StageWrite, err)
	}

	stats := resolver.Stats()
	report := &Report{
		Rows:       rows,
		Output:     opts.Output,
		CacheHits:  stats.Cached,
		Fetched:    stats.Fetched,
		Overrides:  stats.Overrides,
		Fallbacks:  stats.Fallbacks,
		Unmatched:  unmatched,
		CacheTotal: countyCache.Len(),
	}

	log.WithFields(log.Fields{
		"rows":      humanize.Comma(int64(len(rows))),
		"cached":    report.CacheHits,
		"fetched":   report.Fetched,
		"overrides": report.Overrides,
		"fallbacks": report.Fallbacks,
		"unmatched": report.Unmatched,
		"output":    report.Output,
	}).Info("enrichment complete")

	return report, nil
}

// ExtractAddresses opens the address workbook and extracts one postal code
// per row of area.
func ExtractAddresses(path, sheetName string, area models.CellRange) ([]models.BranchRow, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parser.ExtractPostalCodes(f, sheetName, area)
}

// LoadLanguages opens the reference workbook and builds the county language
// maps.
func LoadLanguages(path, sheetName string, ranges parser.LanguageRanges, sentinel string) (models.LanguageMaps, error) {
	f, err := openWorkbook(path)
	if err != nil {
		return models.LanguageMaps{}, err
	}
	defer f.Close()

	maps, entries, err := parser.LoadLanguageMaps(f, sheetName, ranges, sentinel)
	if err != nil {
		return models.LanguageMaps{}, err
	}
	log.WithField("counties", len(entries)).Info("loaded LEP reference data")
	return maps, nil
}

// OpenStore builds the configured cache store.
func OpenStore(ctx context.Context, opts CacheOptions) (cache.Store, error) {
	switch opts.Backend {
	case CacheRedis:
		store, err := cache.ConnectRedis(ctx, cache.RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Key:      opts.RedisKey,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case CacheFile, "":
		return cache.NewFileStore(opts.Path), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

func openWorkbook(path string) (*excelize.File, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
