// Package branchlang enriches an office address workbook with the county of
// each office and the LEP languages reported for that county.
package branchlang

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/parser"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when no config path
// is given. It is optional.
const DefaultConfigFile = "branchlang.yaml"

// CacheBackend selects where resolved counties are persisted.
type CacheBackend string

const (
	// CacheFile stores the cache as a JSON file.
	CacheFile CacheBackend = "file"
	// CacheRedis stores the cache in a Redis hash.
	CacheRedis CacheBackend = "redis"
)

// AddressOptions locates the office addresses and the derived columns.
type AddressOptions struct {
	Path      string `yaml:"path"`
	Sheet     string `yaml:"sheet"`
	Range     string `yaml:"range"`
	HeaderRow int    `yaml:"header_row"`
	// CountyColumn, PrimaryColumn, and SecondaryColumn are column letters.
	CountyColumn    string `yaml:"county_column"`
	PrimaryColumn   string `yaml:"primary_column"`
	SecondaryColumn string `yaml:"secondary_column"`
}

// ReferenceOptions locates the LEP-by-county reference data.
type ReferenceOptions struct {
	Path           string `yaml:"path"`
	Sheet          string `yaml:"sheet"`
	CountyRange    string `yaml:"county_range"`
	PrimaryRange   string `yaml:"primary_range"`
	SecondaryRange string `yaml:"secondary_range"`
}

// GeocoderOptions configures the radius-search service.
type GeocoderOptions struct {
	Endpoint   string        `yaml:"endpoint"`
	APIKey     string        `yaml:"api_key"`
	Radius     int           `yaml:"radius"`
	MaxMatches int           `yaml:"max_matches"`
	Timeout    time.Duration `yaml:"timeout"`
}

// CacheOptions configures county cache persistence.
type CacheOptions struct {
	Backend       CacheBackend `yaml:"backend"`
	Path          string       `yaml:"path"`
	RedisAddr     string       `yaml:"redis_addr"`
	RedisPassword string       `yaml:"redis_password"`
	RedisDB       int          `yaml:"redis_db"`
	RedisKey      string       `yaml:"redis_key"`
}

// Options configures a run.
type Options struct {
	Addresses AddressOptions   `yaml:"addresses"`
	Reference ReferenceOptions `yaml:"reference"`
	Geocoder  GeocoderOptions  `yaml:"geocoder"`
	Cache     CacheOptions     `yaml:"cache"`
	// Output is the enriched workbook path; it must differ from the input.
	Output string `yaml:"output"`
	// FallbackCounty replaces an empty geocoding result. Empty disables the
	// fallback and makes such rows fatal.
	FallbackCounty string `yaml:"fallback_county"`
	// CountyOverrides maps postal codes to counties, bypassing the service.
	CountyOverrides map[string]string `yaml:"county_overrides"`
	// NoLanguage replaces blank language cells.
	NoLanguage string `yaml:"no_language"`
	// HeaderFill is the RRGGBB fill of the derived headers.
	HeaderFill string `yaml:"header_fill"`
	// Headers are the titles of the county, primary and secondary columns.
	CountyHeader    string `yaml:"county_header"`
	PrimaryHeader   string `yaml:"primary_header"`
	SecondaryHeader string `yaml:"secondary_header"`
}

// DefaultOptions returns the options of the reference run.
func DefaultOptions() Options {
	return Options{
		Addresses: AddressOptions{
			Path:            "mdos-building-addresses.xlsx",
			Sheet:           "Address",
			Range:           "C2:C145",
			HeaderRow:       1,
			CountyColumn:    "D",
			PrimaryColumn:   "E",
			SecondaryColumn: "F",
		},
		Reference: ReferenceOptions{
			Path:           "lep-by-county-michigan.xlsx",
			Sheet:          "County",
			CountyRange:    "A6:A88",
			PrimaryRange:   "D6:D88",
			SecondaryRange: "G6:G88",
		},
		Geocoder: GeocoderOptions{
			Endpoint:   "https://www.mapquestapi.com/search/v2/radius",
			Radius:     10,
			MaxMatches: 10,
			Timeout:    5 * time.Second,
		},
		Cache: CacheOptions{
			Backend: CacheFile,
			Path:    "michigan_LEP_cache.json",
		},
		Output:          "mdos-building-addresses-with-county-and-foreign-languages.xlsx",
		FallbackCounty:  "Saginaw County",
		NoLanguage:      models.NoLanguageReported,
		HeaderFill:      "B4C6E7",
		CountyHeader:    "County",
		PrimaryHeader:   "Primary Foreign Language",
		SecondaryHeader: "Secondary Foreign Language",
	}
}

// LoadOptions returns DefaultOptions overlaid with the YAML file at path and
// then with environment overrides. An empty path reads DefaultConfigFile if
// it exists; an explicit path must exist.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &opts); err != nil {
			return Options{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		log.Debugf("using config file: %s", path)
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		log.Debug("no config file, using defaults")
	default:
		return Options{}, fmt.Errorf("reading config: %w", err)
	}

	opts.applyEnv()
	return opts, nil
}

// applyEnv applies MAPQUEST_KEY, REDIS_ADDR, and REDIS_PASSWORD.
func (o *Options) applyEnv() {
	if v, ok := os.LookupEnv("MAPQUEST_KEY"); ok && v != "" {
		o.Geocoder.APIKey = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		o.Cache.RedisAddr = v
	}
	if v, ok := os.LookupEnv("REDIS_PASSWORD"); ok && v != "" {
		o.Cache.RedisPassword = v
	}
}

// Validate checks every configured range and the cache backend before any
// file is opened.
func (o Options) Validate() error {
	var errs []error

	addrRange, err := parser.ParseColumnRange(o.Addresses.Range)
	if err != nil {
		errs = append(errs, fmt.Errorf("addresses.range: %w", err))
	}
	if o.Addresses.HeaderRow < 1 {
		errs = append(errs, errors.New("addresses.header_row must be at least 1"))
	} else if err == nil && o.Addresses.HeaderRow >= addrRange.R1 {
		errs = append(errs, fmt.Errorf("addresses.header_row %d must be above the address range", o.Addresses.HeaderRow))
	}

	for name, r := range map[string]string{
		"reference.county_range":    o.Reference.CountyRange,
		"reference.primary_range":   o.Reference.PrimaryRange,
		"reference.secondary_range": o.Reference.SecondaryRange,
	} {
		if _, err := parser.ParseColumnRange(r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if o.Output == "" {
		errs = append(errs, errors.New("output path is empty"))
	} else if filepath.Clean(o.Output) == filepath.Clean(o.Addresses.Path) {
		errs = append(errs, errors.New("output must differ from the address workbook"))
	}

	switch o.Cache.Backend {
	case CacheFile:
		if o.Cache.Path == "" {
			errs = append(errs, errors.New("cache.path is empty"))
		}
	case CacheRedis:
		if o.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q (must be file or redis)", o.Cache.Backend))
	}

	if o.Geocoder.Timeout <= 0 {
		errs = append(errs, errors.New("geocoder.timeout must be positive"))
	}

	return errors.Join(errs...)
}
