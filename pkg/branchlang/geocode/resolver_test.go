package geocode

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/cache"
	"github.com/ukaji3/branchlang-go/pkg/branchlang/models"
)

// fakeFetcher answers from a fixed table and counts calls.
type fakeFetcher struct {
	counties map[string]string
	err      error
	calls    []string
}

func (f *fakeFetcher) County(_ context.Context, postalCode string) (string, error) {
	f.calls = append(f.calls, postalCode)
	if f.err != nil {
		return "", f.err
	}
	county := f.counties[postalCode]
	if county == "" {
		return "", &LookupError{PostalCode: postalCode}
	}
	return county, nil
}

func openCache(t *testing.T) (*cache.Cache, *cache.FileStore) {
	t.Helper()

	store := cache.NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	c, err := cache.Open(context.Background(), store)
	require.NoError(t, err)
	return c, store
}

func TestResolve_CachesServiceResult(t *testing.T) {
	ctx := context.Background()
	c, store := openCache(t)
	fetcher := &fakeFetcher{counties: map[string]string{"48933": "Ingham County"}}
	r := NewResolver(fetcher, c, Policy{})

	county, source, err := r.Resolve(ctx, "48933")
	require.NoError(t, err)
	assert.Equal(t, "Ingham County", county)
	assert.Equal(t, SourceService, source)

	persisted, _, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"48933": "Ingham County"}, persisted)

	county, source, err = r.Resolve(ctx, "48933")
	require.NoError(t, err)
	assert.Equal(t, "Ingham County", county)
	assert.Equal(t, SourceCache, source)

	assert.Equal(t, []string{"48933"}, fetcher.calls, "second resolution must not hit the service")
	assert.Equal(t, ResolveStats{Cached: 1, Fetched: 1}, r.Stats())
}

func TestResolve_Fallback(t *testing.T) {
	ctx := context.Background()
	c, _ := openCache(t)
	fetcher := &fakeFetcher{}
	r := NewResolver(fetcher, c, Policy{FallbackCounty: "Saginaw County"})

	county, source, err := r.Resolve(ctx, "48601")
	require.NoError(t, err)
	assert.Equal(t, "Saginaw County", county)
	assert.Equal(t, SourceFallback, source)

	_, cached := c.Get("48601")
	assert.False(t, cached, "fallback counties are not cached")
}

func TestResolve_NoFallbackIsLookupError(t *testing.T) {
	c, _ := openCache(t)
	r := NewResolver(&fakeFetcher{}, c, Policy{})

	_, _, err := r.Resolve(context.Background(), "48601")

	var le *LookupError
	assert.True(t, errors.As(err, &le), "want LookupError, got %v", err)
}

func TestResolve_Override(t *testing.T) {
	c, _ := openCache(t)
	fetcher := &fakeFetcher{counties: map[string]string{"48601": "Wrong County"}}
	r := NewResolver(fetcher, c, Policy{Overrides: map[string]string{"48601": "Saginaw County"}})

	county, source, err := r.Resolve(context.Background(), "48601")
	require.NoError(t, err)
	assert.Equal(t, "Saginaw County", county)
	assert.Equal(t, SourceOverride, source)
	assert.Empty(t, fetcher.calls)
}

func TestResolve_NetworkErrorIsFatalAndUncached(t *testing.T) {
	c, _ := openCache(t)
	netErr := &NetworkError{PostalCode: "48933", Status: 503, Err: errors.New("unavailable")}
	r := NewResolver(&fakeFetcher{err: netErr}, c, Policy{FallbackCounty: "Saginaw County"})

	_, _, err := r.Resolve(context.Background(), "48933")

	var ne *NetworkError
	assert.True(t, errors.As(err, &ne), "want NetworkError, got %v", err)
	assert.Equal(t, 0, c.Len())
}

func TestResolveAll(t *testing.T) {
	c, _ := openCache(t)
	fetcher := &fakeFetcher{counties: map[string]string{
		"48933": "Ingham County",
		"48202": "Wayne County",
	}}
	r := NewResolver(fetcher, c, Policy{FallbackCounty: "Saginaw County"})

	rows := []models.BranchRow{
		{R: 2, PostalCode: "48933"},
		{R: 3, PostalCode: "48601"},
		{R: 4, PostalCode: "48202"},
		{R: 5, PostalCode: "48933"},
	}

	counties, err := r.ResolveAll(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"Ingham County", "Saginaw County", "Wayne County", "Ingham County"}, counties)
	for i, row := range rows {
		assert.Equal(t, counties[i], row.County)
	}
	assert.Equal(t, []string{"48933", "48601", "48202"}, fetcher.calls)
}

func TestResolveAll_ReportsRow(t *testing.T) {
	c, _ := openCache(t)
	r := NewResolver(&fakeFetcher{err: &NetworkError{PostalCode: "48202", Err: errors.New("down")}}, c, Policy{})

	rows := []models.BranchRow{{R: 7, Address: "3 Lake Dr, Detroit, MI 48202", PostalCode: "48202"}}

	counties, err := r.ResolveAll(context.Background(), rows)
	require.Error(t, err)
	assert.Nil(t, counties)
	assert.Contains(t, err.Error(), "row 7")
	assert.Empty(t, rows[0].County)
}
