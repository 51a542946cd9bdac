package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))

	for _, m := range []map[string]string{
		{},
		{"48933": "Ingham County"},
		{"48933": "Ingham County", "48202": "Wayne County", "49221": "Lenawee County"},
		{"quote\"key": "value with \\ and unicode é"},
	} {
		require.NoError(t, store.Save(ctx, m))

		got, status, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusLoaded, status)
		assert.Equal(t, m, got)
	}
}

func TestFileStore_Absent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	got, status, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusAbsent, status)
	assert.Empty(t, got)
}

func TestFileStore_Corrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{not json"},
		{"wrong shape", `["48933"]`},
		{"non-string values", `{"48933": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			got, status, err := NewFileStore(path).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StatusCorrupt, status)
			assert.Empty(t, got)
		})
	}
}

func TestFileStore_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.json")

	require.NoError(t, NewFileStore(path).Save(context.Background(), map[string]string{"a": "b"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(data))
}

func TestFileStore_SaveFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes the rename fail.
	path := filepath.Join(dir, "cache.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	err := NewFileStore(path).Save(context.Background(), map[string]string{"a": "b"})
	assert.Error(t, err)
}

func TestOpen_CorruptStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	c, err := Open(context.Background(), NewFileStore(path))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestGetOrFetch_FetchesOncePerKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)

	calls := map[string]int{}
	fetch := func(_ context.Context, key string) (string, error) {
		calls[key]++
		return "county-" + key, nil
	}

	for i := 0; i < 3; i++ {
		for _, key := range []string{"48933", "48202", "48933"} {
			v, err := c.GetOrFetch(ctx, key, fetch)
			require.NoError(t, err)
			assert.Equal(t, "county-"+key, v)
		}
	}

	assert.Equal(t, map[string]int{"48933": 1, "48202": 1}, calls)
	assert.Equal(t, Stats{Hits: 7, Misses: 2}, c.Stats())

	// Every miss was flushed to disk.
	persisted, status, err := NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusLoaded, status)
	assert.Equal(t, map[string]string{"48933": "county-48933", "48202": "county-48202"}, persisted)
}

func TestGetOrFetch_ReusesPersistedEntries(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, store.Save(ctx, map[string]string{"48933": "Ingham County"}))

	c, err := Open(ctx, store)
	require.NoError(t, err)

	v, err := c.GetOrFetch(ctx, "48933", func(context.Context, string) (string, error) {
		t.Fatal("fetch must not be called for a cached key")
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Ingham County", v)
}

func TestGetOrFetch_ErrorNotStored(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := Open(ctx, NewFileStore(path))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = c.GetOrFetch(ctx, "48933", func(context.Context, string) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get("48933")
	assert.False(t, ok)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no cache file should be written for a failed fetch")
}

func TestEntries_Sorted(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, store.Save(ctx, map[string]string{"49221": "Lenawee County", "48202": "Wayne County"}))

	c, err := Open(ctx, store)
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Key: "48202", Value: "Wayne County"},
		{Key: "49221", Value: "Lenawee County"},
	}, c.Entries())
}

func TestLoadStatus_String(t *testing.T) {
	assert.Equal(t, "loaded", StatusLoaded.String())
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "corrupt", StatusCorrupt.String())
	assert.Equal(t, "LoadStatus(9)", LoadStatus(9).String())
}
