package geo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	london     = Coordinates{Lat: 51.5072, Lng: -0.1275}
	paris      = Coordinates{Lat: 48.8567, Lng: 2.3522}
	newYork    = Coordinates{Lat: 40.6943, Lng: -73.9249}
	losAngeles = Coordinates{Lat: 34.1141, Lng: -118.4068}
	tokyo      = Coordinates{Lat: 35.6897, Lng: 139.6922}
	sydney     = Coordinates{Lat: -33.8678, Lng: 151.21}
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinates
		want float64
	}{
		{"london-paris", london, paris, 343.5},
		{"new york-los angeles", newYork, losAngeles, 3953.6},
		{"london-tokyo", london, tokyo, 9558.7},
		{"tokyo-sydney", tokyo, sydney, 7826.5},
		{"same point", london, london, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Haversine(tt.a, tt.b), 1)
			assert.InDelta(t, Haversine(tt.a, tt.b), Haversine(tt.b, tt.a), 1e-9)
		})
	}
}

func TestCSVSource(t *testing.T) {
	src := NewCSVSource(filepath.Join("testdata", "cities.csv"), nil)
	ctx := context.Background()

	got, err := src.Lookup(ctx, "paris")
	require.NoError(t, err)
	assert.Equal(t, paris, got)

	got, err = src.Lookup(ctx, "  SAO PAULO ")
	require.NoError(t, err)
	assert.InDelta(t, -23.5504, got.Lat, 1e-9)

	got, err = src.Lookup(ctx, "London")
	require.NoError(t, err)
	assert.Equal(t, london, got, "first row wins")

	_, err = src.Lookup(ctx, "Atlantis")
	assert.ErrorIs(t, err, ErrUnknownCity)

	_, err = src.Lookup(ctx, "Broken")
	assert.ErrorIs(t, err, ErrUnknownCity, "rows with bad coordinates are skipped")
}

func TestCSVSourceUnavailable(t *testing.T) {
	ctx := context.Background()

	_, err := NewCSVSource("", nil).Lookup(ctx, "Paris")
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	path := filepath.Join(t.TempDir(), "cities.csv")
	src := NewCSVSource(path, nil)
	_, err = src.Lookup(ctx, "Paris")
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	require.NoError(t, os.WriteFile(path, []byte("name,x\nParis,1\n"), 0o644))
	_, err = src.Lookup(ctx, "Paris")
	assert.ErrorIs(t, err, ErrSourceUnavailable, "missing columns")

	require.NoError(t, os.WriteFile(path, []byte("city_ascii,lat,lng\nParis,48.8567,2.3522\n"), 0o644))
	got, err := src.Lookup(ctx, "Paris")
	require.NoError(t, err, "a failed load is retried")
	assert.Equal(t, paris, got)
}

func TestDistanceKm(t *testing.T) {
	src := NewCSVSource(filepath.Join("testdata", "cities.csv"), nil)
	ctx := context.Background()

	km, err := DistanceKm(ctx, src, "London", "Paris")
	require.NoError(t, err)
	assert.Equal(t, 344, km)

	_, err = DistanceKm(ctx, src, "London", "Atlantis")
	assert.ErrorIs(t, err, ErrUnknownCity)
}

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Lookup(_ context.Context, city string) (Coordinates, error) {
	s.calls++
	if s.err != nil {
		return Coordinates{}, s.err
	}
	return Coordinates{Lat: float64(len(city))}, nil
}

func TestCoordinateCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewCoordinateCache(time.Minute, 0).WithClock(func() time.Time { return now })

	cache.Put("Paris", paris)
	got, ok := cache.Get("PARIS")
	require.True(t, ok)
	assert.Equal(t, paris, got)

	now = now.Add(59 * time.Second)
	_, ok = cache.Get("paris")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = cache.Get("paris")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestCoordinateCacheEviction(t *testing.T) {
	cache := NewCoordinateCache(time.Hour, 2)
	cache.Put("london", london)
	cache.Put("paris", paris)

	_, ok := cache.Get("london")
	require.True(t, ok)

	cache.Put("tokyo", tokyo)
	assert.Equal(t, 2, cache.Len())

	_, ok = cache.Get("paris")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = cache.Get("london")
	assert.True(t, ok)
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	inner := &countingSource{}
	src := NewCachedSource(inner, NewCoordinateCache(time.Hour, 10))

	for n := 0; n < 3; n++ {
		_, err := src.Lookup(ctx, "Lima")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.calls)

	inner.err = errors.New("boom")
	_, err := src.Lookup(ctx, "Quito")
	assert.Error(t, err)
	_, err = src.Lookup(ctx, "Quito")
	assert.Error(t, err)
	assert.Equal(t, 3, inner.calls, "failures are not cached")
}
