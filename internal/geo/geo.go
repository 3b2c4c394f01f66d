// Package geo resolves city coordinates and great-circle distances.
package geo

import (
	"context"
	"errors"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Haversine
const EarthRadiusKm = 6371.0

var (
	// ErrUnknownCity is returned when the data source has no row for a city
	ErrUnknownCity = errors.New("there is no data for the city you specified")
	// ErrSourceUnavailable is returned when the city data cannot be read
	ErrSourceUnavailable = errors.New("city data source unavailable")
)

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Lat float64
	Lng float64
}

// Source resolves a city name to coordinates. Names match
// case-insensitively.
type Source interface {
	Lookup(ctx context.Context, city string) (Coordinates, error)
}

// Haversine returns the great-circle distance between a and b in km
func Haversine(a, b Coordinates) float64 {
	lat1, lng1 := radians(a.Lat), radians(a.Lng)
	lat2, lng2 := radians(b.Lat), radians(b.Lng)

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceKm looks up both cities and returns the distance rounded to
// whole kilometres
func DistanceKm(ctx context.Context, src Source, from, to string) (int, error) {
	a, err := src.Lookup(ctx, from)
	if err != nil {
		return 0, err
	}
	b, err := src.Lookup(ctx, to)
	if err != nil {
		return 0, err
	}
	return int(math.Round(Haversine(a, b))), nil
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
