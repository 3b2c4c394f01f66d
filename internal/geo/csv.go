package geo

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
)

// CSVSource reads a simplemaps-style world cities file with at least
// the columns city_ascii, lat and lng. The file is indexed on first
// lookup; a failed read is retried on the next lookup.
type CSVSource struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	cities map[string]Coordinates
}

// NewCSVSource creates a source over the file at path
func NewCSVSource(path string, logger *slog.Logger) *CSVSource {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CSVSource{path: path, logger: logger}
}

// Lookup returns the coordinates of the first row whose city_ascii
// matches city
func (s *CSVSource) Lookup(_ context.Context, city string) (Coordinates, error) {
	cities, err := s.index()
	if err != nil {
		return Coordinates{}, err
	}
	c, ok := cities[normalize(city)]
	if !ok {
		return Coordinates{}, fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}
	return c, nil
}

func (s *CSVSource) index() (map[string]Coordinates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cities != nil {
		return s.cities, nil
	}

	if s.path == "" {
		return nil, fmt.Errorf("%w: no data file configured", ErrSourceUnavailable)
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	cities, err := parseCities(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.path, err)
	}
	s.logger.Info("city data loaded", "path", s.path, "cities", len(cities))
	s.cities = cities
	return cities, nil
}

func parseCities(r io.Reader) (map[string]Coordinates, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	cityCol, latCol, lngCol := -1, -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "city_ascii":
			cityCol = i
		case "lat":
			latCol = i
		case "lng":
			lngCol = i
		}
	}
	if cityCol < 0 || latCol < 0 || lngCol < 0 {
		return nil, errors.New("missing city_ascii, lat or lng column")
	}

	cities := make(map[string]Coordinates)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) <= max(cityCol, latCol, lngCol) {
			continue
		}
		lat, errLat := strconv.ParseFloat(record[latCol], 64)
		lng, errLng := strconv.ParseFloat(record[lngCol], 64)
		if errLat != nil || errLng != nil {
			continue
		}
		key := normalize(record[cityCol])
		if _, seen := cities[key]; !seen {
			cities[key] = Coordinates{Lat: lat, Lng: lng}
		}
	}
	return cities, nil
}

func normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
