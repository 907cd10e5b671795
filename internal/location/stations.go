// Package location handles the station table and proximity lookups
package location

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/randytsao24/ctaglass/internal/models"
)

//go:embed stations.yaml
var stationsYAML []byte

type stationTable struct {
	Stations []models.Station `yaml:"stations" validate:"required,min=1,dive"`
}

// Directory is the immutable station table. It is safe for concurrent use
// because nothing mutates it after construction.
type Directory struct {
	stations []models.Station
	byMapID  map[string]int
}

// NewDirectory loads the embedded station table
func NewDirectory() (*Directory, error) {
	return ParseDirectory(stationsYAML)
}

// ParseDirectory builds a directory from a YAML station table. Rows are
// validated and map ids must be unique.
func ParseDirectory(data []byte) (*Directory, error) {
	var table stationTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing station table: %w", err)
	}

	if err := validator.New().Struct(table); err != nil {
		return nil, fmt.Errorf("validating station table: %w", err)
	}

	d := &Directory{
		stations: table.Stations,
		byMapID:  make(map[string]int, len(table.Stations)),
	}
	for i, s := range table.Stations {
		if _, dup := d.byMapID[s.MapID]; dup {
			return nil, fmt.Errorf("duplicate station map id %s", s.MapID)
		}
		d.byMapID[s.MapID] = i
	}
	return d, nil
}

// All returns every station in table order
func (d *Directory) All() []models.Station {
	out := make([]models.Station, len(d.stations))
	copy(out, d.stations)
	return out
}

// Count returns the number of stations
func (d *Directory) Count() int {
	return len(d.stations)
}

// ByMapID returns a station by its map id
func (d *Directory) ByMapID(mapID string) (models.Station, bool) {
	i, ok := d.byMapID[mapID]
	if !ok {
		return models.Station{}, false
	}
	return d.stations[i], true
}

// ByName finds the first station whose name contains the query or is
// contained in it, ignoring case. Table order breaks ties.
func (d *Directory) ByName(name string) (models.Station, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return models.Station{}, false
	}

	for _, s := range d.stations {
		stationName := strings.ToLower(s.Name)
		if strings.Contains(stationName, query) || strings.Contains(query, stationName) {
			return s, true
		}
	}
	return models.Station{}, false
}

// ForRoutes returns stations serving any of the given routes, in table order
func (d *Directory) ForRoutes(routes []string) []models.Station {
	var result []models.Station
	for _, s := range d.stations {
		if s.ServesAny(routes) {
			result = append(result, s)
		}
	}
	return result
}

// Nearest returns the station closest to a point
func (d *Directory) Nearest(point models.Coordinate) (models.StationWithDistance, bool) {
	var best models.StationWithDistance
	found := false

	for _, s := range d.stations {
		dist := Haversine(point, s.Coordinate())
		// Strict comparison keeps the earlier row on ties
		if !found || dist < best.DistanceMeters {
			best = withDistance(s, dist)
			found = true
		}
	}
	return best, found
}

// FindNearby returns stations within a radius (meters) of a point
func (d *Directory) FindNearby(point models.Coordinate, radiusMeters float64) []models.StationWithDistance {
	results := []models.StationWithDistance{}

	for _, s := range d.stations {
		dist := Haversine(point, s.Coordinate())
		if dist <= radiusMeters {
			results = append(results, withDistance(s, dist))
		}
	}

	sortByDistance(results)
	return results
}

// FindClosest returns the N closest stations to a point
func (d *Directory) FindClosest(point models.Coordinate, limit int) []models.StationWithDistance {
	results := make([]models.StationWithDistance, 0, len(d.stations))
	for _, s := range d.stations {
		results = append(results, withDistance(s, Haversine(point, s.Coordinate())))
	}

	sortByDistance(results)

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results
}

func withDistance(s models.Station, meters float64) models.StationWithDistance {
	return models.StationWithDistance{
		Station:        s,
		DistanceMeters: meters,
		DistanceMiles:  MetersToMiles(meters),
	}
}

func sortByDistance(results []models.StationWithDistance) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
}
