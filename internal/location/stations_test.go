package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/ctaglass/internal/models"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewDirectory()
	require.NoError(t, err)
	return d
}

func TestNewDirectoryLoadsEmbeddedTable(t *testing.T) {
	d := newTestDirectory(t)

	assert.Equal(t, 18, d.Count())

	clark, ok := d.ByMapID("40170")
	require.True(t, ok)
	assert.Equal(t, "Clark/Lake", clark.Name)
	assert.Equal(t, clark.ID, clark.MapID)
	assert.Equal(t, []string{"Blue", "Brown", "Green", "Orange", "Pink", "Purple"}, clark.Routes)
}

func TestParseDirectoryRejectsDuplicateMapID(t *testing.T) {
	data := []byte(`
stations:
  - {id: "1", map_id: "1", name: "A", lat: 41.8, lng: -87.6, routes: [Red]}
  - {id: "2", map_id: "1", name: "B", lat: 41.9, lng: -87.6, routes: [Red]}
`)
	_, err := ParseDirectory(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate station map id 1")
}

func TestParseDirectoryValidatesRows(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", `stations: [{id: "1", map_id: "1", lat: 41.8, lng: -87.6, routes: [Red]}]`},
		{"bad latitude", `stations: [{id: "1", map_id: "1", name: "A", lat: 141.8, lng: -87.6, routes: [Red]}]`},
		{"no routes", `stations: [{id: "1", map_id: "1", name: "A", lat: 41.8, lng: -87.6, routes: []}]`},
		{"id differs from map id", `stations: [{id: "1", map_id: "2", name: "A", lat: 41.8, lng: -87.6, routes: [Red]}]`},
		{"non numeric id", `stations: [{id: "x", map_id: "x", name: "A", lat: 41.8, lng: -87.6, routes: [Red]}]`},
		{"empty table", `stations: []`},
		{"not yaml", `stations: [`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDirectory([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestByName(t *testing.T) {
	d := newTestDirectory(t)

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"clark", "Clark/Lake", true},
		{"O'HARE", "O'Hare", true},
		// query contains the station name
		{"Midway Airport", "Midway", true},
		// "Lake" appears in State/Lake and Clark/Lake, but Lake itself is earlier in the table
		{"lake", "Lake", true},
		{"Kimball station", "Kimball", true},
		{"Nowhere", "", false},
		{"   ", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			s, ok := d.ByName(tc.query)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, s.Name)
		})
	}
}

func TestByNameTableOrderTieBreak(t *testing.T) {
	data := []byte(`
stations:
  - {id: "1", map_id: "1", name: "Western", lat: 41.8, lng: -87.6, routes: [Blue]}
  - {id: "2", map_id: "2", name: "Western", lat: 41.9, lng: -87.7, routes: [Brown]}
`)
	d, err := ParseDirectory(data)
	require.NoError(t, err)

	s, ok := d.ByName("western")
	require.True(t, ok)
	assert.Equal(t, "1", s.MapID)
}

func TestForRoutesPreservesTableOrder(t *testing.T) {
	d := newTestDirectory(t)

	stations := d.ForRoutes([]string{"Purple"})
	var names []string
	for _, s := range stations {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Howard", "State/Lake", "Clark/Lake", "Linden"}, names)

	assert.Empty(t, d.ForRoutes([]string{"Silver"}))
	assert.Empty(t, d.ForRoutes(nil))
}

func TestNearest(t *testing.T) {
	d := newTestDirectory(t)

	// Thompson Center, a block from Clark/Lake
	s, ok := d.Nearest(models.Coordinate{Lat: 41.8846, Lng: -87.6320})
	require.True(t, ok)
	assert.Equal(t, "Clark/Lake", s.Name)
	assert.Less(t, s.DistanceMeters, 200.0)

	// O'Hare terminal
	s, ok = d.Nearest(models.Coordinate{Lat: 41.9786, Lng: -87.9048})
	require.True(t, ok)
	assert.Equal(t, "O'Hare", s.Name)
}

func TestNearestEmptyDirectory(t *testing.T) {
	d := &Directory{byMapID: map[string]int{}}
	_, ok := d.Nearest(models.Coordinate{Lat: 41.88, Lng: -87.63})
	assert.False(t, ok)
}

func TestFindClosestAndNearby(t *testing.T) {
	d := newTestDirectory(t)
	loop := models.Coordinate{Lat: 41.8819, Lng: -87.6278}

	closest := d.FindClosest(loop, 3)
	require.Len(t, closest, 3)
	for i := 1; i < len(closest); i++ {
		assert.LessOrEqual(t, closest[i-1].DistanceMeters, closest[i].DistanceMeters)
	}
	assert.Equal(t, "Monroe", closest[0].Name)

	nearby := d.FindNearby(loop, 800)
	assert.NotEmpty(t, nearby)
	for _, s := range nearby {
		assert.LessOrEqual(t, s.DistanceMeters, 800.0)
		assert.InDelta(t, MetersToMiles(s.DistanceMeters), s.DistanceMiles, 1e-9)
	}

	assert.Len(t, d.FindClosest(loop, 0), d.Count())
}

func TestHaversine(t *testing.T) {
	a := models.Coordinate{Lat: 41.885737, Lng: -87.630886}
	assert.Zero(t, Haversine(a, a))

	// Clark/Lake to O'Hare is roughly 25 km
	b := models.Coordinate{Lat: 41.982819, Lng: -87.904223}
	assert.InDelta(t, 24900, Haversine(a, b), 1500)
}
