// Package models defines shared data types
package models

import "strings"

// Coordinate is a WGS84 point
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Station represents a CTA 'L' station. ID and MapID carry the same value;
// MapID is the key the Train Tracker API expects.
type Station struct {
	ID     string   `json:"id" yaml:"id" validate:"required,numeric,eqfield=MapID"`
	MapID  string   `json:"map_id" yaml:"map_id" validate:"required,numeric"`
	Name   string   `json:"name" yaml:"name" validate:"required"`
	Lat    float64  `json:"lat" yaml:"lat" validate:"latitude"`
	Lng    float64  `json:"lng" yaml:"lng" validate:"longitude"`
	Routes []string `json:"routes" yaml:"routes" validate:"required,min=1,dive,required"`
}

// Coordinate returns the station's location
func (s Station) Coordinate() Coordinate {
	return Coordinate{Lat: s.Lat, Lng: s.Lng}
}

// DisplayName renders "Clark/Lake (Blue, Brown)"
func (s Station) DisplayName() string {
	return s.Name + " (" + strings.Join(s.Routes, ", ") + ")"
}

// ServesAny reports whether the station serves at least one of routes
func (s Station) ServesAny(routes []string) bool {
	for _, have := range s.Routes {
		for _, want := range routes {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}

// StationWithDistance is a Station with distance from a reference point
type StationWithDistance struct {
	Station
	DistanceMeters float64 `json:"distance_meters"`
	DistanceMiles  float64 `json:"distance_miles"`
}
