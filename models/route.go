// models/route.go
package models

import "github.com/paulmach/orb"

// Coordinate is a WGS84 position, longitude first as in GeoJSON.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Point returns c as an orb point.
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// RouteResult is the first candidate route returned by the routing engine,
// copied verbatim (meters, seconds).
type RouteResult struct {
	Geometry        orb.Geometry
	DistanceMeters  float64
	DurationSeconds float64
}
