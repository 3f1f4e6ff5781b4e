// Package geo holds the coordinate math shared by the matching service and
// the store queries. Lat/lng live in separate columns for portability, so
// distance is plain haversine on both sides.
package geo

import (
	"math"

	"github.com/marwo/buddyfit/pkg/entity"
)

const earthRadiusM = 6371000.0

// DistanceMeters returns the haversine distance between two points.
func DistanceMeters(a, b entity.GeoPoint) float64 {
	latA := a.Latitude * math.Pi / 180
	latB := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(latA)*math.Cos(latB)*math.Pow(math.Sin(dLon/2), 2)
	return earthRadiusM * 2 * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Valid reports whether a point is a usable location: coordinates in range
// and not the (0,0) sentinel.
func Valid(p entity.GeoPoint) bool {
	if p.IsOrigin() {
		return false
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return false
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return false
	}
	return true
}
