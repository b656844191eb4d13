// Package geo provides great-circle distance and drive-time estimation
// for longitude/latitude coordinate pairs.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// fallbackSpeedKmh is the assumed door-to-door driving speed when no
// routing service is available.
const fallbackSpeedKmh = 30.0

// Coordinates is a WGS84 longitude/latitude pair.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// IsZero reports whether both components are zero. Entities that were
// never geocoded carry zero coordinates, and distance checks skip them.
func (c Coordinates) IsZero() bool {
	return c.Longitude == 0 && c.Latitude == 0
}

// Haversine returns the great-circle distance between a and b in
// kilometres.
func Haversine(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// EstimateDriveMinutes returns a whole-minute driving-time estimate
// between a and b assuming 30 km/h, rounding part minutes up.
func EstimateDriveMinutes(a, b Coordinates) int {
	return int(math.Ceil(Haversine(a, b) / fallbackSpeedKmh * 60))
}
