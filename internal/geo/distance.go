// Package geo measures distances between stop and shape coordinates.
package geo

import "math"

// Mean earth radius in meters.
const earthRadius = 6_371_000.0

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat, Lon float64
}

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula.
func Distance(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := hav(dLat) + math.Cos(lat1)*math.Cos(lat2)*hav(dLon)
	return 2 * earthRadius * math.Asin(math.Sqrt(math.Min(h, 1)))
}

func hav(angle float64) float64 {
	s := math.Sin(angle / 2)
	return s * s
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
