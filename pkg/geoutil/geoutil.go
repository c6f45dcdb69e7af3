package geoutil

import "math"

const (
	earthRadiusMiles = 3958.8
	metersPerMile    = 1609.344
)

// DistanceMiles returns the great-circle distance in miles between two
// coordinates using the haversine formula.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// MetersToMiles converts a distance annotation in meters to miles.
func MetersToMiles(meters float64) float64 {
	return meters / metersPerMile
}

// MilesToKm converts miles to kilometers, used when a backing store expects
// radius predicates in km.
func MilesToKm(miles float64) float64 {
	return miles * metersPerMile / 1000.0
}

// ValidCoordinate reports whether a longitude/latitude pair is in range.
func ValidCoordinate(lon, lat float64) bool {
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
