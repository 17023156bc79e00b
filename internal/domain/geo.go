package domain

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a just outside [0, 1] for near-antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// Distance is DistanceKm over Geo values.
func Distance(a, b Geo) float64 {
	return DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DistanceFrom returns the distance from origin to the event's epicenter.
// ok is false when the event has no usable coordinates.
func DistanceFrom(origin Geo, e Event) (float64, bool) {
	p, ok := e.Point()
	if !ok {
		return 0, false
	}
	return Distance(origin, p), true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
