package domain

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Nearest returns the district closest to (lat, lon). Exact distance ties go
// to the lowest district id. ok is false when districts is empty.
func Nearest(lat, lon float64, districts []District) (District, bool) {
	var (
		best     District
		bestDist = math.Inf(1)
		found    bool
	)
	for _, d := range districts {
		dist := DistanceKm(lat, lon, d.Latitude, d.Longitude)
		if !found || dist < bestDist || (dist == bestDist && d.ID < best.ID) {
			best, bestDist, found = d, dist, true
		}
	}
	return best, found
}
