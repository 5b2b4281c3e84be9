package service

import "math"

const earthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two coordinates in
// kilometers.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// WithinRange reports whether two coordinates are at most maxKM apart. The
// boundary is inclusive.
func WithinRange(lat1, lng1, lat2, lng2, maxKM float64) bool {
	return WithinDistance(HaversineKM(lat1, lng1, lat2, lng2), maxKM)
}

// WithinDistance reports whether an already-computed distance is inside the
// inclusive maxKM threshold.
func WithinDistance(distanceKM, maxKM float64) bool {
	return distanceKM <= maxKM
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
