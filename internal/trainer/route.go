package trainer

import "math"

const earthRadiusKm = 6371.0

// Coordinate is one location sample
type Coordinate struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	TimestampMs int64   `json:"timestamp"`
}

// RouteMap holds the recorded trail per exercise index
type RouteMap map[int][]Coordinate

// Clone returns a deep copy
func (m RouteMap) Clone() RouteMap {
	out := make(RouteMap, len(m))
	for k, v := range m {
		out[k] = append([]Coordinate(nil), v...)
	}
	return out
}

// DistanceMeters is the summed great-circle length of a trail
func DistanceMeters(trail []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(trail); i++ {
		total += HaversineKm(trail[i-1].Lat, trail[i-1].Lng, trail[i].Lat, trail[i].Lng) * 1000
	}
	return total
}

// HaversineKm is the great-circle distance between two points in kilometres
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
