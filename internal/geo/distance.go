package geo

import "math"

// Coord is a WGS84 latitude/longitude pair
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

const (
	earthRadiusKm = 6371.0

	// LocalRadiusKm is the cutoff for a leg a pool driver can serve:
	// roughly 2.5 hours at an assumed 60 km/h average.
	LocalRadiusKm = 150.0
)

// Leg classification results
const (
	LegLocal  = "local"
	LegRemote = "remote"
)

// Haversine returns the great-circle distance between two coordinates in km
func Haversine(a, b Coord) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// ClassifyDistance labels a distance in km as driver-servable or
// transporter territory
func ClassifyDistance(km float64) string {
	if km <= LocalRadiusKm {
		return LegLocal
	}
	return LegRemote
}

// ClassifyLeg classifies the great-circle leg between two coordinates
func ClassifyLeg(a, b Coord) string {
	return ClassifyDistance(Haversine(a, b))
}

// WithinDriverRange reports whether a leg sits inside the local radius
func WithinDriverRange(a, b Coord) bool {
	return ClassifyLeg(a, b) == LegLocal
}
