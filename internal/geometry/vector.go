package geometry

import (
	"math"

	"github.com/steampigeon/flightmanager/pkg/types"
)

// EarthRadius is the mean Earth radius in meters used by Haversine.
const EarthRadius = 6371000

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance between two points, truncated
// to whole meters.
func Haversine(from, to types.Coordinate) int {
	lat1 := radians(from.Latitude)
	lat2 := radians(to.Latitude)
	dLat := lat2 - lat1
	dLon := radians(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a past 1 for antipodal points.
	a = math.Min(a, 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return int(EarthRadius * c)
}

// InitialBearing returns the forward azimuth from one point toward another
// in degrees [0, 360).
func InitialBearing(from, to types.Coordinate) float64 {
	lat1 := radians(from.Latitude)
	lat2 := radians(to.Latitude)
	dLon := radians(to.Longitude - from.Longitude)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return NormalizeDegrees(math.Atan2(y, x) * 180 / math.Pi)
}

// Vector returns the bearing and distance from the handheld to the locator.
func Vector(handheld, locator types.Coordinate) (bearing float64, distance int) {
	return InitialBearing(handheld, locator), Haversine(handheld, locator)
}
