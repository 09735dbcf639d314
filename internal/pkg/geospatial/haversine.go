package geospatial

import "math"

// EarthRadiusMiles is the mean Earth radius used for all distances.
const EarthRadiusMiles = 3959.0

// milesPerDegreeLat is the length of one degree of latitude.
const milesPerDegreeLat = EarthRadiusMiles * math.Pi / 180

// Haversine calculates the great-circle distance in miles between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// BoundingBox returns a bounding box around a point with the given radius in miles.
// The box contains every point within the radius. When the circle reaches a
// pole or crosses the antimeridian the longitude range widens to [-180, 180].
func BoundingBox(lat, lon, radiusMiles float64) (minLat, minLon, maxLat, maxLon float64) {
	angular := radiusMiles / EarthRadiusMiles
	latDelta := radiusMiles / milesPerDegreeLat

	minLat, maxLat = lat-latDelta, lat+latDelta
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), -180, math.Min(maxLat, 90), 180
	}

	// Widest longitude reached by the circle: asin(sin r / cos φ).
	ratio := math.Sin(angular) / math.Cos(toRad(lat))
	if angular >= math.Pi/2 || ratio >= 1 {
		return minLat, -180, maxLat, 180
	}
	lonDelta := math.Asin(ratio) * 180 / math.Pi

	minLon, maxLon = lon-lonDelta, lon+lonDelta
	if minLon < -180 || maxLon > 180 {
		return minLat, -180, maxLat, 180
	}
	return minLat, minLon, maxLat, maxLon
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
