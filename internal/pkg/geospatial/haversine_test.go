package geospatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine_DowntownChicago(t *testing.T) {
	d := Haversine(41.8781, -87.6298, 41.8800, -87.6300)
	// ~0.13 mi, shown as 0.1 after rounding.
	assert.InDelta(t, 0.1317, d, 0.001)
}

func TestHaversine_Symmetric(t *testing.T) {
	pts := [][2]float64{
		{41.8781, -87.6298},
		{40.7128, -74.0060},
		{31.7683, 35.2137},
		{-33.8688, 151.2093},
		{0, 179.9},
		{0, -179.9},
	}
	for _, a := range pts {
		for _, b := range pts {
			ab := Haversine(a[0], a[1], b[0], b[1])
			ba := Haversine(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9)
		}
	}
}

func TestHaversine_SelfIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Haversine(41.8781, -87.6298, 41.8781, -87.6298))
	assert.Equal(t, 0.0, Haversine(-90, 0, -90, 0))
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Chicago to New York is roughly 711 miles great-circle.
	d := Haversine(41.8781, -87.6298, 40.7128, -74.0060)
	assert.InDelta(t, 711, d, 5)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	lat, lon := 41.8781, -87.6298
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, 5)

	assert.Less(t, minLat, lat)
	assert.Greater(t, maxLat, lat)
	assert.Less(t, minLon, lon)
	assert.Greater(t, maxLon, lon)

	// The north edge sits 5 miles away along the meridian.
	assert.InDelta(t, 5, Haversine(lat, lon, maxLat, lon), 0.01)
	// The east edge is at least 5 miles away along the parallel.
	assert.GreaterOrEqual(t, Haversine(lat, lon, lat, maxLon), 4.99)
}

func TestBoundingBox_Pole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(89.99, 0, 10)
	assert.Equal(t, 90.0, maxLat)
	assert.Less(t, minLat, 89.99)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
}

func TestBoundingBox_HighLatitudeContainsWidestPoint(t *testing.T) {
	// At 70°N the circle's widest longitude lies poleward of the centre
	// parallel; every point on it must fall inside the box.
	lat, lon, radius := 70.0, 20.0, 300.0
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, radius)

	angular := radius / EarthRadiusMiles
	for i := 0; i < 360; i++ {
		bearing := toRad(float64(i))
		phi1 := toRad(lat)
		phi2 := math.Asin(math.Sin(phi1)*math.Cos(angular) + math.Cos(phi1)*math.Sin(angular)*math.Cos(bearing))
		lambda2 := toRad(lon) + math.Atan2(math.Sin(bearing)*math.Sin(angular)*math.Cos(phi1),
			math.Cos(angular)-math.Sin(phi1)*math.Sin(phi2))
		pLat, pLon := phi2*180/math.Pi, lambda2*180/math.Pi

		assert.GreaterOrEqual(t, pLat, minLat-1e-9, "bearing %d", i)
		assert.LessOrEqual(t, pLat, maxLat+1e-9, "bearing %d", i)
		assert.GreaterOrEqual(t, pLon, minLon-1e-9, "bearing %d", i)
		assert.LessOrEqual(t, pLon, maxLon+1e-9, "bearing %d", i)
	}
}

func TestBoundingBox_Antimeridian(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(0, 179.95, 10)
	assert.Less(t, minLat, 0.0)
	assert.Greater(t, maxLat, 0.0)
	assert.Equal(t, -180.0, minLon)
	assert.Equal(t, 180.0, maxLon)
	// A point just across the line is inside the box.
	assert.LessOrEqual(t, Haversine(0, 179.95, 0, -179.98), 10.0)
	assert.GreaterOrEqual(t, -179.98, minLon)
}
