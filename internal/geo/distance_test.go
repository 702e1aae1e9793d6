package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters_ZeroForSamePoint(t *testing.T) {
	points := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 30.8780, Lng: 76.8740},
		{Lat: -89.9, Lng: 179.9},
		{Lat: 51.5, Lng: -0.12},
	}
	for _, p := range points {
		assert.Equal(t, 0.0, DistanceMeters(p.Lat, p.Lng, p.Lat, p.Lng))
	}
}

func TestDistanceMeters_Symmetric(t *testing.T) {
	pairs := [][2]Point{
		{{Lat: 30.8780, Lng: 76.8740}, {Lat: 30.8781, Lng: 76.8741}},
		{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 180}},
		{{Lat: 90, Lng: 0}, {Lat: -90, Lng: 0}},
		{{Lat: 40.7128, Lng: -74.0060}, {Lat: 34.0522, Lng: -118.2437}},
		{{Lat: -33.86, Lng: 151.2}, {Lat: 35.68, Lng: 139.69}},
	}
	for _, pair := range pairs {
		ab := Distance(pair[0], pair[1])
		ba := Distance(pair[1], pair[0])
		assert.InDelta(t, ab, ba, 1e-6)
		assert.GreaterOrEqual(t, ab, 0.0)
	}
}

func TestDistanceMeters_KnownValues(t *testing.T) {
	// one degree of latitude on the sphere
	oneDegree := EarthRadiusMeters * math.Pi / 180
	assert.InDelta(t, oneDegree, DistanceMeters(0, 0, 1, 0), 1e-6)

	// half the circumference between antipodes
	assert.InDelta(t, EarthRadiusMeters*math.Pi, DistanceMeters(0, 0, 0, 180), 1e-3)

	// nearby points used by the mobile client scenario are roughly 14.6 m apart
	d := DistanceMeters(30.8780, 76.8740, 30.8781, 76.8741)
	assert.InDelta(t, 14.6, d, 0.5)
}

func TestDistanceMeters_AntipodesAreFinite(t *testing.T) {
	halfCircumference := EarthRadiusMeters * math.Pi
	for lat := -89.5; lat <= 89.5; lat += 0.37 {
		for lng := -179.5; lng <= 179.5; lng += 1.13 {
			antiLng := lng + 180
			if antiLng > 180 {
				antiLng -= 360
			}
			d := DistanceMeters(lat, lng, -lat, antiLng)
			if !assert.False(t, math.IsNaN(d), "lat=%v lng=%v", lat, lng) {
				return
			}
			assert.InDelta(t, halfCircumference, d, 1)
			assert.Equal(t, d, DistanceMeters(-lat, antiLng, lat, lng))
		}
	}
	// a pair known to round past 1 before clamping
	d := DistanceMeters(18.8388, 158.5832, -18.8388, -21.4168)
	assert.False(t, math.IsNaN(d))
	assert.InDelta(t, halfCircumference, d, 1)
}

func TestPoint_Valid(t *testing.T) {
	assert.True(t, Point{Lat: 90, Lng: -180}.Valid())
	assert.True(t, Point{Lat: -90, Lng: 180}.Valid())
	assert.False(t, Point{Lat: 90.0001, Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: -180.5}.Valid())
	assert.False(t, Point{Lat: math.NaN(), Lng: 0}.Valid())
	assert.False(t, Point{Lat: 0, Lng: math.Inf(1)}.Valid())
}

func TestBoundingBox_ContainsCircle(t *testing.T) {
	centers := []Point{
		{Lat: 30.8780, Lng: 76.8740},
		{Lat: 0, Lng: 0},
		{Lat: 70, Lng: 20},
		{Lat: -45, Lng: -120},
	}
	radii := []float64{0, 1, 500, 10000, 250000}
	bearings := []float64{0, 45, 90, 135, 180, 225, 270, 315}

	for _, c := range centers {
		for _, r := range radii {
			box := BoundingBox(c, r)
			assert.True(t, box.Contains(c))
			for _, b := range bearings {
				p := destination(c, r, b)
				if Distance(c, p) <= r {
					assert.Truef(t, box.Contains(p), "center %+v radius %v bearing %v", c, r, b)
				}
			}
		}
	}
}

func TestBoundingBox_ExcludesFarPoints(t *testing.T) {
	box := BoundingBox(Point{Lat: 30.8780, Lng: 76.8740}, 500)
	assert.False(t, box.Contains(Point{Lat: 31.0, Lng: 76.8740}))
	assert.False(t, box.Contains(Point{Lat: 30.8780, Lng: 77.0}))
}

func TestBoundingBox_PolesAndAntimeridian(t *testing.T) {
	polar := BoundingBox(Point{Lat: 89.999, Lng: 10}, 1000)
	assert.Equal(t, -180.0, polar.MinLng)
	assert.Equal(t, 180.0, polar.MaxLng)
	assert.Equal(t, 90.0, polar.MaxLat)

	wrap := BoundingBox(Point{Lat: 0, Lng: 179.999}, 1000)
	assert.Equal(t, -180.0, wrap.MinLng)
	assert.Equal(t, 180.0, wrap.MaxLng)
	assert.True(t, wrap.Contains(Point{Lat: 0, Lng: -179.999}))
}

// destination moves distance meters from p along bearing degrees.
func destination(p Point, distance, bearing float64) Point {
	d := distance / EarthRadiusMeters
	brng := toRad(bearing)
	lat1 := toRad(p.Lat)
	lng1 := toRad(p.Lng)
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	return Point{Lat: lat2 * 180 / math.Pi, Lng: lng2 * 180 / math.Pi}
}
