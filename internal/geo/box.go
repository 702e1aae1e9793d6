package geo

import "math"

// Box is a latitude/longitude rectangle used to discard far candidates
// before computing haversine distances.
type Box struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// BoundingBox returns a box that contains every point within radius meters of
// center. It may contain more; it never contains less. Near the poles or when
// the circle crosses the antimeridian the box spans all longitudes.
func BoundingBox(center Point, radius float64) Box {
	if radius < 0 {
		radius = 0
	}
	// pad for floating point slack at the boundary
	angular := (radius*1.001 + 1) / EarthRadiusMeters
	dLat := angular * 180 / math.Pi

	box := Box{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 || angular >= math.Pi/2 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		return box
	}

	dLng := math.Asin(math.Sin(angular)/math.Cos(toRad(center.Lat))) * 180 / math.Pi
	minLng := center.Lng - dLng
	maxLng := center.Lng + dLng
	if minLng < -180 || maxLng > 180 {
		return box
	}
	box.MinLng = minLng
	box.MaxLng = maxLng
	return box
}

// Contains reports whether p lies inside the box, edges included.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
