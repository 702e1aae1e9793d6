package model

import (
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/geo"
)

// DeviceLocation is the registry entry for one push destination.
// Latitude and Longitude stay nil until the device reports a position.
type DeviceLocation struct {
	Identity  string    `json:"identity"`
	Latitude  *float64  `json:"lat"`
	Longitude *float64  `json:"lng"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasLocation reports whether both coordinates are set.
func (d *DeviceLocation) HasLocation() bool {
	return d != nil && d.Latitude != nil && d.Longitude != nil
}

// Position returns the coordinates; only meaningful when HasLocation is true.
func (d *DeviceLocation) Position() geo.Point {
	if !d.HasLocation() {
		return geo.Point{}
	}
	return geo.Point{Lat: *d.Latitude, Lng: *d.Longitude}
}

// SetPosition overwrites both coordinates.
func (d *DeviceLocation) SetPosition(lat, lng float64) {
	d.Latitude = &lat
	d.Longitude = &lng
}

// Clone returns a deep copy so callers never share coordinate pointers.
func (d *DeviceLocation) Clone() *DeviceLocation {
	if d == nil {
		return nil
	}
	out := *d
	if d.Latitude != nil {
		lat := *d.Latitude
		out.Latitude = &lat
	}
	if d.Longitude != nil {
		lng := *d.Longitude
		out.Longitude = &lng
	}
	return &out
}
