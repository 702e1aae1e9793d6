package model

import "time"

// DeviceView hides the push token when listing devices to admins.
type DeviceView struct {
	Identity  string    `json:"identity"`
	Latitude  *float64  `json:"lat"`
	Longitude *float64  `json:"lng"`
	Located   bool      `json:"located"`
	UpdatedAt time.Time `json:"updatedAt"`
}
