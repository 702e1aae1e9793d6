package model

import "github.com/Gagankhurana-12/Yatri-Kavach/internal/geo"

// SOSType marks push payloads produced by an SOS broadcast.
const SOSType = "sos"

// BroadcastRequest is one SOS trigger. Radius, Title and Body are optional;
// nil/empty values are replaced with configured defaults.
type BroadcastRequest struct {
	Center geo.Point
	Radius *float64
	Title  string
	Body   string
}

// BroadcastResult summarises a broadcast. Sent counts recipients whose batch
// the gateway accepted; it says nothing about device delivery.
type BroadcastResult struct {
	ID            string `json:"id"`
	Recipients    int    `json:"recipients"`
	Sent          int    `json:"sent"`
	Batches       int    `json:"batches"`
	FailedBatches int    `json:"failedBatches"`
}

// PushPayload is the notification content shared by all recipients.
type PushPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// SOSPayload builds the payload carrying the broadcast origin so clients can
// geofence locally.
func SOSPayload(title, body string, origin geo.Point) PushPayload {
	return PushPayload{
		Title: title,
		Body:  body,
		Data: map[string]any{
			"type": SOSType,
			"lat":  origin.Lat,
			"lng":  origin.Lng,
		},
	}
}

// DeliveryResult is what the dispatcher reports back.
type DeliveryResult struct {
	Accepted      int
	Batches       int
	FailedBatches int
}
