package model

import "time"

const (
	DeliveryStatusAccepted = "ACCEPTED"
	DeliveryStatusFailed   = "FAILED"
)

// DeliveryLog tracks each batch handed to the push gateway.
type DeliveryLog struct {
	ID          uint64    `json:"id"`
	BroadcastID string    `json:"broadcastId"`
	Batch       int       `json:"batch"`
	Recipients  int       `json:"recipients"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Status      string    `json:"status"`
	Result      string    `json:"result,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DeliveryLogFilter describes query parameters for log searching.
type DeliveryLogFilter struct {
	BroadcastID string
	Status      string
	BeginTime   *time.Time
	EndTime     *time.Time
	Page        int
	PageSize    int
}

// DeliveryLogPage is one page of logs, newest first.
type DeliveryLogPage struct {
	Data     []*DeliveryLog `json:"data"`
	Total    int            `json:"total"`
	Pages    int            `json:"pages"`
	PageNum  int            `json:"pageNum"`
	PageSize int            `json:"pageSize"`
}

// DeliverySummary backs the admin dashboard.
type DeliverySummary struct {
	Devices          int            `json:"devices"`
	LocatedDevices   int            `json:"locatedDevices"`
	TodayBroadcasts  int            `json:"todayBroadcasts"`
	TodayBatches     int            `json:"todayBatches"`
	TodayAccepted    int            `json:"todayAccepted"`
	TodayFailed      int            `json:"todayFailedBatches"`
	RecentDeliveries []*DeliveryLog `json:"recentDeliveries"`
}
