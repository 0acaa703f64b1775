package domain

import "time"

// PageView is a single recorded visit. VisitorHash replaces the client IP.
type PageView struct {
	Path        string
	VisitorHash string
	UserAgent   string
	Referrer    string
	ViewedAt    time.Time
}

// TimeWindow is the bucket width used when grouping page views.
type TimeWindow string

const (
	WindowHour TimeWindow = "hour"
	WindowDay  TimeWindow = "day"
)

// Valid reports whether w is a supported window.
func (w TimeWindow) Valid() bool {
	return w == WindowHour || w == WindowDay
}

// PageViewBucket aggregates page views inside one window.
type PageViewBucket struct {
	WindowStart    time.Time `json:"window_start"`
	Views          int64     `json:"views"`
	UniqueVisitors int64     `json:"unique_visitors"`
}
