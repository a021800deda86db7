package models

import "time"

// Path is a flushed, persisted stretch of continuous movement
type Path struct {
	ID        string `json:"id" db:"id"`
	UserID    string `json:"userId" db:"user_id"`
	SessionID string `json:"sessionId" db:"session_id"`

	// Temporal info
	StartTime time.Time `json:"startTime" db:"start_time"`
	EndTime   time.Time `json:"endTime" db:"end_time"`

	// Summary
	PointCount     int      `json:"pointCount" db:"point_count"`
	DistanceMeters float64  `json:"distanceMeters" db:"distance_meters"`
	AvgAccuracy    float64  `json:"avgAccuracy" db:"avg_accuracy"`
	AvgBearing     *float64 `json:"avgBearing,omitempty" db:"avg_bearing"`
	StartGeohash   string   `json:"startGeohash" db:"start_geohash"` // precision 7 (~150m cell)
	FlushReason    string   `json:"flushReason" db:"flush_reason"`   // gap, duration, size, stop

	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
	Points    []PathPoint `json:"points,omitempty"`
}

// PathPoint is one accepted point of a path
type PathPoint struct {
	Seq         int       `json:"seq" db:"seq"`
	Latitude    float64   `json:"latitude" db:"latitude"`
	Longitude   float64   `json:"longitude" db:"longitude"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Accuracy    float64   `json:"accuracy" db:"accuracy"`
	QualityTier string    `json:"qualityTier" db:"quality_tier"`
	Bearing     *float64  `json:"bearing" db:"bearing"`
	Speed       *float64  `json:"speed,omitempty" db:"speed"`
}

// Flush reasons
const (
	FlushGap      = "gap"
	FlushDuration = "duration"
	FlushSize     = "size"
	FlushStop     = "stop"
)

// PathFilter represents filter parameters for querying paths
type PathFilter struct {
	UserID    string `form:"-"`
	StartTime int64  `form:"startTime"` // Unix timestamp
	EndTime   int64  `form:"endTime"`   // Unix timestamp
	Geohash   string `form:"geohash"`   // prefix of start_geohash
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// PathsResponse represents a paginated response of paths
type PathsResponse struct {
	Data       []Path `json:"data"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
