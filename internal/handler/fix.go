package handler

import (
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
)

// fixRequest is one location fix as posted by a client. Speed and accuracy are
// optional; a missing value is reported as unknown (-1).
type fixRequest struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  *float64  `json:"accuracy"`
	Speed     *float64  `json:"speed"`
	Heading   *float64  `json:"heading"`
	Timestamp time.Time `json:"timestamp"`
}

func (r fixRequest) toFix() tracking.LocationFix {
	fix := tracking.LocationFix{
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Accuracy:  -1,
		Speed:     -1,
		Heading:   r.Heading,
		Timestamp: r.Timestamp,
	}
	if r.Accuracy != nil {
		fix.Accuracy = *r.Accuracy
	}
	if r.Speed != nil {
		fix.Speed = *r.Speed
	}
	return fix
}
