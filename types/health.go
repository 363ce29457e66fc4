package types

import "time"

// StationHealth is the retained liveness record of one panel.
type StationHealth struct {
	StationID string    `json:"station_id"`
	LastSeen  time.Time `json:"last_seen"`
	Healthy   bool      `json:"healthy"`
	State     string    `json:"state"`
}
