// Package api provides the companion's HTTP control API.
package api

import "time"

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Protocol string `json:"protocol"`
}

// PendingShot describes a capture the simulator is waiting to take.
type PendingShot struct {
	TimerValue int       `json:"timer_value"`
	Due        time.Time `json:"due"`
}

// StatusResponse is the response for GET /api/status.
type StatusResponse struct {
	Devices       int          `json:"devices"`
	SetupScreen   bool         `json:"setup_screen"`
	DropAcks      bool         `json:"drop_acks"`
	Pending       *PendingShot `json:"pending,omitempty"`
	Intents       uint64       `json:"intents"`
	Acks          uint64       `json:"acks"`
	PicturesTaken uint64       `json:"pictures_taken"`
	LastIntent    *time.Time   `json:"last_intent,omitempty"`
}

// PictureTakenResponse is the response for POST /api/picture-taken.
type PictureTakenResponse struct {
	Delivered int `json:"delivered"`
}

// AckModeRequest is the request body for POST /api/ack-mode.
type AckModeRequest struct {
	Drop *bool `json:"drop" binding:"required"`
}

// AckModeResponse is the response for POST /api/ack-mode.
type AckModeResponse struct {
	Drop bool `json:"drop"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
