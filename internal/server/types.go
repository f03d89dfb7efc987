// Package server provides the local HTTP front end for a clipdesk session.
// It includes handlers, middleware, routes, a websocket hub and DTOs
// separated from domain types.
package server

import (
	"github.com/maauso/clipdesk/internal/request"
	"github.com/maauso/clipdesk/internal/workflow"
)

// ProcessRequest is the HTTP request body for submitting a process request.
// Values are the raw input controls; normalization happens in the session.
type ProcessRequest struct {
	// Task is the selected transformation. Empty keeps the session's task.
	Task string `json:"task" validate:"omitempty,oneof=resize vgif deid"`
	// Resolution is the target height or size, free text.
	Resolution string `json:"resolution" validate:"max=32"`
	// FPS is a frame rate or "default".
	FPS string `json:"fps" validate:"max=32"`
	// Mute strips the audio track.
	Mute bool `json:"mute"`
	// DeIDArgs are extra arguments for the de-identification task.
	DeIDArgs string `json:"deid_args" validate:"max=1024"`
	// GIFQuality is a preset name or "custom".
	GIFQuality string `json:"gif_quality" validate:"omitempty,oneof=tiny small medium high custom"`
	// StartTime is the trim start, seconds or a timecode.
	StartTime string `json:"start_time" validate:"max=32"`
	// Duration is the trim length, seconds or a timecode.
	Duration string `json:"duration" validate:"max=32"`
}

// toForm converts the DTO into the session's input form.
func (r ProcessRequest) toForm() request.Form {
	return request.Form{
		Task:       r.Task,
		Resolution: r.Resolution,
		FPS:        r.FPS,
		Mute:       r.Mute,
		DeIDArgs:   r.DeIDArgs,
		GIFQuality: r.GIFQuality,
		StartTime:  r.StartTime,
		Duration:   r.Duration,
	}
}

// SelectTaskRequest is the HTTP request body for changing the active task.
type SelectTaskRequest struct {
	Task string `json:"task" validate:"required,oneof=resize vgif deid"`
}

// FieldsResponse lists the input fields relevant to a task.
type FieldsResponse struct {
	Task   request.Task    `json:"task"`
	Fields []request.Field `json:"fields"`
}

// PresetsResponse lists the GIF quality presets.
type PresetsResponse struct {
	Presets []request.Preset `json:"presets"`
}

// DownloadResponse tells the page where the result is.
type DownloadResponse struct {
	// URL is set when the page should open the result itself.
	URL string `json:"url,omitempty"`
	// Location is set when the result was fetched and stored by the server.
	Location string `json:"location,omitempty"`
}

// Event is a message pushed over the websocket.
type Event struct {
	// Type is "snapshot" or "alert".
	Type     string             `json:"type"`
	Snapshot *workflow.Snapshot `json:"snapshot,omitempty"`
	Message  string             `json:"message,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
