// Package request derives the processing request sent to the backend from
// the current form state. It owns the task-dependent field rules and the
// GIF quality presets.
package request

import "strings"

// Task is the transformation kind selected by the user.
type Task string

// Task values as understood by the processing backend.
const (
	TaskResize Task = "resize"
	TaskGIF    Task = "vgif"
	TaskDeID   Task = "deid"
)

// IsValid returns true if t is one of the known tasks.
func (t Task) IsValid() bool {
	switch t {
	case TaskResize, TaskGIF, TaskDeID:
		return true
	default:
		return false
	}
}

// ParseTask maps user input to a Task. Surrounding whitespace and case are
// ignored.
func ParseTask(s string) (Task, bool) {
	t := Task(strings.ToLower(strings.TrimSpace(s)))
	return t, t.IsValid()
}

// GIFQuality names a GIF quality preset.
type GIFQuality string

// GIF quality presets. QualityCustom means "use the resolution and frame
// rate fields as given".
const (
	QualityTiny   GIFQuality = "tiny"
	QualitySmall  GIFQuality = "small"
	QualityMedium GIFQuality = "medium"
	QualityHigh   GIFQuality = "high"
	QualityCustom GIFQuality = "custom"
)

// FPSDefault is the frame-rate input meaning "keep the source frame rate".
const FPSDefault = "default"

// Form is the raw, unvalidated state of the input controls.
type Form struct {
	Task       string `json:"task"`
	Resolution string `json:"resolution"`
	FPS        string `json:"fps"`
	Mute       bool   `json:"mute"`
	DeIDArgs   string `json:"deid_args"`
	GIFQuality string `json:"gif_quality"`
	StartTime  string `json:"start_time"`
	Duration   string `json:"duration"`
}

// ProcessingRequest is the body of POST /process.
type ProcessingRequest struct {
	Filename   string     `json:"filename" validate:"required"`
	Task       Task       `json:"task" validate:"required,oneof=resize vgif deid"`
	Resolution *string    `json:"resolution" validate:"omitnil,min=1"`
	FPS        *float64   `json:"fps" validate:"omitnil,gt=0"`
	Mute       bool       `json:"mute"`
	DeIDArgs   *string    `json:"deid_args" validate:"omitnil,min=1"`
	GIFQuality GIFQuality `json:"gif_quality" validate:"required,oneof=tiny small medium high custom"`
	StartTime  *string    `json:"start_time" validate:"omitnil,min=1"`
	Duration   *string    `json:"duration" validate:"omitnil,min=1"`
}
