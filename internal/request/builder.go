package request

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/clipdesk/internal/timecode"
)

// Static errors for request building.
var (
	// ErrNoUpload is returned when no uploaded file handle is available.
	ErrNoUpload = errors.New("request: no uploaded file")
	// ErrUnknownTask is returned when the task selector holds an unknown value.
	ErrUnknownTask = errors.New("request: unknown task")
	// ErrInvalidRequest is returned when the built request fails validation.
	ErrInvalidRequest = errors.New("request: invalid request")
)

// Builder turns form state into a validated ProcessingRequest.
type Builder struct {
	validate *validator.Validate
}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{validate: validator.New()}
}

// Build derives the request for handle from form.
//
// Only a missing handle or an unknown task is an error. Every optional
// field that does not pass its own check is sent as null, and fields that
// are not relevant to the selected task are replaced by their neutral
// values regardless of what the form holds.
func (b *Builder) Build(handle string, form Form) (ProcessingRequest, error) {
	if strings.TrimSpace(handle) == "" {
		return ProcessingRequest{}, ErrNoUpload
	}
	task, ok := ParseTask(form.Task)
	if !ok {
		return ProcessingRequest{}, fmt.Errorf("%w: %q", ErrUnknownTask, form.Task)
	}

	fields := RelevantFields(task)

	req := ProcessingRequest{
		Filename:   handle,
		Task:       task,
		Resolution: optionalString(form.Resolution),
		FPS:        parseFPS(form.FPS),
		Mute:       form.Mute,
		GIFQuality: QualityCustom,
		StartTime:  timecode.Ptr(form.StartTime),
		Duration:   timecode.Ptr(form.Duration),
	}

	if fields.Has(FieldGIFQuality) {
		req.GIFQuality = parseQuality(form.GIFQuality)
	}
	if fields.Has(FieldDeIDArgs) {
		req.DeIDArgs = optionalString(form.DeIDArgs)
	}

	if err := b.validate.Struct(req); err != nil {
		return ProcessingRequest{}, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}
	return req, nil
}

// parseFPS maps "default" to nil and parses anything else as a positive
// number. Values that are not a usable frame rate are dropped.
func parseFPS(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, FPSDefault) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func parseQuality(s string) GIFQuality {
	q := GIFQuality(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := LookupPreset(q); ok {
		return q
	}
	return QualityCustom
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
