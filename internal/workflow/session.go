package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maauso/clipdesk/internal/backend"
	"github.com/maauso/clipdesk/internal/request"
	"github.com/maauso/clipdesk/internal/storage"
)

// Messages shown to the user through Observer.Alert.
const (
	AlertUploadFailed = "Upload failed"
	AlertNoUpload     = "Upload a video first"
)

// LogsPlaceholder is shown in the log area while a request is in flight.
const LogsPlaceholder = "Processing..."

// Static errors for session operations.
var (
	// ErrNothingStaged is returned when Upload is called without a staged file.
	ErrNothingStaged = errors.New("workflow: no file staged")
	// ErrUploadInFlight is returned when an upload is already running.
	ErrUploadInFlight = errors.New("workflow: upload already in progress")
	// ErrUploadFailed is returned when the backend rejects an upload or cannot be reached.
	ErrUploadFailed = errors.New("workflow: upload failed")
	// ErrProcessInFlight is returned when a process request is already running.
	ErrProcessInFlight = errors.New("workflow: processing already in progress")
	// ErrSuperseded is returned when the staged file changed while its upload was running.
	ErrSuperseded = errors.New("workflow: staged file superseded")
)

// Session is one user's client session. All methods are safe for
// concurrent use; network calls run without holding the lock.
type Session struct {
	client  backend.Client
	store   storage.Storage
	builder *request.Builder
	opener  Opener
	logger  *slog.Logger

	mu              sync.Mutex
	version         uint64
	state           State
	file            *StagedFile
	handle          string
	task            request.Task
	logs            string
	processEnabled  bool
	downloadEnabled bool
	downloadURL     string
	result          *Result
	uploading       bool
	updatedAt       time.Time
	observers       []Observer
}

// SessionOption is a function that configures a Session.
type SessionOption func(*Session)

// WithOpener sets how Download presents a result.
func WithOpener(o Opener) SessionOption {
	return func(s *Session) {
		s.opener = o
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) SessionOption {
	return func(s *Session) {
		s.observers = append(s.observers, o)
	}
}

// NewSession creates a session in the Idle state with the resize task selected.
func NewSession(client backend.Client, store storage.Storage, logger *slog.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		client:    client,
		store:     store,
		builder:   request.NewBuilder(),
		logger:    logger,
		state:     StateIdle,
		task:      request.TaskResize,
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Session) Subscribe(o Observer) func() {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.observers {
			if existing == o {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SelectTask changes the active task, which changes the visible fields.
func (s *Session) SelectTask(task request.Task) error {
	if !task.IsValid() {
		return fmt.Errorf("%w: %q", request.ErrUnknownTask, task)
	}
	s.mu.Lock()
	s.task = task
	s.touchLocked()
	notify := s.notifierLocked()
	s.mu.Unlock()

	notify()
	return nil
}

// Stage records a new local file selection, superseding any previous one.
// An empty name is a no-op. The data is copied to local storage so it can
// be previewed and uploaded; the previous copy is removed.
func (s *Session) Stage(ctx context.Context, name string, size int64, data io.Reader) error {
	if name == "" {
		return nil
	}

	s.mu.Lock()
	if s.state == StateProcessing {
		s.mu.Unlock()
		return ErrProcessInFlight
	}
	s.mu.Unlock()

	path, err := s.store.SaveTemp(ctx, name, data)
	if err != nil {
		return fmt.Errorf("workflow: stage %s: %w", name, err)
	}

	s.mu.Lock()
	if err := transition(s.state, StateStaged); err != nil {
		s.mu.Unlock()
		_ = s.store.CleanupTemp(context.WithoutCancel(ctx), []string{path})
		return err
	}

	var previous string
	if s.file != nil {
		previous = s.file.PreviewPath
	}
	s.file = &StagedFile{Name: name, Size: size, PreviewPath: path}
	s.state = StateStaged
	s.handle = ""
	s.processEnabled = false
	s.downloadURL = ""
	s.downloadEnabled = false
	s.touchLocked()
	notify := s.notifierLocked()
	s.mu.Unlock()

	if previous != "" {
		if err := s.store.CleanupTemp(context.WithoutCancel(ctx), []string{previous}); err != nil {
			s.logger.Warn("failed to remove previous staged copy",
				slog.String("path", previous),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("file staged",
		slog.String("name", name),
		slog.Int64("size", size),
	)
	notify()
	return nil
}

// Upload sends the staged file to the backend. On success the returned
// handle is stored and Process becomes available. On any failure the user
// is alerted, the handle stays cleared and the session returns to Idle.
// There are no retries; calling Upload again resubmits the staged file.
func (s *Session) Upload(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.uploading:
		s.mu.Unlock()
		return ErrUploadInFlight
	case s.state == StateProcessing:
		s.mu.Unlock()
		return ErrProcessInFlight
	case s.file == nil:
		s.mu.Unlock()
		return ErrNothingStaged
	}
	if s.state != StateStaged {
		if err := transition(s.state, StateStaged); err != nil {
			s.mu.Unlock()
			return err
		}
		s.state = StateStaged
	}
	file := s.file
	s.uploading = true
	s.handle = ""
	s.processEnabled = false
	s.touchLocked()
	notify := s.notifierLocked()
	s.mu.Unlock()
	notify()

	res, err := s.send(ctx, file)

	s.mu.Lock()
	s.uploading = false
	if s.file != file {
		s.mu.Unlock()
		s.logger.Info("discarding upload result for superseded file", slog.String("name", file.Name))
		return ErrSuperseded
	}

	if err == nil && !res.OK {
		err = errors.New("backend reported ok=false")
	}
	if err != nil {
		s.state = StateIdle
		s.touchLocked()
		notify = s.notifierLocked()
		alert := s.alerterLocked(AlertUploadFailed)
		s.mu.Unlock()

		s.logger.Warn("upload failed",
			slog.String("name", file.Name),
			slog.String("error", err.Error()),
		)
		notify()
		alert()
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	s.handle = res.Filename
	s.state = StateUploaded
	s.processEnabled = true
	s.touchLocked()
	notify = s.notifierLocked()
	s.mu.Unlock()

	s.logger.Info("file uploaded",
		slog.String("name", file.Name),
		slog.String("filename", res.Filename),
	)
	notify()
	return nil
}

// StageAndUpload stages a selection and uploads it immediately, which is
// what choosing a file in the picker does.
func (s *Session) StageAndUpload(ctx context.Context, name string, size int64, data io.Reader) error {
	if name == "" {
		return nil
	}
	if err := s.Stage(ctx, name, size, data); err != nil {
		return err
	}
	return s.Upload(ctx)
}

func (s *Session) send(ctx context.Context, file *StagedFile) (backend.UploadResult, error) {
	rc, err := s.store.LoadTemp(ctx, file.PreviewPath)
	if err != nil {
		return backend.UploadResult{}, err
	}
	defer func() { _ = rc.Close() }()
	return s.client.Upload(ctx, file.Name, rc)
}

// Process builds a request from form and submits it. It returns an error
// only when nothing was dispatched: no upload yet, a request already in
// flight, or an unknown task. Backend failures, including transport
// errors, are reported through the returned Result and the log area.
func (s *Session) Process(ctx context.Context, form request.Form) (Result, error) {
	s.mu.Lock()
	if s.state == StateProcessing {
		s.mu.Unlock()
		return Result{}, ErrProcessInFlight
	}
	if s.handle == "" {
		alert := s.alerterLocked(AlertNoUpload)
		s.mu.Unlock()
		alert()
		return Result{}, request.ErrNoUpload
	}
	if form.Task == "" {
		form.Task = string(s.task)
	}
	req, err := s.builder.Build(s.handle, form)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	if err := transition(s.state, StateProcessing); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	attemptID := uuid.NewString()
	s.state = StateProcessing
	s.task = req.Task
	s.logs = LogsPlaceholder
	s.downloadEnabled = false
	s.downloadURL = ""
	s.processEnabled = false
	s.result = nil
	s.touchLocked()
	notify := s.notifierLocked()
	s.mu.Unlock()
	notify()

	logger := s.logger.With(
		slog.String("attempt_id", attemptID),
		slog.String("task", string(req.Task)),
		slog.String("filename", req.Filename),
	)
	logger.Info("processing request dispatched")

	res, err := s.client.Process(ctx, req)

	result := Result{AttemptID: attemptID}
	switch {
	case err != nil:
		result.Logs = err.Error()
		logger.Error("processing request failed", slog.String("error", err.Error()))
	case !res.OK:
		result.Logs = res.Message()
		logger.Warn("processing failed", slog.String("error", res.Error))
	default:
		result.OK = true
		result.Logs = res.Logs()
		result.DownloadURL = res.DownloadURL
		logger.Info("processing succeeded", slog.String("download_url", res.DownloadURL))
	}

	s.mu.Lock()
	if result.OK {
		s.state = StateSucceeded
		s.downloadURL = result.DownloadURL
		s.downloadEnabled = result.DownloadURL != ""
	} else {
		s.state = StateFailed
	}
	s.logs = result.Logs
	s.result = &result
	s.processEnabled = s.handle != ""
	s.touchLocked()
	notify = s.notifierLocked()
	s.mu.Unlock()
	notify()

	return result, nil
}

// Download presents the stored result. With no stored reference it does
// nothing and returns an empty location.
func (s *Session) Download(ctx context.Context) (string, error) {
	s.mu.Lock()
	ref := s.downloadURL
	s.mu.Unlock()

	if ref == "" {
		return "", nil
	}

	target, err := s.client.ResolveURL(ref)
	if err != nil {
		return "", err
	}
	if s.opener == nil {
		return target, nil
	}

	location, err := s.opener.Open(ctx, target)
	if err != nil {
		return "", fmt.Errorf("workflow: open result: %w", err)
	}
	s.logger.Info("result delivered", slog.String("location", location))
	return location, nil
}

// OpenPreview returns the staged file's local copy.
func (s *Session) OpenPreview(ctx context.Context) (io.ReadCloser, StagedFile, error) {
	s.mu.Lock()
	file := s.file
	s.mu.Unlock()

	if file == nil {
		return nil, StagedFile{}, ErrNothingStaged
	}
	rc, err := s.store.LoadTemp(ctx, file.PreviewPath)
	if err != nil {
		return nil, StagedFile{}, err
	}
	return rc, *file, nil
}

// Close removes the staged copy.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	file := s.file
	s.mu.Unlock()

	if file == nil {
		return nil
	}
	return s.store.CleanupTemp(ctx, []string{file.PreviewPath})
}

func (s *Session) touchLocked() {
	s.version++
	s.updatedAt = time.Now()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:         s.version,
		State:           s.state,
		Handle:          s.handle,
		Task:            s.task,
		Fields:          request.RelevantFields(s.task).List(),
		Logs:            s.logs,
		ProcessEnabled:  s.processEnabled,
		DownloadEnabled: s.downloadEnabled,
		DownloadURL:     s.downloadURL,
		UpdatedAt:       s.updatedAt,
	}
	if s.file != nil {
		f := *s.file
		snap.File = &f
		snap.FileInfo = f.Info()
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// notifierLocked captures the current snapshot and observers; the returned
// function delivers it after the lock is released.
func (s *Session) notifierLocked() func() {
	snap := s.snapshotLocked()
	observers := append([]Observer(nil), s.observers...)
	return func() {
		for _, o := range observers {
			o.SnapshotChanged(snap)
		}
	}
}

func (s *Session) alerterLocked(message string) func() {
	observers := append([]Observer(nil), s.observers...)
	return func() {
		for _, o := range observers {
			o.Alert(message)
		}
	}
}
