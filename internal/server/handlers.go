package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/maauso/clipdesk/internal/request"
	"github.com/maauso/clipdesk/internal/workflow"
)

const (
	defaultMaxUploadBytes = 2 << 30
	multipartMemory       = 32 << 20
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	session        *workflow.Session
	hub            *Hub
	validator      *validator.Validate
	logger         *slog.Logger
	maxUploadBytes int64
	storesResults  bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxUploadBytes limits the size of POST /api/files bodies.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithStoredResults reports Download results as stored locations rather
// than URLs for the page to open.
func WithStoredResults(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.storesResults = enabled
	}
}

// NewHandlers creates a new Handlers instance and subscribes the hub to the session.
func NewHandlers(session *workflow.Session, hub *Hub, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		session:        session,
		hub:            hub,
		validator:      validator.New(),
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	session.Subscribe(hub)
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Index handles GET / requests.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS(), "index.html")
}

// Session handles GET /api/session requests.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// Events handles GET /api/ws requests.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, h.session.Snapshot())
}

// Fields handles GET /api/fields requests. Without a task query parameter
// the session's current task is used.
func (h *Handlers) Fields(w http.ResponseWriter, r *http.Request) {
	task := h.session.Snapshot().Task
	if q := r.URL.Query().Get("task"); q != "" {
		parsed, ok := request.ParseTask(q)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown task", "UNKNOWN_TASK")
			return
		}
		task = parsed
	}
	writeJSON(w, http.StatusOK, FieldsResponse{
		Task:   task,
		Fields: request.RelevantFields(task).List(),
	})
}

// Presets handles GET /api/presets requests.
func (h *Handlers) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PresetsResponse{Presets: request.Presets})
}

// SelectTask handles POST /api/task requests.
func (h *Handlers) SelectTask(w http.ResponseWriter, r *http.Request) {
	var req SelectTaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.session.SelectTask(request.Task(req.Task)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_TASK")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

// UploadFile handles POST /api/files requests. The multipart field "file"
// is staged and uploaded to the backend. A request without a file leaves
// the session unchanged.
func (h *Handlers) UploadFile(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large", "FILE_TOO_LARGE")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large", "FILE_TOO_LARGE")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body", "INVALID_MULTIPART")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		writeJSON(w, http.StatusOK, h.session.Snapshot())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file field", "INVALID_FILE")
		return
	}
	defer func() { _ = file.Close() }()

	err = h.session.StageAndUpload(context.WithoutCancel(r.Context()), filepath.Base(header.Filename), header.Size, file)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.session.Snapshot())
	case errors.Is(err, workflow.ErrUploadFailed):
		writeError(w, http.StatusBadGateway, workflow.AlertUploadFailed, "UPLOAD_FAILED")
	case errors.Is(err, workflow.ErrProcessInFlight), errors.Is(err, workflow.ErrUploadInFlight):
		writeError(w, http.StatusConflict, err.Error(), "BUSY")
	case errors.Is(err, workflow.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error(), "SUPERSEDED")
	default:
		h.logger.Error("failed to stage file",
			slog.String("name", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to stage file", "STAGE_FAILED")
	}
}

// Preview handles GET /api/preview requests by streaming the staged local copy.
func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	rc, file, err := h.session.OpenPreview(r.Context())
	if errors.Is(err, workflow.ErrNothingStaged) {
		writeError(w, http.StatusNotFound, "no file staged", "NOTHING_STAGED")
		return
	}
	if err != nil {
		h.logger.Error("failed to open preview", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to open preview", "PREVIEW_FAILED")
		return
	}
	defer func() { _ = rc.Close() }()

	rs, ok := rc.(io.ReadSeeker)
	if !ok {
		if ct := mime.TypeByExtension(filepath.Ext(file.Name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		_, _ = io.Copy(w, rc)
		return
	}

	if mt, err := mimetype.DetectReader(rs); err == nil {
		w.Header().Set("Content-Type", mt.String())
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open preview", "PREVIEW_FAILED")
		return
	}
	http.ServeContent(w, r, file.Name, h.session.Snapshot().UpdatedAt, rs)
}

// Process handles POST /api/process requests. Backend failures are a
// normal result with ok=false; HTTP errors mean nothing was dispatched.
func (h *Handlers) Process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.session.Process(context.WithoutCancel(r.Context()), req.toForm())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, request.ErrNoUpload):
		writeError(w, http.StatusConflict, workflow.AlertNoUpload, "NO_UPLOAD")
	case errors.Is(err, workflow.ErrProcessInFlight):
		writeError(w, http.StatusConflict, err.Error(), "PROCESS_IN_FLIGHT")
	case errors.Is(err, request.ErrUnknownTask):
		writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_TASK")
	default:
		h.logger.Error("failed to process",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to process", "PROCESS_FAILED")
	}
}

// Download handles POST /api/download requests. With no result available
// it returns an empty body.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	loc, err := h.session.Download(r.Context())
	if err != nil {
		h.logger.Error("failed to deliver result", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "failed to fetch result", "DOWNLOAD_FAILED")
		return
	}

	var resp DownloadResponse
	if h.storesResults {
		resp.Location = loc
	} else {
		resp.URL = loc
	}
	writeJSON(w, http.StatusOK, resp)
}

// decode reads and validates a JSON body, writing the error response itself.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
