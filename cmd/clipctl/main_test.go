package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/clipdesk/internal/request"
)

func TestParseFlags_RequiresFile(t *testing.T) {
	_, err := parseFlags([]string{"-task", "vgif"}, io.Discard)
	assert.Error(t, err)
}

func TestOptionsForm(t *testing.T) {
	t.Run("preset fills resolution and fps", func(t *testing.T) {
		o, err := parseFlags([]string{"-file", "a.mp4", "-task", "vgif", "-gif-quality", "small"}, io.Discard)
		require.NoError(t, err)

		f := o.form()
		assert.Equal(t, "480", f.Resolution)
		assert.Equal(t, "10", f.FPS)
		assert.Equal(t, "small", f.GIFQuality)
	})

	t.Run("explicit flags win over preset", func(t *testing.T) {
		o, err := parseFlags([]string{"-file", "a.mp4", "-task", "vgif", "-gif-quality", "high", "-fps", "24", "-resolution", "600"}, io.Discard)
		require.NoError(t, err)

		f := o.form()
		assert.Equal(t, "600", f.Resolution)
		assert.Equal(t, "24", f.FPS)
	})

	t.Run("preset ignored outside the gif task", func(t *testing.T) {
		o, err := parseFlags([]string{"-file", "a.mp4", "-task", "resize", "-gif-quality", "medium"}, io.Discard)
		require.NoError(t, err)

		f := o.form()
		assert.Empty(t, f.Resolution)
		assert.Equal(t, "default", f.FPS)

		req, err := request.NewBuilder().Build("abc.mp4", f)
		require.NoError(t, err)
		assert.Nil(t, req.Resolution)
		assert.Nil(t, req.FPS)
		assert.Equal(t, request.QualityCustom, req.GIFQuality)
	})

	t.Run("defaults", func(t *testing.T) {
		o, err := parseFlags([]string{"-file", "a.mp4", "-start", "90", "-duration", "1:30", "-mute"}, io.Discard)
		require.NoError(t, err)

		f := o.form()
		assert.Equal(t, "resize", f.Task)
		assert.Equal(t, "default", f.FPS)
		assert.Equal(t, "custom", f.GIFQuality)
		assert.Equal(t, "90", f.StartTime)
		assert.Equal(t, "1:30", f.Duration)
		assert.True(t, f.Mute)
	})
}

func newBackend(t *testing.T, processOK bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "filename": "abc_clip.mp4"})
	})
	mux.HandleFunc("POST /process", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc_clip.mp4", body["filename"])
		assert.Equal(t, "00:01:30", body["duration"])
		assert.Nil(t, body["fps"])

		if !processOK {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "processing failed", "detail": "codec error"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "stdout": "done", "download_url": "/download/abc_clip_out.mp4"})
	})
	mux.HandleFunc("GET /download/{name}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "result-bytes")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupRun(t *testing.T) (input, outDir string) {
	t.Helper()
	root := t.TempDir()
	input = filepath.Join(root, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("video"), 0o644))
	outDir = filepath.Join(root, "out")

	t.Setenv("BACKEND_URL", "")
	t.Setenv("TEMP_DIR", filepath.Join(root, "tmp"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("S3_BUCKET", "")
	t.Setenv("S3_REGION", "")
	return input, outDir
}

func TestRun_Success(t *testing.T) {
	backend := newBackend(t, true)
	input, outDir := setupRun(t)
	t.Setenv("BACKEND_URL", backend.URL)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-file", input, "-duration", "1:30", "-out", outDir}, &stdout, &stderr)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "", lines[0])
	assert.Equal(t, "done", lines[1])
	assert.Equal(t, filepath.Join(outDir, "abc_clip_out.mp4"), lines[2])

	content, err := os.ReadFile(filepath.Join(outDir, "abc_clip_out.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "result-bytes", string(content))
	assert.Contains(t, stderr.String(), "uploaded as abc_clip.mp4")
}

func TestRun_ProcessingFailure(t *testing.T) {
	backend := newBackend(t, false)
	input, outDir := setupRun(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-backend", backend.URL, "-file", input, "-duration", "1:30", "-out", outDir}, &stdout, &stderr)
	require.ErrorIs(t, err, errProcessingFailed)
	assert.Equal(t, "codec error\n", stdout.String())
}
