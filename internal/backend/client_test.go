package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/clipdesk/internal/request"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("localhost:5252")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)

	_, err = NewClient("/just/a/path")
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c, err := NewClient("http://localhost:5252/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5252", c.BaseURL())
}

func TestNewClient_WithTimeout(t *testing.T) {
	c, err := NewClient("http://localhost:5252", WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.httpClient.Timeout)
}

func TestHTTPClient_Upload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/upload", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "clip.mp4", header.Filename)
		assert.Equal(t, "video-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(uploadResponse{OK: true, Filename: "abc.mp4"})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	res, err := client.Upload(context.Background(), "clip.mp4", strings.NewReader("video-bytes"))
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "abc.mp4", res.Filename)
}

func TestHTTPClient_Upload_NotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok": false}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	res, err := client.Upload(context.Background(), "clip.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Empty(t, res.Filename)
}

func TestHTTPClient_Upload_HTMLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "<h1>unsupported file type</h1>", http.StatusBadRequest)
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "clip.txt", strings.NewReader("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "400")
}

func TestHTTPClient_Upload_OKWithoutFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "clip.mp4", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoFilenameReturned)
}

func TestHTTPClient_Upload_RequiresName(t *testing.T) {
	client, err := NewClient("http://localhost:5252")
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrFilenameRequired)
}

func TestHTTPClient_Upload_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client, err := NewClient(url)
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "clip.mp4", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend: request failed")
}

func TestHTTPClient_Process(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/process", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"filename": "abc.mp4",
			"task": "resize",
			"resolution": "720",
			"fps": null,
			"mute": true,
			"deid_args": null,
			"gif_quality": "custom",
			"start_time": "90",
			"duration": "00:01:30"
		}`, string(body))

		_ = json.NewEncoder(w).Encode(processResponse{
			OK:          true,
			Output:      "out.mp4",
			Stdout:      "done",
			Stderr:      "frame=10",
			DownloadURL: "/download/out.mp4",
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	res, err := client.Process(context.Background(), request.ProcessingRequest{
		Filename:   "abc.mp4",
		Task:       request.TaskResize,
		Resolution: strPtr("720"),
		Mute:       true,
		GIFQuality: request.QualityCustom,
		StartTime:  strPtr("90"),
		Duration:   strPtr("00:01:30"),
	})
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, "done", res.Stdout)
	assert.Equal(t, "frame=10", res.Stderr)
	assert.Equal(t, "/download/out.mp4", res.DownloadURL)
	assert.Equal(t, "frame=10\ndone", res.Logs())
}

func TestHTTPClient_Process_FailureWith500(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok": false, "error": "processing failed", "detail": "codec error"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	res, err := client.Process(context.Background(), request.ProcessingRequest{Filename: "a.mp4", Task: request.TaskResize, GIFQuality: request.QualityCustom})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "codec error", res.Message())
}

func TestHTTPClient_Process_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Process(ctx, request.ProcessingRequest{Filename: "a.mp4", Task: request.TaskResize, GIFQuality: request.QualityCustom})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessResult_Message(t *testing.T) {
	tests := []struct {
		name   string
		result ProcessResult
		want   string
	}{
		{"detail preferred", ProcessResult{Detail: "codec error", Error: "processing failed"}, "codec error"},
		{"error when no detail", ProcessResult{Error: "processing failed"}, "processing failed"},
		{"fallback", ProcessResult{}, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Message())
		})
	}
}

func TestProcessResult_Logs(t *testing.T) {
	assert.Equal(t, "\ndone", ProcessResult{Stdout: "done"}.Logs())
	assert.Equal(t, "warn\n", ProcessResult{Stderr: "warn"}.Logs())
}

func TestHTTPClient_ResolveURL(t *testing.T) {
	client, err := NewClient("http://media.local:5252")
	require.NoError(t, err)

	got, err := client.ResolveURL("/download/out.gif")
	require.NoError(t, err)
	assert.Equal(t, "http://media.local:5252/download/out.gif", got)

	got, err = client.ResolveURL("https://cdn.example.com/out.gif")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/out.gif", got)

	_, err = client.ResolveURL("")
	assert.ErrorIs(t, err, ErrDownloadURLRequired)
}

func TestHTTPClient_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/out.gif" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := client.Download(context.Background(), "/download/out.gif", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, "GIF89a", buf.String())

	_, err = client.Download(context.Background(), "/download/missing.gif", &buf)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func strPtr(s string) *string {
	return &s
}
