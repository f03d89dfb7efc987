package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/clipdesk/internal/backend"
	"github.com/maauso/clipdesk/internal/request"
	"github.com/maauso/clipdesk/internal/storage"
)

func TestStoreOpener_Open(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStorage(filepath.Join(root, "tmp"), filepath.Join(root, "out"))
	require.NoError(t, err)

	client := &mockClient{}
	client.On("Download", mock.Anything, "http://media.local/download/out.gif").
		Return("GIF89a", nil).Once()

	loc, err := NewStoreOpener(client, store).Open(context.Background(), "http://media.local/download/out.gif")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out", "out.gif"), loc)

	content, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(content))

	leftovers, err := os.ReadDir(filepath.Join(root, "tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers, "spool file should be removed")
}

func TestStoreOpener_DownloadError(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStorage(filepath.Join(root, "tmp"), filepath.Join(root, "out"))
	require.NoError(t, err)

	client := &mockClient{}
	client.On("Download", mock.Anything, mock.Anything).
		Return("", errors.New("404 not found")).Once()

	_, err = NewStoreOpener(client, store).Open(context.Background(), "http://media.local/download/missing.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404 not found")

	_, statErr := os.Stat(filepath.Join(root, "out", "missing.mp4"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestResultKey(t *testing.T) {
	key, err := resultKey("http://media.local/download/abc_out.mp4?x=1")
	require.NoError(t, err)
	assert.Equal(t, "abc_out.mp4", key)

	_, err = resultKey("http://media.local/")
	assert.Error(t, err)
}

func TestSession_DownloadThroughStoreOpener(t *testing.T) {
	root := t.TempDir()
	store, err := storage.NewLocalStorage(filepath.Join(root, "tmp"), filepath.Join(root, "out"))
	require.NoError(t, err)

	client := &mockClient{}
	s := NewSession(client, store, nil, WithOpener(NewStoreOpener(client, store)))

	client.On("Upload", mock.Anything, "clip.mp4", "video").
		Return(backend.UploadResult{OK: true, Filename: "abc.mp4"}, nil).Once()
	client.On("Process", mock.Anything, mock.Anything).
		Return(backend.ProcessResult{OK: true, Stdout: "done", DownloadURL: "/download/abc_out.mp4"}, nil).Once()
	client.On("Download", mock.Anything, "http://media.local/download/abc_out.mp4").
		Return("result", nil).Once()

	ctx := context.Background()
	require.NoError(t, s.StageAndUpload(ctx, "clip.mp4", 5, strings.NewReader("video")))
	_, err = s.Process(ctx, request.Form{Task: "resize"})
	require.NoError(t, err)

	loc, err := s.Download(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "out", "abc_out.mp4"), loc)
	client.AssertExpectations(t)
}
