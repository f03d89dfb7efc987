package workflow

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/maauso/clipdesk/internal/backend"
	"github.com/maauso/clipdesk/internal/storage"
)

// StoreOpener fetches a result from the backend and delivers it through a
// storage destination. The download is spooled to a temporary file first
// so the destination always receives a seekable body.
type StoreOpener struct {
	client backend.Client
	store  storage.Storage
}

// Compile-time check that StoreOpener implements Opener.
var _ Opener = (*StoreOpener)(nil)

// NewStoreOpener creates a StoreOpener.
func NewStoreOpener(client backend.Client, store storage.Storage) *StoreOpener {
	return &StoreOpener{client: client, store: store}
}

// Open downloads target and stores it under the last element of its path.
func (o *StoreOpener) Open(ctx context.Context, target string) (string, error) {
	key, err := resultKey(target)
	if err != nil {
		return "", err
	}

	pr, pw := io.Pipe()
	go func() {
		_, err := o.client.Download(ctx, target, pw)
		_ = pw.CloseWithError(err)
	}()

	tmp, err := o.store.SaveTemp(ctx, key, pr)
	_ = pr.Close()
	if err != nil {
		return "", fmt.Errorf("fetch result: %w", err)
	}
	defer func() { _ = o.store.CleanupTemp(context.WithoutCancel(ctx), []string{tmp}) }()

	rc, err := o.store.LoadTemp(ctx, tmp)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	return o.store.Store(ctx, key, rc)
}

func resultKey(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse result URL: %w", err)
	}
	key := path.Base(u.Path)
	if key == "." || key == "/" || key == "" {
		return "", fmt.Errorf("result URL has no file name: %q", target)
	}
	return key, nil
}
