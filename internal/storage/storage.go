// Package storage keeps the local preview copy of a staged file and
// delivers downloaded results to their destination: a local directory or,
// when configured, an S3 bucket.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for staged-file copies and result delivery.
type Storage interface {
	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadTemp reads a temporary file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadTemp(ctx context.Context, path string) (io.ReadCloser, error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error

	// Store writes a downloaded result under key and returns where it ended
	// up (a file path or an object URL).
	Store(ctx context.Context, key string, data io.Reader) (location string, err error)
}
