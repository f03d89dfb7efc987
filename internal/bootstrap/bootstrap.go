// Package bootstrap provides dependency initialization for clipdesk.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/clipdesk/internal/backend"
	"github.com/maauso/clipdesk/internal/config"
	"github.com/maauso/clipdesk/internal/storage"
	"github.com/maauso/clipdesk/internal/workflow"
)

// Dependencies holds all initialized dependencies for one client session.
type Dependencies struct {
	Client  *backend.HTTPClient
	Storage storage.Storage
	Session *workflow.Session
}

// NewDependencies creates and initializes all dependencies for the application.
// When deliver is true, Download fetches the result and stores it through
// the configured storage; otherwise it only resolves the result URL.
func NewDependencies(cfg *config.Config, logger *slog.Logger, deliver bool, opts ...workflow.SessionOption) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize backend client
	client, err := backend.NewClient(cfg.BackendURL,
		backend.WithTimeout(cfg.RequestTimeout),
		backend.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	if deliver {
		opts = append(opts, workflow.WithOpener(workflow.NewStoreOpener(client, store)))
	}
	session := workflow.NewSession(client, store, logger, opts...)

	return &Dependencies{
		Client:  client,
		Storage: store,
		Session: session,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Prefix:          cfg.S3Prefix,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir, cfg.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", localStore.TempDir()),
		slog.String("download_dir", localStore.OutputDir()),
	)
	return localStore, nil
}
