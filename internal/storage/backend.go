package storage

import (
	"context"
	"fmt"

	"github.com/viajesoeste/apiserver/config"
)

// Open builds the backend selected by cfg.Store.BlobDriver, ensures its
// bucket exists and scopes keys under cfg.Store.Prefix.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Store.BlobDriver {
	case config.BlobDriverLocal, "":
		backend, err = NewLocalClient(cfg.Store.DataDir)
	case config.BlobDriverMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case config.BlobDriverGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Store.BlobDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s storage: %w", cfg.Store.BlobDriver, err)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend).WithPrefix(cfg.Store.Prefix), nil
}
