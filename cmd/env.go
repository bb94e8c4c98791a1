package cmd

import (
	"fmt"

	"github.com/nextserve/oralvis-sync/pkg/config"
	"github.com/nextserve/oralvis-sync/pkg/identity"
	"github.com/nextserve/oralvis-sync/pkg/imagecache"
	"github.com/nextserve/oralvis-sync/pkg/storage"
	"github.com/nextserve/oralvis-sync/pkg/store"
	syncpkg "github.com/nextserve/oralvis-sync/pkg/sync"
)

// openStore opens the local session database under the configured data root.
func openStore(cfg *config.Config) (*store.Store, error) {
	root, err := cfg.DataRoot()
	if err != nil {
		return nil, err
	}
	return store.OpenAt(root)
}

// openCache returns the local image cache under the configured data root.
func openCache(cfg *config.Config) (*imagecache.Cache, error) {
	root, err := cfg.DataRoot()
	if err != nil {
		return nil, err
	}
	return imagecache.New(root), nil
}

// openEngine connects to the configured bucket and returns a sync engine
// plus the caller identity. Fails up front when the CLI is not configured.
func openEngine(cfg *config.Config) (*syncpkg.Engine, identity.Identity, error) {
	if !cfg.Configured() {
		return nil, identity.Identity{}, fmt.Errorf("storage is not configured (run 'oralvis configure')")
	}

	blobs, err := storage.NewS3Store(storage.S3Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		BucketName:      cfg.Bucket,
		UseSSL:          cfg.UseSSL,
	})
	if err != nil {
		return nil, identity.Identity{}, fmt.Errorf("failed to connect to storage: %w", err)
	}

	cache, err := openCache(cfg)
	if err != nil {
		return nil, identity.Identity{}, err
	}

	return syncpkg.New(blobs, cache), identity.FromConfig(cfg), nil
}
