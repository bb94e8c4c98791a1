// Package testutil provides integration-test infrastructure: a throwaway
// MinIO container backing a real S3 blob store.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/testcontainers/testcontainers-go"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/nextserve/oralvis-sync/pkg/storage"
)

const (
	testBucket   = "oralvis-test"
	testUsername = "minioadmin"
	testPassword = "minioadmin"
)

// SetupMinio starts a MinIO container, creates the test bucket, and returns
// a blob store bound to it. The container is terminated on test cleanup.
func SetupMinio(t *testing.T) *storage.S3Store {
	t.Helper()
	ctx := context.Background()

	t.Log("Starting MinIO container...")
	container, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername(testUsername),
		tcminio.WithPassword(testPassword),
	)
	testcontainers.CleanupContainer(t, container)
	if err != nil {
		t.Fatalf("Failed to start minio container: %v", err)
	}

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get minio endpoint: %v", err)
	}

	// Create the bucket with retry (MinIO needs time to initialize)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(testUsername, testPassword, ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("Failed to create minio client: %v", err)
	}

	maxRetries := 10
	for i := 0; i < maxRetries; i++ {
		err = client.MakeBucket(ctx, testBucket, minio.MakeBucketOptions{})
		if err == nil {
			break
		}
		if i == maxRetries-1 {
			t.Fatalf("Failed to create bucket after %d retries: %v", maxRetries, err)
		}
		t.Logf("MinIO not ready yet, retrying... (%d/%d)", i+1, maxRetries)
		time.Sleep(500 * time.Millisecond)
	}

	store, err := storage.NewS3Store(storage.S3Config{
		Endpoint:        endpoint,
		AccessKeyID:     testUsername,
		SecretAccessKey: testPassword,
		BucketName:      testBucket,
		UseSSL:          false,
	})
	if err != nil {
		t.Fatalf("Failed to create blob store: %v", err)
	}

	t.Log("Test environment ready!")
	return store
}
