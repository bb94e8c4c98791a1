package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("oralvis/storage")

// MaxChildrenPerPrefix is a sanity limit on a single ListChildren call to
// prevent unbounded memory usage. A session folder holds one metadata blob
// plus its images, so real listings are far smaller.
const MaxChildrenPerPrefix = 10000

// ErrTooManyChildren indicates a prefix exceeded MaxChildrenPerPrefix.
var ErrTooManyChildren = errors.New("prefix has too many children")

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
}

// S3Store is the production BlobStore on S3/MinIO.
type S3Store struct {
	client *minio.Client
	bucket string
}

var _ BlobStore = (*S3Store)(nil)

// NewS3Store creates a new S3/MinIO blob store client
func NewS3Store(config S3Config) (*S3Store, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	// Verify bucket exists (bucket must be created out-of-band)
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist: create it before syncing", config.BucketName)
	}

	return &S3Store{
		client: client,
		bucket: config.BucketName,
	}, nil
}

// WriteBytes stores data at key, overwriting any existing object.
func (s *S3Store) WriteBytes(ctx context.Context, key string, data []byte) error {
	ctx, span := tracer.Start(ctx, "storage.write_bytes",
		trace.WithAttributes(
			attribute.String("storage.key", key),
			attribute.Int("blob.size", len(data)),
		))
	defer span.End()

	contentType := "application/octet-stream"
	if strings.HasSuffix(key, ".json") {
		contentType = "application/json"
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classifyStorageError(err, "write")
	}

	return nil
}

// WriteFile stores the contents of a local file at key.
func (s *S3Store) WriteFile(ctx context.Context, key, localPath string) error {
	ctx, span := tracer.Start(ctx, "storage.write_file",
		trace.WithAttributes(
			attribute.String("storage.key", key),
			attribute.String("file.path", localPath),
		))
	defer span.End()

	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath,
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classifyStorageError(err, "write file")
	}

	return nil
}

// ReadBytes returns the full contents of the object at key.
func (s *S3Store) ReadBytes(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "storage.read_bytes",
		trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "read")
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "read")
	}

	span.SetAttributes(attribute.Int("blob.size", len(data)))
	return data, nil
}

// ReadFile downloads the object at key to a local file.
func (s *S3Store) ReadFile(ctx context.Context, key, localPath string) error {
	ctx, span := tracer.Start(ctx, "storage.read_file",
		trace.WithAttributes(
			attribute.String("storage.key", key),
			attribute.String("file.path", localPath),
		))
	defer span.End()

	if err := s.client.FGetObject(ctx, s.bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classifyStorageError(err, "read file")
	}

	return nil
}

// ListChildren enumerates the first level under prefix. Folder-like child
// prefixes surface as keys with a trailing slash in the listing stream.
func (s *S3Store) ListChildren(ctx context.Context, prefix string) (Listing, error) {
	ctx, span := tracer.Start(ctx, "storage.list_children",
		trace.WithAttributes(attribute.String("storage.prefix", prefix)))
	defer span.End()

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var listing Listing
	count := 0
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	})

	for obj := range objectCh {
		if obj.Err != nil {
			span.RecordError(obj.Err)
			span.SetStatus(codes.Error, obj.Err.Error())
			return Listing{}, classifyStorageError(obj.Err, "list")
		}

		if strings.HasSuffix(obj.Key, "/") {
			listing.Prefixes = append(listing.Prefixes, obj.Key)
		} else {
			listing.Objects = append(listing.Objects, obj.Key)
		}

		count++
		if count > MaxChildrenPerPrefix {
			err := fmt.Errorf("list: %w (limit: %d)", ErrTooManyChildren, MaxChildrenPerPrefix)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return Listing{}, err
		}
	}

	span.SetAttributes(
		attribute.Int("children.prefixes", len(listing.Prefixes)),
		attribute.Int("children.objects", len(listing.Objects)),
	)

	// Keys arrive in lexicographic order from ListObjects
	return listing, nil
}

// classifyStorageError examines a storage error and returns an appropriate sentinel error
func classifyStorageError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for MinIO error response
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s: %w", operation, ErrObjectNotFound)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%s: %w", operation, ErrAccessDenied)
		}
	}

	// Check for network/connection errors
	errStr := err.Error()
	if containsAny(errStr, []string{"connection", "timeout", "network", "dial", "refused"}) {
		return fmt.Errorf("%s network issue: %w", operation, ErrNetworkError)
	}

	// Return wrapped generic error for unknown cases
	return fmt.Errorf("%s failed: %w", operation, err)
}

// containsAny checks if a string contains any of the given substrings
func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
