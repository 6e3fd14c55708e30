package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSStore implements Store on top of Google Cloud Storage.
// Authentication is handled via Google's Application Default Credentials.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore initializes a GCS-backed Store.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Close releases the underlying client.
func (g *GCSStore) Close() error {
	if err := g.client.Close(); err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}

// GetObject reads the full object content. Backend errors are classified
// into the store's error codes where the GCS response allows it.
func (g *GCSStore) GetObject(ctx context.Context, bucket, key string, opts GetOptions) ([]byte, error) {
	obj := g.client.Bucket(bucket).Object(key)
	if opts.VersionID != "" {
		gen, err := strconv.ParseInt(opts.VersionID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("version id %q is not a gcs generation: %w", opts.VersionID, err)
		}
		obj = obj.Generation(gen)
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, classifyGCS(bucket, key, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, classifyGCS(bucket, key, err)
	}
	return data, nil
}

func classifyGCS(bucket, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return NewError(CodeNoSuchKey, bucket, key, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusForbidden || apiErr.Code == http.StatusUnauthorized:
			return NewError(CodeAccessDenied, bucket, key, err)
		case apiErr.Code == http.StatusNotFound:
			return NewError(CodeNoSuchKey, bucket, key, err)
		case apiErr.Code == http.StatusTooManyRequests:
			return NewError(CodeThrottling, bucket, key, err)
		case apiErr.Code == http.StatusRequestTimeout:
			return NewError(CodeRequestTimeout, bucket, key, err)
		case apiErr.Code >= 500:
			return NewError(CodeInternalError, bucket, key, err)
		}
	}
	return fmt.Errorf("gcs read %s/%s: %w", bucket, key, err)
}
