package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/damacus/iron-index/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Delimiter folds flat keys into one directory level per listing.
const Delimiter = "/"

// DefaultPageSize is the number of keys requested per listing page
const DefaultPageSize = 1000

// s3TimeFormat is how S3 renders LastModified on the wire.
const s3TimeFormat = "2006-01-02T15:04:05.000Z"

// ObjectResponse is the outcome of a GetObject call that reached the store.
// StatusCode carries error statuses (e.g. 404) instead of an error so callers
// can tell a confirmed absence from a transport failure.
type ObjectResponse struct {
	StatusCode   int
	Body         io.ReadCloser // nil unless StatusCode is 2xx
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// ObjectSummary is one object in a listing page.
type ObjectSummary struct {
	Key          string
	Size         int64
	LastModified string
}

// ListBatch is one page of a delimiter listing, carrying the prefix the store
// echoed back for that page.
type ListBatch struct {
	Prefix         string
	CommonPrefixes []string
	Contents       []ObjectSummary
}

// ObjectStore is the read-only slice of the S3 API the resolver needs.
type ObjectStore interface {
	// GetObject fetches key. Error statuses come back in ObjectResponse;
	// the error is reserved for failures to talk to the store at all.
	GetObject(ctx context.Context, key string) (ObjectResponse, error)

	// ListObjects lists one level under prefix, following pagination.
	ListObjects(ctx context.Context, prefix, delimiter string) ([]ListBatch, error)
}

// MinioStore implements ObjectStore on top of minio.Core.
// It is safe for concurrent use by multiple goroutines.
type MinioStore struct {
	core     *minio.Core
	bucket   string
	pageSize int
}

// NewMinioStore creates a client for the configured bucket. No request is
// made until the first call.
func NewMinioStore(cfg config.BucketConfig) (*MinioStore, error) {
	host, secure, err := cfg.ParseEndpoint()
	if err != nil {
		return nil, err
	}

	lookup := minio.BucketLookupAuto
	if cfg.PathStyle {
		lookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure:       secure,
		Region:       cfg.Region,
		BucketLookup: lookup,
		// One attempt per call: a failing store surfaces as one failed request.
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client for %s: %w", host, err)
	}

	pageSize := cfg.ListPageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &MinioStore{core: core, bucket: cfg.Name, pageSize: pageSize}, nil
}

// Bucket returns the name of the served bucket.
func (s *MinioStore) Bucket() string {
	return s.bucket
}

// Ping verifies the bucket is reachable and exists.
func (s *MinioStore) Ping(ctx context.Context) error {
	ok, err := s.core.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

func (s *MinioStore) GetObject(ctx context.Context, key string) (ObjectResponse, error) {
	body, info, _, err := s.core.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		// The S3 protocol answered: report its status rather than failing.
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.StatusCode != 0 {
			return ObjectResponse{StatusCode: resp.StatusCode}, nil
		}
		return ObjectResponse{}, err
	}

	return ObjectResponse{
		StatusCode:   http.StatusOK,
		Body:         body,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

func (s *MinioStore) ListObjects(ctx context.Context, prefix, delimiter string) ([]ListBatch, error) {
	var batches []ListBatch
	token := ""

	for {
		// minio.Core.ListObjectsV2 does not take a context
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := s.core.ListObjectsV2(s.bucket, prefix, "", token, delimiter, s.pageSize)
		if err != nil {
			return nil, err
		}

		batch := ListBatch{Prefix: page.Prefix}
		for _, cp := range page.CommonPrefixes {
			batch.CommonPrefixes = append(batch.CommonPrefixes, cp.Prefix)
		}
		for _, obj := range page.Contents {
			batch.Contents = append(batch.Contents, ObjectSummary{
				Key:          obj.Key,
				Size:         obj.Size,
				LastModified: formatLastModified(obj.LastModified),
			})
		}
		batches = append(batches, batch)

		if !page.IsTruncated || page.NextContinuationToken == "" {
			return batches, nil
		}
		token = page.NextContinuationToken
	}
}

func formatLastModified(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(s3TimeFormat)
}
