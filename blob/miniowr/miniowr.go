// Package miniowr provides a MinIO implementation of the blob.Store interface.
package miniowr

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/code19m/errx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rise-and-shine/contentstore/blob"
)

const (
	codeNoSuchKey = "NoSuchKey"

	sniffLen   = 512
	retryDelay = 100 * time.Millisecond
)

// Client implements the blob.Store interface using MinIO.
type Client struct {
	client     *minio.Client
	bucket     string
	maxRetries uint
}

// New creates a new MinIO blob store client.
func New(cfg Config) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	retries := cfg.MaxRetries
	if retries == 0 {
		retries = 1
	}

	return &Client{
		client:     client,
		bucket:     cfg.Bucket,
		maxRetries: retries,
	}, nil
}

// Upload streams the reader's content to the specified path.
// The content type is sniffed from the first bytes of the stream; the
// stream is consumed exactly once, so uploads are not retried.
func (c *Client) Upload(ctx context.Context, path string, reader io.Reader) (*blob.FileInfo, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, errx.Wrap(err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)

	body := io.MultiReader(strings.NewReader(string(head)), reader)

	info, err := c.client.PutObject(ctx, c.bucket, path, body, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &blob.FileInfo{
		Path:         path,
		Size:         info.Size,
		ContentType:  contentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Get retrieves a file and its metadata from the specified path.
func (c *Client) Get(ctx context.Context, path string) (*blob.File, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, errx.Wrap(err)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, c.wrapMinioError(err, path)
	}

	return &blob.File{
		Content: obj,
		Info: blob.FileInfo{
			Path:         path,
			Size:         stat.Size,
			ContentType:  stat.ContentType,
			ETag:         stat.ETag,
			LastModified: stat.LastModified,
		},
	}, nil
}

// Delete removes a file at the specified path, retrying transient failures.
func (c *Client) Delete(ctx context.Context, path string) error {
	err := retry.Do(
		func() error {
			return c.client.RemoveObject(ctx, c.bucket, path, minio.RemoveObjectOptions{})
		},
		retry.Attempts(c.maxRetries),
		retry.Delay(retryDelay),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return c.wrapMinioError(err, path)
	}
	return nil
}

// Exists checks if a file exists at the specified path, retrying transient failures.
func (c *Client) Exists(ctx context.Context, path string) (bool, error) {
	var found bool

	err := retry.Do(
		func() error {
			_, statErr := c.client.StatObject(ctx, c.bucket, path, minio.StatObjectOptions{})
			if statErr != nil {
				if minio.ToErrorResponse(statErr).Code == codeNoSuchKey {
					found = false
					return nil
				}
				return statErr
			}
			found = true
			return nil
		},
		retry.Attempts(c.maxRetries),
		retry.Delay(retryDelay),
		retry.Context(ctx),
		retry.RetryIf(isTransient),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return false, errx.Wrap(err)
	}
	return found, nil
}

// EnsureDir is a no-op: object storage has no directory concept.
func (c *Client) EnsureDir(_ context.Context, _ string) error {
	return nil
}

// wrapMinioError converts MinIO errors to blob error codes.
func (c *Client) wrapMinioError(err error, path string) error {
	if minio.ToErrorResponse(err).Code == codeNoSuchKey {
		return errx.New(
			"file not found",
			errx.WithCode(blob.CodeFileNotFound),
			errx.WithType(errx.T_NotFound),
			errx.WithDetails(errx.D{"path": path}),
		)
	}
	return errx.Wrap(err)
}

// isTransient reports whether the MinIO error is worth another attempt.
// Missing keys and access failures are permanent.
func isTransient(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case codeNoSuchKey, "AccessDenied", "NoSuchBucket", "InvalidBucketName":
		return false
	}
	return true
}
