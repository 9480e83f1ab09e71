package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Backend serves s3://bucket/key locators from S3-compatible object storage.
type S3Backend struct {
	client *minio.Client
}

// NewS3Backend creates a backend for an S3-compatible endpoint with static
// credentials.
func NewS3Backend(endpoint, accessKey, secretKey string, useSSL bool) (*S3Backend, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return &S3Backend{client: client}, nil
}

func splitS3(locator string) (bucket, key string, err error) {
	_, path, err := SplitLocator(locator)
	if err != nil {
		return "", "", err
	}
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" {
		return "", "", fmt.Errorf("locator %q must be in the format s3://bucket/key", locator)
	}
	return bucket, key, nil
}

// Open returns a reader for the object's content.
func (b *S3Backend) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	bucket, key, err := splitS3(locator)
	if err != nil {
		return nil, err
	}

	obj, err := b.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &IOError{Locator: locator, Err: err}
	}
	// GetObject is lazy; Stat forces missing-object errors to surface here.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, &IOError{Locator: locator, Err: err}
	}
	return obj, nil
}

// Write uploads data to the object, overwriting previous content.
func (b *S3Backend) Write(ctx context.Context, locator string, data []byte) error {
	bucket, key, err := splitS3(locator)
	if err != nil {
		return err
	}

	_, err = b.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}

// EnsureDir is a no-op: object stores have no directories.
func (b *S3Backend) EnsureDir(ctx context.Context, locator string) error {
	return nil
}

// List returns the objects under the locator's prefix.
func (b *S3Backend) List(ctx context.Context, locator string) ([]EntryInfo, error) {
	bucket, prefix, err := splitS3(locator)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var entries []EntryInfo
	for obj := range b.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, &IOError{Locator: locator, Err: obj.Err}
		}
		entries = append(entries, EntryInfo{
			Path:    "s3://" + bucket + "/" + obj.Key,
			ModTime: obj.LastModified,
		})
	}
	return entries, nil
}

// Remove deletes the object at the locator.
func (b *S3Backend) Remove(ctx context.Context, locator string) error {
	bucket, key, err := splitS3(locator)
	if err != nil {
		return err
	}

	if err := b.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return &IOError{Locator: locator, Err: err}
	}
	return nil
}
