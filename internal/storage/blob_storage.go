package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Register bucket drivers
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// BlobStorage stores each entry as one object in a gocloud.dev/blob bucket.
//
// Object keys have the form "<table>/<key>" with both parts path-escaped, so
// arbitrary keys never collide with the separator. Bucket writers only make an
// object visible once Close succeeds, which provides single-key atomicity.
type BlobStorage struct {
	bucket *blob.Bucket
}

// NewBlobStorage wraps an already opened bucket.
func NewBlobStorage(bucket *blob.Bucket) *BlobStorage {
	return &BlobStorage{bucket: bucket}
}

// OpenBlobStorage opens the bucket at bucketURL.
// Supports: file:///path, mem://, s3://bucket?region=...
func OpenBlobStorage(ctx context.Context, bucketURL string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob bucket: %w", err)
	}
	return NewBlobStorage(bucket), nil
}

// Put writes value as the object for key in table.
func (b *BlobStorage) Put(ctx context.Context, table, key string, value []byte) error {
	if err := validateName(table, key); err != nil {
		return err
	}

	err := b.bucket.WriteAll(ctx, objectKey(table, key), value, &blob.WriterOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return ioError(err, "failed to write blob entry")
	}
	return nil
}

// Get reads the object for key in table.
func (b *BlobStorage) Get(ctx context.Context, table, key string) ([]byte, error) {
	if err := validateName(table, key); err != nil {
		return nil, err
	}

	value, err := b.bucket.ReadAll(ctx, objectKey(table, key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotFound
		}
		return nil, ioError(err, "failed to read blob entry")
	}
	return value, nil
}

// Delete removes the object for key in table.
func (b *BlobStorage) Delete(ctx context.Context, table, key string) error {
	if err := validateName(table, key); err != nil {
		return err
	}

	err := b.bucket.Delete(ctx, objectKey(table, key))
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return ioError(err, "failed to delete blob entry")
	}
	return nil
}

// Enumerate lists the keys stored under table.
func (b *BlobStorage) Enumerate(ctx context.Context, table string) ([]string, error) {
	if table == "" {
		return nil, ErrInvalidName
	}

	prefix := url.PathEscape(table) + "/"
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})

	keys := []string{}
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, ioError(err, "failed to list blob entries")
		}
		if obj.IsDir {
			continue
		}

		key, err := url.PathUnescape(strings.TrimPrefix(obj.Key, prefix))
		if err != nil {
			return nil, ioError(err, "failed to decode blob entry key")
		}
		keys = append(keys, key)
	}

	slices.Sort(keys)
	return keys, nil
}

// Close releases the bucket.
func (b *BlobStorage) Close() error {
	return b.bucket.Close()
}

func objectKey(table, key string) string {
	return url.PathEscape(table) + "/" + url.PathEscape(key)
}
