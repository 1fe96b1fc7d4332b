// Package gcs stores drivekit items in a Google Cloud Storage bucket. Each
// item is one object; folders are key prefixes.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/gobeaver/drivekit/driver/objectstore"
)

// AdapterOption configures the drive adapter
type AdapterOption = objectstore.AdapterOption

// WithPrefix sets the prefix for GCS objects
func WithPrefix(prefix string) AdapterOption {
	return objectstore.WithPrefix(prefix)
}

// New creates a drive adapter on a GCS bucket
func New(client *storage.Client, bucket string, options ...AdapterOption) *objectstore.Adapter {
	return objectstore.New(NewStore(client.Bucket(bucket)), options...)
}

// Store implements objectstore.Store on a bucket handle
type Store struct {
	bucket *storage.BucketHandle
}

// NewStore creates a Store on bucket
func NewStore(bucket *storage.BucketHandle) *Store {
	return &Store{bucket: bucket}
}

// Put implements objectstore.Store
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	writer := s.bucket.Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if len(metadata) > 0 {
		writer.Metadata = metadata
	}

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		writer.Close()
		return mapGCSError(err)
	}
	return mapGCSError(writer.Close())
}

// List implements objectstore.Store
func (s *Store) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	it := s.bucket.Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var objects []objectstore.Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapGCSError(err)
		}
		// Synthetic directory entries only carry a prefix
		if attrs.Name == "" {
			continue
		}
		objects = append(objects, toObject(attrs))
	}
	return objects, nil
}

// Get implements objectstore.Store
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, mapGCSError(err)
	}
	return reader, nil
}

func toObject(attrs *storage.ObjectAttrs) objectstore.Object {
	return objectstore.Object{
		Key:         attrs.Name,
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
		Modified:    attrs.Updated,
		Metadata:    attrs.Metadata,
	}
}

// mapGCSError converts GCS not-found errors to objectstore.ErrObjectNotFound
func mapGCSError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return errors.Join(objectstore.ErrObjectNotFound, err)
	}
	return err
}

var _ objectstore.Store = (*Store)(nil)
