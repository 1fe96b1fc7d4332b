// Package azure stores drivekit items in an Azure Blob Storage container.
// Each item is one block blob; folders are name prefixes.
package azure

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/goccy/go-json"

	"github.com/gobeaver/drivekit/driver/objectstore"
)

// metadataKey is the single blob metadata entry holding item properties.
// Azure metadata names must be C# identifiers, which property keys such as
// content-encoding are not.
const metadataKey = "drivekit"

// AdapterOption configures the drive adapter
type AdapterOption = objectstore.AdapterOption

// WithPrefix sets the prefix for Azure blobs
func WithPrefix(prefix string) AdapterOption {
	return objectstore.WithPrefix(prefix)
}

// New creates a drive adapter on an Azure container
func New(client *azblob.Client, containerName string, options ...AdapterOption) *objectstore.Adapter {
	return objectstore.New(NewStore(client, containerName), options...)
}

// Store implements objectstore.Store on an Azure container
type Store struct {
	client        *azblob.Client
	containerName string
}

// NewStore creates a Store on containerName
func NewStore(client *azblob.Client, containerName string) *Store {
	return &Store{client: client, containerName: containerName}
}

// Put implements objectstore.Store
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	uploadOpts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	}
	if len(metadata) > 0 {
		encoded, err := encodeMetadata(metadata)
		if err != nil {
			return err
		}
		uploadOpts.Metadata = map[string]*string{metadataKey: &encoded}
	}

	_, err := s.client.UploadBuffer(ctx, s.containerName, key, data, uploadOpts)
	return mapAzureError(err)
}

// List implements objectstore.Store
func (s *Store) List(ctx context.Context, prefix string) ([]objectstore.Object, error) {
	pager := s.client.NewListBlobsFlatPager(s.containerName, &azblob.ListBlobsFlatOptions{
		Prefix:  &prefix,
		Include: azblob.ListBlobsInclude{Metadata: true},
	})

	var objects []objectstore.Object
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapAzureError(err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil || strings.Contains(strings.TrimPrefix(*item.Name, prefix), "/") {
				continue
			}
			obj, err := toObject(item)
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// Get implements objectstore.Store
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.containerName, key, nil)
	if err != nil {
		return nil, mapAzureError(err)
	}
	return resp.Body, nil
}

func toObject(item *container.BlobItem) (objectstore.Object, error) {
	obj := objectstore.Object{Key: *item.Name}
	if props := item.Properties; props != nil {
		if props.ContentType != nil {
			obj.ContentType = *props.ContentType
		}
		if props.ContentLength != nil {
			obj.Size = *props.ContentLength
		}
		if props.LastModified != nil {
			obj.Modified = *props.LastModified
		}
	}
	for k, v := range item.Metadata {
		// Metadata names come back case-insensitively
		if !strings.EqualFold(k, metadataKey) || v == nil {
			continue
		}
		metadata, err := decodeMetadata(*v)
		if err != nil {
			return objectstore.Object{}, err
		}
		obj.Metadata = metadata
	}
	return obj, nil
}

func encodeMetadata(metadata map[string]string) (string, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeMetadata(encoded string) (map[string]string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	var metadata map[string]string
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, err
	}
	return metadata, nil
}

// mapAzureError converts Azure not-found errors to objectstore.ErrObjectNotFound
func mapAzureError(err error) error {
	if err == nil {
		return nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return errors.Join(objectstore.ErrObjectNotFound, err)
	}
	return err
}

var _ objectstore.Store = (*Store)(nil)
