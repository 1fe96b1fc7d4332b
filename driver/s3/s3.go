package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gobeaver/drivekit"
)

// descriptionKey is the object metadata key holding the item description.
const descriptionKey = "drivekit-description"

// API is the subset of the S3 client the adapter uses.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Adapter provides an S3 implementation of drivekit.Driver. Folders are key
// prefixes; each item is one object whose key ends in the escaped title and
// content type, so the object key is a stable item ID.
type Adapter struct {
	client API
	bucket string
	prefix string
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithPrefix sets the prefix for S3 objects
func WithPrefix(prefix string) AdapterOption {
	return func(a *Adapter) {
		// Ensure prefix ends with a slash if it's not empty
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.prefix = prefix
	}
}

// New creates a new S3 drive adapter
func New(client API, bucket string, options ...AdapterOption) *Adapter {
	adapter := &Adapter{
		client: client,
		bucket: bucket,
	}

	for _, option := range options {
		option(adapter)
	}

	return adapter
}

// folderPrefix returns the key prefix of the folder chain of loc, with a
// trailing slash.
func (a *Adapter) folderPrefix(loc drivekit.Location) string {
	var b strings.Builder
	b.WriteString(a.prefix)
	b.WriteString(string(loc.Scheme))
	b.WriteByte('/')
	for _, seg := range loc.Folder() {
		b.WriteString(url.PathEscape(seg))
		b.WriteByte('/')
	}
	return b.String()
}

// objectName encodes a title and content type into the last key segment.
func objectName(title, contentType string) string {
	return url.QueryEscape(title) + "@" + url.QueryEscape(contentType)
}

// parseObjectName reverses objectName.
func parseObjectName(name string) (title, contentType string, ok bool) {
	t, ct, found := strings.Cut(name, "@")
	if !found {
		return "", "", false
	}
	title, err := url.QueryUnescape(t)
	if err != nil {
		return "", "", false
	}
	contentType, err = url.QueryUnescape(ct)
	if err != nil {
		return "", "", false
	}
	return title, contentType, true
}

// Write implements drivekit.Driver
func (a *Adapter) Write(ctx context.Context, req *drivekit.Request) (drivekit.ResourceID, error) {
	loc := req.Location()
	key := a.folderPrefix(loc) + objectName(loc.Title(), req.ContentType())

	var data []byte
	metadata := map[string]string{}
	if body := req.Body(); body != nil {
		data = body.Bytes
		for k, v := range body.Metadata.Properties {
			metadata[strings.ToLower(k)] = v
		}
		if body.Metadata.Description != "" {
			metadata[descriptionKey] = body.Metadata.Description
		}
	}

	input := &s3.PutObjectInput{
		Bucket:            aws.String(a.bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(data),
		ContentLength:     aws.Int64(int64(len(data))),
		ContentType:       aws.String(req.ContentType()),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}
	if len(metadata) > 0 {
		input.Metadata = metadata
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return "", mapS3Error("write", loc.String(), err)
	}
	return drivekit.ResourceID(key), nil
}

// Read implements drivekit.Driver. Folders are implicit prefixes, so a
// missing folder is an empty result.
func (a *Adapter) Read(ctx context.Context, req *drivekit.Request) (*drivekit.ResultSet, error) {
	loc := req.Location()
	folder := a.folderPrefix(loc)
	want := loc.Title()

	var items []drivekit.Item
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(a.bucket),
		Prefix:    aws.String(folder),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("read", loc.String(), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			title, contentType, ok := parseObjectName(strings.TrimPrefix(key, folder))
			if !ok || contentType != req.ContentType() {
				continue
			}
			if req.ExactMatch() {
				if title != want {
					continue
				}
			} else if !strings.Contains(title, want) {
				continue
			}
			item, err := a.head(ctx, key)
			if err != nil {
				return nil, mapS3Error("read", loc.String(), err)
			}
			item.Title = title
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Title < items[j].Title
	})

	return &drivekit.ResultSet{Items: items, Opener: drivekit.OpenerFunc(a.open)}, nil
}

// head loads the object metadata of key.
func (a *Adapter) head(ctx context.Context, key string) (drivekit.Item, error) {
	resp, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return drivekit.Item{}, err
	}

	item := drivekit.Item{
		ID:       drivekit.ResourceID(key),
		MimeType: aws.ToString(resp.ContentType),
		Size:     aws.ToInt64(resp.ContentLength),
		ModTime:  aws.ToTime(resp.LastModified),
	}
	for k, v := range resp.Metadata {
		if k == descriptionKey {
			item.Description = v
			continue
		}
		if item.Properties == nil {
			item.Properties = make(map[string]string)
		}
		item.Properties[k] = v
	}
	return item, nil
}

func (a *Adapter) open(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(string(item.ID)),
	})
	if err != nil {
		return nil, mapS3Error("open", string(item.ID), err)
	}
	return resp.Body, nil
}

// mapS3Error converts S3 errors to drivekit errors
func mapS3Error(op, location string, err error) error {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound

	if errors.As(err, &nsk) || errors.As(err, &notFound) {
		return drivekit.NewPathError(op, location, drivekit.ErrNotExist)
	}

	return drivekit.NewPathError(op, location, err)
}

// Ensure Adapter implements drivekit.Driver
var _ drivekit.Driver = (*Adapter)(nil)
