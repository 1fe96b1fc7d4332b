// Package objectstore implements drivekit.Driver on flat object stores such
// as GCS buckets and Azure containers. Folders are key prefixes and each item
// is one object whose last key segment holds the escaped title and content
// type, so the object key is a stable item ID.
package objectstore

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gobeaver/drivekit"
)

// DescriptionKey is the object metadata key holding the item description.
const DescriptionKey = "drivekit-description"

// ErrObjectNotFound is returned by a Store for keys it does not hold.
var ErrObjectNotFound = errors.New("object not found")

// Object describes a stored object.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Modified    time.Time
	Metadata    map[string]string
}

// Store is the object operations a backend provides.
type Store interface {
	// Put creates or replaces the object at key.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// List returns the objects directly below prefix, not those in deeper
	// "/" separated levels.
	List(ctx context.Context, prefix string) ([]Object, error)
	// Get opens the content of the object at key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Adapter provides a drivekit.Driver over a Store
type Adapter struct {
	store  Store
	prefix string
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithPrefix sets the prefix for object keys
func WithPrefix(prefix string) AdapterOption {
	return func(a *Adapter) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.prefix = prefix
	}
}

// New creates a new object store drive adapter
func New(store Store, options ...AdapterOption) *Adapter {
	adapter := &Adapter{store: store}
	for _, option := range options {
		option(adapter)
	}
	return adapter
}

// FolderPrefix returns the key prefix of the folder chain of loc, with a
// trailing slash.
func (a *Adapter) FolderPrefix(loc drivekit.Location) string {
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

// ObjectName encodes a title and content type into the last key segment.
func ObjectName(title, contentType string) string {
	return url.QueryEscape(title) + "@" + url.QueryEscape(contentType)
}

// ParseObjectName reverses ObjectName.
func ParseObjectName(name string) (title, contentType string, ok bool) {
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
	if err := ctx.Err(); err != nil {
		return "", err
	}

	loc := req.Location()
	key := a.FolderPrefix(loc) + ObjectName(loc.Title(), req.ContentType())

	var data []byte
	metadata := map[string]string{}
	if body := req.Body(); body != nil {
		data = body.Bytes
		for k, v := range body.Metadata.Properties {
			metadata[k] = v
		}
		if body.Metadata.Description != "" {
			metadata[DescriptionKey] = body.Metadata.Description
		}
	}

	if err := a.store.Put(ctx, key, data, req.ContentType(), metadata); err != nil {
		return "", MapError("write", loc.String(), err)
	}
	return drivekit.ResourceID(key), nil
}

// Read implements drivekit.Driver. Folders are implicit prefixes, so a
// missing folder is an empty result.
func (a *Adapter) Read(ctx context.Context, req *drivekit.Request) (*drivekit.ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc := req.Location()
	folder := a.FolderPrefix(loc)
	want := loc.Title()

	objects, err := a.store.List(ctx, folder)
	if err != nil {
		return nil, MapError("read", loc.String(), err)
	}

	items := make([]drivekit.Item, 0, len(objects))
	for _, obj := range objects {
		title, contentType, ok := ParseObjectName(strings.TrimPrefix(obj.Key, folder))
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
		items = append(items, toItem(title, obj))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Title < items[j].Title
	})

	return &drivekit.ResultSet{Items: items, Opener: drivekit.OpenerFunc(a.open)}, nil
}

func toItem(title string, obj Object) drivekit.Item {
	item := drivekit.Item{
		ID:       drivekit.ResourceID(obj.Key),
		Title:    title,
		MimeType: obj.ContentType,
		Size:     obj.Size,
		ModTime:  obj.Modified,
	}
	for k, v := range obj.Metadata {
		if k == DescriptionKey {
			item.Description = v
			continue
		}
		if item.Properties == nil {
			item.Properties = make(map[string]string)
		}
		item.Properties[k] = v
	}
	return item
}

func (a *Adapter) open(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
	rc, err := a.store.Get(ctx, string(item.ID))
	if err != nil {
		return nil, MapError("open", string(item.ID), err)
	}
	return rc, nil
}

// MapError converts store errors to drivekit errors
func MapError(op, location string, err error) error {
	if errors.Is(err, ErrObjectNotFound) {
		return drivekit.NewPathError(op, location, drivekit.ErrNotExist)
	}
	return drivekit.NewPathError(op, location, err)
}

// Ensure Adapter implements drivekit.Driver
var _ drivekit.Driver = (*Adapter)(nil)
