package drivekit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// ResourceID is the backend-issued identifier of a stored item.
type ResourceID string

// Item describes one stored item returned by a read.
type Item struct {
	ID          ResourceID
	Title       string
	MimeType    string
	Size        int64
	ModTime     time.Time
	Description string
	Properties  map[string]string
}

// ContentOpener opens the content of an item found by a read.
type ContentOpener interface {
	Open(ctx context.Context, item Item) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to ContentOpener.
type OpenerFunc func(ctx context.Context, item Item) (io.ReadCloser, error)

// Open implements ContentOpener
func (f OpenerFunc) Open(ctx context.Context, item Item) (io.ReadCloser, error) {
	return f(ctx, item)
}

// ResultSet is the raw payload of a read: the matching items plus a way to
// open their content. Response converters turn it into typed values.
type ResultSet struct {
	Items  []Item
	Opener ContentOpener
}

// Len returns the number of items.
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Items)
}

// First returns the first item, if any.
func (rs *ResultSet) First() (Item, bool) {
	if rs.Len() == 0 {
		return Item{}, false
	}
	return rs.Items[0], true
}

// Open opens the content of item.
func (rs *ResultSet) Open(ctx context.Context, item Item) (io.ReadCloser, error) {
	if rs.Opener == nil {
		return nil, fmt.Errorf("open %s: result set has no content opener", item.ID)
	}
	return rs.Opener.Open(ctx, item)
}

// ReadFirst reads the whole content of the first item. ok is false when the
// result set is empty.
func (rs *ResultSet) ReadFirst(ctx context.Context) (data []byte, ok bool, err error) {
	item, ok := rs.First()
	if !ok {
		return nil, false, nil
	}
	rc, err := rs.Open(ctx, item)
	if err != nil {
		return nil, true, err
	}
	defer rc.Close()

	data, err = io.ReadAll(rc)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

// Driver executes built requests against a storage medium.
type Driver interface {
	// Write stores the request body at the request location, creating the
	// folder chain on demand. An existing item with the same title and content
	// type is overwritten, content and metadata, and keeps its ID.
	Write(ctx context.Context, req *Request) (ResourceID, error)

	// Read returns the items in the location's folder whose title contains the
	// location title and whose mime type equals the request content type.
	// A nil result set means the backend had nothing to report.
	Read(ctx context.Context, req *Request) (*ResultSet, error)
}
