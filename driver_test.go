package drivekit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// mockDriver is a simple in-memory driver for testing
type mockDriver struct {
	mu       sync.Mutex
	items    map[string]*mockItem
	nextID   int
	writes   int
	reads    int
	requests []*Request
	nilRead  bool
	writeErr error
	readErr  error
}

type mockItem struct {
	folder string
	item   Item
	data   []byte
}

func newMockDriver() *mockDriver {
	return &mockDriver{items: make(map[string]*mockItem)}
}

func folderKey(loc Location) string {
	return string(loc.Scheme) + "/" + strings.Join(loc.Folder(), "/")
}

func (m *mockDriver) Write(ctx context.Context, req *Request) (ResourceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++
	m.requests = append(m.requests, req)
	if m.writeErr != nil {
		return "", m.writeErr
	}

	loc := req.Location()
	key := folderKey(loc) + "\x00" + loc.Title() + "\x00" + req.ContentType()
	var data []byte
	var meta Metadata
	if body := req.Body(); body != nil {
		data = body.Bytes
		meta = body.Metadata
	}

	it, ok := m.items[key]
	if !ok {
		m.nextID++
		it = &mockItem{folder: folderKey(loc)}
		it.item.ID = ResourceID("id-" + strconv.Itoa(m.nextID))
		m.items[key] = it
	}
	it.item.Title = loc.Title()
	it.item.MimeType = req.ContentType()
	it.item.Size = int64(len(data))
	it.item.Description = meta.Description
	it.item.Properties = meta.Properties
	it.data = append([]byte(nil), data...)
	return it.item.ID, nil
}

func (m *mockDriver) Read(ctx context.Context, req *Request) (*ResultSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	m.requests = append(m.requests, req)
	if m.readErr != nil {
		return nil, m.readErr
	}
	if m.nilRead {
		return nil, nil
	}

	loc := req.Location()
	rs := &ResultSet{Opener: OpenerFunc(m.open)}
	for _, it := range m.items {
		if it.folder != folderKey(loc) || it.item.MimeType != req.ContentType() {
			continue
		}
		if req.ExactMatch() && it.item.Title != loc.Title() {
			continue
		}
		if !strings.Contains(it.item.Title, loc.Title()) {
			continue
		}
		rs.Items = append(rs.Items, it.item)
	}
	sort.Slice(rs.Items, func(i, j int) bool { return rs.Items[i].Title < rs.Items[j].Title })
	return rs, nil
}

func (m *mockDriver) open(_ context.Context, item Item) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, it := range m.items {
		if it.item.ID == item.ID {
			return io.NopCloser(bytes.NewReader(it.data)), nil
		}
	}
	return nil, ErrNotExist
}

func (m *mockDriver) counts() (writes, reads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes, m.reads
}

func (m *mockDriver) lastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func TestResultSetHelpers(t *testing.T) {
	ctx := context.Background()

	var empty *ResultSet
	if empty.Len() != 0 {
		t.Errorf("nil result set Len() = %d, want 0", empty.Len())
	}

	rs := &ResultSet{}
	if _, ok := rs.First(); ok {
		t.Error("First() on empty result set should report false")
	}
	data, ok, err := rs.ReadFirst(ctx)
	if err != nil || ok || data != nil {
		t.Errorf("ReadFirst() on empty = (%q, %v, %v), want (nil, false, nil)", data, ok, err)
	}

	rs = &ResultSet{Items: []Item{{ID: "a", Title: "first"}, {ID: "b", Title: "second"}}}
	if _, _, err := rs.ReadFirst(ctx); err == nil {
		t.Error("ReadFirst() without an opener should fail")
	}

	rs.Opener = OpenerFunc(func(_ context.Context, item Item) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("content of " + item.Title)), nil
	})
	data, ok, err = rs.ReadFirst(ctx)
	if err != nil {
		t.Fatalf("ReadFirst() error = %v", err)
	}
	if !ok || string(data) != "content of first" {
		t.Errorf("ReadFirst() = (%q, %v), want (\"content of first\", true)", data, ok)
	}

	openErr := errors.New("boom")
	rs.Opener = OpenerFunc(func(context.Context, Item) (io.ReadCloser, error) {
		return nil, openErr
	})
	if _, ok, err := rs.ReadFirst(ctx); !ok || !errors.Is(err, openErr) {
		t.Errorf("ReadFirst() = (%v, %v), want (true, %v)", ok, err, openErr)
	}
}
