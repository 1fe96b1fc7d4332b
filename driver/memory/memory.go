package memory

import (
	"bytes"
	"context"
	"io"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/gobeaver/drivekit"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// memoryItem represents a stored item
type memoryItem struct {
	id          drivekit.ResourceID
	title       string
	contentType string
	content     []byte
	metadata    drivekit.Metadata
	modTime     time.Time
}

// memoryFolder represents a folder and everything below it
type memoryFolder struct {
	folders map[string]*memoryFolder
	items   []*memoryItem
}

func newFolder() *memoryFolder {
	return &memoryFolder{folders: make(map[string]*memoryFolder)}
}

// Adapter provides an in-memory implementation of drivekit.Driver.
// Useful for testing and caching scenarios
type Adapter struct {
	mu      sync.RWMutex
	roots   map[drivekit.Scheme]*memoryFolder
	byID    map[drivekit.ResourceID]*memoryItem
	maxSize int64 // Maximum total storage size (0 = unlimited)
	size    int64 // Current total size
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates a new in-memory drive adapter
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}

	return &Adapter{
		roots:   make(map[drivekit.Scheme]*memoryFolder),
		byID:    make(map[drivekit.ResourceID]*memoryItem),
		maxSize: maxSize,
	}
}

// folder walks the folder chain of loc, creating missing folders.
// Callers must hold the write lock.
func (a *Adapter) folder(loc drivekit.Location) *memoryFolder {
	f, ok := a.roots[loc.Scheme]
	if !ok {
		f = newFolder()
		a.roots[loc.Scheme] = f
	}
	for _, name := range loc.Folder() {
		next, ok := f.folders[name]
		if !ok {
			next = newFolder()
			f.folders[name] = next
		}
		f = next
	}
	return f
}

// Write implements drivekit.Driver
func (a *Adapter) Write(ctx context.Context, req *drivekit.Request) (drivekit.ResourceID, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	loc := req.Location()
	var data []byte
	var metadata drivekit.Metadata
	if body := req.Body(); body != nil {
		data = bytes.Clone(body.Bytes)
		metadata = drivekit.Metadata{
			Description: body.Metadata.Description,
			Properties:  maps.Clone(body.Metadata.Properties),
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	folder := a.folder(loc)

	var existing *memoryItem
	for _, it := range folder.items {
		if it.title == loc.Title() && it.contentType == req.ContentType() {
			existing = it
			break
		}
	}

	newSize := a.size + int64(len(data))
	if existing != nil {
		newSize -= int64(len(existing.content))
	}
	if a.maxSize > 0 && newSize > a.maxSize {
		return "", &drivekit.PathError{
			Op:   "write",
			Path: loc.String(),
			Err:  drivekit.ErrQuotaExceeded,
		}
	}
	a.size = newSize

	if existing != nil {
		existing.content = data
		existing.metadata = metadata
		existing.modTime = time.Now()
		return existing.id, nil
	}

	it := &memoryItem{
		id:          drivekit.ResourceID(uuid.NewString()),
		title:       loc.Title(),
		contentType: req.ContentType(),
		content:     data,
		metadata:    metadata,
		modTime:     time.Now(),
	}
	folder.items = append(folder.items, it)
	a.byID[it.id] = it
	return it.id, nil
}

// Read implements drivekit.Driver. The folder chain is created when missing,
// so reading an unknown location returns an empty result set.
func (a *Adapter) Read(ctx context.Context, req *drivekit.Request) (*drivekit.ResultSet, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	loc := req.Location()
	match, err := titleMatcher(loc.Title(), req.ExactMatch())
	if err != nil {
		return nil, &drivekit.PathError{Op: "read", Path: loc.String(), Err: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	folder := a.folder(loc)
	items := make([]drivekit.Item, 0, len(folder.items))
	for _, it := range folder.items {
		if it.contentType != req.ContentType() || !match(it.title) {
			continue
		}
		items = append(items, it.item())
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Title < items[j].Title
	})

	return &drivekit.ResultSet{Items: items, Opener: drivekit.OpenerFunc(a.open)}, nil
}

func (a *Adapter) open(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	a.mu.RLock()
	it, ok := a.byID[item.ID]
	var data []byte
	if ok {
		data = it.content
	}
	a.mu.RUnlock()

	if !ok {
		return nil, &drivekit.PathError{Op: "open", Path: string(item.ID), Err: drivekit.ErrNotExist}
	}
	// Overwrites replace the slice, so the snapshot stays valid.
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (it *memoryItem) item() drivekit.Item {
	return drivekit.Item{
		ID:          it.id,
		Title:       it.title,
		MimeType:    it.contentType,
		Size:        int64(len(it.content)),
		ModTime:     it.modTime,
		Description: it.metadata.Description,
		Properties:  maps.Clone(it.metadata.Properties),
	}
}

// titleMatcher matches titles containing title, or equal to it when exact.
func titleMatcher(title string, exact bool) (func(string) bool, error) {
	if exact {
		return func(s string) bool { return s == title }, nil
	}
	g, err := glob.Compile("*" + glob.QuoteMeta(title) + "*")
	if err != nil {
		return nil, err
	}
	return g.Match, nil
}

// Size returns the current total size of stored content
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// Clear removes every item
func (a *Adapter) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.roots = make(map[drivekit.Scheme]*memoryFolder)
	a.byID = make(map[drivekit.ResourceID]*memoryItem)
	a.size = 0
}

// Ensure Adapter implements drivekit.Driver
var _ drivekit.Driver = (*Adapter)(nil)
