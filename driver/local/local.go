package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/gobeaver/drivekit"
)

const (
	sidecarExt = ".drivekit.json"
	contentExt = ".drivekit.data"
)

// ErrChecksumMismatch is returned when stored content no longer matches the
// checksum recorded at write time.
var ErrChecksumMismatch = errors.New("content checksum mismatch")

// sidecar is the metadata file stored next to each item's content.
type sidecar struct {
	ID          drivekit.ResourceID `json:"id"`
	Title       string              `json:"title"`
	MimeType    string              `json:"mimeType"`
	Description string              `json:"description,omitempty"`
	Properties  map[string]string   `json:"properties,omitempty"`
	Size        int64               `json:"size"`
	ModTime     time.Time           `json:"modTime"`
	Checksum    string              `json:"checksum"`
}

// Adapter implements drivekit.Driver on a filesystem. Each scheme is a top
// level directory, each folder segment a directory below it; items are a
// content file plus a JSON sidecar named after the item ID.
type Adapter struct {
	mu   sync.RWMutex
	fs   afero.Fs
	root string
}

// New creates a new local drive adapter rooted at root
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absRoot, 0750); err != nil {
		return nil, err
	}
	return &Adapter{
		fs:   afero.NewBasePathFs(afero.NewOsFs(), absRoot),
		root: absRoot,
	}, nil
}

// NewWithFs creates an Adapter backed by a custom afero.Fs.
// This is useful for testing with afero.MemMapFs.
func NewWithFs(fs afero.Fs) *Adapter {
	return &Adapter{fs: fs, root: "."}
}

// Root returns the absolute root directory, "." for custom filesystems.
func (a *Adapter) Root() string {
	return a.root
}

// dir returns the directory of the folder chain of loc.
func dir(loc drivekit.Location) string {
	parts := make([]string, 0, len(loc.Segments))
	parts = append(parts, string(loc.Scheme))
	for _, seg := range loc.Folder() {
		parts = append(parts, url.PathEscape(seg))
	}
	return filepath.Join(parts...)
}

// Write implements drivekit.Driver
func (a *Adapter) Write(ctx context.Context, req *drivekit.Request) (drivekit.ResourceID, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	loc := req.Location()
	d := dir(loc)
	id := drivekit.StableID(loc, req.ContentType())

	var data []byte
	meta := sidecar{
		ID:       id,
		Title:    loc.Title(),
		MimeType: req.ContentType(),
		ModTime:  time.Now().UTC(),
	}
	if body := req.Body(); body != nil {
		data = body.Bytes
		meta.Description = body.Metadata.Description
		meta.Properties = body.Metadata.Properties
	}
	meta.Size = int64(len(data))
	meta.Checksum = drivekit.Checksum(data)

	encoded, err := json.Marshal(meta)
	if err != nil {
		return "", &drivekit.PathError{Op: "write", Path: loc.String(), Err: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.fs.MkdirAll(d, 0750); err != nil {
		return "", &drivekit.PathError{Op: "write", Path: loc.String(), Err: err}
	}
	if err := afero.WriteFile(a.fs, filepath.Join(d, string(id)+contentExt), data, 0640); err != nil {
		return "", &drivekit.PathError{Op: "write", Path: loc.String(), Err: err}
	}
	if err := afero.WriteFile(a.fs, filepath.Join(d, string(id)+sidecarExt), encoded, 0640); err != nil {
		return "", &drivekit.PathError{Op: "write", Path: loc.String(), Err: err}
	}
	return id, nil
}

// Read implements drivekit.Driver. Missing folders are created.
func (a *Adapter) Read(ctx context.Context, req *drivekit.Request) (*drivekit.ResultSet, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	loc := req.Location()
	d := dir(loc)
	title := loc.Title()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.fs.MkdirAll(d, 0750); err != nil {
		return nil, &drivekit.PathError{Op: "read", Path: loc.String(), Err: err}
	}
	entries, err := afero.ReadDir(a.fs, d)
	if err != nil {
		return nil, &drivekit.PathError{Op: "read", Path: loc.String(), Err: err}
	}

	items := make([]drivekit.Item, 0)
	checksums := make(map[drivekit.ResourceID]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sidecarExt) {
			continue
		}
		raw, err := afero.ReadFile(a.fs, filepath.Join(d, entry.Name()))
		if err != nil {
			return nil, &drivekit.PathError{Op: "read", Path: loc.String(), Err: err}
		}
		var meta sidecar
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, &drivekit.PathError{Op: "read", Path: filepath.Join(d, entry.Name()), Err: err}
		}
		if meta.MimeType != req.ContentType() {
			continue
		}
		if req.ExactMatch() {
			if meta.Title != title {
				continue
			}
		} else if !strings.Contains(meta.Title, title) {
			continue
		}
		items = append(items, drivekit.Item{
			ID:          meta.ID,
			Title:       meta.Title,
			MimeType:    meta.MimeType,
			Size:        meta.Size,
			ModTime:     meta.ModTime,
			Description: meta.Description,
			Properties:  meta.Properties,
		})
		checksums[meta.ID] = meta.Checksum
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Title < items[j].Title
	})

	opener := drivekit.OpenerFunc(func(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
		return a.open(ctx, d, item, checksums[item.ID])
	})
	return &drivekit.ResultSet{Items: items, Opener: opener}, nil
}

// open reads the content of item and verifies it against its checksum.
func (a *Adapter) open(ctx context.Context, d string, item drivekit.Item, checksum string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p := filepath.Join(d, string(item.ID)+contentExt)

	a.mu.RLock()
	data, err := afero.ReadFile(a.fs, p)
	a.mu.RUnlock()

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &drivekit.PathError{Op: "open", Path: p, Err: drivekit.ErrNotExist}
		}
		return nil, &drivekit.PathError{Op: "open", Path: p, Err: err}
	}
	if checksum != "" && drivekit.Checksum(data) != checksum {
		return nil, &drivekit.PathError{Op: "open", Path: p, Err: ErrChecksumMismatch}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Ensure Adapter implements drivekit.Driver
var _ drivekit.Driver = (*Adapter)(nil)
