// Package zip serves the entries of a ZIP archive as a read-only drive.
//
// Archive directories are drive folders and entry names are item titles, so
// drive://root/reports/2024 finds reports/2024-q1.txt. The scheme is not part
// of the entry path: both scopes see the same tree. Mount the adapter under
// one scheme with drivekit.Mux to restrict it.
package zip

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gobeaver/drivekit"
)

// Adapter provides a ZIP archive implementation of drivekit.Driver
type Adapter struct {
	reader  *zip.Reader
	closer  io.Closer
	folders map[string][]*zip.File // entries keyed by their directory
	byName  map[string]*zip.File
}

// Open opens the archive at zipPath
func Open(zipPath string) (*Adapter, error) {
	rc, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	a := newAdapter(&rc.Reader)
	a.closer = rc
	return a, nil
}

// NewReader serves an archive held in r
func NewReader(r io.ReaderAt, size int64) (*Adapter, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip: %w", err)
	}
	return newAdapter(zr), nil
}

func newAdapter(zr *zip.Reader) *Adapter {
	a := &Adapter{
		reader:  zr,
		folders: make(map[string][]*zip.File),
		byName:  make(map[string]*zip.File),
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := normalizePath(f.Name)
		if name == "" {
			continue
		}
		dir := path.Dir(name)
		if dir == "." {
			dir = ""
		}
		a.folders[dir] = append(a.folders[dir], f)
		a.byName[name] = f
	}
	return a
}

// Close releases the archive file, if the adapter opened one
func (a *Adapter) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Write implements drivekit.Driver. Archives are never modified.
func (a *Adapter) Write(ctx context.Context, req *drivekit.Request) (drivekit.ResourceID, error) {
	return "", &drivekit.PathError{Op: "write", Path: req.Location().String(), Err: drivekit.ErrNotAllowed}
}

// Read implements drivekit.Driver. The content type of an entry is guessed
// from its name.
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

	entries := a.folders[strings.Join(loc.Folder(), "/")]
	items := make([]drivekit.Item, 0, len(entries))
	for _, f := range entries {
		title := path.Base(normalizePath(f.Name))
		if !match(title) || drivekit.ContentTypeByName(title, nil) != req.ContentType() {
			continue
		}
		items = append(items, toItem(f))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Title < items[j].Title
	})

	return &drivekit.ResultSet{Items: items, Opener: drivekit.OpenerFunc(a.open)}, nil
}

func (a *Adapter) open(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
	f, ok := a.byName[string(item.ID)]
	if !ok {
		return nil, &drivekit.PathError{Op: "open", Path: string(item.ID), Err: drivekit.ErrNotExist}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, &drivekit.PathError{Op: "open", Path: string(item.ID), Err: err}
	}
	return rc, nil
}

// toItem describes an entry. The entry path doubles as its ID.
func toItem(f *zip.File) drivekit.Item {
	name := normalizePath(f.Name)
	title := path.Base(name)
	return drivekit.Item{
		ID:          drivekit.ResourceID(name),
		Title:       title,
		MimeType:    drivekit.ContentTypeByName(title, nil),
		Size:        int64(f.UncompressedSize64),
		ModTime:     f.Modified,
		Description: f.Comment,
	}
}

// normalizePath strips leading and trailing slashes and cleans the path
func normalizePath(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "." {
		return ""
	}
	return p
}

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

// Ensure Adapter implements drivekit.Driver
var _ drivekit.Driver = (*Adapter)(nil)
