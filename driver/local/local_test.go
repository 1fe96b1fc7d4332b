package local_test

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/gobeaver/drivekit"
	"github.com/gobeaver/drivekit/driver/local"
)

func request(t *testing.T, op drivekit.Operation, loc, contentType string, body []byte) *drivekit.Request {
	t.Helper()
	l, err := drivekit.ParseLocation(loc)
	if err != nil {
		t.Fatalf("ParseLocation(%q): %v", loc, err)
	}
	var rb *drivekit.RequestBody
	if body != nil {
		rb = drivekit.NewRequestBody(drivekit.Metadata{Description: "desc", Properties: map[string]string{"k": "v"}}, body)
	}
	return drivekit.NewRequest(op, l, rb, contentType)
}

func TestWriteRead(t *testing.T) {
	ctx := context.Background()
	a := local.NewWithFs(afero.NewMemMapFs())

	id, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://app/notes/today.txt", "text/plain", []byte("hello")))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	rs, err := a.Read(ctx, request(t, drivekit.OpRead, "drive://app/notes/today", "text/plain", nil))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", rs.Len())
	}
	item := rs.Items[0]
	if item.ID != id {
		t.Errorf("expected id %s, got %s", id, item.ID)
	}
	if item.Title != "today.txt" || item.Size != 5 || item.Description != "desc" || item.Properties["k"] != "v" {
		t.Errorf("unexpected item %+v", item)
	}

	data, ok, err := rs.ReadFirst(ctx)
	if err != nil || !ok {
		t.Fatalf("ReadFirst: ok=%v err=%v", ok, err)
	}
	if string(data) != "hello" {
		t.Errorf("expected %q, got %q", "hello", data)
	}
}

func TestOverwriteKeepsID(t *testing.T) {
	ctx := context.Background()
	a := local.NewWithFs(afero.NewMemMapFs())

	first, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://root/a/b", "text/plain", []byte("one")))
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://root/a/b", "text/plain", []byte("two")))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected same id, got %s and %s", first, second)
	}

	rs, err := a.Read(ctx, request(t, drivekit.OpRead, "drive://root/a/b", "text/plain", nil))
	if err != nil {
		t.Fatal(err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected 1 item after overwrite, got %d", rs.Len())
	}
	data, _, err := rs.ReadFirst(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two" {
		t.Errorf("expected overwritten content, got %q", data)
	}
}

func TestReadMatching(t *testing.T) {
	ctx := context.Background()
	a := local.NewWithFs(afero.NewMemMapFs())
	for _, title := range []string{"log", "log-old", "other"} {
		if _, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://app/logs/"+title, "text/plain", []byte(title))); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://app/logs/log", "application/json", []byte("{}"))); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		loc   string
		mime  string
		exact bool
		want  int
	}{
		{"substring", "drive://app/logs/log", "text/plain", false, 2},
		{"exact", "drive://app/logs/log", "text/plain", true, 1},
		{"by mime", "drive://app/logs/log", "application/json", false, 1},
		{"no match", "drive://app/logs/none", "text/plain", false, 0},
		{"missing folder", "drive://app/nowhere/log", "text/plain", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(t, drivekit.OpRead, tt.loc, tt.mime, nil)
			if tt.exact {
				req = req.WithQuery(url.Values{"match": {"exact"}})
			}
			rs, err := a.Read(ctx, req)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if rs.Len() != tt.want {
				t.Errorf("expected %d items, got %d", tt.want, rs.Len())
			}
		})
	}
}

func TestSegmentsAreEscaped(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	a := local.NewWithFs(fs)

	if _, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://app/a%2Fb/c", "text/plain", []byte("x"))); err != nil {
		t.Fatal(err)
	}
	ok, err := afero.DirExists(fs, filepath.Join("app", "a%2Fb"))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("expected folder segment containing a slash to stay one directory")
	}
}

func TestChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	a := local.NewWithFs(fs)

	id, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://app/f", "text/plain", []byte("original")))
	if err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, filepath.Join("app", string(id)+".drivekit.data"), []byte("tampered"), 0640); err != nil {
		t.Fatal(err)
	}

	rs, err := a.Read(ctx, request(t, drivekit.OpRead, "drive://app/f", "text/plain", nil))
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = rs.ReadFirst(ctx)
	if !errors.Is(err, local.ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestNewCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "drive")
	a, err := local.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.Root() != root {
		t.Errorf("expected root %s, got %s", root, a.Root())
	}

	ctx := context.Background()
	if _, err := a.Write(ctx, request(t, drivekit.OpCreate, "drive://root/x/y", "text/plain", []byte("disk"))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rs, err := a.Read(ctx, request(t, drivekit.OpRead, "drive://root/x/y", "text/plain", nil))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, _, err := rs.ReadFirst(ctx)
	if err != nil || string(data) != "disk" {
		t.Errorf("expected %q, got %q (%v)", "disk", data, err)
	}
}
