package drivekit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gobeaver/filekit/filevalidator"
)

func fileLocation(title string) Location {
	return Location{Scheme: SchemeApp, Segments: []string{"files", title}}
}

func writeRequest(title, data string) *Request {
	return NewRequest(OpCreate, fileLocation(title), NewRequestBody(Metadata{}, []byte(data)), "")
}

func TestReadOnly(t *testing.T) {
	ctx := context.Background()
	base := newMockDriver()
	ro := ReadOnly(base)

	_, err := ro.Write(ctx, writeRequest("a.txt", "x"))
	if !IsNotAllowed(err) {
		t.Fatalf("Write() error = %v, want ErrNotAllowed", err)
	}
	var pe *PathError
	if !errors.As(err, &pe) || pe.Op != "write" || pe.Path != "drive://app/files/a.txt" {
		t.Errorf("Write() error = %#v", err)
	}
	if w, _ := base.counts(); w != 0 {
		t.Error("read-only driver forwarded a write")
	}

	if _, err := ro.Read(ctx, NewRequest(OpRead, fileLocation("a.txt"), nil, "")); err != nil {
		t.Errorf("Read() error = %v", err)
	}
	if _, r := base.counts(); r != 1 {
		t.Error("read-only driver did not forward the read")
	}
	if ro.Unwrap() != Driver(base) {
		t.Error("Unwrap() returned a different driver")
	}
}

func TestReadOnlyOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("handler allows", func(t *testing.T) {
		base := newMockDriver()
		var seen []string
		ro := ReadOnly(base, WithWriteAttemptHandler(func(op, location string) error {
			seen = append(seen, op+" "+location)
			return nil
		}))
		if _, err := ro.Write(ctx, writeRequest("a.txt", "x")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if w, _ := base.counts(); w != 1 {
			t.Error("allowed write was not forwarded")
		}
		if len(seen) != 1 || seen[0] != "write drive://app/files/a.txt" {
			t.Errorf("handler saw %v", seen)
		}
	})

	t.Run("handler rejects", func(t *testing.T) {
		quota := errors.New("over quota")
		ro := ReadOnly(newMockDriver(), WithWriteAttemptHandler(func(string, string) error {
			return quota
		}))
		if _, err := ro.Write(ctx, writeRequest("a.txt", "x")); !errors.Is(err, quota) {
			t.Errorf("Write() error = %v, want the handler error", err)
		}
	})

	t.Run("error wrapper", func(t *testing.T) {
		ro := ReadOnly(newMockDriver(), WithErrorWrapper(func(op, location string, err error) error {
			return errors.New("denied: " + err.Error())
		}))
		_, err := ro.Write(ctx, writeRequest("a.txt", "x"))
		if err == nil || err.Error() != "denied: operation not allowed" {
			t.Errorf("Write() error = %v", err)
		}
	})
}

func TestValidated(t *testing.T) {
	ctx := context.Background()
	validator := filevalidator.Empty().
		AllowNoExtension().
		MaxSize(8).
		BlockExtensions(".exe").
		Build()

	tests := []struct {
		name    string
		title   string
		data    string
		wantErr bool
	}{
		{"small text", "note.txt", "hello", false},
		{"no extension", "note", "hello", false},
		{"too large", "note.txt", strings.Repeat("x", 9), true},
		{"blocked extension", "setup.exe", "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newMockDriver()
			v := Validated(base, validator)
			_, err := v.Write(ctx, writeRequest(tt.title, tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Write() error = %v, wantErr %v", err, tt.wantErr)
			}
			w, _ := base.counts()
			if tt.wantErr {
				var pe *PathError
				if !errors.As(err, &pe) || !filevalidator.IsValidationError(err) {
					t.Errorf("Write() error = %v, want a PathError wrapping a ValidationError", err)
				}
				if w != 0 {
					t.Error("rejected body reached the driver")
				}
				return
			}
			if w != 1 {
				t.Error("accepted body did not reach the driver")
			}
		})
	}

	v := Validated(newMockDriver(), validator)
	if _, err := v.Read(ctx, NewRequest(OpRead, fileLocation("setup.exe"), nil, "")); err != nil {
		t.Errorf("Read() should not be validated, got %v", err)
	}
	if v.Unwrap() == nil {
		t.Error("Unwrap() returned nil")
	}
}
