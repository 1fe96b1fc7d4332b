package drivekit

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Common drivekit errors
var (
	ErrNoConverter          = errors.New("no converter found")
	ErrNoResult             = errors.New("result set was nil")
	ErrUnsupportedOperation = errors.New("something is wrong with your interface")
	ErrInvalidScope         = errors.New("invalid scope")
	ErrMissingScope         = errors.New("you need to set a scope")
	ErrNilDriver            = errors.New("driver cannot be nil")
	ErrInvalidLocation      = errors.New("invalid location")
	ErrInvalidService       = errors.New("invalid service declaration")
	ErrArgumentCount        = errors.New("argument count mismatch")
	ErrNotExist             = errors.New("item does not exist")
	ErrNotAllowed           = errors.New("operation not allowed")
	ErrNotMounted           = errors.New("no driver mounted for scheme")
	ErrMountExists          = errors.New("mount point already exists")
	ErrQuotaExceeded        = errors.New("storage quota exceeded")
	ErrResultType           = errors.New("unexpected result type")
	ErrUnknownFactory       = errors.New("converter factory is not registered")
)

// MethodError reports a malformed service method or a misuse of one. Param is
// the 1-based parameter index, or 0 when the error concerns the whole method.
type MethodError struct {
	Method string
	Param  int
	Msg    string
	Err    error
}

func (e *MethodError) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	if e.Param > 0 {
		fmt.Fprintf(&b, " (parameter #%d)", e.Param)
	}
	b.WriteString("\n    for method ")
	b.WriteString(e.Method)
	if e.Err != nil {
		b.WriteString("\n    cause: ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *MethodError) Unwrap() error {
	return e.Err
}

// ResolutionError is returned when no factory in the converter chain handles a type.
type ResolutionError struct {
	Kind    string // "ResponseBody" or "RequestBody"
	Type    reflect.Type
	Skipped []string
	Tried   []string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "could not locate %s converter for %v.\n", e.Kind, e.Type)
	if e.Skipped != nil {
		b.WriteString("  Skipped:")
		for _, name := range e.Skipped {
			b.WriteString("\n   * ")
			b.WriteString(name)
		}
		b.WriteByte('\n')
	}
	b.WriteString("  Tried:")
	for _, name := range e.Tried {
		b.WriteString("\n   * ")
		b.WriteString(name)
	}
	return b.String()
}

// Unwrap returns ErrNoConverter
func (e *ResolutionError) Unwrap() error {
	return ErrNoConverter
}

// ConversionError records a failure inside a converter.
type ConversionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %v: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// PathError records a driver error and the operation and location that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a PathError for the given operation and location.
func NewPathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &PathError{Op: op, Path: path, Err: err}
}

// IsNotExist reports whether an error indicates that an item does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsNotAllowed reports whether an error indicates a rejected write
func IsNotAllowed(err error) bool {
	return errors.Is(err, ErrNotAllowed)
}

// IsNoConverter reports whether an error comes from an exhausted converter chain
func IsNoConverter(err error) bool {
	return errors.Is(err, ErrNoConverter)
}
