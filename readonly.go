package drivekit

import (
	"context"
)

// ============================================================================
// ReadOnly Driver Decorator
// ============================================================================

// ReadOnlyDriver wraps a Driver to prevent all writes. Reads are delegated.
//
// Example:
//
//	drv := drivekit.ReadOnly(memory.New())
//
//	// Write returns a *PathError wrapping ErrNotAllowed
//	_, err := drv.Write(ctx, req)
type ReadOnlyDriver struct {
	driver Driver
	opts   ReadOnlyOptions
}

// ReadOnlyOptions configures the ReadOnlyDriver behavior.
type ReadOnlyOptions struct {
	// OnWriteAttempt is called when a write is attempted.
	// If it returns nil, the write is allowed (use carefully).
	OnWriteAttempt func(op, location string) error

	// ErrorWrapper allows customizing the error returned for write attempts.
	// If nil, wraps with PathError containing ErrNotAllowed.
	ErrorWrapper func(op, location string, err error) error
}

// ReadOnlyOption is a functional option for configuring ReadOnlyDriver.
type ReadOnlyOption func(*ReadOnlyOptions)

// WithWriteAttemptHandler sets a custom handler for write attempts.
func WithWriteAttemptHandler(handler func(op, location string) error) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.OnWriteAttempt = handler
	}
}

// WithErrorWrapper sets a custom error wrapper for write attempts.
func WithErrorWrapper(wrapper func(op, location string, err error) error) ReadOnlyOption {
	return func(o *ReadOnlyOptions) {
		o.ErrorWrapper = wrapper
	}
}

// ReadOnly creates a read-only wrapper around a Driver.
func ReadOnly(driver Driver, opts ...ReadOnlyOption) *ReadOnlyDriver {
	options := ReadOnlyOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return &ReadOnlyDriver{driver: driver, opts: options}
}

// Unwrap returns the underlying Driver.
func (r *ReadOnlyDriver) Unwrap() Driver {
	return r.driver
}

// readOnlyError creates an appropriate error for write operations.
func (r *ReadOnlyDriver) readOnlyError(op, location string) error {
	if r.opts.OnWriteAttempt != nil {
		if err := r.opts.OnWriteAttempt(op, location); err != nil {
			if r.opts.ErrorWrapper != nil {
				return r.opts.ErrorWrapper(op, location, err)
			}
			return &PathError{Op: op, Path: location, Err: err}
		}
		return nil
	}

	if r.opts.ErrorWrapper != nil {
		return r.opts.ErrorWrapper(op, location, ErrNotAllowed)
	}
	return &PathError{Op: op, Path: location, Err: ErrNotAllowed}
}

// Write is blocked unless an OnWriteAttempt handler allows it.
func (r *ReadOnlyDriver) Write(ctx context.Context, req *Request) (ResourceID, error) {
	if err := r.readOnlyError("write", req.Location().String()); err != nil {
		return "", err
	}
	return r.driver.Write(ctx, req)
}

// Read delegates to the underlying driver.
func (r *ReadOnlyDriver) Read(ctx context.Context, req *Request) (*ResultSet, error) {
	return r.driver.Read(ctx, req)
}

var _ Driver = (*ReadOnlyDriver)(nil)
