package drivekit

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Mux routes requests to the Driver mounted for the location's scheme, so
// the device root and the app folder can live on different backends.
type Mux struct {
	mu     sync.RWMutex
	mounts map[Scheme]Driver
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{mounts: make(map[Scheme]Driver)}
}

// Mount attaches driver for scheme.
//
// Example:
//
//	mux.Mount(drivekit.SchemeApp, memory.New())
//	mux.Mount(drivekit.SchemeRoot, s3Driver)
func (m *Mux) Mount(scheme Scheme, driver Driver) error {
	if driver == nil {
		return ErrNilDriver
	}
	switch scheme {
	case SchemeRoot, SchemeApp:
	default:
		return fmt.Errorf("%w: unknown scheme %q", ErrInvalidLocation, scheme)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[scheme]; exists {
		return fmt.Errorf("%w: %s", ErrMountExists, scheme)
	}
	m.mounts[scheme] = driver
	return nil
}

// Unmount removes the driver mounted for scheme.
func (m *Mux) Unmount(scheme Scheme) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.mounts[scheme]; !exists {
		return fmt.Errorf("%w: %s", ErrNotMounted, scheme)
	}
	delete(m.mounts, scheme)
	return nil
}

// Schemes returns the mounted schemes in sorted order.
func (m *Mux) Schemes() []Scheme {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Scheme, 0, len(m.mounts))
	for s := range m.mounts {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Mux) resolve(op string, req *Request) (Driver, error) {
	scheme := req.Location().Scheme

	m.mu.RLock()
	driver, ok := m.mounts[scheme]
	m.mu.RUnlock()

	if !ok {
		return nil, &PathError{Op: op, Path: req.Location().String(), Err: ErrNotMounted}
	}
	return driver, nil
}

// Write implements Driver
func (m *Mux) Write(ctx context.Context, req *Request) (ResourceID, error) {
	driver, err := m.resolve("write", req)
	if err != nil {
		return "", err
	}
	return driver.Write(ctx, req)
}

// Read implements Driver
func (m *Mux) Read(ctx context.Context, req *Request) (*ResultSet, error) {
	driver, err := m.resolve("read", req)
	if err != nil {
		return nil, err
	}
	return driver.Read(ctx, req)
}

var _ Driver = (*Mux)(nil)
