package drivekit

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Operation is the kind of storage operation a method performs.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpRead   Operation = "READ"
	OpUpdate Operation = "UPDATE"
	OpDelete Operation = "DELETE"
)

// HasBody reports whether requests of this kind carry a body. It is fixed per
// kind: READ never does, every other kind does.
func (o Operation) HasBody() bool {
	return o != OpRead
}

// Scheme selects the storage root a location is resolved against.
type Scheme string

const (
	// SchemeRoot addresses the device root.
	SchemeRoot Scheme = "root"
	// SchemeApp addresses the application-private folder.
	SchemeApp Scheme = "app"
)

// Scope is the authorization scope a client is bound to.
type Scope string

const (
	// ScopeFile grants per-file access under the drive root.
	ScopeFile Scope = "https://www.googleapis.com/auth/drive.file"
	// ScopeAppFolder grants access to the application-private folder.
	ScopeAppFolder Scope = "https://www.googleapis.com/auth/drive.appdata"
)

// Scheme returns the storage root addressed under this scope.
func (s Scope) Scheme() Scheme {
	if s == ScopeAppFolder {
		return SchemeApp
	}
	return SchemeRoot
}

func (s Scope) valid() bool {
	return s == ScopeFile || s == ScopeAppFolder
}

// ParseScope maps the short names "app" and "file" (or a full scope URL) to a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "app", ScopeAppFolder:
		return ScopeAppFolder, nil
	case "file", ScopeFile:
		return ScopeFile, nil
	}
	return "", fmt.Errorf("%w: scope must be one of %s or %s, got %q", ErrInvalidScope, ScopeAppFolder, ScopeFile, s)
}

const locationPrefix = "drive://"

// DefaultContentType is the content type of requests whose method has no mime tag.
const DefaultContentType = "text/plain"

// Location is a hierarchical path under one storage root. Folder segments are
// resolved, and created on demand, by the driver; the last segment is the title.
// A Request keeps its own copy of Segments and hands out copies, so changing
// a Location never changes the request it came from.
type Location struct {
	Scheme   Scheme
	Segments []string
}

// ParseLocation parses the drive://<scheme>/<segment>/... form produced by String.
func ParseLocation(s string) (Location, error) {
	rest, ok := strings.CutPrefix(s, locationPrefix)
	if !ok {
		return Location{}, fmt.Errorf("%w: %q must start with %s", ErrInvalidLocation, s, locationPrefix)
	}
	scheme, p, _ := strings.Cut(rest, "/")
	switch Scheme(scheme) {
	case SchemeRoot, SchemeApp:
	default:
		return Location{}, fmt.Errorf("%w: the scheme must be one of `root` or `app`, got %q", ErrInvalidLocation, scheme)
	}
	return newLocation(Scheme(scheme), p)
}

// newLocation splits an escaped path into decoded segments.
func newLocation(scheme Scheme, escaped string) (Location, error) {
	escaped = strings.Trim(escaped, "/")
	if escaped == "" {
		return Location{}, fmt.Errorf("%w: path has no title segment", ErrInvalidLocation)
	}
	parts := strings.Split(escaped, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		seg, err := url.PathUnescape(part)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
		}
		if seg == "" || seg == "." || seg == ".." {
			return Location{}, fmt.Errorf("%w: bad segment %q in %q", ErrInvalidLocation, seg, escaped)
		}
		segments = append(segments, seg)
	}
	return Location{Scheme: scheme, Segments: segments}, nil
}

// Title returns the last segment.
func (l Location) Title() string {
	if len(l.Segments) == 0 {
		return ""
	}
	return l.Segments[len(l.Segments)-1]
}

// Folder returns every segment but the last.
func (l Location) Folder() []string {
	if len(l.Segments) == 0 {
		return nil
	}
	return l.Segments[:len(l.Segments)-1]
}

func (l Location) String() string {
	escaped := make([]string, len(l.Segments))
	for i, seg := range l.Segments {
		escaped[i] = url.PathEscape(seg)
	}
	return locationPrefix + string(l.Scheme) + "/" + strings.Join(escaped, "/")
}

// Metadata is the backend write metadata carried by a RequestBody.
type Metadata struct {
	Description string
	Properties  map[string]string
}

// RequestBody is the converted payload of a write. It is produced by a request
// body converter and consumed only by the driver.
type RequestBody struct {
	Bytes    []byte
	Metadata Metadata
}

// NewRequestBody creates a RequestBody.
func NewRequestBody(metadata Metadata, data []byte) *RequestBody {
	return &RequestBody{Bytes: data, Metadata: metadata}
}

// Request is a built, immutable storage request.
type Request struct {
	location    Location
	operation   Operation
	body        *RequestBody
	contentType string
	query       url.Values
}

// NewRequest creates a Request. An empty content type means DefaultContentType.
func NewRequest(op Operation, loc Location, body *RequestBody, contentType string) *Request {
	if contentType == "" {
		contentType = DefaultContentType
	}
	loc.Segments = slices.Clone(loc.Segments)
	return &Request{location: loc, operation: op, body: body, contentType: contentType}
}

// WithQuery returns a copy of r carrying the static query q.
func (r *Request) WithQuery(q url.Values) *Request {
	cp := *r
	cp.query = q
	return &cp
}

// Location returns a copy of the target location.
func (r *Request) Location() Location {
	loc := r.location
	loc.Segments = slices.Clone(loc.Segments)
	return loc
}

// Operation returns the operation kind.
func (r *Request) Operation() Operation { return r.operation }

// Body returns the request body, nil for bodiless requests.
func (r *Request) Body() *RequestBody { return r.body }

// ContentType returns the content-type tag items are stored and matched under.
func (r *Request) ContentType() string { return r.contentType }

// Query returns the value of a static query parameter from the path template.
func (r *Request) Query(key string) string { return r.query.Get(key) }

// ExactMatch reports whether reads should match titles exactly rather than by substring.
func (r *Request) ExactMatch() bool { return r.query.Get("match") == "exact" }

func (r *Request) String() string {
	return fmt.Sprintf("%s %s (%s)", r.operation, r.location, r.contentType)
}
