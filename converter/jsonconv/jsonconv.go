// Package jsonconv converts structs, maps and slices to and from JSON item
// content.
//
//	client, err := drivekit.NewBuilder(driver).
//		BaseScope(drivekit.ScopeAppFolder).
//		AddConverterFactory(jsonconv.New()).
//		Build()
package jsonconv

import (
	"context"
	"reflect"

	"github.com/goccy/go-json"

	"github.com/gobeaver/drivekit"
)

// ContentType is the content-type property set on JSON request bodies.
const ContentType = "application/json"

// Factory is a drivekit.ConverterFactory for JSON.
type Factory struct {
	prefix string
	indent string
}

// Option configures a Factory.
type Option func(*Factory)

// WithIndent makes request bodies indented, as json.MarshalIndent does.
func WithIndent(prefix, indent string) Option {
	return func(f *Factory) {
		f.prefix = prefix
		f.indent = indent
	}
}

// New creates a JSON converter factory.
func New(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// passthrough are the drivekit types the built-in converters own.
var passthrough = map[reflect.Type]bool{
	reflect.TypeFor[[]drivekit.Item]():       true,
	reflect.TypeFor[*drivekit.ResultSet]():   true,
	reflect.TypeFor[*drivekit.RequestBody](): true,
}

// handles reports whether typ is converted as JSON. Byte slices are raw
// content and left to other factories.
func handles(typ reflect.Type) bool {
	if typ == nil || passthrough[typ] {
		return false
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Slice:
		return typ.Elem().Kind() != reflect.Uint8
	}
	return false
}

// ResponseConverter decodes the first item's content into a fresh typ. An
// empty result set converts to nil.
func (f *Factory) ResponseConverter(typ reflect.Type, _ drivekit.Annotations, _ *drivekit.Client) drivekit.ResponseConverter {
	if !handles(typ) {
		return nil
	}
	return drivekit.ConverterFunc[*drivekit.ResultSet, any](func(ctx context.Context, rs *drivekit.ResultSet) (any, error) {
		data, ok, err := rs.ReadFirst(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		if typ.Kind() == reflect.Pointer {
			v := reflect.New(typ.Elem())
			if err := json.Unmarshal(data, v.Interface()); err != nil {
				return nil, &drivekit.ConversionError{Type: typ, Err: err}
			}
			return v.Interface(), nil
		}
		v := reflect.New(typ)
		if err := json.Unmarshal(data, v.Interface()); err != nil {
			return nil, &drivekit.ConversionError{Type: typ, Err: err}
		}
		return v.Elem().Interface(), nil
	})
}

// RequestBodyConverter encodes the argument as JSON.
func (f *Factory) RequestBodyConverter(typ reflect.Type, _, _ drivekit.Annotations, _ *drivekit.Client) drivekit.RequestBodyConverter {
	if !handles(typ) {
		return nil
	}
	return drivekit.ConverterFunc[any, *drivekit.RequestBody](func(_ context.Context, value any) (*drivekit.RequestBody, error) {
		var data []byte
		var err error
		if f.indent != "" || f.prefix != "" {
			data, err = json.MarshalIndent(value, f.prefix, f.indent)
		} else {
			data, err = json.Marshal(value)
		}
		if err != nil {
			return nil, &drivekit.ConversionError{Type: typ, Err: err}
		}
		return drivekit.NewRequestBody(drivekit.Metadata{
			Properties: map[string]string{"content-type": ContentType},
		}, data), nil
	})
}

var _ drivekit.ConverterFactory = (*Factory)(nil)
