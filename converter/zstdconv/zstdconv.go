// Package zstdconv compresses item content with zstd. It decorates the rest
// of the converter chain and only acts on methods tagged compress:"zstd":
//
//	Save func(name string, m Message) *drivekit.Call[drivekit.ResourceID] `create:"m/{name}" params:"path:name, body" compress:"zstd"`
package zstdconv

import (
	"context"
	"io"
	"reflect"

	"github.com/klauspost/compress/zstd"

	"github.com/gobeaver/drivekit"
)

const (
	// Tag is the method annotation key selecting compression.
	Tag = "compress"
	// Algorithm is the Tag value this package handles.
	Algorithm = "zstd"
	// EncodingProperty is the body property recording the content encoding.
	EncodingProperty = "content-encoding"
)

// Factory is a decorating drivekit.ConverterFactory. It must be registered
// before the factory that produces the uncompressed bytes.
type Factory struct {
	level zstd.EncoderLevel
}

// Option configures a Factory.
type Option func(*Factory)

// WithLevel sets the encoder level.
func WithLevel(level zstd.EncoderLevel) Option {
	return func(f *Factory) {
		f.level = level
	}
}

// New creates a zstd factory.
func New(opts ...Option) *Factory {
	f := &Factory{level: zstd.SpeedDefault}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func selected(annotations drivekit.Annotations) bool {
	v, ok := annotations.Get(Tag)
	return ok && v == Algorithm
}

// ResponseConverter delegates to the next factory with a result set whose
// content is decompressed on open.
func (f *Factory) ResponseConverter(typ reflect.Type, annotations drivekit.Annotations, c *drivekit.Client) drivekit.ResponseConverter {
	if !selected(annotations) {
		return nil
	}
	next, err := c.NextResponseConverter(f, typ, annotations)
	if err != nil {
		return nil
	}
	return drivekit.ConverterFunc[*drivekit.ResultSet, any](func(ctx context.Context, rs *drivekit.ResultSet) (any, error) {
		opener := rs.Opener
		if opener == nil {
			return next.Convert(ctx, rs)
		}
		decompressed := &drivekit.ResultSet{
			Items: rs.Items,
			Opener: drivekit.OpenerFunc(func(ctx context.Context, item drivekit.Item) (io.ReadCloser, error) {
				rc, err := opener.Open(ctx, item)
				if err != nil {
					return nil, err
				}
				dec, err := zstd.NewReader(rc)
				if err != nil {
					rc.Close()
					return nil, &drivekit.ConversionError{Type: typ, Err: err}
				}
				return &decoder{dec: dec, src: rc}, nil
			}),
		}
		return next.Convert(ctx, decompressed)
	})
}

// RequestBodyConverter delegates to the next factory and compresses the
// bytes it produces.
func (f *Factory) RequestBodyConverter(typ reflect.Type, paramAnnotations, methodAnnotations drivekit.Annotations, c *drivekit.Client) drivekit.RequestBodyConverter {
	if !selected(methodAnnotations) {
		return nil
	}
	next, err := c.NextRequestBodyConverter(f, typ, paramAnnotations, methodAnnotations)
	if err != nil {
		return nil
	}
	return drivekit.ConverterFunc[any, *drivekit.RequestBody](func(ctx context.Context, value any) (*drivekit.RequestBody, error) {
		body, err := next.Convert(ctx, value)
		if err != nil {
			return nil, err
		}
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(f.level))
		if err != nil {
			return nil, &drivekit.ConversionError{Type: typ, Err: err}
		}
		defer enc.Close()

		props := make(map[string]string, len(body.Metadata.Properties)+1)
		for k, v := range body.Metadata.Properties {
			props[k] = v
		}
		props[EncodingProperty] = Algorithm
		return drivekit.NewRequestBody(drivekit.Metadata{
			Description: body.Metadata.Description,
			Properties:  props,
		}, enc.EncodeAll(body.Bytes, nil)), nil
	})
}

// decoder closes both the zstd decoder and the underlying content.
type decoder struct {
	dec *zstd.Decoder
	src io.Closer
}

func (d *decoder) Read(p []byte) (int, error) {
	return d.dec.Read(p)
}

func (d *decoder) Close() error {
	d.dec.Close()
	return d.src.Close()
}

var _ drivekit.ConverterFactory = (*Factory)(nil)
