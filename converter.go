package drivekit

import (
	"context"
	"fmt"
	"reflect"
)

// Converter converts values between the raw backend representation and typed
// domain values.
type Converter[F, T any] interface {
	Convert(ctx context.Context, value F) (T, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc[F, T any] func(ctx context.Context, value F) (T, error)

// Convert implements Converter
func (f ConverterFunc[F, T]) Convert(ctx context.Context, value F) (T, error) {
	return f(ctx, value)
}

// ResponseConverter turns a read result into the method's result value.
type ResponseConverter = Converter[*ResultSet, any]

// RequestBodyConverter turns a body argument into a RequestBody.
type RequestBodyConverter = Converter[any, *RequestBody]

// ConverterFactory creates converters for a type and its annotation context.
// Returning nil means the factory does not handle the type; the chain then
// moves on to the next factory.
//
// Embed UnimplementedConverterFactory to implement only one side.
type ConverterFactory interface {
	ResponseConverter(typ reflect.Type, annotations Annotations, c *Client) ResponseConverter
	RequestBodyConverter(typ reflect.Type, paramAnnotations, methodAnnotations Annotations, c *Client) RequestBodyConverter
}

// UnimplementedConverterFactory handles nothing.
type UnimplementedConverterFactory struct{}

// ResponseConverter implements ConverterFactory
func (UnimplementedConverterFactory) ResponseConverter(reflect.Type, Annotations, *Client) ResponseConverter {
	return nil
}

// RequestBodyConverter implements ConverterFactory
func (UnimplementedConverterFactory) RequestBodyConverter(reflect.Type, Annotations, Annotations, *Client) RequestBodyConverter {
	return nil
}

// ResponseConverterFor erases a typed response conversion into the shape the
// chain works with.
func ResponseConverterFor[T any](fn func(ctx context.Context, rs *ResultSet) (T, error)) ResponseConverter {
	return ConverterFunc[*ResultSet, any](func(ctx context.Context, rs *ResultSet) (any, error) {
		v, err := fn(ctx, rs)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// RequestBodyConverterFor erases a typed body conversion. Arguments that are
// not a T fail with a ConversionError.
func RequestBodyConverterFor[T any](fn func(ctx context.Context, value T) (*RequestBody, error)) RequestBodyConverter {
	return ConverterFunc[any, *RequestBody](func(ctx context.Context, value any) (*RequestBody, error) {
		v, ok := value.(T)
		if !ok {
			return nil, &ConversionError{
				Type: reflect.TypeFor[T](),
				Err:  fmt.Errorf("%w: got %T", ErrResultType, value),
			}
		}
		return fn(ctx, v)
	})
}
