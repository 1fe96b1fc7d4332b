package drivekit

import (
	"context"
	"reflect"
)

var (
	resourceIDType  = reflect.TypeFor[ResourceID]()
	bytesType       = reflect.TypeFor[[]byte]()
	stringType      = reflect.TypeFor[string]()
	resultSetType   = reflect.TypeFor[*ResultSet]()
	itemsType       = reflect.TypeFor[[]Item]()
	requestBodyType = reflect.TypeFor[*RequestBody]()
)

// builtinFactory converts the types every client understands. It is always
// the last factory in the chain.
type builtinFactory struct{}

func (builtinFactory) ResponseConverter(typ reflect.Type, _ Annotations, _ *Client) ResponseConverter {
	switch typ {
	case resourceIDType:
		return ResponseConverterFor(func(_ context.Context, rs *ResultSet) (ResourceID, error) {
			item, _ := rs.First()
			return item.ID, nil
		})
	case bytesType:
		return ResponseConverterFor(func(ctx context.Context, rs *ResultSet) ([]byte, error) {
			data, _, err := rs.ReadFirst(ctx)
			return data, err
		})
	case stringType:
		return ResponseConverterFor(func(ctx context.Context, rs *ResultSet) (string, error) {
			data, _, err := rs.ReadFirst(ctx)
			return string(data), err
		})
	case resultSetType:
		return ResponseConverterFor(func(_ context.Context, rs *ResultSet) (*ResultSet, error) {
			return rs, nil
		})
	case itemsType:
		return ResponseConverterFor(func(_ context.Context, rs *ResultSet) ([]Item, error) {
			return rs.Items, nil
		})
	}
	return nil
}

func (builtinFactory) RequestBodyConverter(typ reflect.Type, _, _ Annotations, _ *Client) RequestBodyConverter {
	switch typ {
	case bytesType:
		return RequestBodyConverterFor(func(_ context.Context, data []byte) (*RequestBody, error) {
			return NewRequestBody(Metadata{}, data), nil
		})
	case stringType:
		return RequestBodyConverterFor(func(_ context.Context, s string) (*RequestBody, error) {
			return NewRequestBody(Metadata{}, []byte(s)), nil
		})
	case requestBodyType:
		return RequestBodyConverterFor(func(_ context.Context, body *RequestBody) (*RequestBody, error) {
			return body, nil
		})
	}
	return nil
}
