package drivekit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
)

// binder applies one method argument to a request under construction.
type binder interface {
	apply(rb *requestBuilder, arg reflect.Value) error
}

// requestBuilder accumulates the mutable state of a request being built.
// Path values are substituted into the template in one pass by build, so a
// value that looks like a placeholder is never expanded again.
type requestBuilder struct {
	template   string
	pathValues map[string]string
	body       *RequestBody
}

type pathBinder struct {
	method  string
	param   int
	name    string
	encoded bool
}

func (b *pathBinder) apply(rb *requestBuilder, arg reflect.Value) error {
	if isNil(arg) {
		return &MethodError{Method: b.method, Param: b.param, Msg: fmt.Sprintf("path parameter %q value must not be nil", b.name)}
	}
	value := fmt.Sprint(arg.Interface())
	if !b.encoded {
		value = url.PathEscape(value)
	}
	rb.pathValues[b.name] = value
	return nil
}

type bodyBinder struct {
	method    string
	param     int
	typ       reflect.Type
	converter RequestBodyConverter
}

func (b *bodyBinder) apply(rb *requestBuilder, arg reflect.Value) error {
	if isNil(arg) {
		return &MethodError{Method: b.method, Param: b.param, Msg: "body parameter value must not be nil"}
	}
	body, err := b.converter.Convert(context.Background(), arg.Interface())
	if err != nil {
		var ce *ConversionError
		if errors.As(err, &ce) {
			return err
		}
		return &ConversionError{Type: b.typ, Err: err}
	}
	rb.body = body
	return nil
}

// isNil reports whether v holds a nil pointer, interface, map, chan or func.
// Nil slices are empty content and pass.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

// toRequest binds args to a new Request.
func (p *Plan) toRequest(args []reflect.Value) (*Request, error) {
	if len(args) != len(p.binders) {
		return nil, &MethodError{
			Method: p.method,
			Msg:    fmt.Sprintf("argument count (%d) doesn't match expected count (%d)", len(args), len(p.binders)),
			Err:    ErrArgumentCount,
		}
	}
	rb := &requestBuilder{template: p.template, pathValues: make(map[string]string, len(p.placeholders))}
	for i, b := range p.binders {
		if err := b.apply(rb, args[i]); err != nil {
			return nil, err
		}
	}
	return p.build(rb)
}

func (p *Plan) build(rb *requestBuilder) (*Request, error) {
	path := paramURL.ReplaceAllStringFunc(rb.template, func(block string) string {
		if value, ok := rb.pathValues[block[1:len(block)-1]]; ok {
			return value
		}
		return block
	})
	loc, err := newLocation(p.scheme, path)
	if err != nil {
		return nil, &MethodError{Method: p.method, Msg: fmt.Sprintf("malformed path %q", path), Err: err}
	}
	req := NewRequest(p.operation, loc, rb.body, p.contentType)
	req.query = p.query
	return req, nil
}
