package drivekit

import (
	"fmt"
	"reflect"
)

// ResponseConverter returns the first response converter in the chain that
// handles typ.
func (c *Client) ResponseConverter(typ reflect.Type, annotations Annotations) (ResponseConverter, error) {
	return c.NextResponseConverter(nil, typ, annotations)
}

// NextResponseConverter is like ResponseConverter but starts the walk after
// skipPast. Decorating factories pass themselves to delegate to the rest of
// the chain. Factories are matched by identity, so skipPast must be the value
// that was registered; any other non-nil value fails with ErrUnknownFactory.
func (c *Client) NextResponseConverter(skipPast ConverterFactory, typ reflect.Type, annotations Annotations) (ResponseConverter, error) {
	start, err := c.startAfter(skipPast)
	if err != nil {
		return nil, err
	}
	for i := start; i < len(c.factories); i++ {
		if conv := c.factories[i].ResponseConverter(typ, annotations, c); conv != nil {
			return conv, nil
		}
	}
	return nil, c.resolutionError("ResponseBody", typ, skipPast, start)
}

// RequestBodyConverter returns the first request body converter in the chain
// that handles typ.
func (c *Client) RequestBodyConverter(typ reflect.Type, paramAnnotations, methodAnnotations Annotations) (RequestBodyConverter, error) {
	return c.NextRequestBodyConverter(nil, typ, paramAnnotations, methodAnnotations)
}

// NextRequestBodyConverter is like RequestBodyConverter but starts the walk
// after skipPast.
func (c *Client) NextRequestBodyConverter(skipPast ConverterFactory, typ reflect.Type, paramAnnotations, methodAnnotations Annotations) (RequestBodyConverter, error) {
	start, err := c.startAfter(skipPast)
	if err != nil {
		return nil, err
	}
	for i := start; i < len(c.factories); i++ {
		if conv := c.factories[i].RequestBodyConverter(typ, paramAnnotations, methodAnnotations, c); conv != nil {
			return conv, nil
		}
	}
	return nil, c.resolutionError("RequestBody", typ, skipPast, start)
}

// ConverterFactories returns a copy of the converter chain in resolution order.
func (c *Client) ConverterFactories() []ConverterFactory {
	out := make([]ConverterFactory, len(c.factories))
	copy(out, c.factories)
	return out
}

// startAfter returns the chain position following skipPast. A nil skipPast
// starts at the head of the chain.
func (c *Client) startAfter(skipPast ConverterFactory) (int, error) {
	if skipPast == nil {
		return 0, nil
	}
	i := c.factoryIndex(skipPast)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownFactory, factoryName(skipPast))
	}
	return i + 1, nil
}

// factoryIndex returns the position of f in the chain, or -1.
func (c *Client) factoryIndex(f ConverterFactory) int {
	if f == nil {
		return -1
	}
	for i, candidate := range c.factories {
		if sameFactory(candidate, f) {
			return i
		}
	}
	return -1
}

// sameFactory compares factories by identity. Factories of uncomparable
// dynamic types never match.
func sameFactory(a, b ConverterFactory) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func (c *Client) resolutionError(kind string, typ reflect.Type, skipPast ConverterFactory, start int) error {
	err := &ResolutionError{Kind: kind, Type: typ}
	if skipPast != nil {
		err.Skipped = make([]string, 0, start)
		for _, f := range c.factories[:start] {
			err.Skipped = append(err.Skipped, factoryName(f))
		}
	}
	err.Tried = make([]string, 0, len(c.factories)-start)
	for _, f := range c.factories[start:] {
		err.Tried = append(err.Tried, factoryName(f))
	}
	return err
}

func factoryName(f ConverterFactory) string {
	return fmt.Sprintf("%T", f)
}
