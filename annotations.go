package drivekit

import (
	"fmt"
	"strings"

	"github.com/fatih/structtag"
)

// Annotation is one piece of declarative metadata on a method or parameter.
type Annotation struct {
	Key   string
	Value string
}

// Annotations is an ordered annotation list.
type Annotations []Annotation

// Get returns the value of the first annotation with key.
func (a Annotations) Get(key string) (string, bool) {
	for _, an := range a {
		if an.Key == key {
			return an.Value, true
		}
	}
	return "", false
}

// Has reports whether an annotation with key is present.
func (a Annotations) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Method tag keys.
const (
	tagCreate   = "create"
	tagRead     = "read"
	tagUpdate   = "update"
	tagDelete   = "delete"
	tagParams   = "params"
	tagMime     = "mime"
	tagEncoding = "encoding"
)

// Parameter annotation keys.
const (
	paramPath = "path"
	paramBody = "body"
)

var operationTags = map[string]Operation{
	tagCreate: OpCreate,
	tagRead:   OpRead,
	tagUpdate: OpUpdate,
	tagDelete: OpDelete,
}

// parseMethodAnnotations turns a struct field tag into method annotations, in
// declaration order.
func parseMethodAnnotations(tag string) (Annotations, error) {
	tags, err := structtag.Parse(tag)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		return nil, nil
	}
	out := make(Annotations, 0, tags.Len())
	for _, t := range tags.Tags() {
		out = append(out, Annotation{Key: t.Key, Value: t.Value()})
	}
	return out, nil
}

// parseParamAnnotations splits a params tag into per-parameter annotation
// lists. Entries are comma separated; within an entry annotations are
// separated by whitespace and written key[:value].
func parseParamAnnotations(value string, count int) ([]Annotations, error) {
	out := make([]Annotations, count)
	if strings.TrimSpace(value) == "" {
		return out, nil
	}
	entries := strings.Split(value, ",")
	if len(entries) > count {
		return nil, fmt.Errorf("params tag declares %d parameters but the method has %d", len(entries), count)
	}
	for i, entry := range entries {
		for _, word := range strings.Fields(entry) {
			key, val, _ := strings.Cut(word, ":")
			out[i] = append(out[i], Annotation{Key: key, Value: val})
		}
	}
	return out, nil
}
