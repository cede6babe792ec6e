package directio

import (
	"context"
	"sort"
	"strings"
)

// Descriptor registers one data source on a mount path.
type Descriptor struct {
	// ID uniquely names the data source.
	ID string

	// Kind selects the Factory that instantiates the data source.
	Kind string

	// Path is the logical mount path.
	Path string

	// Attributes configure the data source.
	Attributes map[string]string
}

// Attribute returns an attribute value or def when unset.
func (d Descriptor) Attribute(key, def string) string {
	if v, ok := d.Attributes[key]; ok {
		return v
	}
	return def
}

// AttributeKeys returns the attribute keys in sorted order.
func (d Descriptor) AttributeKeys() []string {
	keys := make([]string, 0, len(d.Attributes))
	for k := range d.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Factory instantiates a data source. It may perform I/O.
type Factory func(ctx context.Context, d Descriptor) (DataSource, error)

// Segments splits a logical path into its non-empty segments.
func Segments(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

// NormalizePath removes leading, trailing and repeated separators.
func NormalizePath(path string) string {
	return strings.Join(Segments(path), "/")
}

// JoinPath joins path elements and normalizes the result.
func JoinPath(elems ...string) string {
	var segs []string
	for _, e := range elems {
		segs = append(segs, Segments(e)...)
	}
	return strings.Join(segs, "/")
}
