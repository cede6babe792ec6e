package directio

import (
	"fmt"

	"github.com/jmgilman/go/directio/errors"
)

// InputFragment is a contiguous byte range of a resource that can be opened
// independently of its siblings.
type InputFragment struct {
	path       string
	offset     int64
	length     int64
	owners     []string
	attributes map[string]string
}

// NewInputFragment creates an InputFragment. Owners are locality hints (node
// names) ordered by preference.
func NewInputFragment(path string, offset, length int64, owners []string, attributes map[string]string) (InputFragment, error) {
	if path == "" {
		return InputFragment{}, errors.New(errors.CodeInvalidInput, "fragment path must not be empty")
	}
	if offset < 0 || length < 0 {
		return InputFragment{}, errors.WithContextMap(
			errors.Newf(errors.CodeInvalidInput, "invalid fragment range offset=%d length=%d", offset, length),
			map[string]interface{}{"path": path},
		)
	}
	f := InputFragment{path: path, offset: offset, length: length}
	if len(owners) > 0 {
		f.owners = append([]string(nil), owners...)
	}
	if len(attributes) > 0 {
		f.attributes = make(map[string]string, len(attributes))
		for k, v := range attributes {
			f.attributes[k] = v
		}
	}
	return f, nil
}

// Path returns the resource path.
func (f InputFragment) Path() string { return f.path }

// Offset returns the first byte of the fragment.
func (f InputFragment) Offset() int64 { return f.offset }

// Length returns the number of bytes in the fragment.
func (f InputFragment) Length() int64 { return f.length }

// End returns the offset just past the fragment.
func (f InputFragment) End() int64 { return f.offset + f.length }

// Owners returns a copy of the locality hints.
func (f InputFragment) Owners() []string {
	return append([]string(nil), f.owners...)
}

// Attribute returns a fragment attribute.
func (f InputFragment) Attribute(key string) (string, bool) {
	v, ok := f.attributes[key]
	return v, ok
}

// Attributes returns a copy of the fragment attributes.
func (f InputFragment) Attributes() map[string]string {
	out := make(map[string]string, len(f.attributes))
	for k, v := range f.attributes {
		out[k] = v
	}
	return out
}

func (f InputFragment) String() string {
	return fmt.Sprintf("fragment(path=%s, offset=%d, length=%d, owners=%v)", f.path, f.offset, f.length, f.owners)
}
