package directio

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/pattern"
)

// Reserved keys of input and output description attributes.
const (
	KeyBasePath        = "basePath"
	KeyResourcePattern = "resourcePattern"
	KeyModelType       = "modelType"
	KeyFormat          = "format"
	KeyFilter          = "filter"
	KeyOptional        = "optional"

	// KeyDeletePatternPrefix starts a family of keys, each holding one
	// pattern of resources deleted when the transaction is set up.
	KeyDeletePatternPrefix = "deletePattern."
)

// InputDescription describes one job input.
type InputDescription struct {
	BasePath        string
	ResourcePattern string
	ModelType       string
	Format          string

	// Filter is the optional filter identifier.
	Filter string

	// Optional inputs may resolve to no fragments without failing.
	Optional bool
}

// ParseInputDescription reads an InputDescription from attributes.
func ParseInputDescription(attrs map[string]string) (InputDescription, error) {
	d := InputDescription{
		BasePath:        attrs[KeyBasePath],
		ResourcePattern: attrs[KeyResourcePattern],
		ModelType:       attrs[KeyModelType],
		Format:          attrs[KeyFormat],
		Filter:          attrs[KeyFilter],
	}
	if err := requireKeys(attrs, KeyBasePath, KeyResourcePattern, KeyModelType, KeyFormat); err != nil {
		return InputDescription{}, err
	}
	if v, ok := attrs[KeyOptional]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return InputDescription{}, errors.WithContext(
				errors.Wrapf(err, errors.CodeInvalidConfig, "invalid %s value %q", KeyOptional, v),
				"key", KeyOptional,
			)
		}
		d.Optional = b
	}
	return d, nil
}

// Pattern compiles the resource pattern.
func (d InputDescription) Pattern() (*pattern.Pattern, error) {
	return pattern.Compile(d.ResourcePattern)
}

// Attributes renders the description as attributes.
func (d InputDescription) Attributes() map[string]string {
	attrs := map[string]string{
		KeyBasePath:        d.BasePath,
		KeyResourcePattern: d.ResourcePattern,
		KeyModelType:       d.ModelType,
		KeyFormat:          d.Format,
		KeyOptional:        strconv.FormatBool(d.Optional),
	}
	if d.Filter != "" {
		attrs[KeyFilter] = d.Filter
	}
	return attrs
}

// OutputDescription describes one job output.
type OutputDescription struct {
	BasePath        string
	ResourcePattern string
	ModelType       string
	Format          string

	// DeletePatterns maps each delete pattern key suffix to its pattern text.
	DeletePatterns map[string]string
}

// ParseOutputDescription reads an OutputDescription from attributes.
func ParseOutputDescription(attrs map[string]string) (OutputDescription, error) {
	if err := requireKeys(attrs, KeyBasePath, KeyResourcePattern, KeyModelType, KeyFormat); err != nil {
		return OutputDescription{}, err
	}
	d := OutputDescription{
		BasePath:        attrs[KeyBasePath],
		ResourcePattern: attrs[KeyResourcePattern],
		ModelType:       attrs[KeyModelType],
		Format:          attrs[KeyFormat],
	}
	for k, v := range attrs {
		if suffix, ok := strings.CutPrefix(k, KeyDeletePatternPrefix); ok && suffix != "" {
			if d.DeletePatterns == nil {
				d.DeletePatterns = map[string]string{}
			}
			d.DeletePatterns[suffix] = v
		}
	}
	return d, nil
}

// CompileDeletePatterns compiles the delete patterns ordered by key suffix.
func (d OutputDescription) CompileDeletePatterns() ([]*pattern.Pattern, error) {
	keys := make([]string, 0, len(d.DeletePatterns))
	for k := range d.DeletePatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*pattern.Pattern, 0, len(keys))
	for _, k := range keys {
		p, err := pattern.Compile(d.DeletePatterns[k])
		if err != nil {
			return nil, errors.WithContext(
				errors.Wrapf(err, errors.CodeInvalidConfig, "invalid delete pattern %q", k),
				"key", KeyDeletePatternPrefix+k,
			)
		}
		out = append(out, p)
	}
	return out, nil
}

// Attributes renders the description as attributes.
func (d OutputDescription) Attributes() map[string]string {
	attrs := map[string]string{
		KeyBasePath:        d.BasePath,
		KeyResourcePattern: d.ResourcePattern,
		KeyModelType:       d.ModelType,
		KeyFormat:          d.Format,
	}
	for k, v := range d.DeletePatterns {
		attrs[KeyDeletePatternPrefix+k] = v
	}
	return attrs
}

func requireKeys(attrs map[string]string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if strings.TrimSpace(attrs[k]) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidConfig, "missing required attributes %v", missing),
			"keys", missing,
		)
	}
	return nil
}
