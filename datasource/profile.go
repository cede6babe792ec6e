package datasource

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
)

// Profile attribute keys.
const (
	KeyPath            = "fs.path"
	KeyTempDir         = "fs.tempdir"
	KeyOutputStaging   = "output.staging"
	KeyOutputStreaming = "output.streaming"
	KeyMinFragment     = "fragment.min"
	KeyPrefFragment    = "fragment.pref"
	KeySplitBlocks     = "block.split"
	KeyCombineBlocks   = "block.combine"
)

const (
	defaultTempSuffix   = "_directio_temp"
	defaultMinFragment  = 16 * 1024 * 1024
	defaultPrefFragment = 64 * 1024 * 1024
)

// extensionPrefixes are attribute namespaces consumed by factories rather
// than by the profile.
var extensionPrefixes = []string{"minio.", "local."}

// Profile is the parsed configuration of one data source. Root and TempDir
// are slash-separated paths inside the data source's filesystem.
type Profile struct {
	ID        string
	MountPath string
	Root      string
	TempDir   string

	// OutputStaging stages committed attempts until the transaction commits.
	// When false, attempt commit publishes directly.
	OutputStaging bool

	// OutputStreaming writes attempt output straight to the target
	// filesystem. When false, attempts write to local scratch space.
	OutputStreaming bool

	MinimumFragmentSize   int64
	PreferredFragmentSize int64
	SplitBlocks           bool
	CombineBlocks         bool
}

// ParseProfile reads a Profile from a descriptor. Unknown attributes are
// rejected.
func ParseProfile(d directio.Descriptor) (Profile, error) {
	attrs := make(map[string]string, len(d.Attributes))
	for k, v := range d.Attributes {
		if !hasExtensionPrefix(k) {
			attrs[k] = v
		}
	}

	p := Profile{ID: d.ID, MountPath: directio.NormalizePath(d.Path)}

	root, ok := take(attrs, KeyPath)
	if !ok {
		return Profile{}, invalid(d, "missing required attribute %q", KeyPath)
	}
	p.Root = directio.NormalizePath(root)

	if temp, ok := take(attrs, KeyTempDir); ok {
		p.TempDir = directio.NormalizePath(temp)
	} else {
		p.TempDir = directio.JoinPath(p.Root, defaultTempSuffix)
	}
	if p.TempDir == p.Root {
		return Profile{}, invalid(d, "%s must differ from %s", KeyTempDir, KeyPath)
	}

	var err error
	if p.OutputStaging, err = takeBool(d, attrs, KeyOutputStaging, true); err != nil {
		return Profile{}, err
	}
	if p.OutputStreaming, err = takeBool(d, attrs, KeyOutputStreaming, true); err != nil {
		return Profile{}, err
	}
	if p.SplitBlocks, err = takeBool(d, attrs, KeySplitBlocks, true); err != nil {
		return Profile{}, err
	}
	if p.CombineBlocks, err = takeBool(d, attrs, KeyCombineBlocks, true); err != nil {
		return Profile{}, err
	}

	if p.MinimumFragmentSize, err = takeInt(d, attrs, KeyMinFragment, defaultMinFragment); err != nil {
		return Profile{}, err
	}
	if p.MinimumFragmentSize == 0 {
		return Profile{}, invalid(d, "%s must not be zero", KeyMinFragment)
	}
	if p.MinimumFragmentSize < 0 {
		p.MinimumFragmentSize = directio.UnboundedSize
	}

	if p.PreferredFragmentSize, err = takeInt(d, attrs, KeyPrefFragment, defaultPrefFragment); err != nil {
		return Profile{}, err
	}
	if p.PreferredFragmentSize <= 0 {
		return Profile{}, invalid(d, "%s must be > 0", KeyPrefFragment)
	}

	if len(attrs) > 0 {
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Profile{}, invalid(d, "unknown attributes %v", keys)
	}
	return p, nil
}

// FragmentSizes returns the minimum and preferred fragment sizes for a
// format. A minimum of -1 means files must not be split.
func (p Profile) FragmentSizes(format directio.DataFormat) (minSize, prefSize int64) {
	minSize = min(format.MinimumFragmentSize(), p.MinimumFragmentSize)
	if minSize <= 0 {
		return directio.UnboundedSize, directio.UnboundedSize
	}
	if pref := format.PreferredFragmentSize(); pref > 0 {
		return minSize, max(pref, minSize)
	}
	return minSize, max(p.PreferredFragmentSize, minSize)
}

func hasExtensionPrefix(key string) bool {
	for _, prefix := range extensionPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func take(attrs map[string]string, key string) (string, bool) {
	v, ok := attrs[key]
	delete(attrs, key)
	return v, ok
}

func takeBool(d directio.Descriptor, attrs map[string]string, key string, def bool) (bool, error) {
	v, ok := take(attrs, key)
	if !ok {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, invalid(d, "%s must be boolean: %q", key, v)
}

func takeInt(d directio.Descriptor, attrs map[string]string, key string, def int64) (int64, error) {
	v, ok := take(attrs, key)
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, invalid(d, "%s must be an integer: %q", key, v)
	}
	return n, nil
}

func invalid(d directio.Descriptor, format string, args ...any) error {
	return errors.WithContextMap(
		errors.Newf(errors.CodeInvalidConfig, "data source %q: "+format, append([]any{d.ID}, args...)...),
		map[string]interface{}{"id": d.ID, "path": d.Path},
	)
}
