package config

import (
	"sort"
	"strings"

	"github.com/jmgilman/go/directio/errors"
	"github.com/magiconair/properties"
)

// Flat property keys.
const (
	// PropertyPrefix starts every data source key.
	PropertyPrefix = "directio."

	// KeySystemDir sets Config.SystemDir.
	KeySystemDir = "directio-system.dir"

	keyPath = "path"
)

// FromProperties reads a configuration from flat properties. For each data
// source id, "directio.<id>" names the kind, "directio.<id>.path" the mount
// path, and every other "directio.<id>.<key>" becomes an attribute. Keys
// outside the prefix are ignored.
func FromProperties(props map[string]string) (Config, error) {
	cfg := Config{SystemDir: strings.TrimSpace(props[KeySystemDir])}

	kinds := map[string]string{}
	attrs := map[string]map[string]string{}
	for key, value := range props {
		rest, ok := strings.CutPrefix(key, PropertyPrefix)
		if !ok || rest == "" {
			continue
		}
		id, attr, nested := strings.Cut(rest, ".")
		if !nested {
			kinds[id] = strings.TrimSpace(value)
			continue
		}
		if attrs[id] == nil {
			attrs[id] = map[string]string{}
		}
		attrs[id][attr] = value
	}

	ids := make([]string, 0, len(kinds))
	for id := range kinds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for id := range attrs {
		if _, ok := kinds[id]; !ok {
			return Config{}, errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "missing I/O configuration: %s%s", PropertyPrefix, id),
				"id", id,
			)
		}
	}

	for _, id := range ids {
		a := attrs[id]
		path, ok := a[keyPath]
		if !ok {
			return Config{}, errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "missing I/O configuration: %s%s.%s", PropertyPrefix, id, keyPath),
				"id", id,
			)
		}
		delete(a, keyPath)
		cfg.DataSources = append(cfg.DataSources, DataSource{
			ID:         id,
			Kind:       kinds[id],
			Path:       path,
			Attributes: a,
		})
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseProperties parses a Java style properties document and reads the
// configuration from it. Values are taken literally.
func ParseProperties(data []byte) (Config, error) {
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse properties")
	}
	return FromProperties(p.Map())
}
