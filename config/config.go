package config

import (
	"strings"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/repository"
)

// DefaultSystemDir is the system directory used when none is configured.
const DefaultSystemDir = "_directio_system"

// Config lists the data sources of a repository.
type Config struct {
	// SystemDir is the local directory holding transaction records.
	SystemDir string `json:"systemDir,omitempty" yaml:"systemDir,omitempty"`

	DataSources []DataSource `json:"dataSources" yaml:"dataSources"`
}

// DataSource configures one data source.
type DataSource struct {
	ID         string            `json:"id" yaml:"id"`
	Kind       string            `json:"kind" yaml:"kind"`
	Path       string            `json:"path" yaml:"path"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Validate checks that ids are present and unique, that every data source
// names a kind, and that no two data sources share a mount path.
func (c Config) Validate() error {
	ids := map[string]bool{}
	paths := map[string]string{}
	for _, ds := range c.DataSources {
		if ds.ID == "" || strings.Contains(ds.ID, ".") {
			return errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "invalid data source id %q", ds.ID),
				"id", ds.ID,
			)
		}
		if ids[ds.ID] {
			return errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "data source %q is defined twice", ds.ID),
				"id", ds.ID,
			)
		}
		ids[ds.ID] = true
		if ds.Kind == "" {
			return errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "data source %q has no kind", ds.ID),
				"id", ds.ID,
			)
		}
		path := directio.NormalizePath(ds.Path)
		if other, ok := paths[path]; ok {
			return errors.WithContextMap(
				errors.Newf(errors.CodeInvalidConfig, "path mapping is duplicated: %q (%s <=> %s)", "/"+path, ds.ID, other),
				map[string]interface{}{"path": path, "ids": []string{other, ds.ID}},
			)
		}
		paths[path] = ds.ID
	}
	return nil
}

// Descriptors converts the configuration into repository descriptors.
func (c Config) Descriptors() []directio.Descriptor {
	out := make([]directio.Descriptor, len(c.DataSources))
	for i, ds := range c.DataSources {
		attrs := make(map[string]string, len(ds.Attributes))
		for k, v := range ds.Attributes {
			attrs[k] = v
		}
		out[i] = directio.Descriptor{ID: ds.ID, Kind: ds.Kind, Path: ds.Path, Attributes: attrs}
	}
	return out
}

// Repository validates the configuration and builds a repository from it.
func (c Config) Repository(opts ...repository.Option) (*repository.Repository, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return repository.New(c.Descriptors(), opts...)
}

// SystemDirOrDefault returns SystemDir, or DefaultSystemDir when unset.
func (c Config) SystemDirOrDefault() string {
	if c.SystemDir == "" {
		return DefaultSystemDir
	}
	return c.SystemDir
}
