package config

import (
	"bytes"
	"context"
	"path"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/core"
	"gopkg.in/yaml.v3"
)

// schema constrains CUE configuration documents.
const schema = `
#DataSource: {
	id:   =~"^[^.]+$"
	kind: string & !=""
	path: *"" | string
	attributes?: [string]: string
}

systemDir?: string
dataSources: [...#DataSource]
`

// Load reads a configuration file from fsys. The format is chosen by
// extension: .yaml or .yml, .cue, or .properties.
func Load(ctx context.Context, fsys core.ReadFS, name string) (Config, error) {
	if err := errors.CheckContext(ctx, "load configuration"); err != nil {
		return Config{}, err
	}
	data, err := fsys.ReadFile(name)
	if err != nil {
		return Config{}, errors.WithContext(
			errors.Wrapf(err, errors.CodeInvalidConfig, "failed to read configuration %q", name),
			"file", name,
		)
	}
	switch ext := path.Ext(name); ext {
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".cue":
		return LoadCUE(ctx, data, name)
	case ".properties":
		return ParseProperties(data)
	default:
		return Config{}, errors.WithContext(
			errors.Newf(errors.CodeInvalidConfig, "unsupported configuration format %q", ext),
			"file", name,
		)
	}
}

// LoadYAML decodes a YAML configuration. Unknown fields are rejected.
func LoadYAML(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode YAML configuration")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadCUE compiles a CUE configuration, unifies it with the configuration
// schema, and decodes the result.
func LoadCUE(ctx context.Context, data []byte, filename string) (Config, error) {
	if err := errors.CheckContext(ctx, "load configuration"); err != nil {
		return Config{}, err
	}
	if filename == "" {
		filename = "<input>"
	}
	cueCtx := cuecontext.New()
	s := cueCtx.CompileString(schema, cue.Filename("schema.cue"))
	if err := s.Err(); err != nil {
		return Config{}, errors.Wrap(err, errors.CodeInternal, "invalid configuration schema")
	}

	val := cueCtx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return Config{}, cueError(err, "failed to compile CUE configuration", filename)
	}
	unified := s.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, cueError(err, "CUE configuration does not match schema", filename)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, cueError(err, "failed to decode CUE configuration", filename)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func cueError(err error, msg, filename string) error {
	return errors.WithContextMap(
		errors.Wrap(err, errors.CodeInvalidConfig, msg),
		map[string]interface{}{
			"file":    filename,
			"details": cueerrors.Details(err, nil),
		},
	)
}
