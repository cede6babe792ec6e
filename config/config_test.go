package config

import (
	"context"
	"testing"

	"github.com/jmgilman/go/directio/datasource"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/billy"
	"github.com/jmgilman/go/directio/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var want = Config{
	SystemDir: "/var/lib/directio",
	DataSources: []DataSource{
		{ID: "archive", Kind: "memory", Path: "out/archive", Attributes: map[string]string{"fs.path": "/a"}},
		{ID: "main", Kind: "local", Path: "/", Attributes: map[string]string{"fs.path": "/var/data", "output.staging": "false"}},
	},
}

func TestFromProperties(t *testing.T) {
	cfg, err := FromProperties(map[string]string{
		KeySystemDir:                   "/var/lib/directio",
		"directio.main":                "local",
		"directio.main.path":           "/",
		"directio.main.fs.path":        "/var/data",
		"directio.main.output.staging": "false",
		"directio.archive":             "memory",
		"directio.archive.path":        "out/archive",
		"directio.archive.fs.path":     "/a",
		"unrelated.key":                "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, want, cfg)
}

func TestFromProperties_Errors(t *testing.T) {
	tests := []struct {
		name    string
		props   map[string]string
		wantMsg string
	}{
		{
			name:    "missing path",
			props:   map[string]string{"directio.a": "local"},
			wantMsg: "directio.a.path",
		},
		{
			name:    "missing kind",
			props:   map[string]string{"directio.a.path": "x"},
			wantMsg: "directio.a",
		},
		{
			name: "duplicated path",
			props: map[string]string{
				"directio.a": "local", "directio.a.path": "/x/",
				"directio.b": "local", "directio.b.path": "x",
			},
			wantMsg: "duplicated",
		},
		{
			name:    "empty kind",
			props:   map[string]string{"directio.a": " ", "directio.a.path": "x"},
			wantMsg: "no kind",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromProperties(tt.props)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

const propertiesDoc = `
# repository
directio-system.dir = /var/lib/directio
directio.main = local
directio.main.path = /
directio.main.fs.path = /var/data
directio.main.output.staging = false
directio.archive = memory
directio.archive.path = out/archive
directio.archive.fs.path = /a
`

const yamlDoc = `
systemDir: /var/lib/directio
dataSources:
  - id: archive
    kind: memory
    path: out/archive
    attributes:
      fs.path: /a
  - id: main
    kind: local
    path: /
    attributes:
      fs.path: /var/data
      output.staging: "false"
`

const cueDoc = `
systemDir: "/var/lib/directio"
dataSources: [
	{id: "archive", kind: "memory", path: "out/archive", attributes: {"fs.path": "/a"}},
	{
		id:   "main"
		kind: "local"
		path: "/"
		attributes: {
			"fs.path":        "/var/data"
			"output.staging": "false"
		}
	},
]
`

func TestLoad(t *testing.T) {
	ctx := context.Background()
	fsys := billy.NewMemory()
	require.NoError(t, fsys.WriteFile("conf/directio.properties", []byte(propertiesDoc), 0o644))
	require.NoError(t, fsys.WriteFile("conf/directio.yaml", []byte(yamlDoc), 0o644))
	require.NoError(t, fsys.WriteFile("conf/directio.cue", []byte(cueDoc), 0o644))

	for _, name := range []string{"conf/directio.properties", "conf/directio.yaml", "conf/directio.cue"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(ctx, fsys, name)
			require.NoError(t, err)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()
	fsys := billy.NewMemory()
	files := map[string]string{
		"bad.toml":        "a = 1",
		"unknown.yaml":    "dataSources: []\ncolour: red\n",
		"duplicate.yaml":  "dataSources: [{id: a, kind: local, path: x}, {id: b, kind: local, path: /x}]\n",
		"syntax.cue":      "dataSources: [",
		"schema.cue":      `dataSources: [{id: "a.b", kind: "local", path: "x"}]`,
		"extra.cue":       `dataSources: [{id: "a", kind: "local", path: "x", colour: "red"}]`,
		"incomplete.cue":  `dataSources: [{id: "a", path: "x"}]`,
		"bad.properties":  "directio.a = local\n",
		"duplicateid.cue": `dataSources: [{id: "a", kind: "local", path: "x"}, {id: "a", kind: "local", path: "y"}]`,
	}
	for name, content := range files {
		require.NoError(t, fsys.WriteFile(name, []byte(content), 0o644))
	}

	for name := range files {
		t.Run(name, func(t *testing.T) {
			_, err := Load(ctx, fsys, name)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
		})
	}

	_, err := Load(ctx, fsys, "missing.yaml")
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Load(canceled, fsys, "unknown.yaml")
	assert.True(t, errors.IsInterrupted(err))
}

func TestConfig_Repository(t *testing.T) {
	cfg, err := LoadYAML([]byte(`
dataSources:
  - id: main
    kind: memory
    path: /
    attributes: {fs.path: /}
  - id: raw
    kind: memory
    path: in/raw
    attributes: {fs.path: /}
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemDir, cfg.SystemDirOrDefault())

	repo, err := cfg.Repository(repository.WithFactories(datasource.Factories(nil)))
	require.NoError(t, err)
	d, err := repo.Resolve("in/raw/2024")
	require.NoError(t, err)
	assert.Equal(t, "raw", d.ID)
	d, err = repo.Resolve("out")
	require.NoError(t, err)
	assert.Equal(t, "main", d.ID)

	ds, err := repo.DataSource(context.Background(), "in/raw")
	require.NoError(t, err)
	assert.NotNil(t, ds)
}
