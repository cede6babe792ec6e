package datasource

import (
	"context"
	"testing"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(attrs map[string]string) directio.Descriptor {
	return directio.Descriptor{ID: "ds", Kind: KindMemory, Path: "/out/", Attributes: attrs}
}

func TestParseProfile_Defaults(t *testing.T) {
	p, err := ParseProfile(descriptor(map[string]string{KeyPath: "/data/root/"}))
	require.NoError(t, err)

	assert.Equal(t, Profile{
		ID:                    "ds",
		MountPath:             "out",
		Root:                  "data/root",
		TempDir:               "data/root/_directio_temp",
		OutputStaging:         true,
		OutputStreaming:       true,
		MinimumFragmentSize:   16 * 1024 * 1024,
		PreferredFragmentSize: 64 * 1024 * 1024,
		SplitBlocks:           true,
		CombineBlocks:         true,
	}, p)
}

func TestParseProfile_Overrides(t *testing.T) {
	p, err := ParseProfile(descriptor(map[string]string{
		KeyPath:            "data",
		KeyTempDir:         "/scratch",
		KeyOutputStaging:   "FALSE",
		KeyOutputStreaming: "false",
		KeyMinFragment:     "-5",
		KeyPrefFragment:    "1024",
		KeySplitBlocks:     "false",
		KeyCombineBlocks:   "true",
		KeyMinioBucket:     "ignored",
		KeyLocalTempDir:    "/tmp",
	}))
	require.NoError(t, err)

	assert.Equal(t, "scratch", p.TempDir)
	assert.False(t, p.OutputStaging)
	assert.False(t, p.OutputStreaming)
	assert.Equal(t, directio.UnboundedSize, p.MinimumFragmentSize)
	assert.Equal(t, int64(1024), p.PreferredFragmentSize)
	assert.False(t, p.SplitBlocks)
	assert.True(t, p.CombineBlocks)
}

func TestParseProfile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		attrs   map[string]string
		wantMsg string
	}{
		{"missing path", map[string]string{}, KeyPath},
		{"unknown attribute", map[string]string{KeyPath: "d", "fs.colour": "red"}, "fs.colour"},
		{"bad boolean", map[string]string{KeyPath: "d", KeyOutputStaging: "yes"}, KeyOutputStaging},
		{"bad integer", map[string]string{KeyPath: "d", KeyMinFragment: "big"}, KeyMinFragment},
		{"zero minimum", map[string]string{KeyPath: "d", KeyMinFragment: "0"}, "must not be zero"},
		{"non-positive preferred", map[string]string{KeyPath: "d", KeyPrefFragment: "0"}, KeyPrefFragment},
		{"temp equals root", map[string]string{KeyPath: "d", KeyTempDir: "/d/"}, KeyTempDir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile(descriptor(tt.attrs))
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestProfile_FragmentSizes(t *testing.T) {
	profile := Profile{MinimumFragmentSize: 100, PreferredFragmentSize: 1000}

	tests := []struct {
		name     string
		profile  Profile
		format   lineFormat
		wantMin  int64
		wantPref int64
	}{
		{"profile wins", profile, lineFormat{min: 500, pref: -1}, 100, 1000},
		{"format minimum smaller", profile, lineFormat{min: 10, pref: -1}, 10, 1000},
		{"format preferred", profile, lineFormat{min: 500, pref: 300}, 100, 300},
		{"preferred raised to minimum", profile, lineFormat{min: 500, pref: 50}, 100, 100},
		{"unsplittable format", profile, lineFormat{min: -1, pref: 300}, -1, -1},
		{"unsplittable profile", Profile{MinimumFragmentSize: -1, PreferredFragmentSize: 1000}, lineFormat{min: 10}, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotPref := tt.profile.FragmentSizes(tt.format)
			assert.Equal(t, tt.wantMin, gotMin)
			assert.Equal(t, tt.wantPref, gotPref)
		})
	}
}

type fragmentShape struct {
	offset, length int64
	hosts          []string
}

func shapes(fragments []directio.InputFragment) []fragmentShape {
	out := make([]fragmentShape, len(fragments))
	for i, f := range fragments {
		out[i] = fragmentShape{offset: f.Offset(), length: f.Length(), hosts: f.Owners()}
	}
	return out
}

func TestFragmentComputer(t *testing.T) {
	threeBlocks := []core.BlockLocation{
		{Offset: 0, Length: 100, Hosts: []string{"h1"}},
		{Offset: 100, Length: 100, Hosts: []string{"h2"}},
		{Offset: 200, Length: 50, Hosts: []string{"h3"}},
	}

	tests := []struct {
		name     string
		computer FragmentComputer
		size     int64
		blocks   []core.BlockLocation
		want     []fragmentShape
	}{
		{
			name:     "unsplittable keeps dominant hosts",
			computer: FragmentComputer{MinimumSize: -1},
			size:     250,
			blocks:   threeBlocks,
			want:     []fragmentShape{{0, 250, []string{"h1", "h2"}}},
		},
		{
			name:     "small file",
			computer: FragmentComputer{MinimumSize: 1000, PreferredSize: 2000, SplitBlocks: true, CombineBlocks: true},
			size:     250,
			want:     []fragmentShape{{0, 250, nil}},
		},
		{
			name:     "empty file",
			computer: FragmentComputer{MinimumSize: 10, PreferredSize: 20, SplitBlocks: true, CombineBlocks: true},
			size:     0,
			want:     []fragmentShape{{0, 0, nil}},
		},
		{
			name:     "blocks with short tail",
			computer: FragmentComputer{MinimumSize: 60, PreferredSize: 120, SplitBlocks: true, CombineBlocks: true},
			size:     250,
			blocks:   threeBlocks,
			want: []fragmentShape{
				{0, 100, []string{"h1"}},
				{100, 150, []string{"h2"}},
			},
		},
		{
			name:     "blocks without combining",
			computer: FragmentComputer{MinimumSize: 60, PreferredSize: 120, SplitBlocks: true},
			size:     250,
			blocks:   threeBlocks,
			want: []fragmentShape{
				{0, 100, []string{"h1"}},
				{100, 100, []string{"h2"}},
				{200, 50, []string{"h3"}},
			},
		},
		{
			name:     "split single block",
			computer: FragmentComputer{MinimumSize: 100, PreferredSize: 300, SplitBlocks: true, CombineBlocks: true},
			size:     1000,
			want:     []fragmentShape{{0, 250, nil}, {250, 250, nil}, {500, 250, nil}, {750, 250, nil}},
		},
		{
			name:     "split bounded by minimum",
			computer: FragmentComputer{MinimumSize: 400, PreferredSize: 300, SplitBlocks: true},
			size:     1000,
			want:     []fragmentShape{{0, 500, nil}, {500, 500, nil}},
		},
		{
			name:     "combine small blocks",
			computer: FragmentComputer{MinimumSize: 20, PreferredSize: 50, CombineBlocks: true},
			size:     100,
			blocks: []core.BlockLocation{
				{Offset: 0, Length: 10, Hosts: []string{"a"}},
				{Offset: 10, Length: 10, Hosts: []string{"a"}},
				{Offset: 20, Length: 30, Hosts: []string{"b"}},
				{Offset: 50, Length: 50, Hosts: []string{"c"}},
			},
			want: []fragmentShape{
				{0, 50, []string{"b"}},
				{50, 50, []string{"c"}},
			},
		},
		{
			name:     "gaps between blocks",
			computer: FragmentComputer{MinimumSize: 10, PreferredSize: 30, SplitBlocks: true},
			size:     100,
			blocks: []core.BlockLocation{
				{Offset: 0, Length: 30, Hosts: []string{"a"}},
				{Offset: 70, Length: 30, Hosts: []string{"b"}},
			},
			want: []fragmentShape{
				{0, 30, []string{"a"}},
				{30, 20, nil},
				{50, 20, nil},
				{70, 30, []string{"b"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.computer.Compute("f", tt.size, tt.blocks)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shapes(got))
		})
	}
}

func TestFactories(t *testing.T) {
	ctx := context.Background()
	factories := Factories(nil)
	assert.Len(t, factories, 3)

	ds, err := factories[KindMemory](ctx, directio.Descriptor{
		ID:         "mem",
		Kind:       KindMemory,
		Attributes: map[string]string{KeyPath: "/"},
	})
	require.NoError(t, err)
	infos, err := ds.List(ctx, "", pattern.MustCompile("**"), nil)
	require.NoError(t, err)
	assert.Empty(t, infos)

	_, err = factories[KindMemory](ctx, directio.Descriptor{ID: "mem", Kind: KindMemory})
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	_, err = factories[KindMinio](ctx, directio.Descriptor{
		ID:         "s3",
		Kind:       KindMinio,
		Attributes: map[string]string{KeyPath: "/", KeyMinioEndpoint: "localhost:9000"},
	})
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestLocalFactory_Protocol(t *testing.T) {
	ctx := context.Background()
	root, scratch := t.TempDir(), t.TempDir()

	created, err := LocalFactory(nil)(ctx, directio.Descriptor{
		ID:   "local",
		Kind: KindLocal,
		Attributes: map[string]string{
			KeyPath:            root,
			KeyOutputStreaming: "false",
			KeyLocalTempDir:    scratch,
		},
	})
	require.NoError(t, err)
	ds := created.(*DataSource)

	tx := newTransaction(t, "tx1")
	a := newAttempt(t, tx, "a1")
	require.NoError(t, ds.SetupTransactionOutput(ctx, tx))
	require.NoError(t, ds.SetupAttemptOutput(ctx, a))
	writeLines(t, ds, a, "part", "r.txt", "on disk")
	require.NoError(t, ds.CommitAttemptOutput(ctx, a))
	require.NoError(t, ds.CleanupAttemptOutput(ctx, a))
	require.NoError(t, ds.CommitTransactionOutput(ctx, tx))
	require.NoError(t, ds.CleanupTransactionOutput(ctx, tx))

	infos, err := ds.List(ctx, "", pattern.MustCompile("**/*.txt"), nil)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, directio.JoinPath(root, "part/r.txt"), infos[0].Path)
	assert.Equal(t, int64(8), infos[0].Size)
}
