package fstest

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"sort"
	"testing"

	"github.com/jmgilman/go/directio/fs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReadWrite(t *testing.T, fsys core.FS, _ Config) {
	require.NoError(t, fsys.WriteFile("a/b/file.txt", []byte("hello"), 0o644))

	data, err := fsys.ReadFile("a/b/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	info, err := fsys.Stat("a/b/file.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.False(t, info.IsDir())

	ok, err := fsys.Exists("a/b/file.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fsys.Exists("a/b/missing.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = fsys.Stat("a/b/missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	f, err := fsys.Create("a/created.txt")
	require.NoError(t, err)
	_, err = io.WriteString(f, "streamed")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := fsys.Open("a/created.txt")
	require.NoError(t, err)
	defer r.Close()
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "streamed", string(data))
}

func testReadDir(t *testing.T, fsys core.FS, _ Config) {
	require.NoError(t, fsys.WriteFile("dir/x.txt", []byte("x"), 0o644))
	require.NoError(t, fsys.WriteFile("dir/y.txt", []byte("yy"), 0o644))
	require.NoError(t, fsys.WriteFile("dir/sub/z.txt", []byte("z"), 0o644))

	entries, err := fsys.ReadDir("dir")
	require.NoError(t, err)

	var names []string
	dirs := map[string]bool{}
	for _, e := range entries {
		names = append(names, e.Name())
		dirs[e.Name()] = e.IsDir()
	}
	sort.Strings(names)
	assert.Equal(t, []string{"sub", "x.txt", "y.txt"}, names)
	assert.True(t, dirs["sub"])
	assert.False(t, dirs["x.txt"])

	_, err = fsys.ReadDir("nope")
	if err != nil {
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	}
}

func testWalk(t *testing.T, fsys core.FS, _ Config) {
	require.NoError(t, fsys.WriteFile("w/b.txt", []byte("b"), 0o644))
	require.NoError(t, fsys.WriteFile("w/a/1.txt", []byte("1"), 0o644))
	require.NoError(t, fsys.WriteFile("w/a/2.txt", []byte("2"), 0o644))

	files, err := core.ListFiles(fsys, "w")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/1.txt", "a/2.txt", "b.txt"}, files)

	var visited []string
	err = fsys.Walk("w", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && p == "w/a" {
			return fs.SkipDir
		}
		if !d.IsDir() {
			visited = append(visited, p)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"w/b.txt"}, visited)

	_, err = core.ListFiles(fsys, "missing")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func testRemoveAll(t *testing.T, fsys core.FS, config Config) {
	require.NoError(t, fsys.WriteFile("r/keep.txt", []byte("k"), 0o644))
	require.NoError(t, fsys.WriteFile("r/tree/a.txt", []byte("a"), 0o644))
	require.NoError(t, fsys.WriteFile("r/tree/deep/b.txt", []byte("b"), 0o644))

	require.NoError(t, fsys.RemoveAll("r/tree"))
	ok, err := fsys.Exists("r/tree/deep/b.txt")
	require.NoError(t, err)
	assert.False(t, ok)
	if !config.VirtualDirectories {
		ok, err = fsys.Exists("r/tree")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err = fsys.Exists("r/keep.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, fsys.RemoveAll("r/never-existed"))

	require.NoError(t, fsys.Remove("r/keep.txt"))
	ok, err = fsys.Exists("r/keep.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRename(t *testing.T, fsys core.FS, _ Config) {
	require.NoError(t, fsys.WriteFile("m/src.txt", []byte("payload"), 0o644))
	require.NoError(t, fsys.MkdirAll("m/dst", 0o755))

	require.NoError(t, fsys.Rename("m/src.txt", "m/dst/moved.txt"))

	data, err := fsys.ReadFile("m/dst/moved.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	ok, err := fsys.Exists("m/src.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testCopy(t *testing.T, fsys core.FS, _ Config) {
	require.NoError(t, fsys.WriteFile("c/src.bin", []byte("0123456789"), 0o644))

	n, err := core.CopyFile(context.Background(), fsys, "c/src.bin", fsys, "c/out/dst.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	data, err := fsys.ReadFile("c/out/dst.bin")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = core.CopyFile(ctx, fsys, "c/src.bin", fsys, "c/out/again.bin")
	assert.ErrorIs(t, err, context.Canceled)
}
