package billy

import (
	"io"
	"sync"
	"testing"

	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/fs/fstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFS_Conformance(t *testing.T) {
	fstest.Run(t, func() core.FS { return NewMemory() }, fstest.POSIXConfig())
}

func TestLocalFS_Conformance(t *testing.T) {
	fstest.Run(t, func() core.FS { return NewLocal(t.TempDir()) }, fstest.POSIXConfig())
}

func TestType(t *testing.T) {
	assert.Equal(t, core.FSTypeMemory, NewMemory().Type())
	assert.Equal(t, core.FSTypeLocal, NewLocal(t.TempDir()).Type())
	assert.Equal(t, "memory", NewMemory().Type().String())
	assert.NotNil(t, NewMemory().Unwrap())
}

func TestFile_Seek(t *testing.T) {
	fsys := NewMemory()
	require.NoError(t, fsys.WriteFile("f.txt", []byte("0123456789"), 0o644))

	f, err := fsys.Open("f.txt")
	require.NoError(t, err)
	defer f.Close()

	seeker, ok := f.(io.Seeker)
	require.True(t, ok)
	_, err = seeker.Seek(4, io.SeekStart)
	require.NoError(t, err)

	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))
}

func TestMemoryFS_ConcurrentCreate(t *testing.T) {
	fsys := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "p/" + string(rune('a'+i)) + "/file"
			assert.NoError(t, fsys.WriteFile(name, []byte{byte(i)}, 0o644))
		}(i)
	}
	wg.Wait()

	files, err := core.ListFiles(fsys, "p")
	require.NoError(t, err)
	assert.Len(t, files, 16)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a/b", normalize("/a//b/"))
	assert.Equal(t, "", normalize("/"))
	assert.Equal(t, "b", normalize("a/../b"))
}
