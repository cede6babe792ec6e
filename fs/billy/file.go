package billy

import (
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
	"github.com/jmgilman/go/directio/fs/core"
)

// File wraps a billy.File as a core.File.
type File struct {
	file billy.File
	fs   billy.Basic
	name string
}

func (f *File) Read(p []byte) (int, error) {
	return f.file.Read(p)
}

func (f *File) Write(p []byte) (int, error) {
	return f.file.Write(p)
}

func (f *File) Close() error {
	return f.file.Close()
}

func (f *File) Stat() (fs.FileInfo, error) {
	return f.fs.Stat(orDot(f.name))
}

// Name returns the path the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Seek lets fragment readers start at an offset without reading the prefix.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

// Sync flushes local files; it is a no-op for in-memory files.
func (f *File) Sync() error {
	if syncer, ok := f.file.(interface{ Sync() error }); ok {
		return syncer.Sync()
	}
	return nil
}

var (
	_ core.File   = (*File)(nil)
	_ io.Seeker   = (*File)(nil)
	_ core.Syncer = (*File)(nil)
)
