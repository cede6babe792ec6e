package billy

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/jmgilman/go/directio/fs/core"
)

// FS implements core.FS over a billy.Filesystem.
type FS struct {
	bfs  billy.Filesystem
	kind core.FSType

	// mu serializes namespace changes on filesystems that are not safe for
	// concurrent mutation (memfs).
	mu *sync.RWMutex
}

// NewLocal returns a filesystem rooted at dir on the host.
func NewLocal(dir string) *FS {
	return &FS{bfs: osfs.New(dir), kind: core.FSTypeLocal}
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() *FS {
	return &FS{bfs: memfs.New(), kind: core.FSTypeMemory, mu: &sync.RWMutex{}}
}

// Wrap adapts an existing billy filesystem.
func Wrap(bfs billy.Filesystem, kind core.FSType) *FS {
	return &FS{bfs: bfs, kind: kind, mu: &sync.RWMutex{}}
}

// Unwrap returns the underlying billy filesystem.
func (f *FS) Unwrap() billy.Filesystem {
	return f.bfs
}

// Type reports the storage kind.
func (f *FS) Type() core.FSType {
	return f.kind
}

func (f *FS) lock() func() {
	if f.mu == nil {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *FS) rlock() func() {
	if f.mu == nil {
		return func() {}
	}
	f.mu.RLock()
	return f.mu.RUnlock
}

func normalize(name string) string {
	return path.Clean("/" + name)[1:]
}

func orDot(name string) string {
	if name == "" {
		return "."
	}
	return name
}

type dirEntry struct {
	info fs.FileInfo
}

func (d *dirEntry) Name() string               { return d.info.Name() }
func (d *dirEntry) IsDir() bool                { return d.info.IsDir() }
func (d *dirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d *dirEntry) Info() (fs.FileInfo, error) { return d.info, nil }

// Open opens a file for reading.
func (f *FS) Open(name string) (fs.File, error) {
	defer f.rlock()()
	name = normalize(name)
	bf, err := f.bfs.Open(orDot(name))
	if err != nil {
		return nil, err
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

func (f *FS) Stat(name string) (fs.FileInfo, error) {
	defer f.rlock()()
	return f.bfs.Stat(orDot(normalize(name)))
}

func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	defer f.rlock()()
	return f.readDir(normalize(name))
}

func (f *FS) readDir(name string) ([]fs.DirEntry, error) {
	infos, err := f.bfs.ReadDir(orDot(name))
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = &dirEntry{info: info}
	}
	return entries, nil
}

func (f *FS) ReadFile(name string) ([]byte, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}

func (f *FS) Exists(name string) (bool, error) {
	_, err := f.Stat(name)
	if err == nil {
		return true, nil
	}
	if core.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Create creates or truncates a file, creating parent directories.
func (f *FS) Create(name string) (core.File, error) {
	defer f.lock()()
	name = normalize(name)
	bf, err := f.bfs.Create(name)
	if err != nil {
		return nil, err
	}
	return &File{file: bf, fs: f.bfs, name: name}, nil
}

func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	unlock := f.lock()
	bf, err := f.bfs.OpenFile(normalize(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	unlock()
	if err != nil {
		return err
	}
	defer func() { _ = bf.Close() }()
	_, err = bf.Write(data)
	return err
}

func (f *FS) MkdirAll(name string, perm fs.FileMode) error {
	defer f.lock()()
	return f.bfs.MkdirAll(orDot(normalize(name)), perm)
}

func (f *FS) Remove(name string) error {
	defer f.lock()()
	return f.bfs.Remove(normalize(name))
}

// RemoveAll removes name and everything below it. A missing name is not an
// error.
func (f *FS) RemoveAll(name string) error {
	defer f.lock()()
	return f.removeAll(normalize(name))
}

func (f *FS) removeAll(name string) error {
	info, err := f.bfs.Stat(orDot(name))
	if err != nil {
		if core.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		infos, err := f.bfs.ReadDir(orDot(name))
		if err != nil {
			return err
		}
		for _, child := range infos {
			if err := f.removeAll(path.Join(name, child.Name())); err != nil {
				return err
			}
		}
		if name == "" {
			return nil
		}
	}
	return f.bfs.Remove(name)
}

func (f *FS) Rename(oldpath, newpath string) error {
	defer f.lock()()
	return f.bfs.Rename(normalize(oldpath), normalize(newpath))
}

// Walk walks the tree below root in lexical order. Paths passed to walkFn are
// relative to the filesystem root.
func (f *FS) Walk(root string, walkFn fs.WalkDirFunc) error {
	root = normalize(root)
	info, err := f.Stat(root)
	if err != nil {
		err = walkFn(orDot(root), nil, err)
	} else {
		err = f.walk(root, &dirEntry{info: info}, walkFn)
	}
	if errors.Is(err, fs.SkipDir) || errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

func (f *FS) walk(name string, d fs.DirEntry, walkFn fs.WalkDirFunc) error {
	if err := walkFn(orDot(name), d, nil); err != nil || !d.IsDir() {
		if errors.Is(err, fs.SkipDir) && d.IsDir() {
			err = nil
		}
		return err
	}

	unlock := f.rlock()
	entries, err := f.readDir(name)
	unlock()
	if err != nil {
		if err := walkFn(orDot(name), d, err); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		if err := f.walk(path.Join(name, entry.Name()), entry, walkFn); err != nil {
			if errors.Is(err, fs.SkipDir) {
				continue
			}
			return err
		}
	}
	return nil
}

var _ core.FS = (*FS)(nil)
