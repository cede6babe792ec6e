package core

import (
	"io"
	"io/fs"
)

// FSType identifies the kind of storage behind an FS.
type FSType int

const (
	FSTypeUnknown FSType = iota
	FSTypeLocal
	FSTypeMemory
	FSTypeRemote
)

func (t FSType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeMemory:
		return "memory"
	case FSTypeRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// FS is a read-write filesystem.
type FS interface {
	fs.FS
	ReadFS
	WriteFS
	ManageFS
	WalkFS

	Type() FSType
}

// ReadFS provides read access.
type ReadFS interface {
	Open(name string) (fs.File, error)
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	Exists(name string) (bool, error)
}

// WriteFS provides write access. Create and WriteFile create missing parent
// directories.
type WriteFS interface {
	Create(name string) (File, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
}

// ManageFS removes and renames entries.
type ManageFS interface {
	Remove(name string) error
	RemoveAll(path string) error

	// Rename moves a file. Whether an existing target is replaced depends
	// on the adapter; callers that need replacement remove the target first.
	Rename(oldpath, newpath string) error
}

// WalkFS walks a tree in lexical order.
type WalkFS interface {
	Walk(root string, walkFn fs.WalkDirFunc) error
}

// File is an open file.
type File interface {
	fs.File
	io.Writer
	Name() string
}

// Syncer is implemented by files that can flush to stable storage.
type Syncer interface {
	Sync() error
}

// BlockLocation describes one storage block of a file and the nodes holding
// replicas of it.
type BlockLocation struct {
	Offset int64
	Length int64
	Hosts  []string
}

// BlockLocator is implemented by filesystems that expose block placement.
// Fragment planning uses it for locality hints and split points.
type BlockLocator interface {
	BlockLocations(name string) ([]BlockLocation, error)
}
