// Package billy adapts go-billy filesystems to core.FS.
//
// NewLocal roots an osfs at a host directory; NewMemory creates an in-memory
// filesystem, which is what the protocol tests and the "memory" data source
// kind run on.
package billy
