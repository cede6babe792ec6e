// Package fstest provides a conformance suite for core.FS adapters.
//
// The suite covers the operations the directio data sources depend on:
// writing and reading files, directory listing, walking, recursive removal
// and file renames.
package fstest

import (
	"testing"

	"github.com/jmgilman/go/directio/fs/core"
)

// Config describes adapter behavior the suite must tolerate.
type Config struct {
	// VirtualDirectories is set for object stores where directories exist
	// only as key prefixes and vanish with their last file.
	VirtualDirectories bool

	// SkipTests names top-level groups to skip.
	SkipTests []string
}

// POSIXConfig is the configuration for hierarchical filesystems.
func POSIXConfig() Config {
	return Config{}
}

// ObjectStoreConfig is the configuration for S3-like stores.
func ObjectStoreConfig() Config {
	return Config{VirtualDirectories: true}
}

// Run runs every group against fresh filesystems from newFS.
func Run(t *testing.T, newFS func() core.FS, config Config) {
	groups := []struct {
		name string
		fn   func(*testing.T, core.FS, Config)
	}{
		{"ReadWrite", testReadWrite},
		{"ReadDir", testReadDir},
		{"Walk", testWalk},
		{"RemoveAll", testRemoveAll},
		{"Rename", testRename},
		{"Copy", testCopy},
	}
	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			for _, skip := range config.SkipTests {
				if skip == g.name {
					t.Skip("skipped by adapter configuration")
				}
			}
			g.fn(t, newFS(), config)
		})
	}
}
