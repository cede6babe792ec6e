// Package core defines the filesystem abstraction data sources are built on.
//
// Adapters in sibling packages implement FS for local disks, memory and
// object stores. All paths are slash-separated and relative to the adapter's
// root.
package core
