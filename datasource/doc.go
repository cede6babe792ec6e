// Package datasource implements directio.DataSource on top of a core.FS.
//
// Output is written below a temporary area inside the filesystem:
//
//	<tempdir>/<transaction>-<output>/attempts/<attempt>   attempt output
//	<tempdir>/<transaction>-<output>/staging              committed attempts
//
// Committing an attempt moves its files into staging, and committing the
// transaction moves staging into the data source root. Both moves are
// file-by-file renames that tolerate an already moved source, so either
// commit can be repeated after a crash.
//
// The output id of every transaction and attempt context must be the data
// source id; contexts of other outputs are rejected.
//
// Locality hints on input fragments come from filesystems implementing
// core.BlockLocator. The bundled adapters do not, so their fragments have no
// owners.
package datasource
