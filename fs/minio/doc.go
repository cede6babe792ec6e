// Package minio implements core.FS on an S3-compatible object store using
// minio-go.
//
// Directories are virtual: a directory exists while some object key has it
// as a prefix. Renames are copy-then-delete and are atomic per object only.
package minio
