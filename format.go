package directio

import (
	"io"
)

// UnboundedSize marks a fragment size hint with no limit.
const UnboundedSize int64 = -1

// DataFormat describes how records are laid out in a resource. Fragment
// planning consults its size hints; both are in bytes and -1 means unbounded.
//
// A format whose MinimumFragmentSize is not positive cannot be split.
type DataFormat interface {
	MinimumFragmentSize() int64
	PreferredFragmentSize() int64
}

// StreamFormat is a DataFormat that decodes and encodes records over byte
// streams. Data sources backed by a filesystem require it.
type StreamFormat interface {
	DataFormat

	// NewInput returns a reader for the fragment [offset, offset+length) of
	// path. r is positioned at offset and is not limited to length, so
	// formats may read past the end to finish the last record.
	NewInput(r io.Reader, path string, offset, length int64) (ModelInput, error)

	// NewOutput returns a writer encoding records into w.
	NewOutput(w io.Writer, path string) (ModelOutput, error)
}

// ModelInput reads decoded records. Read returns io.EOF once the fragment is
// exhausted.
type ModelInput interface {
	Read() (any, error)
	io.Closer
}

// ModelOutput writes records. Writes are ordered as issued.
type ModelOutput interface {
	Write(record any) error
	io.Closer
}

// DataDefinition binds a model type to its format and an optional filter.
type DataDefinition struct {
	// ModelType identifies the record type, for diagnostics.
	ModelType string

	Format DataFormat

	// Filter may be nil.
	Filter DataFilter
}

// StreamFormat returns the definition's format as a StreamFormat.
func (d DataDefinition) StreamFormat() (StreamFormat, bool) {
	f, ok := d.Format.(StreamFormat)
	return f, ok
}

// ReadAll drains in and closes it.
func ReadAll(in ModelInput) ([]any, error) {
	defer in.Close()
	var out []any
	for {
		rec, err := in.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}
