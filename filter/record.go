package filter

import (
	"github.com/jmgilman/go/directio"
)

// RecordFunc adapts a record predicate to a DataFilter that accepts every
// path.
type RecordFunc func(record any) bool

func (RecordFunc) Initialize(directio.FilterContext) error { return nil }
func (RecordFunc) AcceptsPath(string) bool                 { return true }

// AcceptsData calls f.
func (f RecordFunc) AcceptsData(record any) bool { return f(record) }

// All combines filters; a path or record is accepted only if every filter
// accepts it.
func All(filters ...directio.DataFilter) directio.DataFilter {
	return all(filters)
}

type all []directio.DataFilter

func (a all) Initialize(ctx directio.FilterContext) error {
	for _, f := range a {
		if err := f.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a all) AcceptsPath(path string) bool {
	for _, f := range a {
		if !f.AcceptsPath(path) {
			return false
		}
	}
	return true
}

func (a all) AcceptsData(record any) bool {
	for _, f := range a {
		if !f.AcceptsData(record) {
			return false
		}
	}
	return true
}

var (
	_ directio.DataFilter = RecordFunc(nil)
	_ directio.DataFilter = all(nil)
)
