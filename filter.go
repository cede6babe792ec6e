package directio

// FilterContext carries the batch arguments a DataFilter may be
// parameterized by. It is immutable.
type FilterContext struct {
	batchArguments map[string]string
}

// NewFilterContext copies args into a FilterContext.
func NewFilterContext(args map[string]string) FilterContext {
	copied := make(map[string]string, len(args))
	for k, v := range args {
		copied[k] = v
	}
	return FilterContext{batchArguments: copied}
}

// BatchArguments returns a copy of the batch arguments.
func (c FilterContext) BatchArguments() map[string]string {
	out := make(map[string]string, len(c.batchArguments))
	for k, v := range c.batchArguments {
		out[k] = v
	}
	return out
}

// BatchArgument returns one batch argument.
func (c FilterContext) BatchArgument(name string) (string, bool) {
	v, ok := c.batchArguments[name]
	return v, ok
}

// DataFilter prunes input. AcceptsPath is consulted before a fragment is
// opened; AcceptsData is consulted per decoded record.
//
// A filter is created once per job and initialized before first use.
type DataFilter interface {
	Initialize(ctx FilterContext) error
	AcceptsPath(path string) bool
	AcceptsData(record any) bool
}

// AcceptAll is a DataFilter accepting everything. Embed it to override only
// one of the predicates.
type AcceptAll struct{}

func (AcceptAll) Initialize(FilterContext) error { return nil }
func (AcceptAll) AcceptsPath(string) bool        { return true }
func (AcceptAll) AcceptsData(any) bool           { return true }

// FilteredInput skips records rejected by a filter.
type FilteredInput struct {
	in     ModelInput
	filter DataFilter
}

// NewFilteredInput wraps in. A nil filter returns in unchanged.
func NewFilteredInput(in ModelInput, filter DataFilter) ModelInput {
	if filter == nil {
		return in
	}
	return &FilteredInput{in: in, filter: filter}
}

// Read returns the next accepted record, or io.EOF.
func (f *FilteredInput) Read() (any, error) {
	for {
		rec, err := f.in.Read()
		if err != nil {
			return nil, err
		}
		if f.filter.AcceptsData(rec) {
			return rec, nil
		}
	}
}

// Close closes the underlying input.
func (f *FilteredInput) Close() error {
	return f.in.Close()
}

var _ ModelInput = (*FilteredInput)(nil)
