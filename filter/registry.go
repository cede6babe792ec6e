package filter

import (
	"sort"
	"sync"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
)

// Constructor creates a fresh, uninitialized filter.
type Constructor func() directio.DataFilter

// Registry maps filter identifiers, as named by the "filter" attribute of an
// input description, to constructors. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: map[string]Constructor{}}
}

// Register adds a constructor. Registering an identifier twice fails with
// CodeAlreadyExists.
func (r *Registry) Register(id string, ctor Constructor) error {
	if id == "" || ctor == nil {
		return errors.New(errors.CodeInvalidInput, "filter id and constructor are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ctors[id]; ok {
		return errors.WithContext(
			errors.Newf(errors.CodeAlreadyExists, "filter %q is already registered", id),
			"filter", id,
		)
	}
	r.ctors[id] = ctor
	return nil
}

// IDs returns the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.ctors))
	for id := range r.ctors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// New creates and initializes the filter registered under id.
func (r *Registry) New(id string, ctx directio.FilterContext) (directio.DataFilter, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WithContext(
			errors.Newf(errors.CodeNotFound, "unknown filter %q", id),
			"filter", id,
		)
	}
	f := ctor()
	if err := f.Initialize(ctx); err != nil {
		return nil, errors.WithContext(
			errors.Wrapf(err, errors.GetCode(err), "failed to initialize filter %q", id),
			"filter", id,
		)
	}
	return f, nil
}

// ForInput returns the initialized filter named by an input description, or
// nil if it names none.
func (r *Registry) ForInput(d directio.InputDescription, ctx directio.FilterContext) (directio.DataFilter, error) {
	if d.Filter == "" {
		return nil, nil
	}
	return r.New(d.Filter, ctx)
}
