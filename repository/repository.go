package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/internal/logging"
)

const root = 0

// node is a trie node stored in the repository arena.
type node struct {
	path     string
	children []edge // sorted by name
	content  int    // index into descriptors, or -1
}

type edge struct {
	name  string
	index int
}

func (n *node) child(name string) (int, bool) {
	i := sort.Search(len(n.children), func(i int) bool { return n.children[i].name >= name })
	if i < len(n.children) && n.children[i].name == name {
		return n.children[i].index, true
	}
	return 0, false
}

// handle lazily holds the data source of one descriptor.
type handle struct {
	mu sync.Mutex
	ds directio.DataSource
}

// Repository resolves logical paths to data sources. The trie is immutable
// after New and lookups take no locks; only data source creation is
// synchronized.
type Repository struct {
	nodes       []node
	descriptors []directio.Descriptor
	handles     map[string]*handle
	factories   map[string]directio.Factory
	logger      *logging.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithFactory registers the factory used for descriptors of the given kind.
func WithFactory(kind string, f directio.Factory) Option {
	return func(r *Repository) {
		r.factories[kind] = f
	}
}

// WithFactories registers several factories keyed by kind.
func WithFactories(factories map[string]directio.Factory) Option {
	return func(r *Repository) {
		for k, f := range factories {
			r.factories[k] = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Repository) {
		r.logger = logging.OrNop(l)
	}
}

// New builds a Repository from descriptors. Two descriptors on the same
// mount path, duplicate ids and unknown kinds (when factories are
// registered) are configuration errors.
func New(descriptors []directio.Descriptor, opts ...Option) (*Repository, error) {
	r := &Repository{
		nodes:     []node{{content: -1}},
		handles:   make(map[string]*handle, len(descriptors)),
		factories: map[string]directio.Factory{},
		logger:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, d := range descriptors {
		if err := r.register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Repository) register(d directio.Descriptor) error {
	if d.ID == "" {
		return errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "data source id must not be empty"),
			"path", d.Path,
		)
	}
	if _, ok := r.handles[d.ID]; ok {
		return errors.WithContext(
			errors.Newf(errors.CodeInvalidConfig, "duplicate data source id %q", d.ID),
			"id", d.ID,
		)
	}
	if len(r.factories) > 0 {
		if _, ok := r.factories[d.Kind]; !ok {
			return errors.WithContextMap(
				errors.Newf(errors.CodeInvalidConfig, "unknown data source kind %q", d.Kind),
				map[string]interface{}{"id": d.ID, "kind": d.Kind},
			)
		}
	}

	d.Path = directio.NormalizePath(d.Path)
	current := root
	for _, name := range directio.Segments(d.Path) {
		current = r.childOrCreate(current, name)
	}
	if existing := r.nodes[current].content; existing >= 0 {
		return errors.WithContextMap(
			errors.Newf(errors.CodeInvalidConfig, "data sources %q and %q share the path %q",
				r.descriptors[existing].ID, d.ID, d.Path),
			map[string]interface{}{"id": d.ID, "path": d.Path},
		)
	}

	r.nodes[current].content = len(r.descriptors)
	r.descriptors = append(r.descriptors, copyDescriptor(d))
	r.handles[d.ID] = &handle{}
	r.logger.Debug(context.Background(), "registered data source", "backend", d.ID, "kind", d.Kind, "path", d.Path)
	return nil
}

func (r *Repository) childOrCreate(parent int, name string) int {
	if index, ok := r.nodes[parent].child(name); ok {
		return index
	}
	index := len(r.nodes)
	r.nodes = append(r.nodes, node{path: directio.JoinPath(r.nodes[parent].path, name), content: -1})

	children := r.nodes[parent].children
	i := sort.Search(len(children), func(i int) bool { return children[i].name >= name })
	children = append(children, edge{})
	copy(children[i+1:], children[i:])
	children[i] = edge{name: name, index: index}
	r.nodes[parent].children = children
	return index
}

func copyDescriptor(d directio.Descriptor) directio.Descriptor {
	attrs := make(map[string]string, len(d.Attributes))
	for k, v := range d.Attributes {
		attrs[k] = v
	}
	d.Attributes = attrs
	return d
}

// lookup returns the deepest node with content covering path and the number
// of path segments it consumed.
func (r *Repository) lookup(path string) (int, int, error) {
	segments := directio.Segments(path)
	last, lastDepth := -1, 0
	if r.nodes[root].content >= 0 {
		last = root
	}

	current := root
	for i, name := range segments {
		next, ok := r.nodes[current].child(name)
		if !ok {
			break
		}
		current = next
		if r.nodes[current].content >= 0 {
			last, lastDepth = current, i+1
		}
	}

	if last < 0 {
		return 0, 0, errors.WithContext(
			errors.Newf(errors.CodeNoBackend, "no data source is registered for %q", path),
			"path", path,
		)
	}
	return last, lastDepth, nil
}

// Resolve returns the descriptor mounted on the longest registered prefix of
// path.
func (r *Repository) Resolve(path string) (directio.Descriptor, error) {
	n, _, err := r.lookup(path)
	if err != nil {
		return directio.Descriptor{}, err
	}
	return copyDescriptor(r.descriptors[r.nodes[n].content]), nil
}

// ContainerPath returns the mount path of the data source covering path.
func (r *Repository) ContainerPath(path string) (string, error) {
	n, _, err := r.lookup(path)
	if err != nil {
		return "", err
	}
	return r.nodes[n].path, nil
}

// ComponentPath returns the part of path below its container path.
func (r *Repository) ComponentPath(path string) (string, error) {
	_, depth, err := r.lookup(path)
	if err != nil {
		return "", err
	}
	return strings.Join(directio.Segments(path)[depth:], "/"), nil
}

// DataSource returns the data source covering path, creating it on first
// use. Creation failures are not cached, so a later call retries.
func (r *Repository) DataSource(ctx context.Context, path string) (directio.DataSource, error) {
	d, err := r.Resolve(path)
	if err != nil {
		return nil, err
	}
	return r.instance(ctx, d)
}

// DataSourceByID returns the data source registered under id.
func (r *Repository) DataSourceByID(ctx context.Context, id string) (directio.DataSource, error) {
	for _, d := range r.descriptors {
		if d.ID == id {
			return r.instance(ctx, copyDescriptor(d))
		}
	}
	return nil, errors.WithContext(
		errors.Newf(errors.CodeNotFound, "no data source has id %q", id),
		"id", id,
	)
}

func (r *Repository) instance(ctx context.Context, d directio.Descriptor) (directio.DataSource, error) {
	h := r.handles[d.ID]
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ds != nil {
		return h.ds, nil
	}
	if err := errors.CheckContext(ctx, "data source creation"); err != nil {
		return nil, err
	}

	factory, ok := r.factories[d.Kind]
	if !ok {
		return nil, errors.WithContextMap(
			errors.Newf(errors.CodeInvalidConfig, "unknown data source kind %q", d.Kind),
			map[string]interface{}{"id": d.ID, "kind": d.Kind},
		)
	}
	ds, err := factory(ctx, d)
	if err != nil {
		r.logger.WithBackend(d.ID).Error(ctx, "failed to create data source", "error", err)
		if errors.IsInterrupted(err) {
			return nil, errors.WithContext(errors.Interrupted(err, "data source creation interrupted"), "id", d.ID)
		}
		code := errors.GetCode(err)
		if code == errors.CodeUnknown {
			code = errors.CodeIO
		}
		return nil, errors.WithContextMap(
			errors.Wrapf(err, code, "failed to create data source %q", d.ID),
			map[string]interface{}{"id": d.ID, "kind": d.Kind},
		)
	}
	h.ds = ds
	r.logger.WithBackend(d.ID).Debug(ctx, "created data source", "kind", d.Kind, "path", d.Path)
	return ds, nil
}

// ContainerPaths returns the mount path of every data source in breadth
// first order.
func (r *Repository) ContainerPaths() []string {
	var paths []string
	queue := []int{root}
	for len(queue) > 0 {
		n := &r.nodes[queue[0]]
		queue = queue[1:]
		if n.content >= 0 {
			paths = append(paths, n.path)
		}
		for _, e := range n.children {
			queue = append(queue, e.index)
		}
	}
	return paths
}

// Descriptors returns the registered descriptors in registration order.
func (r *Repository) Descriptors() []directio.Descriptor {
	out := make([]directio.Descriptor, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = copyDescriptor(d)
	}
	return out
}
