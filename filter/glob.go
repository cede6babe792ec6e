package filter

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
)

// maxPatternLength bounds the length of a glob after argument expansion.
const maxPatternLength = 1024

// GlobFilter accepts paths that match at least one include glob and no
// exclude glob. An empty include list accepts every path not excluded.
//
// Globs use gobwas/glob syntax with "/" as separator, so "*" stays within
// one segment and "**" crosses segments. A glob may reference batch
// arguments as ${name}; they are substituted by Initialize.
//
// Records are not filtered.
type GlobFilter struct {
	directio.AcceptAll

	include, exclude   []string
	includes, excludes []glob.Glob
}

// NewGlobFilter creates an uninitialized GlobFilter.
func NewGlobFilter(include, exclude []string) *GlobFilter {
	return &GlobFilter{
		include: append([]string(nil), include...),
		exclude: append([]string(nil), exclude...),
	}
}

// Initialize expands batch arguments and compiles the globs.
func (f *GlobFilter) Initialize(ctx directio.FilterContext) error {
	includes, err := compileAll(f.include, ctx)
	if err != nil {
		return err
	}
	excludes, err := compileAll(f.exclude, ctx)
	if err != nil {
		return err
	}
	f.includes, f.excludes = includes, excludes
	return nil
}

// AcceptsPath reports whether path passes the filter. Leading separators are
// ignored.
func (f *GlobFilter) AcceptsPath(path string) bool {
	path = strings.TrimLeft(path, "/")
	for _, g := range f.excludes {
		if g.Match(path) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.includes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func compileAll(patterns []string, ctx directio.FilterContext) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		expanded, err := expand(p, ctx)
		if err != nil {
			return nil, err
		}
		if len(expanded) > maxPatternLength {
			return nil, errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "glob exceeds %d characters", maxPatternLength),
				"glob", p,
			)
		}
		g, err := glob.Compile(strings.TrimLeft(expanded, "/"), '/')
		if err != nil {
			return nil, errors.WithContext(
				errors.Wrapf(err, errors.CodeInvalidConfig, "invalid glob %q", expanded),
				"glob", p,
			)
		}
		out = append(out, g)
	}
	return out, nil
}

// expand substitutes ${name} references with batch arguments.
func expand(p string, ctx directio.FilterContext) (string, error) {
	var b strings.Builder
	rest := p
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return "", errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "unterminated variable in glob %q", p),
				"glob", p,
			)
		}
		name := rest[start+2 : start+end]
		value, ok := ctx.BatchArgument(name)
		if !ok {
			return "", errors.WithContext(
				errors.Newf(errors.CodeInvalidConfig, "glob %q references undefined batch argument %q", p, name),
				"glob", p,
			)
		}
		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[start+end+1:]
	}
}

var _ directio.DataFilter = (*GlobFilter)(nil)
