package datasource

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmgilman/go/directio/errors"
	"github.com/jmgilman/go/directio/fs/core"
	"github.com/jmgilman/go/directio/pattern"
)

// entry is a search hit: a filesystem path and its metadata.
type entry struct {
	path string
	info fs.FileInfo
}

func (e entry) isDir() bool { return e.info.IsDir() }

// search returns every entry below base matching p, in discovery order
// without duplicates. A missing base yields no entries.
func search(ctx context.Context, fsys core.ReadFS, base string, p *pattern.Pattern) ([]entry, error) {
	steps, err := p.Steps()
	if err != nil {
		return nil, err
	}
	info, err := fsys.Stat(base)
	if core.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIO, "failed to stat %q", base)
	}

	current := []entry{{path: base, info: info}}
	for _, step := range steps {
		if err := errors.CheckContext(ctx, "search"); err != nil {
			return nil, err
		}
		if step.Traverse {
			current, err = traverseStep(fsys, current)
		} else {
			current, err = literalStep(fsys, current, step.Alternatives)
		}
		if err != nil {
			return nil, err
		}
	}
	return current, nil
}

// traverseStep expands current into itself plus every descendant.
func traverseStep(fsys core.ReadFS, current []entry) ([]entry, error) {
	seen := map[string]bool{}
	var out []entry
	work := append([]entry(nil), current...)
	for len(work) > 0 {
		next := work[0]
		work = work[1:]
		if seen[next.path] {
			continue
		}
		seen[next.path] = true
		out = append(out, next)
		if !next.isDir() {
			continue
		}
		children, err := readDir(fsys, next.path)
		if err != nil {
			return nil, err
		}
		work = append(work, children...)
	}
	return out, nil
}

// literalStep resolves each alternative name sequence below every directory
// in current.
func literalStep(fsys core.ReadFS, current []entry, alternatives [][]pattern.NameMatcher) ([]entry, error) {
	seen := map[string]bool{}
	var out []entry
	for _, dir := range current {
		if !dir.isDir() {
			continue
		}
		for _, seq := range alternatives {
			found, err := resolveSequence(fsys, dir, seq)
			if err != nil {
				return nil, err
			}
			for _, e := range found {
				if !seen[e.path] {
					seen[e.path] = true
					out = append(out, e)
				}
			}
		}
	}
	return out, nil
}

func resolveSequence(fsys core.ReadFS, start entry, seq []pattern.NameMatcher) ([]entry, error) {
	current := []entry{start}
	for _, m := range seq {
		var next []entry
		for _, dir := range current {
			if !dir.isDir() {
				continue
			}
			if name, ok := m.Literal(); ok {
				child := joinFS(dir.path, name)
				info, err := fsys.Stat(child)
				if core.IsNotExist(err) {
					continue
				}
				if err != nil {
					return nil, errors.Wrapf(err, errors.CodeIO, "failed to stat %q", child)
				}
				next = append(next, entry{path: child, info: info})
				continue
			}
			children, err := readDir(fsys, dir.path)
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				if m.Match(path.Base(c.path)) {
					next = append(next, c)
				}
			}
		}
		current = next
	}
	return current, nil
}

// readDir lists a directory; a directory that vanished meanwhile is empty.
func readDir(fsys core.ReadFS, dir string) ([]entry, error) {
	entries, err := fsys.ReadDir(dir)
	if core.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIO, "failed to list %q", dir)
	}
	out := make([]entry, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if core.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeIO, "failed to stat %q", joinFS(dir, e.Name()))
		}
		out = append(out, entry{path: joinFS(dir, e.Name()), info: info})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, nil
}

// minimalCover drops entries contained in another directory entry.
func minimalCover(entries []entry) []entry {
	var out []entry
	for i, e := range entries {
		covered := false
		for j, d := range entries {
			if i != j && d.isDir() && contains(d.path, e.path) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, e)
		}
	}
	return out
}

// contains reports whether child is strictly below parent.
func contains(parent, child string) bool {
	if parent == "" {
		return child != ""
	}
	return strings.HasPrefix(child, parent+"/")
}

// joinFS joins filesystem paths, keeping the root as "".
func joinFS(elems ...string) string {
	joined := path.Join(elems...)
	if joined == "." {
		return ""
	}
	return strings.TrimPrefix(joined, "/")
}
