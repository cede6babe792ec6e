package pattern

import (
	"strings"

	"github.com/jmgilman/go/directio/errors"
)

// NameMatcher matches a single path segment name. It is a literal name, or a
// prefix and suffix around one wildcard.
type NameMatcher struct {
	prefix   string
	suffix   string
	wildcard bool
}

// Literal returns the exact name and true when the matcher has no wildcard.
func (m NameMatcher) Literal() (string, bool) {
	return m.prefix, !m.wildcard
}

// Match reports whether name satisfies the matcher.
func (m NameMatcher) Match(name string) bool {
	if !m.wildcard {
		return name == m.prefix
	}
	return len(name) >= len(m.prefix)+len(m.suffix) &&
		strings.HasPrefix(name, m.prefix) &&
		strings.HasSuffix(name, m.suffix)
}

func (m NameMatcher) String() string {
	if m.wildcard {
		return m.prefix + "*" + m.suffix
	}
	return m.prefix
}

// Step is a unit of path traversal. A traversal step consumes any number of
// segments; a literal step consumes the segments of one of its alternatives.
type Step struct {
	Traverse bool

	// Alternatives lists the segment name sequences a literal step stands
	// for. Alternations spanning "/" make these longer than one; an empty
	// option can make one empty.
	Alternatives [][]NameMatcher
}

// Steps expands the pattern into traversal steps. It fails if the pattern
// still contains variables.
func (p *Pattern) Steps() ([]Step, error) {
	if vars := p.Variables(); len(vars) > 0 {
		return nil, errors.WithContext(
			errors.Newf(errors.CodeInvalidPattern, "pattern %q has unresolved variables %v", p.source, vars),
			"pattern", p.source,
		)
	}
	steps := make([]Step, 0, len(p.segments))
	for _, s := range p.segments {
		if s.Kind == Traverse {
			steps = append(steps, Step{Traverse: true})
			continue
		}
		steps = append(steps, Step{Alternatives: expandSegment(s.Elements)})
	}
	return steps, nil
}

type piece struct {
	text     string
	wildcard bool
}

// expandSegment turns a literal segment into its alternatives, splitting
// selection options on "/".
func expandSegment(elements []Element) [][]NameMatcher {
	alts := [][][]piece{{nil}}
	for _, e := range elements {
		switch e.Kind {
		case Token:
			for _, alt := range alts {
				alt[len(alt)-1] = append(alt[len(alt)-1], piece{text: e.Text})
			}
		case Wildcard:
			for _, alt := range alts {
				alt[len(alt)-1] = append(alt[len(alt)-1], piece{wildcard: true})
			}
		case Selection:
			next := make([][][]piece, 0, len(alts)*len(e.Options))
			for _, alt := range alts {
				for _, opt := range e.Options {
					names := cloneNames(alt)
					for i, part := range strings.Split(opt, "/") {
						if i > 0 {
							names = append(names, nil)
						}
						if part != "" {
							names[len(names)-1] = append(names[len(names)-1], piece{text: part})
						}
					}
					next = append(next, names)
				}
			}
			alts = next
		}
	}

	out := make([][]NameMatcher, 0, len(alts))
	for _, alt := range alts {
		var seq []NameMatcher
		for _, name := range alt {
			if len(name) == 0 {
				continue
			}
			seq = append(seq, newNameMatcher(name))
		}
		out = append(out, seq)
	}
	return out
}

func cloneNames(names [][]piece) [][]piece {
	out := make([][]piece, len(names))
	for i, n := range names {
		out[i] = append([]piece(nil), n...)
	}
	return out
}

func newNameMatcher(pieces []piece) NameMatcher {
	var m NameMatcher
	var b strings.Builder
	for _, p := range pieces {
		if p.wildcard {
			m.wildcard = true
			m.prefix = b.String()
			b.Reset()
			continue
		}
		b.WriteString(p.text)
	}
	if m.wildcard {
		m.suffix = b.String()
	} else {
		m.prefix = b.String()
	}
	return m
}

// Match reports whether path, relative to the pattern's base, matches the
// pattern. Leading, trailing and repeated separators in path are ignored.
// A pattern with unresolved variables matches nothing.
func (p *Pattern) Match(path string) bool {
	steps, err := p.Steps()
	if err != nil {
		return false
	}
	return matchSteps(steps, SplitPath(path))
}

func matchSteps(steps []Step, names []string) bool {
	if len(steps) == 0 {
		return len(names) == 0
	}
	step, rest := steps[0], steps[1:]
	if step.Traverse {
		for i := 0; i <= len(names); i++ {
			if matchSteps(rest, names[i:]) {
				return true
			}
		}
		return false
	}
	for _, seq := range step.Alternatives {
		if len(seq) > len(names) {
			continue
		}
		ok := true
		for i, m := range seq {
			if !m.Match(names[i]) {
				ok = false
				break
			}
		}
		if ok && matchSteps(rest, names[len(seq):]) {
			return true
		}
	}
	return false
}

// SplitPath splits a "/"-separated path into its non-empty segments.
func SplitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}
