package pattern

import (
	"sort"
	"strings"

	"github.com/jmgilman/go/directio/errors"
)

// Resolve substitutes every ${name} element with vars[name] and compiles the
// result. Meta characters in values are escaped, except "/", which splits the
// value into segments. A missing variable is an error.
func (p *Pattern) Resolve(vars map[string]string) (*Pattern, error) {
	if !p.ContainsVariables() {
		return p, nil
	}

	var missing []string
	var b strings.Builder
	for i, s := range p.segments {
		if i > 0 {
			b.WriteByte('/')
		}
		if s.Kind == Traverse {
			b.WriteString("**")
			continue
		}
		for _, e := range s.Elements {
			switch e.Kind {
			case Token:
				b.WriteString(escape(e.Text, false))
			case Wildcard:
				b.WriteByte('*')
			case Selection:
				b.WriteByte('{')
				b.WriteString(strings.Join(e.Options, "|"))
				b.WriteByte('}')
			case Variable:
				v, ok := vars[e.Text]
				if !ok {
					missing = append(missing, e.Text)
					continue
				}
				b.WriteString(Escape(v))
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "pattern %q references undefined variables %v", p.source, missing),
			"pattern", p.source,
		)
	}
	return Compile(b.String())
}
