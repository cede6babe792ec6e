package pattern

import (
	"strings"
)

// SegmentKind distinguishes traversal segments from literal ones.
type SegmentKind int

const (
	// Literal is a segment made of elements.
	Literal SegmentKind = iota

	// Traverse is the "**" segment.
	Traverse
)

// ElementKind identifies the kind of an element in a literal segment.
type ElementKind int

const (
	// Token is literal text.
	Token ElementKind = iota

	// Variable is a "${name}" substitution point.
	Variable

	// Selection is a "{a|b|c}" alternation.
	Selection

	// Wildcard is "*".
	Wildcard
)

func (k ElementKind) String() string {
	switch k {
	case Token:
		return "token"
	case Variable:
		return "variable"
	case Selection:
		return "selection"
	case Wildcard:
		return "wildcard"
	default:
		return "unknown"
	}
}

// Element is one piece of a literal segment.
type Element struct {
	Kind ElementKind

	// Text is the unescaped token text, or the variable name.
	Text string

	// Options holds the alternatives of a Selection.
	Options []string
}

// Segment is one "/"-separated unit of a pattern.
type Segment struct {
	Kind     SegmentKind
	Elements []Element
}

// Pattern is a compiled path pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	source   string
	segments []Segment
}

// Segments returns a copy of the compiled segments.
func (p *Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// String returns the source text the pattern was compiled from.
func (p *Pattern) String() string {
	return p.source
}

// ContainsVariables reports whether any segment holds a ${name} element.
func (p *Pattern) ContainsVariables() bool {
	return len(p.Variables()) > 0
}

// Variables returns the distinct variable names in order of first use.
func (p *Pattern) Variables() []string {
	var names []string
	seen := map[string]bool{}
	for _, s := range p.segments {
		for _, e := range s.Elements {
			if e.Kind == Variable && !seen[e.Text] {
				seen[e.Text] = true
				names = append(names, e.Text)
			}
		}
	}
	return names
}

// isMeta reports whether c has a special meaning in pattern text.
func isMeta(c byte) bool {
	if c < 0x20 {
		return true
	}
	switch c {
	case '\\', '/', '*', '|', '$', '?', '#', '{', '}', '[', ']':
		return true
	}
	return false
}

// Escape quotes every meta character in s except "/" so that s compiles to
// literal tokens.
func Escape(s string) string {
	return escape(s, true)
}

// escape quotes meta characters of s. A "/" is quoted too unless keepSlash
// is set, so the text stays inside one segment.
func escape(s string, keepSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isMeta(c) && (c != '/' || !keepSlash) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
