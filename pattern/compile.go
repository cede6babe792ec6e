package pattern

import (
	"fmt"

	"github.com/jmgilman/go/directio/errors"
)

const eof = -1

// Compile parses text into a Pattern.
func Compile(text string) (*Pattern, error) {
	if text == "" {
		return nil, errors.New(errors.CodeInvalidPattern, "pattern must not be empty")
	}
	c := &cursor{src: text}
	var segments []Segment
	c.skipSeparators()
	for c.peek(0) != eof {
		seg, err := c.segment()
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return nil, c.fail(0, "pattern has no segments")
	}
	return &Pattern{source: text, segments: segments}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(text string) *Pattern {
	p, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return p
}

// cursor is a single pass scanner over pattern text.
type cursor struct {
	src string
	pos int
}

// peek returns the byte at pos+n, or eof.
func (c *cursor) peek(n int) int {
	if c.pos+n >= len(c.src) {
		return eof
	}
	return int(c.src[c.pos+n])
}

func (c *cursor) isText(n int) bool {
	ch := c.peek(n)
	return ch != eof && !isMeta(byte(ch))
}

func (c *cursor) skipSeparators() {
	for c.peek(0) == '/' {
		c.pos++
	}
}

func (c *cursor) fail(offset int, msg string) error {
	return errors.WithContextMap(
		errors.Newf(errors.CodeInvalidPattern, "%s (pattern=%q, offset=%d)", msg, c.src, offset),
		map[string]interface{}{"pattern": c.src, "offset": offset},
	)
}

func (c *cursor) segment() (Segment, error) {
	if c.peek(0) == '*' && c.peek(1) == '*' && (c.peek(2) == '/' || c.peek(2) == eof) {
		c.pos += 2
		c.skipSeparators()
		return Segment{Kind: Traverse}, nil
	}

	var elements []Element
	wildcards := 0
	for {
		switch ch := c.peek(0); {
		case ch == eof:
			return Segment{Kind: Literal, Elements: elements}, nil
		case ch == '/':
			c.skipSeparators()
			return Segment{Kind: Literal, Elements: elements}, nil
		case ch == '*':
			if c.peek(1) == '*' {
				return Segment{}, c.fail(c.pos, `invalid consecutive wildcard "**"`)
			}
			if wildcards > 0 {
				return Segment{}, c.fail(c.pos, "at most one wildcard is allowed in a segment")
			}
			wildcards++
			c.pos++
			elements = append(elements, Element{Kind: Wildcard})
		case ch == '{':
			options, err := c.selection()
			if err != nil {
				return Segment{}, err
			}
			elements = append(elements, Element{Kind: Selection, Options: options})
		case ch == '$':
			name, err := c.variable()
			if err != nil {
				return Segment{}, err
			}
			elements = append(elements, Element{Kind: Variable, Text: name})
		case ch == '\\' || c.isText(0):
			text, err := c.token()
			if err != nil {
				return Segment{}, err
			}
			// adjacent tokens only arise around escapes; keep them merged
			if n := len(elements); n > 0 && elements[n-1].Kind == Token {
				elements[n-1].Text += text
			} else {
				elements = append(elements, Element{Kind: Token, Text: text})
			}
		default:
			return Segment{}, c.fail(c.pos, "invalid character "+quoteChar(byte(ch)))
		}
	}
}

func (c *cursor) token() (string, error) {
	var buf []byte
	for {
		if c.peek(0) == '\\' {
			if c.peek(1) == eof {
				return "", c.fail(c.pos, "dangling escape")
			}
			buf = append(buf, c.src[c.pos+1])
			c.pos += 2
			continue
		}
		if !c.isText(0) {
			return string(buf), nil
		}
		buf = append(buf, c.src[c.pos])
		c.pos++
	}
}

func (c *cursor) variable() (string, error) {
	start := c.pos
	if c.peek(1) != '{' {
		return "", c.fail(start, "invalid variable format")
	}
	c.pos += 2
	nameStart := c.pos
	for c.isText(0) {
		c.pos++
	}
	if c.peek(0) != '}' {
		return "", c.fail(start, "invalid variable format")
	}
	name := c.src[nameStart:c.pos]
	if name == "" {
		return "", c.fail(start, "empty variable name")
	}
	c.pos++
	return name, nil
}

func (c *cursor) selection() ([]string, error) {
	start := c.pos
	c.pos++
	var options []string
	head := true
	for {
		ch := c.peek(0)
		switch {
		case ch == eof:
			return nil, c.fail(start, "selection is not closed")
		case head || ch == '|':
			if !head {
				c.pos++
			}
			optStart := c.pos
			for c.isText(0) || c.peek(0) == '/' {
				c.pos++
			}
			options = append(options, c.src[optStart:c.pos])
		case ch == '}':
			c.pos++
			return options, nil
		default:
			return nil, c.fail(c.pos, "invalid character in selection")
		}
		head = false
	}
}

func quoteChar(c byte) string {
	if c < 0x20 {
		return fmt.Sprintf("\\x%02x", c)
	}
	return fmt.Sprintf("%q", string(c))
}
