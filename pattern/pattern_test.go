package pattern

import (
	"testing"

	"github.com/jmgilman/go/directio/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_RoundTrip(t *testing.T) {
	corpus := []string{
		"a/b/c",
		"*",
		"**",
		"**/*.csv",
		"{a|b}/x",
		"${var}/y",
		"/leading//double/",
		`escaped\*name`,
		"x{a/b|}y/**/part-*",
	}
	for _, text := range corpus {
		t.Run(text, func(t *testing.T) {
			p, err := Compile(text)
			require.NoError(t, err)
			assert.Equal(t, text, p.String())
		})
	}
}

func TestCompile_Segments(t *testing.T) {
	p, err := Compile("data/**/part-${n}-*.{csv|tsv}")
	require.NoError(t, err)

	segs := p.Segments()
	require.Len(t, segs, 3)

	assert.Equal(t, Literal, segs[0].Kind)
	assert.Equal(t, []Element{{Kind: Token, Text: "data"}}, segs[0].Elements)

	assert.Equal(t, Traverse, segs[1].Kind)
	assert.Empty(t, segs[1].Elements)

	assert.Equal(t, []Element{
		{Kind: Token, Text: "part-"},
		{Kind: Variable, Text: "n"},
		{Kind: Token, Text: "-"},
		{Kind: Wildcard},
		{Kind: Token, Text: "."},
		{Kind: Selection, Options: []string{"csv", "tsv"}},
	}, segs[2].Elements)
}

func TestCompile_Escape(t *testing.T) {
	p, err := Compile(`a\*b\{c`)
	require.NoError(t, err)
	segs := p.Segments()
	require.Len(t, segs, 1)
	assert.Equal(t, []Element{{Kind: Token, Text: "a*b{c"}}, segs[0].Elements)
	assert.True(t, p.Match("a*b{c"))
	assert.False(t, p.Match("axb{c"))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		offset int
	}{
		{"consecutive wildcard", "a**", 1},
		{"triple wildcard", "***", 0},
		{"two wildcards", "*a*", 2},
		{"unclosed selection", "x/{a|b", 2},
		{"invalid char in selection", "{a*}", 2},
		{"variable without brace", "$x", 0},
		{"unclosed variable", "a/${x", 2},
		{"empty variable", "${}", 0},
		{"question mark", "a?", 1},
		{"bracket", "[ab]", 0},
		{"stray close brace", "a}", 1},
		{"stray bar", "a|b", 1},
		{"control character", "a\tb", 1},
		{"dangling escape", `ab\`, 2},
		{"only separators", "///", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.text)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidPattern, errors.GetCode(err))
			assert.False(t, errors.IsRetryable(err))

			var e errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, tt.offset, e.Context()["offset"])
		})
	}
}

func TestCompile_Empty(t *testing.T) {
	_, err := Compile("")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidPattern, errors.GetCode(err))
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("{") })
	assert.NotPanics(t, func() { MustCompile("a/b") })
}

func TestContainsVariables(t *testing.T) {
	assert.False(t, MustCompile("a/*/c").ContainsVariables())
	assert.True(t, MustCompile("a/${x}/c").ContainsVariables())
	assert.Equal(t, []string{"x", "y"}, MustCompile("${x}/${y}-${x}").Variables())
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/*.csv", "x/y/z.csv", true},
		{"**/*.csv", "z.csv", true},
		{"**/*.csv", "z.txt", false},
		{"a/**/c", "a/c", true},
		{"a/**/c", "a/b1/b2/c", true},
		{"a/**/c", "a/b1/b2/d", false},
		{"a/b/c", "a/b/c", true},
		{"a/b/c", "/a//b/c/", true},
		{"a/b/c", "a/b", false},
		{"a/b", "a/b/c", false},
		{"*", "anything", true},
		{"*", "a/b", false},
		{"**", "", true},
		{"**", "a/b/c", true},
		{"part-*.csv", "part-.csv", true},
		{"part-*.csv", "part-0001.csv", true},
		{"part-*.csv", "part-0001.tsv", false},
		{"ab*ba", "aba", false},
		{"{a|b}/x", "a/x", true},
		{"{a|b}/x", "b/x", true},
		{"{a|b}/x", "c/x", false},
		{"{a/b|c}/x", "a/b/x", true},
		{"{a/b|c}/x", "c/x", true},
		{"{a/b|c}/x", "a/x", false},
		{"{|opt/}x", "x", true},
		{"{|opt/}x", "opt/x", true},
		{"pre{1|2}-*", "pre2-z", true},
		{"${var}/y", "v/y", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MustCompile(tt.pattern).Match(tt.path))
		})
	}
}

func TestSteps(t *testing.T) {
	steps, err := MustCompile("x{a/b|c}*/**").Steps()
	require.NoError(t, err)
	require.Len(t, steps, 2)

	assert.False(t, steps[0].Traverse)
	require.Len(t, steps[0].Alternatives, 2)
	require.Len(t, steps[0].Alternatives[0], 2)

	name, literal := steps[0].Alternatives[0][0].Literal()
	assert.True(t, literal)
	assert.Equal(t, "xa", name)
	assert.Equal(t, "b*", steps[0].Alternatives[0][1].String())
	assert.Equal(t, "xc*", steps[0].Alternatives[1][0].String())
	assert.True(t, steps[1].Traverse)

	_, err = MustCompile("${x}").Steps()
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	p := MustCompile("logs/${date}/part-${id}-*")

	r, err := p.Resolve(map[string]string{"date": "2024/01", "id": "a*b"})
	require.NoError(t, err)
	assert.False(t, r.ContainsVariables())
	assert.Equal(t, `logs/2024/01/part-a\*b-*`, r.String())
	assert.True(t, r.Match("logs/2024/01/part-a*b-7"))
	assert.False(t, r.Match("logs/2024/01/part-axb-7"))

	_, err = p.Resolve(map[string]string{"date": "x"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	escaped := MustCompile(`a\/b/${x}`)
	require.Len(t, escaped.Segments(), 2)
	r, err = escaped.Resolve(map[string]string{"x": "v"})
	require.NoError(t, err)
	assert.Len(t, r.Segments(), 2)
	assert.Equal(t, `a\/b/v`, r.String())

	plain := MustCompile("a/b")
	same, err := plain.Resolve(nil)
	require.NoError(t, err)
	assert.Same(t, plain, same)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `a\{b\}/c\$`, Escape("a{b}/c$"))
	p := MustCompile(Escape("x[1]?#"))
	assert.True(t, p.Match("x[1]?#"))
}
