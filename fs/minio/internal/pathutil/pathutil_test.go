package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"":           "",
		".":          "",
		"/":          "",
		"a/b":        "a/b",
		"/a//b/":     "a/b",
		`a\b`:        "a/b",
		"a/./b/../c": "a/c",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "a/b", JoinPath("", "a/b"))
	assert.Equal(t, "p", JoinPath("p", "."))
	assert.Equal(t, "p/a", JoinPath("p", "/a/"))
}

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "", DirPrefix(""))
	assert.Equal(t, "a/", DirPrefix("a"))
	assert.Equal(t, "a/", DirPrefix("a/"))
}

func TestChild(t *testing.T) {
	name, nested := Child("a/", "a/b/c.txt")
	assert.Equal(t, "b", name)
	assert.True(t, nested)

	name, nested = Child("a/", "a/c.txt")
	assert.Equal(t, "c.txt", name)
	assert.False(t, nested)
}
