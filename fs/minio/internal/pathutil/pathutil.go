// Package pathutil maps filesystem paths onto object keys.
package pathutil

import (
	"path"
	"strings"
)

// Normalize cleans name into a slash-separated relative path. The root is "".
func Normalize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}

// JoinPath joins a key prefix and a path.
func JoinPath(prefix, name string) string {
	name = Normalize(name)
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "/" + name
	}
}

// DirPrefix returns key with a trailing "/" so that it only matches keys
// below it. The root key stays "".
func DirPrefix(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}

// Child returns the first path element of key below prefix and whether more
// elements follow it.
func Child(prefix, key string) (string, bool) {
	rel := strings.TrimPrefix(key, prefix)
	name, _, nested := strings.Cut(rel, "/")
	return name, nested
}
