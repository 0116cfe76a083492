package disk

import (
	"net/url"
	"strings"

	"github.com/IvanBrykalov/tiercache/cache"
)

// tempPrefix marks in-progress writes. Escaped keys never start with '#'
// (it is escaped to %23), so temp files cannot collide with entries.
const tempPrefix = "#tmp-"

// fileName maps key to its file name inside the root.
func fileName(key string) (string, error) {
	switch key {
	case "":
		return "", cache.ErrInvalidKey
	case ".":
		return "%2E", nil
	case "..":
		return "%2E%2E", nil
	}
	return url.PathEscape(key), nil
}

// keyOf reverses fileName. ok is false for names no key maps to.
func keyOf(name string) (key string, ok bool) {
	if name == "" || strings.HasPrefix(name, tempPrefix) {
		return "", false
	}
	key, err := url.PathUnescape(name)
	if err != nil {
		return "", false
	}
	if n, _ := fileName(key); n != name {
		return "", false
	}
	return key, true
}
