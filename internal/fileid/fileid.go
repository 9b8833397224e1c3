// Package fileid normalizes file URIs into a stable map key.
package fileid

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ID is a content-addressable key for a file URI. Equality follows the
// canonical filesystem path where the URI resolves to one; otherwise it
// falls back to the raw URI text.
type ID struct {
	key string
}

// Of derives an ID from a URI (file:// or a bare path).
func Of(uri string) ID {
	if path, ok := pathFromFileURI(uri); ok {
		return ID{key: canonicalPath(path)}
	}
	return ID{key: uri}
}

// String returns the underlying key, suitable for logging.
func (id ID) String() string { return id.key }

// IsZero reports whether this is the zero-value ID.
func (id ID) IsZero() bool { return id.key == "" }

func pathFromFileURI(uri string) (string, bool) {
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return strings.TrimPrefix(uri, "file://"), true
		}
		return u.Path, true
	}
	if strings.HasPrefix(uri, "/") {
		return uri, true
	}
	return "", false
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return filepath.Clean(abs)
}

// ToFileURI renders a filesystem path back into a file:// URI.
func ToFileURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return "file://" + abs
}
