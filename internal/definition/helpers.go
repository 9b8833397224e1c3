package definition

import (
	"os"
	"strings"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// filePathFromURI strips a file:// scheme if present and otherwise
// returns uri unchanged as a path. Open documents are keyed by the URIs
// LSP clients send, which carry the file:// scheme.
func filePathFromURI(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	const scheme = "file://"
	if strings.HasPrefix(uri, scheme) {
		return uri[len(scheme):], true
	}
	return uri, true
}
