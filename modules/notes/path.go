package notes

import (
	"net/http"
	"strings"
)

// NormalizePath turns a request URI into the form matched by patterns:
// the admin base path is stripped, surrounding slashes are trimmed,
// and the admin root itself becomes "/".
func NormalizePath(requestURI, basePath string) string {
	base := "/" + strings.Trim(basePath, "/")
	path := requestURI
	switch {
	case base == "/":
	case path == base:
		path = ""
	case strings.HasPrefix(path, base+"/"), strings.HasPrefix(path, base+"?"):
		path = path[len(base):]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}
	return path
}

// RequestPath returns the normalized path of an incoming request.
func RequestPath(r *http.Request, basePath string) string {
	return NormalizePath(r.URL.RequestURI(), basePath)
}
