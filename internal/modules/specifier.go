package modules

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/idna"
)

// ResolveRoot turns a command-line specifier into an absolute module URL. URLs with a
// supported scheme are used as is; anything else is a filesystem path relative to the
// working directory.
func ResolveRoot(specifier string) (*url.URL, error) {
	if specifier == "" {
		return nil, fmt.Errorf("%w: empty specifier", ErrInvalidSpecifier)
	}

	if hasScheme(specifier) {
		u, err := url.Parse(specifier)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSpecifier, specifier, err)
		}
		return normalize(u)
	}

	abs, err := filepath.Abs(specifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSpecifier, specifier, err)
	}
	return FileURL(abs), nil
}

// Resolve resolves an import specifier found in the module at referrer.
func Resolve(specifier string, referrer *url.URL) (*url.URL, error) {
	if hasScheme(specifier) {
		return ResolveRoot(specifier)
	}

	if !strings.HasPrefix(specifier, "./") &&
		!strings.HasPrefix(specifier, "../") &&
		!strings.HasPrefix(specifier, "/") {
		return nil, fmt.Errorf("%w: %q imported from %s", ErrBareSpecifier, specifier, referrer)
	}

	ref, err := url.Parse(specifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSpecifier, specifier, err)
	}
	return normalize(referrer.ResolveReference(ref))
}

// FileURL returns the file URL for an absolute filesystem path.
func FileURL(abs string) *url.URL {
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
}

func hasScheme(s string) bool {
	for _, scheme := range []string{"file:", "http:", "https:"} {
		if strings.HasPrefix(strings.ToLower(s), scheme) {
			return true
		}
	}
	return false
}

// normalize lowercases the scheme, converts internationalized hosts to ASCII, cleans the
// path and drops fragments.
func normalize(u *url.URL) (*url.URL, error) {
	out := *u
	out.Scheme = strings.ToLower(out.Scheme)
	out.Fragment = ""
	out.RawFragment = ""

	switch out.Scheme {
	case "file":
		out.Host = ""
		out.Path = path.Clean("/" + strings.TrimPrefix(out.Path, "/"))
		out.RawQuery = ""
	case "http", "https":
		host, err := idna.Lookup.ToASCII(out.Hostname())
		if err != nil {
			return nil, fmt.Errorf("%w: host %q: %w", ErrInvalidSpecifier, out.Hostname(), err)
		}
		if port := out.Port(); port != "" {
			host = host + ":" + port
		}
		out.Host = host
		if out.Path == "" {
			out.Path = "/"
		}
		out.Path = path.Clean(out.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, out.Scheme)
	}
	out.RawPath = ""
	return &out, nil
}
