package modules

import (
	"fmt"
	"path"
	"strings"
)

// MediaType identifies the language of a module source.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeStarlark
	MediaTypeRisor
)

// String returns a string representation of the MediaType.
func (m MediaType) String() string {
	switch m {
	case MediaTypeStarlark:
		return "Starlark"
	case MediaTypeRisor:
		return "Risor"
	case MediaTypeUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// MediaTypeFromPath maps a file or URL path to a media type by its extension.
func MediaTypeFromPath(p string) MediaType {
	switch strings.ToLower(path.Ext(p)) {
	case ".star", ".sky", ".bzl":
		return MediaTypeStarlark
	case ".risor":
		return MediaTypeRisor
	default:
		return MediaTypeUnknown
	}
}
