package modules

import "errors"

var (
	// ErrInvalidSpecifier is returned for specifiers that cannot be parsed as a URL or path.
	ErrInvalidSpecifier = errors.New("invalid module specifier")

	// ErrBareSpecifier is returned for imports that are neither relative nor absolute.
	ErrBareSpecifier = errors.New(`relative import path must start with "./", "../" or "/"`)

	// ErrUnsupportedScheme is returned for URL schemes other than file, http and https.
	ErrUnsupportedScheme = errors.New("unsupported module scheme")

	// ErrUnsupportedMediaType is returned for sources whose language cannot be determined.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrModuleNotFound is returned when a module source does not exist.
	ErrModuleNotFound = errors.New("module not found")

	// ErrCrossLanguageImport is returned when a Starlark module loads a non-Starlark module.
	ErrCrossLanguageImport = errors.New("cannot load a non-Starlark module from Starlark")
)
