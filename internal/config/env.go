package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Pattern for ${VAR_NAME} and ${VAR_NAME:default}; the colon is captured explicitly so that
// ${VAR:} means "empty default" rather than "required".
var envVarWithDefaultPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:)?([^}]*)\}`)

// ExpandEnvVars expands ${VAR_NAME} and ${VAR_NAME:default} references. A variable that is
// unset and has no default is reported as an error and left unexpanded.
func ExpandEnvVars(input string) (string, error) {
	if input == "" {
		return "", nil
	}

	var missing []error
	result := envVarWithDefaultPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarWithDefaultPattern.FindStringSubmatch(match)
		name, hasDefault, def := sub[1], sub[2] == ":", sub[3]

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return def
		}
		missing = append(missing, fmt.Errorf("%w: %s", ErrMissingEnvVar, name))
		return match
	})

	return result, errors.Join(missing...)
}
