// Package version reports the versions of ember and the script engines it embeds.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
)

// Version is set during build using ldflags
var Version = "dev"

const (
	starlarkModule = "go.starlark.net"
	risorModule    = "github.com/deepnoodle-ai/risor/v2"
	unknown        = "unknown"
)

// Info is the version set printed by the version command.
type Info struct {
	Ember    string
	Starlark string
	Risor    string
	Go       string
}

// Get collects the version set from the build information.
func Get() Info {
	info, _ := debug.ReadBuildInfo()
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) Info {
	out := Info{
		Ember:    Version,
		Starlark: unknown,
		Risor:    unknown,
		Go:       runtime.Version(),
	}
	if info == nil {
		return out
	}
	if out.Ember == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Ember = strings.TrimPrefix(info.Main.Version, "v")
	}
	for _, dep := range info.Deps {
		v := dep.Version
		if dep.Replace != nil {
			v = dep.Replace.Version
		}
		switch dep.Path {
		case starlarkModule:
			out.Starlark = v
		case risorModule:
			out.Risor = v
		}
	}
	return out
}

// String renders the version set one engine per line.
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("ember: " + i.Ember + "\n")
	b.WriteString("starlark: " + i.Starlark + "\n")
	b.WriteString("risor: " + i.Risor + "\n")
	b.WriteString("go: " + i.Go)
	return b.String()
}
