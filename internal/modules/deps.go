package modules

import "fmt"

// Deps is a module and its direct imports, recursively.
type Deps struct {
	Name string
	Deps []*Deps
}

// Deps builds the dependency tree of a loaded module. Modules seen earlier on the current
// path are not expanded again.
func (l *Loader) Deps(name string) (*Deps, bool) {
	if _, ok := l.modules[name]; !ok {
		return nil, false
	}
	return l.deps(name, map[string]bool{}), true
}

func (l *Loader) deps(name string, path map[string]bool) *Deps {
	d := &Deps{Name: name}
	m, ok := l.modules[name]
	if !ok || path[name] {
		return d
	}
	path[name] = true
	defer delete(path, name)
	for _, imp := range m.Imports {
		d.Deps = append(d.Deps, l.deps(imp.URL.String(), path))
	}
	return d
}

// Flatten lists every transitive dependency, depth first, without duplicates and without
// the root itself.
func (d *Deps) Flatten() []string {
	var out []string
	seen := map[string]bool{d.Name: true}
	var walk func(*Deps)
	walk = func(n *Deps) {
		for _, child := range n.Deps {
			if seen[child.Name] {
				continue
			}
			seen[child.Name] = true
			out = append(out, child.Name)
			walk(child)
		}
	}
	walk(d)
	return out
}

// Metadata describes a module for info output.
type Metadata struct {
	ModuleName       string
	Filename         string
	MediaType        MediaType
	CompiledFilename string
	MapFilename      string
}

// Metadata returns the metadata of a loaded module.
func (l *Loader) Metadata(name string) (Metadata, error) {
	m, ok := l.modules[name]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return Metadata{
		ModuleName:       m.Name(),
		Filename:         m.Filename,
		MediaType:        m.MediaType,
		CompiledFilename: m.CompiledFilename,
		MapFilename:      m.SidecarFilename,
	}, nil
}
