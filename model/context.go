package model

import (
	"sort"
	"strings"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// Context owns the user library, the reference libraries it may use and the
// simulator circuits are instantiated into.
//
type Context struct {
	sim     *lsim.Simulator
	user    *Library
	refs    map[string]*Library
	folders []string
	paths   map[string]string
}

// NewContext returns a context with an empty user library. sim may be nil.
//
func NewContext(sim *lsim.Simulator) *Context {
	ctx := &Context{
		sim:   sim,
		refs:  make(map[string]*Library),
		paths: make(map[string]string),
	}
	ctx.user = NewLibrary(ctx, UserLibraryName, "")
	return ctx
}

// Sim returns the context simulator.
func (ctx *Context) Sim() *lsim.Simulator { return ctx.sim }

// UserLibrary returns the user library.
func (ctx *Context) UserLibrary() *Library { return ctx.user }

// SetUserLibrary replaces the user library with lib.
//
func (ctx *Context) SetUserLibrary(lib *Library) {
	lib.ctx = ctx
	lib.name = UserLibraryName
	ctx.user = lib
}

// NewLibrary returns an empty library bound to ctx. It is not registered as a
// reference library.
//
func (ctx *Context) NewLibrary(name, path string) *Library {
	return NewLibrary(ctx, name, path)
}

// AddReferenceLibrary registers lib under its name.
//
func (ctx *Context) AddReferenceLibrary(lib *Library) error {
	if lib.name == "" || lib.name == UserLibraryName || strings.Contains(lib.name, ".") {
		return errors.Errorf("invalid reference library name %q", lib.name)
	}
	if _, ok := ctx.refs[lib.name]; ok {
		return errors.Errorf("reference library %q already loaded", lib.name)
	}
	lib.ctx = ctx
	ctx.refs[lib.name] = lib
	return nil
}

// RemoveReferenceLibrary unregisters a reference library.
func (ctx *Context) RemoveReferenceLibrary(name string) { delete(ctx.refs, name) }

// ClearReferenceLibraries unregisters all reference libraries.
func (ctx *Context) ClearReferenceLibraries() { ctx.refs = make(map[string]*Library) }

// ReferenceLibraries returns the names of the reference libraries, sorted.
//
func (ctx *Context) ReferenceLibraries() []string {
	names := make([]string, 0, len(ctx.refs))
	for n := range ctx.refs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LibraryByName returns the user library for "user", a reference library
// otherwise, or nil.
//
func (ctx *Context) LibraryByName(name string) *Library {
	if name == UserLibraryName {
		return ctx.user
	}
	return ctx.refs[name]
}

// FindCircuit resolves a circuit name. A qualified name "lib.circuit" is looked
// up in reference library lib. Other names are looked up in fallback, if not
// nil, then in the user library.
//
func (ctx *Context) FindCircuit(name string, fallback *Library) *Circuit {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		lib := ctx.refs[name[:i]]
		if lib == nil {
			return nil
		}
		return lib.CircuitByName(name[i+1:])
	}
	if fallback != nil {
		if c := fallback.CircuitByName(name); c != nil {
			return c
		}
	}
	return ctx.user.CircuitByName(name)
}

// AddFolder registers a folder alias: file names starting with name are
// relative to path.
//
func (ctx *Context) AddFolder(name, path string) {
	if _, ok := ctx.paths[name]; !ok {
		ctx.folders = append(ctx.folders, name)
	}
	ctx.paths[name] = path
}

// Folders returns the folder aliases in registration order.
func (ctx *Context) Folders() []string { return ctx.folders }

// FolderPath returns the path of a folder alias.
func (ctx *Context) FolderPath(name string) string { return ctx.paths[name] }

// FullPath expands a leading folder alias in file.
//
func (ctx *Context) FullPath(file string) string {
	for _, name := range ctx.folders {
		if strings.HasPrefix(file, name) {
			return ctx.paths[name] + file[len(name):]
		}
	}
	return file
}

// RelativePath replaces a leading folder path in file with its alias.
//
func (ctx *Context) RelativePath(file string) string {
	for _, name := range ctx.folders {
		if p := ctx.paths[name]; p != "" && strings.HasPrefix(file, p) {
			return name + file[len(p):]
		}
	}
	return file
}
