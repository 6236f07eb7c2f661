package model

import (
	"github.com/db47h/lsim"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// UserLibraryName is the name of the library owned by a Context.
//
const UserLibraryName = "user"

// Library is an ordered collection of circuits. Circuit names are compared in
// Unicode normalization form C.
//
type Library struct {
	name string
	path string
	ctx  *Context

	circuits []*Circuit
	lut      map[string]*Circuit
	refs     []string
	main     string
}

func nameKey(s string) string { return norm.NFC.String(s) }

// NewLibrary returns an empty library that resolves sub-circuits through ctx.
// ctx may be nil.
//
func NewLibrary(ctx *Context, name, path string) *Library {
	return &Library{
		name: name,
		path: path,
		ctx:  ctx,
		lut:  make(map[string]*Circuit),
	}
}

// Name returns the library name.
func (l *Library) Name() string { return l.name }

// Path returns the file the library was loaded from, if any.
func (l *Library) Path() string { return l.path }

// SetPath sets the library file path.
func (l *Library) SetPath(path string) { l.path = path }

// Context returns the library context, or nil.
func (l *Library) Context() *Context { return l.ctx }

// CreateCircuit adds an empty circuit. It fails if a circuit with the same name
// already exists.
//
func (l *Library) CreateCircuit(name string) (*Circuit, error) {
	if name == "" {
		return nil, errors.New("empty circuit name")
	}
	k := nameKey(name)
	if _, ok := l.lut[k]; ok {
		return nil, errors.Errorf("duplicate circuit %q in library %q", name, l.name)
	}
	c := newCircuit(name, l)
	l.circuits = append(l.circuits, c)
	l.lut[k] = c
	if l.main == "" {
		l.main = name
	}
	return c, nil
}

// MustCreateCircuit is like CreateCircuit but panics on error.
//
func (l *Library) MustCreateCircuit(name string) *Circuit {
	c, err := l.CreateCircuit(name)
	if err != nil {
		panic(err)
	}
	return c
}

// DeleteCircuit removes a circuit from the library.
//
func (l *Library) DeleteCircuit(c *Circuit) {
	for i, lc := range l.circuits {
		if lc == c {
			l.circuits = append(l.circuits[:i], l.circuits[i+1:]...)
			delete(l.lut, nameKey(c.name))
			c.lib = nil
			return
		}
	}
}

// RenameCircuit changes the name of a circuit of the library.
//
func (l *Library) RenameCircuit(c *Circuit, name string) error {
	if c.lib != l {
		return errors.Errorf("circuit %q does not belong to library %q", c.name, l.name)
	}
	k := nameKey(name)
	if other, ok := l.lut[k]; ok && other != c {
		return errors.Errorf("duplicate circuit %q in library %q", name, l.name)
	}
	delete(l.lut, nameKey(c.name))
	if l.main == c.name {
		l.main = name
	}
	c.name = name
	l.lut[k] = c
	return nil
}

// SwapCircuits exchanges the position of two circuits.
func (l *Library) SwapCircuits(i, j int) { l.circuits[i], l.circuits[j] = l.circuits[j], l.circuits[i] }

// CircuitByName returns the named circuit, or nil.
func (l *Library) CircuitByName(name string) *Circuit { return l.lut[nameKey(name)] }

// CircuitByIndex returns circuit i.
func (l *Library) CircuitByIndex(i int) *Circuit { return l.circuits[i] }

// CircuitIndex returns the position of c in the library, or -1.
//
func (l *Library) CircuitIndex(c *Circuit) int {
	for i, lc := range l.circuits {
		if lc == c {
			return i
		}
	}
	return -1
}

// NumCircuits returns the number of circuits.
func (l *Library) NumCircuits() int { return len(l.circuits) }

// Circuits returns the circuits in library order.
func (l *Library) Circuits() []*Circuit { return l.circuits }

// Clear removes all circuits and references.
//
func (l *Library) Clear() {
	l.circuits = nil
	l.lut = make(map[string]*Circuit)
	l.refs = nil
	l.main = ""
}

// AddReference records that the library uses circuits of the reference library
// name. Adding a reference twice is a no-op.
//
func (l *Library) AddReference(name string) {
	for _, r := range l.refs {
		if r == name {
			return
		}
	}
	l.refs = append(l.refs, name)
}

// RemoveReference forgets a reference.
//
func (l *Library) RemoveReference(name string) {
	for i, r := range l.refs {
		if r == name {
			l.refs = append(l.refs[:i], l.refs[i+1:]...)
			return
		}
	}
}

// References returns the names of the referenced libraries.
func (l *Library) References() []string { return l.refs }

// MainCircuit returns the name of the main circuit: the first circuit created
// unless changed with SetMainCircuit.
//
func (l *Library) MainCircuit() string { return l.main }

// SetMainCircuit sets the main circuit.
//
func (l *Library) SetMainCircuit(name string) error {
	if l.CircuitByName(name) == nil {
		return errors.Wrapf(lsim.ErrNotFound, "circuit %q in library %q", name, l.name)
	}
	l.main = name
	return nil
}

// SyncSubCircuits resolves the sub-circuit components of every circuit.
//
func (l *Library) SyncSubCircuits() error {
	for _, c := range l.circuits {
		if err := c.SyncSubCircuits(); err != nil {
			return err
		}
	}
	return nil
}
