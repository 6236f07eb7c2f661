// Package lsimxml reads and writes circuit libraries in the lsim XML format:
//
//	<lsim version="2" main="top">
//	  <reference name="std:gates.lsim"></reference>
//	  <circuit name="top">
//	    <component id="0" type="connector_in" inputs="0" outputs="1" controls="0">
//	      <property key="name" kind="string" value="A"></property>
//	      <position x="10" y="20"></position>
//	      <orientation angle="0"></orientation>
//	    </component>
//	    <wire id="0">
//	      <segment x1="10" y1="20" x2="30" y2="20"></segment>
//	      <pin>0#0</pin>
//	      <pin>1#0</pin>
//	    </wire>
//	  </circuit>
//	</lsim>
//
package lsimxml

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// Version is the version of the format written by Save.
const Version = "2"

type xmlLibrary struct {
	XMLName    xml.Name       `xml:"lsim"`
	Version    string         `xml:"version,attr"`
	Main       string         `xml:"main,attr,omitempty"`
	References []xmlReference `xml:"reference"`
	Circuits   []xmlCircuit   `xml:"circuit"`
}

type xmlReference struct {
	Name string `xml:"name,attr"`
}

type xmlCircuit struct {
	Name       string         `xml:"name,attr"`
	Components []xmlComponent `xml:"component"`
	Wires      []xmlWire      `xml:"wire"`
}

type xmlComponent struct {
	ID          uint32          `xml:"id,attr"`
	Type        string          `xml:"type,attr"`
	Inputs      int             `xml:"inputs,attr"`
	Outputs     int             `xml:"outputs,attr"`
	Controls    int             `xml:"controls,attr"`
	Nested      string          `xml:"nested,attr,omitempty"`
	Properties  []xmlProperty   `xml:"property"`
	Position    *xmlPosition    `xml:"position"`
	Orientation *xmlOrientation `xml:"orientation"`
}

type xmlProperty struct {
	Key   string `xml:"key,attr"`
	Kind  string `xml:"kind,attr,omitempty"`
	Value string `xml:"value,attr"`
}

type xmlPosition struct {
	X float64 `xml:"x,attr"`
	Y float64 `xml:"y,attr"`
}

type xmlOrientation struct {
	Angle int `xml:"angle,attr"`
}

type xmlWire struct {
	ID       uint32       `xml:"id,attr"`
	Segments []xmlSegment `xml:"segment"`
	Pins     []string     `xml:"pin"`
}

type xmlSegment struct {
	X1 float64 `xml:"x1,attr"`
	Y1 float64 `xml:"y1,attr"`
	X2 float64 `xml:"x2,attr"`
	Y2 float64 `xml:"y2,attr"`
}

// Save writes lib to w.
//
func Save(w io.Writer, lib *model.Library) error {
	x := xmlLibrary{Version: Version, Main: lib.MainCircuit()}
	for _, r := range lib.References() {
		x.References = append(x.References, xmlReference{r})
	}
	for _, c := range lib.Circuits() {
		x.Circuits = append(x.Circuits, encodeCircuit(c))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.Wrap(err, "save library")
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(&x); err != nil {
		return errors.Wrapf(err, "save library %q", lib.Name())
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// SaveFile writes lib to the named file and records path as the library path.
//
func SaveFile(path string, lib *model.Library) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "save library")
	}
	defer func() {
		if e := f.Close(); err == nil {
			err = e
		}
	}()
	if err = Save(f, lib); err != nil {
		return err
	}
	lib.SetPath(path)
	return nil
}

func encodeCircuit(c *model.Circuit) xmlCircuit {
	xc := xmlCircuit{Name: c.Name()}
	for _, id := range c.ComponentIDs() {
		comp := c.ComponentByID(id)
		xcomp := xmlComponent{
			ID:          id,
			Type:        comp.Type().String(),
			Inputs:      comp.NumInputs(),
			Outputs:     comp.NumOutputs(),
			Controls:    comp.NumControls(),
			Nested:      comp.NestedName(),
			Position:    &xmlPosition{comp.Position.X, comp.Position.Y},
			Orientation: &xmlOrientation{comp.Angle},
		}
		for _, k := range comp.PropertyKeys() {
			p := comp.Property(k)
			xcomp.Properties = append(xcomp.Properties, xmlProperty{k, p.Kind().String(), p.String()})
		}
		xc.Components = append(xc.Components, xcomp)
	}
	for _, id := range c.WireIDs() {
		w := c.WireByID(id)
		xw := xmlWire{ID: id}
		for _, s := range w.Segments() {
			xw.Segments = append(xw.Segments, xmlSegment{s.P0.X, s.P0.Y, s.P1.X, s.P1.Y})
		}
		for _, p := range w.Pins() {
			xw.Pins = append(xw.Pins, p.String())
		}
		xc.Wires = append(xc.Wires, xw)
	}
	return xc
}

// Decode reads a library named name from r. The library is bound to ctx but
// not registered in it, and its sub-circuits are not resolved. On error, no
// library is returned.
//
func Decode(ctx *model.Context, name, path string, r io.Reader) (*model.Library, error) {
	var x xmlLibrary
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, errors.Wrapf(err, "decode library %q", name)
	}
	if x.Version != "1" && x.Version != Version {
		return nil, errors.Errorf("library %q: unsupported version %q", name, x.Version)
	}
	lib := model.NewLibrary(ctx, name, path)
	for _, ref := range x.References {
		lib.AddReference(ref.Name)
	}
	for i := range x.Circuits {
		if err := decodeCircuit(lib, &x.Circuits[i]); err != nil {
			return nil, errors.Wrapf(err, "library %q", name)
		}
	}
	if x.Main != "" {
		if err := lib.SetMainCircuit(x.Main); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

func decodeCircuit(lib *model.Library, xc *xmlCircuit) error {
	c, err := lib.CreateCircuit(xc.Name)
	if err != nil {
		return err
	}
	for i := range xc.Components {
		if err = decodeComponent(c, &xc.Components[i]); err != nil {
			return errors.Wrapf(err, "circuit %q", xc.Name)
		}
	}
	c.RebuildPortList()
	for _, xw := range xc.Wires {
		w, err := c.CreateWireWithID(xw.ID)
		if err != nil {
			return err
		}
		for _, s := range xw.Segments {
			w.AddSegment(model.Point{X: s.X1, Y: s.Y1}, model.Point{X: s.X2, Y: s.Y2})
		}
		for _, ps := range xw.Pins {
			id, err := lsim.ParsePinID(strings.TrimSpace(ps))
			if err != nil {
				return errors.Wrapf(err, "circuit %q, wire %d", xc.Name, xw.ID)
			}
			comp := c.ComponentByID(id.Component())
			if comp == nil || int(id.Index()) >= comp.NumPins() {
				return errors.Errorf("circuit %q, wire %d: no pin %s", xc.Name, xw.ID, id)
			}
			w.AddPin(id)
		}
	}
	return nil
}

func decodeComponent(c *model.Circuit, xc *xmlComponent) error {
	typ, err := lsim.ParseComponentType(xc.Type)
	if err != nil {
		return errors.Wrapf(err, "component %d", xc.ID)
	}
	if xc.Inputs < 0 || xc.Outputs < 0 || xc.Controls < 0 {
		return errors.Errorf("component %d: negative pin count", xc.ID)
	}
	var comp *model.Component
	if typ == lsim.SubCircuit {
		comp, err = c.AddSubCircuitWithID(xc.ID, xc.Nested, xc.Inputs, xc.Outputs)
	} else {
		comp, err = c.AddComponentWithID(xc.ID, typ, xc.Inputs, xc.Outputs, xc.Controls)
	}
	if err != nil {
		return err
	}
	for _, xp := range xc.Properties {
		if xp.Kind == "" {
			if err = comp.SetProperty(xp.Key, xp.Value); err != nil {
				return errors.Wrapf(err, "component %d", xc.ID)
			}
			continue
		}
		kind, err := model.ParsePropertyKind(xp.Kind)
		if err != nil {
			return errors.Wrapf(err, "component %d", xc.ID)
		}
		p, err := model.NewProperty(xp.Key, kind, xp.Value)
		if err != nil {
			return errors.Wrapf(err, "component %d", xc.ID)
		}
		comp.AddProperty(p)
	}
	if xc.Position != nil {
		comp.Position = model.Point{X: xc.Position.X, Y: xc.Position.Y}
	}
	if xc.Orientation != nil {
		comp.Angle = xc.Orientation.Angle
	}
	return nil
}

// LibraryName returns the name of the reference library stored in file: its
// base name without extension.
//
func LibraryName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadReferenceLibrary loads file, with folder aliases expanded by ctx, and
// registers it in ctx as reference library name. Loading a library that is
// already registered is a no-op.
//
func LoadReferenceLibrary(ctx *model.Context, name, file string) error {
	if ctx.LibraryByName(name) != nil {
		return nil
	}
	lib, err := load(ctx, name, file)
	if err != nil {
		return err
	}
	return ctx.AddReferenceLibrary(lib)
}

// LoadUserLibrary loads file as the user library of ctx. The current user
// library is only replaced if loading succeeds.
//
func LoadUserLibrary(ctx *model.Context, file string) (*model.Library, error) {
	lib, err := load(ctx, model.UserLibraryName, file)
	if err != nil {
		return nil, err
	}
	ctx.SetUserLibrary(lib)
	return lib, nil
}

// load decodes a library and its references, then resolves its sub-circuits.
// Reference libraries registered along the way are unregistered on error.
//
func load(ctx *model.Context, name, file string) (lib *model.Library, err error) {
	loaded := make(map[string]bool)
	for _, n := range ctx.ReferenceLibraries() {
		loaded[n] = true
	}
	defer func() {
		if err == nil {
			return
		}
		for _, n := range ctx.ReferenceLibraries() {
			if !loaded[n] {
				ctx.RemoveReferenceLibrary(n)
			}
		}
	}()

	f, err := os.Open(ctx.FullPath(file))
	if err != nil {
		return nil, errors.Wrapf(err, "load library %q", name)
	}
	defer f.Close()
	lib, err = Decode(ctx, name, file, f)
	if err != nil {
		return nil, err
	}
	for _, ref := range lib.References() {
		if err = LoadReferenceLibrary(ctx, LibraryName(ref), resolveRef(ctx, file, ref)); err != nil {
			return nil, errors.Wrapf(err, "library %q", name)
		}
	}
	if err = lib.SyncSubCircuits(); err != nil {
		return nil, errors.Wrapf(err, "library %q", name)
	}
	return lib, nil
}

// resolveRef makes a relative reference relative to the referring file unless
// it starts with a folder alias.
func resolveRef(ctx *model.Context, from, ref string) string {
	if filepath.IsAbs(ref) || ctx.FullPath(ref) != ref {
		return ref
	}
	return filepath.Join(filepath.Dir(ctx.FullPath(from)), ref)
}
