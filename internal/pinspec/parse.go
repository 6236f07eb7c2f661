// Package pinspec parses port lists and port assignments as typed on the
// command line or in scenario files:
//
//	A[0..3], Ci, Y[2]
//	A[0..3]=5, B[0..3]=0x3, Ci=1, En=U
//
package pinspec

import (
	"strconv"
	"strings"

	"github.com/db47h/lsim"
	"github.com/db47h/lsim/model"
	"github.com/pkg/errors"
)

// Port is a port reference: a simple name, name[index] or name[start..end].
//
type Port struct {
	Name  string
	Pos   Pos
	Start int // -1 if no index
	End   int // -1 unless a range
}

// Names returns the port names p refers to.
//
func (p Port) Names() []string {
	switch {
	case p.Start < 0:
		return []string{p.Name}
	case p.End < 0:
		return []string{model.BusPinName(p.Name, p.Start)}
	}
	names, _ := model.ExpandRange(p.Name + "[" + itoa(p.Start) + ".." + itoa(p.End) + "]")
	return names
}

func (p Port) String() string {
	switch {
	case p.Start < 0:
		return p.Name
	case p.End < 0:
		return p.Name + "[" + itoa(p.Start) + "]"
	}
	return p.Name + "[" + itoa(p.Start) + ".." + itoa(p.End) + "]"
}

func itoa(i int) string { return strconv.Itoa(i) }

// Assignment sets a port to either an integer, bit i of which goes to the i-th
// port name, or to a single value applied to every bit.
//
type Assignment struct {
	Port  Port
	Bits  uint64
	Value lsim.Value
	// Literal is true if Value is used instead of Bits.
	Literal bool
}

// Values returns the value of each pin of the assignment target, in the order
// returned by a.Port.Names().
//
func (a Assignment) Values() []lsim.Value {
	n := len(a.Port.Names())
	vs := make([]lsim.Value, n)
	for i := range vs {
		if a.Literal {
			vs[i] = a.Value
		} else {
			vs[i] = lsim.ValueOf(a.Bits>>uint(i)&1 != 0)
		}
	}
	return vs
}

// Parser is a simplistic parser for comma separated port lists.
//
type Parser struct {
	Input string
	l     *lexer
	i     Item
}

func (p *Parser) lex() Item {
	if p.l == nil {
		p.l = newLexer(p.Input)
	}
	p.i = p.l.Lex()
	return p.i
}

func (p *Parser) errorf(pos Pos, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", p.Input, pos+1, msg)
}

// ParsePorts parses a comma separated list of port references.
//
func ParsePorts(s string) ([]Port, error) {
	p := &Parser{Input: s}
	var r []Port
	if p.lex().Type == EOF {
		return nil, nil
	}
	for {
		port, err := p.port()
		if err != nil {
			return nil, err
		}
		r = append(r, port)
		switch p.i.Type {
		case EOF:
			return r, nil
		case Comma:
			p.lex()
		default:
			return nil, p.errorf(p.i.Pos, "unexpected "+p.i.String())
		}
	}
}

// ParseAssignments parses a comma separated list of port assignments. Values
// are integers (decimal, 0x hexadecimal or 0b binary) or one of the logic
// value names accepted by lsim.ParseValue.
//
func ParseAssignments(s string) ([]Assignment, error) {
	p := &Parser{Input: s}
	var r []Assignment
	if p.lex().Type == EOF {
		return nil, nil
	}
	for {
		port, err := p.port()
		if err != nil {
			return nil, err
		}
		if p.i.Type != Equal {
			return nil, p.errorf(p.i.Pos, "expected '=' after "+port.String())
		}
		a := Assignment{Port: port}
		switch it := p.lex(); it.Type {
		case Int:
			a.Bits = it.Value.(uint64)
			if n := len(port.Names()); n < 64 && a.Bits>>uint(n) != 0 {
				return nil, p.errorf(it.Pos, "value does not fit in "+port.String())
			}
		case Ident:
			v, err := lsim.ParseValue(strings.ToLower(it.Value.(string)))
			if err != nil {
				return nil, p.errorf(it.Pos, "bad value "+it.String())
			}
			a.Value, a.Literal = v, true
		default:
			return nil, p.errorf(it.Pos, "value expected, got "+it.String())
		}
		r = append(r, a)
		switch p.lex(); p.i.Type {
		case EOF:
			return r, nil
		case Comma:
			p.lex()
		default:
			return nil, p.errorf(p.i.Pos, "unexpected "+p.i.String())
		}
	}
}

// port parses a port reference starting at the current item and leaves the
// parser on the item following it.
func (p *Parser) port() (Port, error) {
	if p.i.Type != Ident {
		return Port{}, p.errorf(p.i.Pos, "expected port name, got "+p.i.String())
	}
	port := Port{Name: p.i.Value.(string), Pos: p.i.Pos, Start: -1, End: -1}
	if p.lex().Type != BracketOpen {
		return port, nil
	}
	if p.lex().Type != Int {
		return Port{}, p.errorf(p.i.Pos, "integer value expected after '['")
	}
	port.Start = int(p.i.Value.(uint64))
	if p.lex().Type == Range {
		if p.lex().Type != Int {
			return Port{}, p.errorf(p.i.Pos, "integer value expected after '..'")
		}
		port.End = int(p.i.Value.(uint64))
		p.lex()
	}
	if p.i.Type != BracketClose {
		return Port{}, p.errorf(p.i.Pos, "closing ']' expected after index or range")
	}
	p.lex()
	return port, nil
}

// Names expands a list of ports to port names.
//
func Names(ports []Port) []string {
	var r []string
	for _, p := range ports {
		r = append(r, p.Names()...)
	}
	return r
}

// Apply writes the assignments to the input ports of inst.
//
func Apply(inst *lsim.Instance, as []Assignment) error {
	for _, a := range as {
		vs := a.Values()
		for i, n := range a.Port.Names() {
			if err := inst.WritePort(n, vs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
