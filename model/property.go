package model

import (
	"strconv"
	"strings"

	"github.com/db47h/lsim"
	"github.com/pkg/errors"
)

// PropertyKind is the type of the value held by a Property.
//
type PropertyKind int

// Property kinds.
//
const (
	KindString PropertyKind = iota
	KindInteger
	KindBool
	KindValue
)

var kindNames = [...]string{"string", "integer", "bool", "value"}

func (k PropertyKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParsePropertyKind returns the kind named s.
//
func ParsePropertyKind(s string) (PropertyKind, error) {
	for i, n := range kindNames {
		if n == s {
			return PropertyKind(i), nil
		}
	}
	return 0, errors.Errorf("unknown property kind %q", s)
}

// Property is a typed key/value pair attached to a component. Accessors convert
// between kinds where it makes sense.
//
type Property struct {
	key  string
	kind PropertyKind
	s    string
	i    int64
	b    bool
	v    lsim.Value
}

// StringProperty returns a new string property.
func StringProperty(key, value string) *Property {
	return &Property{key: key, kind: KindString, s: value}
}

// IntProperty returns a new integer property.
func IntProperty(key string, value int64) *Property {
	return &Property{key: key, kind: KindInteger, i: value}
}

// BoolProperty returns a new boolean property.
func BoolProperty(key string, value bool) *Property {
	return &Property{key: key, kind: KindBool, b: value}
}

// ValueProperty returns a new logic value property.
func ValueProperty(key string, value lsim.Value) *Property {
	return &Property{key: key, kind: KindValue, v: value}
}

// NewProperty returns a property of the given kind with its value parsed from
// text.
//
func NewProperty(key string, kind PropertyKind, text string) (*Property, error) {
	if kind < KindString || kind > KindValue {
		return nil, errors.Errorf("property %q: bad kind %d", key, int(kind))
	}
	p := &Property{key: key, kind: kind}
	if err := p.SetString(text); err != nil {
		return nil, err
	}
	return p, nil
}

// Key returns the property key.
func (p *Property) Key() string { return p.key }

// Kind returns the property kind.
func (p *Property) Kind() PropertyKind { return p.kind }

// String returns the value as a string.
//
func (p *Property) String() string {
	switch p.kind {
	case KindInteger:
		return strconv.FormatInt(p.i, 10)
	case KindBool:
		return strconv.FormatBool(p.b)
	case KindValue:
		return p.v.String()
	}
	return p.s
}

// Int returns the value as an integer. Strings that do not parse as integers
// yield 0.
//
func (p *Property) Int() int64 {
	switch p.kind {
	case KindString:
		i, _ := strconv.ParseInt(strings.TrimSpace(p.s), 10, 64)
		return i
	case KindBool:
		if p.b {
			return 1
		}
		return 0
	case KindValue:
		return int64(p.v)
	}
	return p.i
}

// Bool returns the value as a boolean.
//
func (p *Property) Bool() bool {
	switch p.kind {
	case KindString:
		b, _ := strconv.ParseBool(strings.TrimSpace(p.s))
		return b
	case KindInteger:
		return p.i != 0
	case KindValue:
		return p.v == lsim.True
	}
	return p.b
}

// Value returns the value as a logic value.
//
func (p *Property) Value() lsim.Value {
	switch p.kind {
	case KindString:
		v, err := lsim.ParseValue(p.s)
		if err != nil {
			return lsim.Undefined
		}
		return v
	case KindInteger:
		if p.i >= 0 && p.i <= int64(lsim.Error) {
			return lsim.Value(p.i)
		}
		return lsim.Undefined
	case KindBool:
		return lsim.ValueOf(p.b)
	}
	return p.v
}

// SetString sets the value, keeping the property kind. The string is parsed
// according to the kind.
//
func (p *Property) SetString(s string) error {
	switch p.kind {
	case KindInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return errors.Wrapf(err, "property %q", p.key)
		}
		p.i = i
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return errors.Wrapf(err, "property %q", p.key)
		}
		p.b = b
	case KindValue:
		v, err := lsim.ParseValue(s)
		if err != nil {
			return errors.Wrapf(err, "property %q", p.key)
		}
		p.v = v
	default:
		p.s = s
	}
	return nil
}

// SetInt sets an integer value.
func (p *Property) SetInt(i int64) { p.kind, p.i = KindInteger, i }

// SetBool sets a boolean value.
func (p *Property) SetBool(b bool) { p.kind, p.b = KindBool, b }

// SetValue sets a logic value.
func (p *Property) SetValue(v lsim.Value) { p.kind, p.v = KindValue, v }

// SetText sets a string value.
func (p *Property) SetText(s string) { p.kind, p.s = KindString, s }
