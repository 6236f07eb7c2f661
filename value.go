package lsim

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Value is a four-valued logic level.
//
type Value uint8

// Logic values. The numeric values match the bit they represent for False and
// True so that a Value can be shifted into an integer.
//
const (
	False Value = iota
	True
	Undefined
	Error
)

var valueNames = [...]string{
	False:     "0",
	True:      "1",
	Undefined: "U",
	Error:     "E",
}

// ValueOf returns True if b is true, False otherwise.
//
func ValueOf(b bool) Value {
	if b {
		return True
	}
	return False
}

// Not returns the negation of v. Undefined and Error are their own negation.
//
func (v Value) Not() Value {
	switch v {
	case False:
		return True
	case True:
		return False
	}
	return v
}

// IsBool returns true if v is either False or True.
//
func (v Value) IsBool() bool {
	return v == False || v == True
}

func (v Value) String() string {
	if int(v) < len(valueNames) {
		return valueNames[v]
	}
	return "Value(" + strconv.Itoa(int(v)) + ")"
}

// ParseValue parses the textual representation of a logic value.
//
// Accepted forms (case insensitive) are 0, 1, false, true, u, undefined, e and
// error.
//
func ParseValue(s string) (Value, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false":
		return False, nil
	case "1", "true":
		return True, nil
	case "u", "undefined":
		return Undefined, nil
	case "e", "error":
		return Error, nil
	}
	return Undefined, errors.Errorf("invalid logic value %q", s)
}
