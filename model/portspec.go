package model

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BusPinName returns the name of pin i of a multi-bit port: "name[i]".
//
func BusPinName(name string, i int) string {
	return name + "[" + strconv.Itoa(i) + "]"
}

// ExpandRange expands a port range like "A[0..3]" to the list of its pin names
// ("A[0]", "A[1]", "A[2]", "A[3]"). Descending ranges ("A[3..0]") are expanded
// in descending order. Names without a range are returned as is.
//
func ExpandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.Errorf("empty bus name in %q", name)
	}
	n := name[i+1:]
	i = strings.Index(n, "..")
	if i < 0 {
		return []string{name}, nil
	}
	start, err := strconv.Atoi(strings.TrimSpace(n[:i]))
	if err != nil {
		return nil, errors.Wrapf(err, "bad range start in %q", name)
	}
	n = n[i+2:]
	i = strings.IndexRune(n, ']')
	if i < 0 {
		return nil, errors.Errorf("no terminating ] in bus range %q", name)
	}
	end, err := strconv.Atoi(strings.TrimSpace(n[:i]))
	if err != nil {
		return nil, errors.Wrapf(err, "bad range end in %q", name)
	}
	if start < 0 || end < 0 {
		return nil, errors.Errorf("negative index in bus range %q", name)
	}
	step := 1
	if end < start {
		step = -1
	}
	r := make([]string, 0, (end-start)*step+1)
	for i := start; ; i += step {
		r = append(r, BusPinName(bus, i))
		if i == end {
			break
		}
	}
	return r, nil
}

// ExpandPorts expands each name with ExpandRange and concatenates the results.
//
func ExpandPorts(names ...string) ([]string, error) {
	var r []string
	for _, n := range names {
		ns, err := ExpandRange(n)
		if err != nil {
			return nil, err
		}
		r = append(r, ns...)
	}
	return r, nil
}
