// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package lsim

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var pinIDType = reflect.TypeOf(PinID(0))

// BindPorts fills the PinID fields of the struct pointed to by v with the pin
// ids of the ports of inst.
//
// Fields are identified by the `lsim` field tag. The port name defaults to the
// field name and can be overridden in the tag: `lsim:"port,Ci"`. Multi-bit
// ports must be arrays of PinID; element i is bound to port "name[i]".
//
//	var io struct {
//		A  [4]lsim.PinID `lsim:"port"`
//		Ci lsim.PinID    `lsim:"port"`
//		Y  [4]lsim.PinID `lsim:"port,Y"`
//	}
//	err := lsim.BindPorts(inst, &io)
//
func BindPorts(inst *Instance, v interface{}) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("BindPorts: need a pointer to a struct, got %T", v)
	}
	e := rv.Elem()
	typ := e.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("lsim")
		if !ok {
			continue
		}
		name := f.Name
		tv := strings.Split(tag, ",")
		if tv[0] != "port" {
			return errors.Errorf("unsupported tag %q for field %q in %q", tag, f.Name, typ.Name())
		}
		if len(tv) > 1 && tv[1] != "" {
			name = tv[1]
		}
		fv := e.Field(i)
		switch ft := f.Type; {
		case ft == pinIDType:
			id, err := inst.PortPinID(name)
			if err != nil {
				return errors.Wrapf(err, "bind field %q", f.Name)
			}
			fv.SetUint(uint64(id))
		case ft.Kind() == reflect.Array && ft.Elem() == pinIDType:
			for j := 0; j < ft.Len(); j++ {
				id, err := inst.PortPinID(name + "[" + strconv.Itoa(j) + "]")
				if err != nil {
					return errors.Wrapf(err, "bind field %q", f.Name)
				}
				fv.Index(j).SetUint(uint64(id))
			}
		default:
			return errors.Errorf("unsupported type %q for field %q in %q", ft, f.Name, typ.Name())
		}
	}
	return nil
}
