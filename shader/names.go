// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"

	"github.com/gogpu/naga/ir"
)

// symbolNames carries interface and resource names known from the shader
// source but absent from the binary. naga emits no OpName for resource
// globals, and a bare entry-point result has no name at all.
type symbolNames struct {
	inputs   map[uint32]string
	outputs  map[uint32]string
	bindings map[resourceSlot]string
}

type resourceSlot struct {
	group   uint32
	binding uint32
}

// ResultSymbol returns the name under which an unnamed entry-point result
// at the given location is reflected. A fragment stage declared as
// `fn main() -> @location(0) vec4<f32>` exposes the output "location0".
func ResultSymbol(location uint32) string {
	return fmt.Sprintf("location%d", location)
}

// irSymbolNames collects the names of the entry point's location-bound
// arguments, results and struct members, and of every bound global.
// It returns nil when the module has no such entry point.
func irSymbolNames(module *ir.Module, entryPoint string) *symbolNames {
	var ep *ir.EntryPoint
	for i := range module.EntryPoints {
		if module.EntryPoints[i].Name == entryPoint {
			ep = &module.EntryPoints[i]
			break
		}
	}
	if ep == nil {
		return nil
	}

	names := &symbolNames{
		inputs:   make(map[uint32]string),
		outputs:  make(map[uint32]string),
		bindings: make(map[resourceSlot]string),
	}
	for _, arg := range ep.Function.Arguments {
		names.collect(module, names.inputs, arg.Name, arg.Type, arg.Binding)
	}
	if res := ep.Function.Result; res != nil {
		names.collect(module, names.outputs, "", res.Type, res.Binding)
	}
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil || gv.Name == "" {
			continue
		}
		names.bindings[resourceSlot{group: gv.Binding.Group, binding: gv.Binding.Binding}] = gv.Name
	}
	return names
}

// collect records one interface value. A value without a binding is a
// struct whose members carry the bindings.
func (n *symbolNames) collect(module *ir.Module, dst map[uint32]string, name string, typ ir.TypeHandle, binding *ir.Binding) {
	if binding != nil {
		loc, ok := (*binding).(ir.LocationBinding)
		if !ok {
			return
		}
		if name == "" {
			name = ResultSymbol(loc.Location)
		}
		dst[loc.Location] = name
		return
	}
	if int(typ) >= len(module.Types) {
		return
	}
	st, ok := module.Types[typ].Inner.(ir.StructType)
	if !ok {
		return
	}
	for _, m := range st.Members {
		if m.Binding == nil {
			continue
		}
		if loc, ok := (*m.Binding).(ir.LocationBinding); ok && m.Name != "" {
			dst[loc.Location] = m.Name
		}
	}
}

func (n *symbolNames) interfaceName(storage, location uint32) string {
	if n == nil {
		return ""
	}
	if storage == storageInput {
		return n.inputs[location]
	}
	return n.outputs[location]
}

func (n *symbolNames) bindingName(group, binding uint32) string {
	if n == nil {
		return ""
	}
	return n.bindings[resourceSlot{group: group, binding: binding}]
}
