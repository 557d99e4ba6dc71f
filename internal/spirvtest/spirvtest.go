// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package spirvtest builds small SPIR-V modules for tests.
package spirvtest

import (
	"encoding/binary"

	"github.com/gogpu/naga/spirv"
)

// Type is the scalar or vector type of a fixture variable.
type Type uint8

// Fixture types. F64 and IVec2 have no reflected data type.
const (
	I32 Type = iota
	U32
	F32
	Vec2
	Vec3
	Vec4
	F64
	IVec2
)

// Var is a stage input or output.
type Var struct {
	Name     string
	Type     Type
	Location uint32
}

// Module describes one entry point and its interface.
type Module struct {
	Vertex     bool
	EntryPoint string
	Inputs     []Var
	Outputs    []Var
	Samplers   []string

	// Position adds a built-in position output.
	Position bool
	// PerVertexBlock adds a gl_PerVertex style output block.
	PerVertexBlock bool
}

// Fragment returns a fragment module with the given outputs and samplers.
func Fragment(outputs []Var, samplers ...string) []byte {
	return Module{Outputs: outputs, Samplers: samplers}.Build()
}

// Vertex returns a vertex module writing the built-in position.
func Vertex() []byte {
	return Module{Vertex: true, Position: true}.Build()
}

// Build assembles the module.
func (m Module) Build() []byte {
	b := spirv.NewModuleBuilder(spirv.Version1_3)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingModelLogical, spirv.MemoryModelGLSL450)

	types := map[Type]uint32{}
	var f32, i32, u32 uint32
	scalar := func(t Type) uint32 {
		switch t {
		case I32, IVec2:
			if i32 == 0 {
				i32 = b.AddTypeInt(32, true)
			}
			return i32
		case U32:
			if u32 == 0 {
				u32 = b.AddTypeInt(32, false)
			}
			return u32
		default:
			if f32 == 0 {
				f32 = b.AddTypeFloat(32)
			}
			return f32
		}
	}
	typeID := func(t Type) uint32 {
		if id, ok := types[t]; ok {
			return id
		}
		var id uint32
		switch t {
		case I32, U32, F32:
			id = scalar(t)
		case Vec2:
			id = b.AddTypeVector(scalar(F32), 2)
		case Vec3:
			id = b.AddTypeVector(scalar(F32), 3)
		case Vec4:
			id = b.AddTypeVector(scalar(F32), 4)
		case F64:
			id = b.AddTypeFloat(64)
		case IVec2:
			id = b.AddTypeVector(scalar(I32), 2)
		}
		types[t] = id
		return id
	}

	var iface []uint32
	declare := func(v Var, class spirv.StorageClass) {
		ptr := b.AddTypePointer(class, typeID(v.Type))
		id := b.AddVariable(ptr, class)
		if v.Name != "" {
			b.AddName(id, v.Name)
		}
		b.AddDecorate(id, spirv.DecorationLocation, v.Location)
		iface = append(iface, id)
	}
	for _, v := range m.Inputs {
		declare(v, spirv.StorageClassInput)
	}
	for _, v := range m.Outputs {
		declare(v, spirv.StorageClassOutput)
	}

	if m.Position {
		ptr := b.AddTypePointer(spirv.StorageClassOutput, typeID(Vec4))
		id := b.AddVariable(ptr, spirv.StorageClassOutput)
		b.AddName(id, "position")
		b.AddDecorate(id, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))
		iface = append(iface, id)
	}
	if m.PerVertexBlock {
		block := b.AddTypeStruct(typeID(Vec4))
		b.AddName(block, "gl_PerVertex")
		b.AddMemberDecorate(block, 0, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))
		ptr := b.AddTypePointer(spirv.StorageClassOutput, block)
		id := b.AddVariable(ptr, spirv.StorageClassOutput)
		b.AddName(id, "perVertex")
		iface = append(iface, id)
	}

	if len(m.Samplers) > 0 {
		sampler := b.AddTypeSampler()
		ptr := b.AddTypePointer(spirv.StorageClassUniformConstant, sampler)
		for i, name := range m.Samplers {
			id := b.AddVariable(ptr, spirv.StorageClassUniformConstant)
			b.AddName(id, name)
			b.AddDecorate(id, spirv.DecorationDescriptorSet, 0)
			b.AddDecorate(id, spirv.DecorationBinding, uint32(i)) //nolint:gosec // G115: fixture sizes are tiny
		}
	}

	void := b.AddTypeVoid()
	fnType := b.AddTypeFunction(void)
	fn := b.AddFunction(fnType, void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddReturn()
	b.AddFunctionEnd()

	entry := m.EntryPoint
	if entry == "" {
		entry = "main"
	}
	if m.Vertex {
		b.AddEntryPoint(spirv.ExecutionModelVertex, fn, entry, iface)
	} else {
		b.AddEntryPoint(spirv.ExecutionModelFragment, fn, entry, iface)
		b.AddExecutionMode(fn, spirv.ExecutionModeOriginUpperLeft)
	}
	return b.Build()
}

// BigEndian returns a byte-swapped copy of a little-endian module.
func BigEndian(bin []byte) []byte {
	out := make([]byte, len(bin))
	for i := 0; i+4 <= len(bin); i += 4 {
		binary.BigEndian.PutUint32(out[i:], binary.LittleEndian.Uint32(bin[i:]))
	}
	return out
}
