// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// DataType is the semantic type of a shader interface variable.
type DataType uint8

// Data types recognized by the reflector.
const (
	Int DataType = iota + 1
	UInt
	Float
	Vec2f
	Vec3f
	Vec4f
)

// String returns the name of the data type.
func (t DataType) String() string {
	switch t {
	case Int:
		return "Int"
	case UInt:
		return "UInt"
	case Float:
		return "Float"
	case Vec2f:
		return "Vec2f"
	case Vec3f:
		return "Vec3f"
	case Vec4f:
		return "Vec4f"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// Variable is a named stage input or output.
type Variable struct {
	Name     string
	Type     DataType
	Location uint32
}

// Binding is a descriptor-bound symbol (texture, sampler or buffer).
type Binding struct {
	Name    string
	Group   uint32
	Binding uint32
}

// ReflectionData is the symbol table exposed by one shader stage.
// It is immutable once produced.
type ReflectionData struct {
	inputs   []Variable
	outputs  []Variable
	samplers []Binding
}

// Inputs returns the stage inputs ordered by location.
func (r *ReflectionData) Inputs() []Variable {
	return append([]Variable(nil), r.inputs...)
}

// Outputs returns the stage outputs ordered by location.
func (r *ReflectionData) Outputs() []Variable {
	return append([]Variable(nil), r.outputs...)
}

// Samplers returns the descriptor bindings ordered by group and binding.
func (r *ReflectionData) Samplers() []Binding {
	return append([]Binding(nil), r.samplers...)
}

// Input looks up a stage input by name.
func (r *ReflectionData) Input(name string) (Variable, bool) {
	return findVariable(r.inputs, name)
}

// Output looks up a stage output by name.
func (r *ReflectionData) Output(name string) (Variable, bool) {
	return findVariable(r.outputs, name)
}

// HasSampler reports whether a descriptor binding with the given name exists.
func (r *ReflectionData) HasSampler(name string) bool {
	for _, b := range r.samplers {
		if b.Name == name {
			return true
		}
	}
	return false
}

func findVariable(vars []Variable, name string) (Variable, bool) {
	for _, v := range vars {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

func (r *ReflectionData) sort() {
	sort.SliceStable(r.inputs, func(i, j int) bool { return r.inputs[i].Location < r.inputs[j].Location })
	sort.SliceStable(r.outputs, func(i, j int) bool { return r.outputs[i].Location < r.outputs[j].Location })
	sort.SliceStable(r.samplers, func(i, j int) bool {
		if r.samplers[i].Group != r.samplers[j].Group {
			return r.samplers[i].Group < r.samplers[j].Group
		}
		return r.samplers[i].Binding < r.samplers[j].Binding
	})
}

// StageKind identifies a programmable pipeline stage.
type StageKind uint8

// Stage kinds.
const (
	StageVertex StageKind = iota
	StageFragment
)

// String returns the stage name.
func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("StageKind(%d)", uint8(k))
	}
}

// Stage is one compiled shader stage.
type Stage struct {
	Name       string
	Kind       StageKind
	EntryPoint string
	Binary     []byte
	Reflection *ReflectionData
}

// Words returns the SPIR-V binary as 32-bit words in host order, the form
// expected by hal.ShaderSource. Big-endian binaries are byte-swapped.
func (s *Stage) Words() []uint32 {
	if s == nil || len(s.Binary) < 4 {
		return nil
	}
	order := byteOrder(s.Binary)
	words := make([]uint32, len(s.Binary)/4)
	for i := range words {
		words[i] = order.Uint32(s.Binary[i*4:])
	}
	return words
}

func byteOrder(b []byte) binary.ByteOrder {
	if len(b) >= 4 && binary.BigEndian.Uint32(b) == spirvMagic {
		return binary.BigEndian
	}
	return binary.LittleEndian
}
