// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
)

// Reflection errors.
var (
	// ErrUnrecognizedDataFormat is returned when an interface variable has a
	// type outside the supported set of data types.
	ErrUnrecognizedDataFormat = errors.New("shader: unrecognized data format")

	// ErrInvalidBinary is returned when the input is not a well-formed SPIR-V module.
	ErrInvalidBinary = errors.New("shader: invalid SPIR-V binary")

	// ErrEntryPointNotFound is returned when the requested entry point is not declared.
	ErrEntryPointNotFound = errors.New("shader: entry point not found")
)

// UnrecognizedDataFormatError names the variable whose type could not be mapped.
type UnrecognizedDataFormatError struct {
	Variable string
	Format   string
}

func (e *UnrecognizedDataFormatError) Error() string {
	return fmt.Sprintf("shader: unrecognized data format %s for variable %q", e.Format, e.Variable)
}

// Unwrap returns ErrUnrecognizedDataFormat.
func (e *UnrecognizedDataFormatError) Unwrap() error {
	return ErrUnrecognizedDataFormat
}

// SPIR-V constants used by the reflector.
const (
	spirvMagic      = 0x07230203
	spirvHeaderSize = 5

	opName           = 5
	opEntryPoint     = 15
	opTypeBool       = 20
	opTypeInt        = 21
	opTypeFloat      = 22
	opTypeVector     = 23
	opTypeMatrix     = 24
	opTypeImage      = 25
	opTypeSampler    = 26
	opTypeSampled    = 27
	opTypeArray      = 28
	opTypeRuntimeArr = 29
	opTypeStruct     = 30
	opTypePointer    = 32
	opVariable       = 59
	opDecorate       = 71
	opMemberDecorate = 72

	decorationBuiltIn       = 11
	decorationLocation      = 30
	decorationBinding       = 33
	decorationDescriptorSet = 34

	storageUniformConstant = 0
	storageInput           = 1
	storageUniform         = 2
	storageOutput          = 3
	storageStorageBuffer   = 12
)

type spirvType struct {
	op      uint32
	width   uint32
	signed  bool
	elem    uint32
	count   uint32
	storage uint32
	members []uint32
}

type spirvVariable struct {
	id      uint32
	typeID  uint32
	storage uint32
}

type spirvEntryPoint struct {
	name  string
	iface map[uint32]bool
}

// module is the subset of a SPIR-V module the reflector needs.
type module struct {
	names        map[uint32]string
	builtin      map[uint32]bool
	builtinBlock map[uint32]bool
	location     map[uint32]uint32
	binding      map[uint32]uint32
	set          map[uint32]uint32
	types        map[uint32]spirvType
	variables    []spirvVariable
	entryPoints  []spirvEntryPoint
}

// Reflect extracts the symbol table of every entry point in a SPIR-V binary.
// Both byte orders are accepted.
func Reflect(binary []byte) (*ReflectionData, error) {
	m, err := parseModule(binary)
	if err != nil {
		return nil, err
	}
	return m.reflect(nil, nil)
}

// ReflectEntryPoint extracts the symbol table of a single entry point.
// Inputs and outputs are restricted to the entry point's interface.
func ReflectEntryPoint(binary []byte, entryPoint string) (*ReflectionData, error) {
	return reflectEntryPoint(binary, entryPoint, nil)
}

// reflectEntryPoint is ReflectEntryPoint with names taken from the shader
// source for symbols the binary leaves unnamed.
func reflectEntryPoint(binary []byte, entryPoint string, names *symbolNames) (*ReflectionData, error) {
	m, err := parseModule(binary)
	if err != nil {
		return nil, err
	}
	for i := range m.entryPoints {
		if m.entryPoints[i].name == entryPoint {
			return m.reflect(m.entryPoints[i].iface, names)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrEntryPointNotFound, entryPoint)
}

func parseModule(b []byte) (*module, error) {
	if len(b) < spirvHeaderSize*4 || len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d", ErrInvalidBinary, len(b))
	}
	order := byteOrder(b)
	if order.Uint32(b) != spirvMagic {
		return nil, fmt.Errorf("%w: bad magic number", ErrInvalidBinary)
	}

	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = order.Uint32(b[i*4:])
	}

	m := &module{
		names:        make(map[uint32]string),
		builtin:      make(map[uint32]bool),
		builtinBlock: make(map[uint32]bool),
		location:     make(map[uint32]uint32),
		binding:      make(map[uint32]uint32),
		set:          make(map[uint32]uint32),
		types:        make(map[uint32]spirvType),
	}

	for i := spirvHeaderSize; i < len(words); {
		count := int(words[i] >> 16)
		op := words[i] & 0xffff
		if count == 0 || i+count > len(words) {
			return nil, fmt.Errorf("%w: truncated instruction at word %d", ErrInvalidBinary, i)
		}
		if err := m.instruction(op, words[i+1:i+count]); err != nil {
			return nil, fmt.Errorf("%w: word %d: %v", ErrInvalidBinary, i, err)
		}
		i += count
	}
	return m, nil
}

func (m *module) instruction(op uint32, args []uint32) error {
	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("opcode %d has %d operands, want at least %d", op, len(args), n)
		}
		return nil
	}

	switch op {
	case opName:
		if err := need(2); err != nil {
			return err
		}
		name, _ := decodeString(args[1:])
		m.names[args[0]] = name
	case opEntryPoint:
		if err := need(3); err != nil {
			return err
		}
		name, n := decodeString(args[2:])
		ep := spirvEntryPoint{name: name, iface: make(map[uint32]bool)}
		for _, id := range args[2+n:] {
			ep.iface[id] = true
		}
		m.entryPoints = append(m.entryPoints, ep)
	case opTypeBool, opTypeImage, opTypeSampler, opTypeSampled, opTypeRuntimeArr:
		if err := need(1); err != nil {
			return err
		}
		m.types[args[0]] = spirvType{op: op}
	case opTypeInt:
		if err := need(3); err != nil {
			return err
		}
		m.types[args[0]] = spirvType{op: op, width: args[1], signed: args[2] != 0}
	case opTypeFloat:
		if err := need(2); err != nil {
			return err
		}
		m.types[args[0]] = spirvType{op: op, width: args[1]}
	case opTypeVector, opTypeMatrix, opTypeArray:
		if err := need(3); err != nil {
			return err
		}
		m.types[args[0]] = spirvType{op: op, elem: args[1], count: args[2]}
	case opTypeStruct:
		if err := need(1); err != nil {
			return err
		}
		m.types[args[0]] = spirvType{op: op, members: append([]uint32(nil), args[1:]...)}
	case opTypePointer:
		if err := need(3); err != nil {
			return err
		}
		m.types[args[0]] = spirvType{op: op, storage: args[1], elem: args[2]}
	case opVariable:
		if err := need(3); err != nil {
			return err
		}
		m.variables = append(m.variables, spirvVariable{typeID: args[0], id: args[1], storage: args[2]})
	case opDecorate:
		if err := need(2); err != nil {
			return err
		}
		m.decorate(args[0], args[1], args[2:])
	case opMemberDecorate:
		if err := need(3); err != nil {
			return err
		}
		if args[2] == decorationBuiltIn {
			m.builtinBlock[args[0]] = true
		}
	}
	return nil
}

func (m *module) decorate(target, decoration uint32, literals []uint32) {
	switch decoration {
	case decorationBuiltIn:
		m.builtin[target] = true
	case decorationLocation:
		if len(literals) > 0 {
			m.location[target] = literals[0]
		}
	case decorationBinding:
		if len(literals) > 0 {
			m.binding[target] = literals[0]
		}
	case decorationDescriptorSet:
		if len(literals) > 0 {
			m.set[target] = literals[0]
		}
	}
}

// reflect builds the symbol table. A nil iface means every entry point.
// Names from names take precedence over debug names in the binary.
func (m *module) reflect(iface map[uint32]bool, names *symbolNames) (*ReflectionData, error) {
	data := &ReflectionData{}
	for _, v := range m.variables {
		switch v.storage {
		case storageInput, storageOutput:
			if iface != nil && !iface[v.id] {
				continue
			}
			variable, ok, err := m.interfaceVariable(v, names)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if v.storage == storageInput {
				data.inputs = append(data.inputs, variable)
			} else {
				data.outputs = append(data.outputs, variable)
			}
		case storageUniformConstant, storageUniform, storageStorageBuffer:
			if b, ok := m.descriptorBinding(v, names); ok {
				data.samplers = append(data.samplers, b)
			}
		}
	}
	data.sort()
	return data, nil
}

func (m *module) interfaceVariable(v spirvVariable, names *symbolNames) (Variable, bool, error) {
	if m.builtin[v.id] {
		return Variable{}, false, nil
	}
	pointee := m.types[v.typeID].elem
	if m.builtinBlock[pointee] {
		return Variable{}, false, nil
	}
	name := m.names[v.id]
	if loc, ok := m.location[v.id]; ok {
		if n := names.interfaceName(v.storage, loc); n != "" {
			name = n
		}
	}
	if name == "" {
		return Variable{}, false, nil
	}
	dt, ok := m.dataType(pointee)
	if !ok {
		return Variable{}, false, &UnrecognizedDataFormatError{Variable: name, Format: m.describe(pointee)}
	}
	return Variable{Name: name, Type: dt, Location: m.location[v.id]}, true, nil
}

func (m *module) descriptorBinding(v spirvVariable, names *symbolNames) (Binding, bool) {
	_, hasBinding := m.binding[v.id]
	_, hasSet := m.set[v.id]
	if !hasBinding && !hasSet {
		return Binding{}, false
	}
	name := names.bindingName(m.set[v.id], m.binding[v.id])
	if name == "" {
		name = m.names[v.id]
	}
	if name == "" {
		name = m.names[m.types[v.typeID].elem]
	}
	if name == "" {
		return Binding{}, false
	}
	return Binding{Name: name, Group: m.set[v.id], Binding: m.binding[v.id]}, true
}

func (m *module) dataType(id uint32) (DataType, bool) {
	t, ok := m.types[id]
	if !ok {
		return 0, false
	}
	switch t.op {
	case opTypeInt:
		if t.width != 32 {
			return 0, false
		}
		if t.signed {
			return Int, true
		}
		return UInt, true
	case opTypeFloat:
		if t.width != 32 {
			return 0, false
		}
		return Float, true
	case opTypeVector:
		elem, ok := m.types[t.elem]
		if !ok || elem.op != opTypeFloat || elem.width != 32 {
			return 0, false
		}
		switch t.count {
		case 2:
			return Vec2f, true
		case 3:
			return Vec3f, true
		case 4:
			return Vec4f, true
		}
	}
	return 0, false
}

// describe renders a type for error messages.
func (m *module) describe(id uint32) string {
	t, ok := m.types[id]
	if !ok {
		return fmt.Sprintf("%%%d", id)
	}
	switch t.op {
	case opTypeBool:
		return "bool"
	case opTypeInt:
		if t.signed {
			return fmt.Sprintf("i%d", t.width)
		}
		return fmt.Sprintf("u%d", t.width)
	case opTypeFloat:
		return fmt.Sprintf("f%d", t.width)
	case opTypeVector:
		return fmt.Sprintf("vec%d<%s>", t.count, m.describe(t.elem))
	case opTypeMatrix:
		return fmt.Sprintf("mat%dx%s", t.count, m.describe(t.elem))
	case opTypeArray:
		return fmt.Sprintf("array<%s>", m.describe(t.elem))
	case opTypeStruct:
		if name := m.names[id]; name != "" {
			return "struct " + name
		}
		return "struct"
	default:
		return fmt.Sprintf("opcode %d", t.op)
	}
}

// decodeString reads a nul-terminated literal string and returns it along
// with the number of words it occupies.
func decodeString(words []uint32) (string, int) {
	var buf []byte
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return string(buf), i + 1
			}
			buf = append(buf, c)
		}
	}
	return string(buf), len(words)
}
