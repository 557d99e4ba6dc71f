// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "fmt"

// Program is a vertex stage paired with a fragment stage. A program is
// shared read-only by every pass built from it.
type Program struct {
	Name     string
	Vertex   *Stage
	Fragment *Stage
}

// NewProgram compiles both stages of a program with c. The stages are
// named name_vertex and name_fragment.
func NewProgram(c *Compiler, name string, vertex, fragment Source) (*Program, error) {
	vs, err := c.Compile(name+"_vertex", vertex, StageVertex)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", name, err)
	}
	fs, err := c.Compile(name+"_fragment", fragment, StageFragment)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", name, err)
	}
	return &Program{Name: name, Vertex: vs, Fragment: fs}, nil
}

// FragmentReflection returns the fragment stage symbol table, or nil.
func (p *Program) FragmentReflection() *ReflectionData {
	if p == nil || p.Fragment == nil {
		return nil
	}
	return p.Fragment.Reflection
}
