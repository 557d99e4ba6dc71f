// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package loader

import (
	"fmt"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/shader"
	"github.com/hashicorp/hcl/v2"
)

// Declaration is the content of one or more declaration files, in file
// order then block order.
type Declaration struct {
	Shaders []*ShaderDecl
	Passes  []*PassDecl
}

// ShaderDecl is a shader block with its stage sources read into memory.
type ShaderDecl struct {
	Name     string
	Vertex   shader.Source
	Fragment shader.Source
	Range    hcl.Range
}

// PassDecl is a decoded pass block.
type PassDecl struct {
	Name         string
	Shader       string
	Topology     pipeline.Topology
	MSAA         bool
	Draw         framegraph.DrawState
	ColorInputs  []framegraph.ColorInput
	ColorOutputs []framegraph.ColorOutput
	DepthInput   *framegraph.DepthInput
	DepthOutput  *framegraph.DepthOutput
	Range        hcl.Range
}

// Shader returns the shader declaration with the given name.
func (d *Declaration) Shader(name string) (*ShaderDecl, bool) {
	for _, s := range d.Shaders {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// check rejects duplicate shader names and passes naming unknown shaders.
func (d *Declaration) check() error {
	seen := make(map[string]hcl.Range, len(d.Shaders))
	for _, s := range d.Shaders {
		if first, dup := seen[s.Name]; dup {
			return invalid(s.Range, "shader %q is already declared at %s", s.Name, first)
		}
		seen[s.Name] = s.Range
	}
	for _, p := range d.Passes {
		if _, ok := seen[p.Shader]; !ok {
			return invalid(p.Range, "pass %q uses undeclared shader %q", p.Name, p.Shader)
		}
	}
	return nil
}

// Programs compiles every declared shader. Programs are shared by all
// passes naming them.
func (d *Declaration) Programs(c *shader.Compiler) (map[string]*shader.Program, error) {
	programs := make(map[string]*shader.Program, len(d.Shaders))
	for _, s := range d.Shaders {
		p, err := shader.NewProgram(c, s.Name, s.Vertex, s.Fragment)
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", s.Range, err)
		}
		programs[s.Name] = p
	}
	return programs, nil
}

// Build compiles the shaders and builds every pass in declaration order.
// The passes are validated individually, not as a graph.
func (d *Declaration) Build(c *shader.Compiler) ([]*framegraph.Pass, error) {
	programs, err := d.Programs(c)
	if err != nil {
		return nil, err
	}

	passes := make([]*framegraph.Pass, 0, len(d.Passes))
	for _, pd := range d.Passes {
		p, err := pd.builder(programs[pd.Shader]).Build()
		if err != nil {
			return nil, fmt.Errorf("loader: %s: %w", pd.Range, err)
		}
		passes = append(passes, p)
	}
	return passes, nil
}

func (pd *PassDecl) builder(prog *shader.Program) *framegraph.PassBuilder {
	b := framegraph.NewPassBuilder(pd.Name, pipeline.Descriptor{
		Label:    pd.Name,
		Program:  prog,
		Topology: pd.Topology,
		MSAA:     pd.MSAA,
	}, pd.Draw)
	for _, in := range pd.ColorInputs {
		b.ColorInput(in.Name, in.Sampler)
	}
	for _, out := range pd.ColorOutputs {
		b.ColorOutput(out.Name, out.Symbol, out.Format)
	}
	if pd.DepthInput != nil {
		b.DepthInput(pd.DepthInput.Name, pd.DepthInput.Sampler)
	}
	if pd.DepthOutput != nil {
		b.DepthOutput(pd.DepthOutput.Name, pd.DepthOutput.Format)
	}
	return b
}
