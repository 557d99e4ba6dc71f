// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/shader"
)

// ColorInput binds a logical color attachment to a fragment sampler.
type ColorInput struct {
	Name    string
	Sampler string
}

// ColorOutput binds a fragment output symbol to a logical color attachment.
type ColorOutput struct {
	Name   string
	Symbol string
	Format ColorFormat
}

// DepthInput binds a logical depth attachment to a fragment sampler.
type DepthInput struct {
	Name    string
	Sampler string
}

// DepthOutput declares the depth attachment a pass writes.
type DepthOutput struct {
	Name   string
	Format DepthStencilFormat
}

// attachmentRef is a logical name together with its kind.
type attachmentRef struct {
	name string
	kind AttachmentKind
}

// Pass is a validated, immutable pass declaration.
type Pass struct {
	name         string
	colorInputs  []ColorInput
	colorOutputs []ColorOutput
	depthInput   *DepthInput
	depthOutput  *DepthOutput
	pipeline     pipeline.Descriptor
	draw         DrawState
}

// Name returns the pass name.
func (p *Pass) Name() string { return p.name }

// ColorInputs returns the color inputs in declaration order.
func (p *Pass) ColorInputs() []ColorInput {
	return append([]ColorInput(nil), p.colorInputs...)
}

// ColorOutputs returns the color outputs in declaration order.
func (p *Pass) ColorOutputs() []ColorOutput {
	return append([]ColorOutput(nil), p.colorOutputs...)
}

// DepthInput returns the depth input, if any.
func (p *Pass) DepthInput() (DepthInput, bool) {
	if p.depthInput == nil {
		return DepthInput{}, false
	}
	return *p.depthInput, true
}

// DepthOutput returns the depth output, if any.
func (p *Pass) DepthOutput() (DepthOutput, bool) {
	if p.depthOutput == nil {
		return DepthOutput{}, false
	}
	return *p.depthOutput, true
}

// Pipeline returns the pipeline descriptor.
func (p *Pass) Pipeline() pipeline.Descriptor { return p.pipeline }

// DrawState returns the draw state handed to the executor.
func (p *Pass) DrawState() DrawState { return p.draw }

// inputs lists the logical inputs, color first, in declaration order.
func (p *Pass) inputs() []attachmentRef {
	refs := make([]attachmentRef, 0, len(p.colorInputs)+1)
	for _, in := range p.colorInputs {
		refs = append(refs, attachmentRef{in.Name, AttachmentColor})
	}
	if p.depthInput != nil {
		refs = append(refs, attachmentRef{p.depthInput.Name, AttachmentDepth})
	}
	return refs
}

// outputs lists the logical outputs, color first, in declaration order.
func (p *Pass) outputs() []attachmentRef {
	refs := make([]attachmentRef, 0, len(p.colorOutputs)+1)
	for _, out := range p.colorOutputs {
		refs = append(refs, attachmentRef{out.Name, AttachmentColor})
	}
	if p.depthOutput != nil {
		refs = append(refs, attachmentRef{p.depthOutput.Name, AttachmentDepth})
	}
	return refs
}

// writesScreen reports whether the pass produces ScreenOutput.
func (p *Pass) writesScreen() bool {
	for _, out := range p.colorOutputs {
		if out.Name == ScreenOutput {
			return true
		}
	}
	return false
}

// PassBuilder declares one pass. Builders are not safe for concurrent use.
//
//	pass, err := framegraph.NewPassBuilder("composite", desc, framegraph.DrawFullscreen{}).
//	    ColorInput("albedo", "albedoTex").
//	    ColorOutput(framegraph.ScreenOutput, "outColor", framegraph.ColorFormatBGRA8).
//	    Build()
type PassBuilder struct {
	pass Pass
}

// NewPassBuilder starts a pass declaration. A nil draw state means DrawNone.
func NewPassBuilder(name string, desc pipeline.Descriptor, draw DrawState) *PassBuilder {
	if desc.Label == "" {
		desc.Label = name
	}
	if draw == nil {
		draw = DrawNone{}
	}
	return &PassBuilder{pass: Pass{name: name, pipeline: desc, draw: draw}}
}

// ColorInput declares that the pass samples the color attachment name
// through the fragment sampler. Redeclaring name replaces the binding.
func (b *PassBuilder) ColorInput(name, sampler string) *PassBuilder {
	in := ColorInput{Name: name, Sampler: sampler}
	for i := range b.pass.colorInputs {
		if b.pass.colorInputs[i].Name == name {
			b.pass.colorInputs[i] = in
			return b
		}
	}
	b.pass.colorInputs = append(b.pass.colorInputs, in)
	return b
}

// ColorOutput declares that the fragment output symbol writes the color
// attachment name. Redeclaring name replaces the binding.
func (b *PassBuilder) ColorOutput(name, symbol string, format ColorFormat) *PassBuilder {
	out := ColorOutput{Name: name, Symbol: symbol, Format: format}
	for i := range b.pass.colorOutputs {
		if b.pass.colorOutputs[i].Name == name {
			b.pass.colorOutputs[i] = out
			return b
		}
	}
	b.pass.colorOutputs = append(b.pass.colorOutputs, out)
	return b
}

// DepthInput sets the single depth input, replacing any previous one.
func (b *PassBuilder) DepthInput(name, sampler string) *PassBuilder {
	b.pass.depthInput = &DepthInput{Name: name, Sampler: sampler}
	return b
}

// DepthOutput sets the single depth output, replacing any previous one.
func (b *PassBuilder) DepthOutput(name string, format DepthStencilFormat) *PassBuilder {
	b.pass.depthOutput = &DepthOutput{Name: name, Format: format}
	return b
}

// Build validates the declaration and returns an immutable pass.
//
// Checks run in order and stop at the first failure: the program must have
// both stages, formats must be known, every sampler and output symbol must
// exist in the fragment shader, and no logical name may be both read and
// written by the pass.
func (b *PassBuilder) Build() (*Pass, error) {
	p := b.snapshot()

	if err := p.pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("framegraph: pass %q: %w", p.name, err)
	}
	if err := p.checkFormats(); err != nil {
		return nil, err
	}
	if err := p.checkSymbols(); err != nil {
		return nil, err
	}
	if err := p.checkSelfLoop(); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *PassBuilder) snapshot() *Pass {
	p := b.pass
	p.colorInputs = append([]ColorInput(nil), b.pass.colorInputs...)
	p.colorOutputs = append([]ColorOutput(nil), b.pass.colorOutputs...)
	if b.pass.depthInput != nil {
		in := *b.pass.depthInput
		p.depthInput = &in
	}
	if b.pass.depthOutput != nil {
		out := *b.pass.depthOutput
		p.depthOutput = &out
	}
	return &p
}

func (p *Pass) checkFormats() error {
	for _, out := range p.colorOutputs {
		if !out.Format.Valid() {
			return fmt.Errorf("%w: pass %q output %q: %v", ErrUnknownFormat, p.name, out.Name, out.Format)
		}
	}
	if p.depthOutput != nil && !p.depthOutput.Format.Valid() {
		return fmt.Errorf("%w: pass %q depth output %q: %v",
			ErrUnknownFormat, p.name, p.depthOutput.Name, p.depthOutput.Format)
	}
	return nil
}

func (p *Pass) checkSymbols() error {
	fragment := p.pipeline.Program.Fragment
	refl := fragment.Reflection
	if refl == nil {
		refl = &shader.ReflectionData{}
	}
	shaderName := p.pipeline.Program.Name
	if shaderName == "" {
		shaderName = fragment.Name
	}

	uniform := func(name, sampler string) error {
		if refl.HasSampler(sampler) {
			return nil
		}
		return &PassValidationError{
			Kind:   ErrShaderUniformNotFound,
			Pass:   p.name,
			Symbol: sampler,
			Name:   name,
			Shader: shaderName,
		}
	}

	for _, in := range p.colorInputs {
		if err := uniform(in.Name, in.Sampler); err != nil {
			return err
		}
	}
	for _, out := range p.colorOutputs {
		if _, ok := refl.Output(out.Symbol); !ok {
			return &PassValidationError{
				Kind:   ErrShaderOutputNotFound,
				Pass:   p.name,
				Symbol: out.Symbol,
				Name:   out.Name,
				Shader: shaderName,
			}
		}
	}
	if p.depthInput != nil {
		if err := uniform(p.depthInput.Name, p.depthInput.Sampler); err != nil {
			return err
		}
	}
	return nil
}

// checkSelfLoop rejects a pass that reads a name it also writes.
func (p *Pass) checkSelfLoop() error {
	declared := 0
	names := make(map[string]struct{})
	for _, refs := range [][]attachmentRef{p.inputs(), p.outputs()} {
		for _, r := range refs {
			declared++
			names[r.name] = struct{}{}
		}
	}
	if declared != len(names) {
		return &PassValidationError{Kind: ErrCyclicDependency, Pass: p.name}
	}
	return nil
}
