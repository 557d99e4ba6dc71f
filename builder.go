// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

// GraphBuilder collects passes in declaration order. Declaration order
// breaks ties between independent passes in the execution order.
//
//	g, err := framegraph.NewGraphBuilder().
//	    AddPass(gbuffer).
//	    AddPass(composite).
//	    Compile(device, 1280, 720)
type GraphBuilder struct {
	passes []*Pass
}

// NewGraphBuilder creates an empty graph builder.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{}
}

// AddPass appends a pass. Nil passes are ignored.
func (b *GraphBuilder) AddPass(p *Pass) *GraphBuilder {
	if p != nil {
		b.passes = append(b.passes, p)
	}
	return b
}

// Passes returns the passes in declaration order.
func (b *GraphBuilder) Passes() []*Pass {
	return append([]*Pass(nil), b.passes...)
}

// Validate validates the declared passes and returns the execution order.
func (b *GraphBuilder) Validate() ([]*Pass, error) {
	return Validate(b.passes)
}

// Compile compiles the declared passes. See Compile.
func (b *GraphBuilder) Compile(device Device, width, height uint32, opts ...CompileOption) (*Graph, error) {
	return Compile(device, b.passes, width, height, opts...)
}
