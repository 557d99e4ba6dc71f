// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/gputypes"
)

// ErrNilDevice is returned by Compile when no device is given.
var ErrNilDevice = errors.New("framegraph: nil device")

// Compile validates passes and instantiates them as a graph of width×height
// attachments on device.
//
// Passes are ordered as by Validate. Each pass gets one pipeline, each
// logical output one texture, view, sampler and memory allocation, and each
// pass one framebuffer. On failure everything created so far is released
// and no graph is returned.
func Compile(device Device, passes []*Pass, width, height uint32, opts ...CompileOption) (g *Graph, err error) {
	start := time.Now()
	o := defaultCompileOptions()
	for _, opt := range opts {
		opt(&o)
	}
	defer func() { o.metrics.observeCompile(start, err) }()

	if device == nil {
		return nil, ErrNilDevice
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	res, err := resolve(passes)
	if err != nil {
		return nil, err
	}

	if o.allocator == nil {
		// Recreate holds the old and the new set at once, so a budget
		// sized for one set would fail a large resize.
		o.allocator = alloc.New(alloc.Config{Unbounded: true})
		o.ownsAlloc = true
	}
	g = &Graph{
		device: device,
		opts:   o,
		byName: make(map[string]int),
	}
	g.plan(passes, res)

	for _, cp := range g.passes {
		cp.pipeline, err = o.factory.Build(device, cp.pass.pipeline, cp.targets())
		if err != nil {
			g.releasePipelines()
			g.closeAllocator()
			return nil, fmt.Errorf("framegraph: pass %q: %w", cp.pass.name, err)
		}
	}

	set, err := g.createResourceSet(width, height)
	if err != nil {
		g.releasePipelines()
		g.closeAllocator()
		return nil, err
	}
	g.install(set)
	o.metrics.addAttachments(len(g.specs))

	Logger().Info("framegraph: compiled",
		"passes", len(g.passes),
		"attachments", len(g.specs),
		"width", width,
		"height", height,
		"elapsed", time.Since(start))
	return g, nil
}

// plan lays out compiled passes in execution order and assigns one
// attachment slot per logical output, color outputs before depth.
func (g *Graph) plan(passes []*Pass, res *resolution) {
	for pos, idx := range res.order {
		p := passes[idx]
		cp := &CompiledPass{graph: g, pass: p, index: pos}
		for _, out := range p.colorOutputs {
			cp.outputs = append(cp.outputs, g.addSpec(out.Name, p.name, colorAttachment(out.Format)))
		}
		if p.depthOutput != nil {
			cp.outputs = append(cp.outputs, g.addSpec(p.depthOutput.Name, p.name, depthAttachment(p.depthOutput.Format)))
		}
		g.passes = append(g.passes, cp)
	}

	for _, cp := range g.passes {
		p := cp.pass
		for _, in := range p.colorInputs {
			cp.inputs = append(cp.inputs, inputBinding{name: in.Name, sampler: in.Sampler, kind: AttachmentColor, slot: g.byName[in.Name]})
		}
		if p.depthInput != nil {
			in := p.depthInput
			cp.inputs = append(cp.inputs, inputBinding{name: in.Name, sampler: in.Sampler, kind: AttachmentDepth, slot: g.byName[in.Name]})
		}
		for _, in := range p.inputs() {
			name := passes[res.producers[in.name].pass].name
			if !containsString(cp.deps, name) {
				cp.deps = append(cp.deps, name)
			}
		}
	}

	order := make([]string, len(g.passes))
	for i, cp := range g.passes {
		order[i] = cp.pass.name
	}
	Logger().Debug("framegraph: execution order", "passes", order)
}

func (g *Graph) addSpec(name, pass string, f attachmentFormat) int {
	g.specs = append(g.specs, attachmentSpec{name: name, pass: pass, format: f})
	g.byName[name] = len(g.specs) - 1
	return len(g.specs) - 1
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// targets returns the formats the pass pipeline renders to.
func (cp *CompiledPass) targets() pipeline.Targets {
	t := pipeline.Targets{Depth: gputypes.TextureFormatUndefined}
	for _, out := range cp.pass.colorOutputs {
		t.Color = append(t.Color, out.Format.TextureFormat())
	}
	if cp.pass.depthOutput != nil {
		t.Depth = cp.pass.depthOutput.Format.TextureFormat()
	}
	return t
}
