// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"sync"

	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/framegraph/pipeline"
)

// Graph is a compiled frame graph. It exclusively owns its pipelines and
// physical attachments until Release. Graph is safe for concurrent use.
type Graph struct {
	mu       sync.Mutex
	device   Device
	opts     compileOptions
	passes   []*CompiledPass
	specs    []attachmentSpec
	byName   map[string]int
	current  *resourceSet
	released bool

	attachments arena[*Attachment]
}

// install makes set the live resource set and returns the previous one.
func (g *Graph) install(set *resourceSet) *resourceSet {
	old := g.current
	g.current = set
	g.attachments.replace(set.attachments)
	return old
}

// Passes returns the compiled passes in execution order.
func (g *Graph) Passes() []*CompiledPass {
	return append([]*CompiledPass(nil), g.passes...)
}

// Pass returns the compiled pass with the given name.
func (g *Graph) Pass(name string) (*CompiledPass, bool) {
	for _, cp := range g.passes {
		if cp.pass.name == name {
			return cp, true
		}
	}
	return nil, false
}

// Size returns the current attachment dimensions.
func (g *Graph) Size() (width, height uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return 0, 0
	}
	return g.current.width, g.current.height
}

// Generation returns the generation of the live resource set. It starts
// at 1 and grows by one on every successful Recreate.
func (g *Graph) Generation() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attachments.generation
}

// AttachmentCount returns the number of physical attachments.
func (g *Graph) AttachmentCount() int { return len(g.specs) }

// Lookup returns the handle of the attachment backing a logical name in the
// live resource set.
func (g *Graph) Lookup(name string) (Handle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx, ok := g.byName[name]
	if !ok || g.released {
		return Handle{}, false
	}
	return g.attachments.handle(idx), true
}

// Attachment resolves a handle. Handles issued before the last Recreate,
// or after Release, fail with ErrStaleHandle.
func (g *Graph) Attachment(h Handle) (*Attachment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return nil, ErrGraphReleased
	}
	return g.attachments.get(h)
}

// Recreate replaces every size-dependent resource with new ones of
// width×height. The new set is created first. Only once it is complete is
// it swapped in and the old set released, exactly once. On failure the
// partial new set is released and the graph keeps its old resources.
// Pass order, pipelines and formats do not change.
func (g *Graph) Recreate(width, height uint32) (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	defer func() { g.opts.metrics.observeRecreate(err) }()

	if g.released {
		return ErrGraphReleased
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	set, err := g.createResourceSet(width, height)
	if err != nil {
		Logger().Warn("framegraph: recreate failed, keeping old resources", "err", err)
		return err
	}
	old := g.install(set)
	old.release(g.device, g.opts.allocator)

	Logger().Info("framegraph: recreated",
		"width", width,
		"height", height,
		"generation", g.attachments.generation)
	return nil
}

// Release destroys the resource set (framebuffers, samplers, views,
// textures, then memory) and then every pipeline. Calling Release more
// than once is a no-op.
func (g *Graph) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return
	}
	g.released = true

	if g.current != nil {
		g.current.release(g.device, g.opts.allocator)
	}
	g.releasePipelines()
	g.closeAllocator()
	g.attachments.replace(nil)
	g.opts.metrics.addAttachments(-len(g.specs))

	Logger().Info("framegraph: released", "passes", len(g.passes))
}

// Released reports whether Release has run.
func (g *Graph) Released() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.released
}

// MemoryStats returns allocator statistics when the graph owns its allocator.
func (g *Graph) MemoryStats() (alloc.Stats, bool) {
	a, ok := g.opts.allocator.(*alloc.Allocator)
	if !ok || !g.opts.ownsAlloc {
		return alloc.Stats{}, false
	}
	return a.Stats(), true
}

func (g *Graph) releasePipelines() {
	for i := len(g.passes) - 1; i >= 0; i-- {
		g.passes[i].pipeline.Release(g.device)
	}
}

func (g *Graph) closeAllocator() {
	if !g.opts.ownsAlloc {
		return
	}
	if a, ok := g.opts.allocator.(*alloc.Allocator); ok {
		a.Close()
	}
}

// inputBinding connects a fragment sampler to an attachment slot.
type inputBinding struct {
	name    string
	sampler string
	kind    AttachmentKind
	slot    int
}

// InputBinding is a sampler binding of a compiled pass, resolved to the
// live attachment that backs it.
type InputBinding struct {
	Name       string
	Sampler    string
	Kind       AttachmentKind
	Attachment Handle
}

// CompiledPass is a pass instantiated within a graph.
type CompiledPass struct {
	graph    *Graph
	pass     *Pass
	index    int
	pipeline *pipeline.Pipeline
	outputs  []int
	inputs   []inputBinding
	deps     []string
}

// Name returns the pass name.
func (cp *CompiledPass) Name() string { return cp.pass.name }

// Index returns the position of the pass in the execution order.
func (cp *CompiledPass) Index() int { return cp.index }

// Declaration returns the pass the compiled pass was built from.
func (cp *CompiledPass) Declaration() *Pass { return cp.pass }

// Pipeline returns the pass pipeline.
func (cp *CompiledPass) Pipeline() *pipeline.Pipeline { return cp.pipeline }

// DrawState returns the draw state declared for the pass.
func (cp *CompiledPass) DrawState() DrawState { return cp.pass.draw }

// Dependencies returns the names of the passes producing this pass's inputs.
func (cp *CompiledPass) Dependencies() []string {
	return append([]string(nil), cp.deps...)
}

// Framebuffer returns the pass framebuffer in the live resource set, or
// nil once the graph is released.
func (cp *CompiledPass) Framebuffer() *Framebuffer {
	g := cp.graph
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released || g.current == nil {
		return nil
	}
	return g.current.framebuffers[cp.index]
}

// Inputs returns the pass sampler bindings resolved against the live
// resource set, color inputs first.
func (cp *CompiledPass) Inputs() []InputBinding {
	g := cp.graph
	g.mu.Lock()
	defer g.mu.Unlock()
	bindings := make([]InputBinding, len(cp.inputs))
	for i, in := range cp.inputs {
		bindings[i] = InputBinding{
			Name:       in.name,
			Sampler:    in.sampler,
			Kind:       in.kind,
			Attachment: g.attachments.handle(in.slot),
		}
	}
	return bindings
}
