// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"testing"

	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/framegraph/pipeline"
)

// TestCompileOptionsDefault tests that compilation defaults to the
// built-in factory and a graph-owned allocator.
func TestCompileOptionsDefault(t *testing.T) {
	o := defaultCompileOptions()
	if _, ok := o.factory.(*pipeline.Factory); !ok {
		t.Errorf("factory = %T, want *pipeline.Factory", o.factory)
	}
	if o.allocator != nil || o.metrics != nil || o.labelPrefix != "" {
		t.Errorf("unexpected defaults: %+v", o)
	}

	g := compileGraph(t, createNoopDevice(t), []*Pass{screenPass(t, "present", nil)}, 4, 4)
	defer g.Release()
	if !g.opts.ownsAlloc {
		t.Error("graph does not own its default allocator")
	}
}

// TestCompileOptionsInjected tests dependency injection of collaborators.
func TestCompileOptionsInjected(t *testing.T) {
	a := alloc.New(alloc.Config{})
	f := pipeline.NewFactory()
	m := NewMetrics(nil)

	o := defaultCompileOptions()
	for _, opt := range []CompileOption{
		WithAllocator(a),
		WithPipelineFactory(f),
		WithMetrics(m),
		WithLabelPrefix("ui/"),
	} {
		opt(&o)
	}

	if o.allocator != Allocator(a) {
		t.Error("allocator is not the injected allocator")
	}
	if o.factory != PipelineFactory(f) {
		t.Error("factory is not the injected factory")
	}
	if o.metrics != m || o.labelPrefix != "ui/" {
		t.Errorf("metrics/prefix = %v/%q", o.metrics, o.labelPrefix)
	}

	g := compileGraph(t, createNoopDevice(t), []*Pass{screenPass(t, "present", nil)}, 4, 4, WithAllocator(a))
	g.Release()
	// An injected allocator stays usable after the graph is released.
	if _, err := a.Allocate(alloc.Request{Name: "after", Size: 16}); err != nil {
		t.Errorf("injected allocator closed by Release: %v", err)
	}
}
