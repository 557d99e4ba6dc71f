// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/framegraph/pipeline"
)

// Allocator provides the memory accounted for each attachment.
// *alloc.Allocator implements it.
type Allocator interface {
	Allocate(req alloc.Request) (alloc.Allocation, error)
	Free(a alloc.Allocation) error
}

// PipelineFactory builds the render pipeline of a pass.
// *pipeline.Factory implements it.
type PipelineFactory interface {
	Build(device pipeline.Device, desc pipeline.Descriptor, targets pipeline.Targets) (*pipeline.Pipeline, error)
}

// CompileOption configures Compile.
//
// Example:
//
//	g, err := framegraph.Compile(device, passes, 1280, 720,
//	    framegraph.WithAllocator(allocator),
//	    framegraph.WithMetrics(metrics))
type CompileOption func(*compileOptions)

type compileOptions struct {
	allocator   Allocator
	ownsAlloc   bool
	factory     PipelineFactory
	metrics     *Metrics
	labelPrefix string
}

func defaultCompileOptions() compileOptions {
	return compileOptions{factory: pipeline.NewFactory()}
}

// WithAllocator sets the attachment memory allocator. Without it each graph
// owns a private unbounded allocator, closed on Release. A budgeted
// allocator must leave room for two resource sets: Recreate creates the
// new set before it releases the old one.
func WithAllocator(a Allocator) CompileOption {
	return func(o *compileOptions) {
		o.allocator = a
	}
}

// WithPipelineFactory replaces the default pipeline factory.
func WithPipelineFactory(f PipelineFactory) CompileOption {
	return func(o *compileOptions) {
		o.factory = f
	}
}

// WithMetrics records compilations, recreations and live attachments.
func WithMetrics(m *Metrics) CompileOption {
	return func(o *compileOptions) {
		o.metrics = m
	}
}

// WithLabelPrefix prefixes every GPU object label created by the graph.
func WithLabelPrefix(prefix string) CompileOption {
	return func(o *compileOptions) {
		o.labelPrefix = prefix
	}
}
