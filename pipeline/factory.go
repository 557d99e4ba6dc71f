// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"fmt"

	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoShader is returned when a descriptor lacks a vertex or fragment stage.
var ErrNoShader = errors.New("pipeline: no shader")

// Device is the subset of hal.Device the factory needs.
type Device interface {
	CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error)
	DestroyShaderModule(module hal.ShaderModule)
	CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error)
	DestroyPipelineLayout(layout hal.PipelineLayout)
	CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error)
	DestroyRenderPipeline(pipeline hal.RenderPipeline)
}

// Descriptor declares the programmable and variable state of a pipeline.
type Descriptor struct {
	Label    string
	Program  *shader.Program
	Topology Topology
	MSAA     bool
}

func (d Descriptor) stages() []*shader.Stage {
	if d.Program == nil {
		return nil
	}
	return []*shader.Stage{d.Program.Vertex, d.Program.Fragment}
}

// Validate reports ErrNoShader when a stage is missing or empty.
func (d Descriptor) Validate() error {
	if d.Program == nil {
		return fmt.Errorf("%w: %q has no program", ErrNoShader, d.Label)
	}
	for _, s := range []struct {
		kind  shader.StageKind
		stage *shader.Stage
	}{
		{shader.StageVertex, d.Program.Vertex},
		{shader.StageFragment, d.Program.Fragment},
	} {
		if s.stage == nil || len(s.stage.Binary) == 0 {
			return fmt.Errorf("%w: %q has no %s stage", ErrNoShader, d.Label, s.kind)
		}
	}
	return nil
}

// Factory creates pipelines. It holds no state and is safe for concurrent use.
type Factory struct{}

// NewFactory creates a pipeline factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Build creates the shader modules, an empty layout and the render pipeline.
// On failure everything created so far is destroyed.
func (f *Factory) Build(device Device, desc Descriptor, targets Targets) (*Pipeline, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		label:       desc.Label,
		key:         hashDescriptor(desc, targets),
		topology:    desc.Topology,
		raster:      DefaultRasterState(),
		multisample: MultisampleState{Samples: 1, SampleShading: desc.MSAA},
		targets: Targets{
			Color: append([]gputypes.TextureFormat(nil), targets.Color...),
			Depth: targets.Depth,
		},
	}

	var err error
	p.vertex, err = createModule(device, desc.Label+"_vertex", desc.Program.Vertex)
	if err != nil {
		return nil, err
	}
	p.fragment, err = createModule(device, desc.Label+"_fragment", desc.Program.Fragment)
	if err != nil {
		p.Release(device)
		return nil, err
	}

	p.layout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: desc.Label + "_layout",
	})
	if err != nil {
		p.Release(device)
		return nil, fmt.Errorf("pipeline %q: create layout: %w", desc.Label, err)
	}

	p.handle, err = device.CreateRenderPipeline(p.renderDescriptor(desc))
	if err != nil {
		p.Release(device)
		return nil, fmt.Errorf("pipeline %q: create render pipeline: %w", desc.Label, err)
	}

	slogger().Debug("pipeline: created",
		"label", desc.Label,
		"key", p.key,
		"topology", desc.Topology,
		"msaa", desc.MSAA,
		"colorTargets", len(targets.Color),
		"depth", targets.Depth != gputypes.TextureFormatUndefined)

	return p, nil
}

func createModule(device Device, label string, stage *shader.Stage) (hal.ShaderModule, error) {
	m, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: stage.Words()},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: create shader module %q: %w", label, err)
	}
	return m, nil
}

func (p *Pipeline) renderDescriptor(desc Descriptor) *hal.RenderPipelineDescriptor {
	rd := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vertex,
			EntryPoint: desc.Program.Vertex.EntryPoint,
		},
		Primitive: gputypes.PrimitiveState{
			Topology:       p.topology.primitive(),
			FrontFace:      p.raster.FrontFace,
			CullMode:       p.raster.CullMode,
			UnclippedDepth: p.raster.DepthClamp,
		},
		Multisample: gputypes.MultisampleState{
			Count: p.multisample.Samples,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment,
			EntryPoint: desc.Program.Fragment.EntryPoint,
			Targets:    p.targets.colorTargets(),
		},
	}
	if p.targets.Depth != gputypes.TextureFormatUndefined {
		rd.DepthStencil = &hal.DepthStencilState{
			Format:            p.targets.Depth,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront:      hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
			StencilBack:       hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		}
	}
	return rd
}

// Pipeline is a render pipeline with its layout and shader modules.
// It is owned by one compiled pass.
type Pipeline struct {
	label       string
	key         uint64
	topology    Topology
	raster      RasterState
	multisample MultisampleState
	targets     Targets

	vertex   hal.ShaderModule
	fragment hal.ShaderModule
	layout   hal.PipelineLayout
	handle   hal.RenderPipeline
}

// Label returns the pipeline label.
func (p *Pipeline) Label() string { return p.label }

// Key returns the FNV-1a hash of the descriptor the pipeline was built from.
func (p *Pipeline) Key() uint64 { return p.key }

// Handle returns the HAL render pipeline, or nil after Release.
func (p *Pipeline) Handle() hal.RenderPipeline { return p.handle }

// Layout returns the HAL pipeline layout, or nil after Release.
func (p *Pipeline) Layout() hal.PipelineLayout { return p.layout }

// Topology returns the primitive topology.
func (p *Pipeline) Topology() Topology { return p.topology }

// Raster returns the rasterization state.
func (p *Pipeline) Raster() RasterState { return p.raster }

// Multisample returns the multisample state.
func (p *Pipeline) Multisample() MultisampleState { return p.multisample }

// Targets returns the attachment formats.
func (p *Pipeline) Targets() Targets {
	return Targets{
		Color: append([]gputypes.TextureFormat(nil), p.targets.Color...),
		Depth: p.targets.Depth,
	}
}

// DynamicStates returns the states the executor must set per frame.
func (p *Pipeline) DynamicStates() []DynamicState {
	return append([]DynamicState(nil), dynamicStates...)
}

// Released reports whether Release has run.
func (p *Pipeline) Released() bool {
	return p.handle == nil && p.layout == nil && p.vertex == nil && p.fragment == nil
}

// Release destroys the pipeline, then the layout, then the shader modules.
// Calling Release more than once is a no-op.
func (p *Pipeline) Release(device Device) {
	if p == nil {
		return
	}
	if p.handle != nil {
		device.DestroyRenderPipeline(p.handle)
		p.handle = nil
	}
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	if p.fragment != nil {
		device.DestroyShaderModule(p.fragment)
		p.fragment = nil
	}
	if p.vertex != nil {
		device.DestroyShaderModule(p.vertex)
		p.vertex = nil
	}
}
