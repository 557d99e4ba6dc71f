// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/framegraph/internal/spirvtest"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

var errInjected = errors.New("injected failure")

// createNoopDevice creates a noop device for testing.
func createNoopDevice(t *testing.T) hal.Device {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device
}

// countingDevice wraps a Device, counting create and destroy calls per
// resource kind and logging them in order. failAt makes the n-th creation
// (1-based, cumulative) of a kind fail.
type countingDevice struct {
	Device

	log       *[]string
	created   map[string]int
	destroyed map[string]int
	failAt    map[string]int

	textures []*hal.TextureDescriptor
	views    []*hal.TextureViewDescriptor
	samplers []*hal.SamplerDescriptor
}

func newCountingDevice(t *testing.T) *countingDevice {
	t.Helper()
	return &countingDevice{
		Device:    createNoopDevice(t),
		log:       new([]string),
		created:   make(map[string]int),
		destroyed: make(map[string]int),
		failAt:    make(map[string]int),
	}
}

func (d *countingDevice) create(kind string) error {
	if n := d.failAt[kind]; n > 0 && n == d.created[kind]+1 {
		d.failAt[kind] = 0
		return errInjected
	}
	d.created[kind]++
	*d.log = append(*d.log, "create "+kind)
	return nil
}

func (d *countingDevice) destroy(kind string) {
	d.destroyed[kind]++
	*d.log = append(*d.log, "destroy "+kind)
}

// live returns created minus destroyed for kind.
func (d *countingDevice) live(kind string) int {
	return d.created[kind] - d.destroyed[kind]
}

func (d *countingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	if err := d.create("module"); err != nil {
		return nil, err
	}
	return d.Device.CreateShaderModule(desc)
}

func (d *countingDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.destroy("module")
	d.Device.DestroyShaderModule(m)
}

func (d *countingDevice) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	if err := d.create("layout"); err != nil {
		return nil, err
	}
	return d.Device.CreatePipelineLayout(desc)
}

func (d *countingDevice) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.destroy("layout")
	d.Device.DestroyPipelineLayout(l)
}

func (d *countingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	if err := d.create("pipeline"); err != nil {
		return nil, err
	}
	return d.Device.CreateRenderPipeline(desc)
}

func (d *countingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.destroy("pipeline")
	d.Device.DestroyRenderPipeline(p)
}

func (d *countingDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if err := d.create("texture"); err != nil {
		return nil, err
	}
	d.textures = append(d.textures, desc)
	return d.Device.CreateTexture(desc)
}

func (d *countingDevice) DestroyTexture(tex hal.Texture) {
	d.destroy("texture")
	d.Device.DestroyTexture(tex)
}

func (d *countingDevice) CreateTextureView(tex hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	if err := d.create("view"); err != nil {
		return nil, err
	}
	d.views = append(d.views, desc)
	return d.Device.CreateTextureView(tex, desc)
}

func (d *countingDevice) DestroyTextureView(v hal.TextureView) {
	d.destroy("view")
	d.Device.DestroyTextureView(v)
}

func (d *countingDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	if err := d.create("sampler"); err != nil {
		return nil, err
	}
	d.samplers = append(d.samplers, desc)
	return d.Device.CreateSampler(desc)
}

func (d *countingDevice) DestroySampler(s hal.Sampler) {
	d.destroy("sampler")
	d.Device.DestroySampler(s)
}

// countingAllocator wraps an allocator and logs into a shared call log.
type countingAllocator struct {
	*alloc.Allocator
	log    *[]string
	failAt int // fail the n-th Allocate (1-based)
	calls  int
}

func newCountingAllocator(log *[]string) *countingAllocator {
	return &countingAllocator{Allocator: alloc.New(alloc.Config{}), log: log}
}

func (a *countingAllocator) Allocate(req alloc.Request) (alloc.Allocation, error) {
	a.calls++
	if a.failAt == a.calls {
		return alloc.Allocation{}, errInjected
	}
	*a.log = append(*a.log, "allocate memory")
	return a.Allocator.Allocate(req)
}

func (a *countingAllocator) Free(m alloc.Allocation) error {
	*a.log = append(*a.log, "free memory")
	return a.Allocator.Free(m)
}

var testCompiler = shader.NewCompiler()

// testProgram builds a program whose fragment stage writes the given Vec4
// outputs (locations in order) and binds the given samplers.
func testProgram(t *testing.T, name string, outputs []string, samplers ...string) *shader.Program {
	t.Helper()
	vars := make([]spirvtest.Var, len(outputs))
	for i, o := range outputs {
		//nolint:gosec // G115: test fixtures have a handful of outputs
		vars[i] = spirvtest.Var{Name: o, Type: spirvtest.Vec4, Location: uint32(i)}
	}
	p, err := shader.NewProgram(testCompiler, name,
		shader.Source{SPIRV: spirvtest.Vertex()},
		shader.Source{SPIRV: spirvtest.Fragment(vars, samplers...)},
	)
	if err != nil {
		t.Fatalf("NewProgram(%s): %v", name, err)
	}
	return p
}

// samplerFor names the sampler bound to a logical input in test passes.
func samplerFor(input string) string { return input + "Tex" }

// symbolFor names the fragment output writing a logical output in test passes.
func symbolFor(output string) string {
	if output == ScreenOutput {
		return "outColor"
	}
	return strings.ToLower(output) + "Out"
}

// colorPass builds a pass sampling inputs and writing RGBA8 color outputs.
func colorPass(t *testing.T, name string, inputs []string, outputs ...string) *Pass {
	t.Helper()
	symbols := make([]string, len(outputs))
	for i, o := range outputs {
		symbols[i] = symbolFor(o)
	}
	samplers := make([]string, len(inputs))
	for i, in := range inputs {
		samplers[i] = samplerFor(in)
	}
	b := NewPassBuilder(name, pipeline.Descriptor{Program: testProgram(t, name, symbols, samplers...)}, DrawFullscreen{})
	for _, in := range inputs {
		b.ColorInput(in, samplerFor(in))
	}
	for _, o := range outputs {
		b.ColorOutput(o, symbolFor(o), ColorFormatRGBA8)
	}
	p, err := b.Build()
	if err != nil {
		t.Fatalf("Build(%s): %v", name, err)
	}
	return p
}

// screenPass builds a pass sampling inputs and writing ScreenOutput.
func screenPass(t *testing.T, name string, inputs []string) *Pass {
	t.Helper()
	return colorPass(t, name, inputs, ScreenOutput)
}

// deferredPasses declares a small deferred renderer out of order:
// present <- light <- gbuffer (albedo, normal, depth).
func deferredPasses(t *testing.T) []*Pass {
	t.Helper()
	gb := NewPassBuilder("gbuffer",
		pipeline.Descriptor{Program: testProgram(t, "gbuffer", []string{"albedoOut", "normalOut"})}, DrawNone{}).
		ColorOutput("albedo", "albedoOut", ColorFormatRGBA8).
		ColorOutput("normal", "normalOut", ColorFormatRGBA16F).
		DepthOutput("depth", DepthFormat32F)
	gbuffer, err := gb.Build()
	if err != nil {
		t.Fatalf("Build(gbuffer): %v", err)
	}

	lb := NewPassBuilder("light",
		pipeline.Descriptor{Program: testProgram(t, "light", []string{"litOut"}, "albedoTex", "normalTex", "depthTex")},
		DrawFullscreen{}).
		ColorInput("albedo", "albedoTex").
		ColorInput("normal", "normalTex").
		DepthInput("depth", "depthTex").
		ColorOutput("lit", "litOut", ColorFormatRGBA16F)
	light, err := lb.Build()
	if err != nil {
		t.Fatalf("Build(light): %v", err)
	}

	return []*Pass{screenPass(t, "present", []string{"lit"}), light, gbuffer}
}

func compileGraph(t *testing.T, device Device, passes []*Pass, width, height uint32, opts ...CompileOption) *Graph {
	t.Helper()
	g, err := Compile(device, passes, width, height, opts...)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return g
}

func passNames(passes []*Pass) []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.Name()
	}
	return names
}

func passDescriptor(p *shader.Program) pipeline.Descriptor {
	return pipeline.Descriptor{Program: p}
}
