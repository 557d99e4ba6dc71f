// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"testing"

	"github.com/gogpu/framegraph/internal/spirvtest"
	"github.com/gogpu/framegraph/shader"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

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

var errInjected = errors.New("injected failure")

// recordingDevice counts create/destroy calls, records the call order and
// the last pipeline descriptor, and can fail a chosen create call.
type recordingDevice struct {
	Device

	calls    []string
	created  int
	released int
	last     *hal.RenderPipelineDescriptor

	failModule   int // fail the n-th shader module creation (1-based)
	failLayout   bool
	failPipeline bool
	modules      int
}

func (d *recordingDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.modules++
	if d.failModule == d.modules {
		return nil, errInjected
	}
	d.created++
	d.calls = append(d.calls, "create module "+desc.Label)
	return d.Device.CreateShaderModule(desc)
}

func (d *recordingDevice) DestroyShaderModule(m hal.ShaderModule) {
	d.released++
	d.calls = append(d.calls, "destroy module")
	d.Device.DestroyShaderModule(m)
}

func (d *recordingDevice) CreatePipelineLayout(desc *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	if d.failLayout {
		return nil, errInjected
	}
	d.created++
	d.calls = append(d.calls, "create layout")
	return d.Device.CreatePipelineLayout(desc)
}

func (d *recordingDevice) DestroyPipelineLayout(l hal.PipelineLayout) {
	d.released++
	d.calls = append(d.calls, "destroy layout")
	d.Device.DestroyPipelineLayout(l)
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.last = desc
	if d.failPipeline {
		return nil, errInjected
	}
	d.created++
	d.calls = append(d.calls, "create pipeline")
	return d.Device.CreateRenderPipeline(desc)
}

func (d *recordingDevice) DestroyRenderPipeline(p hal.RenderPipeline) {
	d.released++
	d.calls = append(d.calls, "destroy pipeline")
	d.Device.DestroyRenderPipeline(p)
}

func testProgram(t *testing.T) *shader.Program {
	t.Helper()
	p, err := shader.NewProgram(shader.NewCompiler(), "test",
		shader.Source{SPIRV: spirvtest.Vertex()},
		shader.Source{SPIRV: spirvtest.Fragment([]spirvtest.Var{{Name: "color", Type: spirvtest.Vec4}})},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	return p
}

var rgba8 = Targets{Color: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm}}

func TestBuildFixedState(t *testing.T) {
	dev := &recordingDevice{Device: createNoopDevice(t)}
	f := NewFactory()

	p, err := f.Build(dev, Descriptor{Label: "blit", Program: testProgram(t)}, rgba8)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer p.Release(dev)

	rd := dev.last
	if rd.Primitive.Topology != gputypes.PrimitiveTopologyTriangleList {
		t.Errorf("Topology = %v, want triangle list", rd.Primitive.Topology)
	}
	if rd.Primitive.CullMode != gputypes.CullModeBack {
		t.Errorf("CullMode = %v, want back", rd.Primitive.CullMode)
	}
	if rd.Primitive.FrontFace != gputypes.FrontFaceCW {
		t.Errorf("FrontFace = %v, want CW", rd.Primitive.FrontFace)
	}
	if rd.Primitive.UnclippedDepth {
		t.Error("depth clamp enabled")
	}
	if rd.Multisample.Count != 1 {
		t.Errorf("sample count = %d, want 1", rd.Multisample.Count)
	}
	if rd.DepthStencil != nil {
		t.Error("depth state set without a depth target")
	}
	if rd.Vertex.EntryPoint != "main" || rd.Fragment.EntryPoint != "main" {
		t.Errorf("entry points = %q/%q", rd.Vertex.EntryPoint, rd.Fragment.EntryPoint)
	}

	targets := rd.Fragment.Targets
	if len(targets) != 1 {
		t.Fatalf("len(Targets) = %d, want 1", len(targets))
	}
	if targets[0].Blend != nil {
		t.Error("blending enabled")
	}
	if targets[0].WriteMask != gputypes.ColorWriteMaskAll {
		t.Errorf("WriteMask = %v, want all", targets[0].WriteMask)
	}

	raster := p.Raster()
	if raster != DefaultRasterState() {
		t.Errorf("Raster() = %+v", raster)
	}
	if raster.LineWidth != 1.0 || raster.DepthBias || raster.PolygonMode != PolygonFill {
		t.Errorf("raster state = %+v", raster)
	}

	dyn := p.DynamicStates()
	want := []DynamicState{DynamicViewport, DynamicLineWidth, DynamicScissor}
	if len(dyn) != len(want) {
		t.Fatalf("DynamicStates() = %v, want %v", dyn, want)
	}
	for i := range want {
		if dyn[i] != want[i] {
			t.Errorf("DynamicStates()[%d] = %v, want %v", i, dyn[i], want[i])
		}
	}
}

func TestBuildTopology(t *testing.T) {
	dev := &recordingDevice{Device: createNoopDevice(t)}
	f := NewFactory()

	tests := []struct {
		topology Topology
		want     gputypes.PrimitiveTopology
	}{
		{TopologyTriangle, gputypes.PrimitiveTopologyTriangleList},
		{TopologyPoint, gputypes.PrimitiveTopologyPointList},
		{TopologyLine, gputypes.PrimitiveTopologyLineList},
	}
	for _, tt := range tests {
		t.Run(tt.topology.String(), func(t *testing.T) {
			p, err := f.Build(dev, Descriptor{Label: "t", Program: testProgram(t), Topology: tt.topology}, rgba8)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			defer p.Release(dev)
			if dev.last.Primitive.Topology != tt.want {
				t.Errorf("Topology = %v, want %v", dev.last.Primitive.Topology, tt.want)
			}
		})
	}
}

func TestBuildMSAAEnablesSampleShading(t *testing.T) {
	dev := createNoopDevice(t)
	f := NewFactory()
	prog := testProgram(t)

	plain, err := f.Build(dev, Descriptor{Label: "a", Program: prog}, rgba8)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	msaa, err := f.Build(dev, Descriptor{Label: "a", Program: prog, MSAA: true}, rgba8)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if plain.Multisample().SampleShading {
		t.Error("sample shading on without MSAA")
	}
	if !msaa.Multisample().SampleShading {
		t.Error("sample shading off with MSAA")
	}
	if plain.Multisample().Samples != 1 || msaa.Multisample().Samples != 1 {
		t.Error("sample count is not 1")
	}
	if plain.Key() == msaa.Key() {
		t.Error("MSAA does not change the pipeline key")
	}
}

func TestBuildDepthTarget(t *testing.T) {
	dev := &recordingDevice{Device: createNoopDevice(t)}
	targets := Targets{
		Color: []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA16Float},
		Depth: gputypes.TextureFormatDepth24PlusStencil8,
	}
	p, err := NewFactory().Build(dev, Descriptor{Label: "gbuffer", Program: testProgram(t)}, targets)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer p.Release(dev)

	ds := dev.last.DepthStencil
	if ds == nil {
		t.Fatal("DepthStencil = nil")
	}
	if ds.Format != gputypes.TextureFormatDepth24PlusStencil8 || !ds.DepthWriteEnabled || ds.DepthCompare != gputypes.CompareFunctionLess {
		t.Errorf("DepthStencil = %+v", ds)
	}
	if ds.DepthBias != 0 {
		t.Errorf("DepthBias = %d, want 0", ds.DepthBias)
	}
	if got := len(dev.last.Fragment.Targets); got != 2 {
		t.Errorf("len(Targets) = %d, want 2", got)
	}
}

func TestBuildNoShader(t *testing.T) {
	dev := &recordingDevice{Device: createNoopDevice(t)}
	prog := testProgram(t)

	tests := []struct {
		name    string
		program *shader.Program
	}{
		{"nil program", nil},
		{"no vertex", &shader.Program{Name: "p", Fragment: prog.Fragment}},
		{"no fragment", &shader.Program{Name: "p", Vertex: prog.Vertex}},
		{"empty binary", &shader.Program{Name: "p", Vertex: &shader.Stage{}, Fragment: prog.Fragment}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFactory().Build(dev, Descriptor{Label: "p", Program: tt.program}, rgba8)
			if !errors.Is(err, ErrNoShader) {
				t.Errorf("err = %v, want ErrNoShader", err)
			}
		})
	}
	if dev.created != 0 {
		t.Errorf("created %d objects for invalid descriptors", dev.created)
	}
}

func TestBuildFailureReleasesPartialState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *recordingDevice)
	}{
		{"vertex module", func(d *recordingDevice) { d.failModule = 1 }},
		{"fragment module", func(d *recordingDevice) { d.failModule = 2 }},
		{"layout", func(d *recordingDevice) { d.failLayout = true }},
		{"pipeline", func(d *recordingDevice) { d.failPipeline = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &recordingDevice{Device: createNoopDevice(t)}
			tt.setup(dev)

			_, err := NewFactory().Build(dev, Descriptor{Label: "p", Program: testProgram(t)}, rgba8)
			if !errors.Is(err, errInjected) {
				t.Fatalf("err = %v, want injected failure", err)
			}
			if dev.created != dev.released {
				t.Errorf("created %d, released %d", dev.created, dev.released)
			}
		})
	}
}

func TestReleaseOrderAndIdempotence(t *testing.T) {
	dev := &recordingDevice{Device: createNoopDevice(t)}
	p, err := NewFactory().Build(dev, Descriptor{Label: "p", Program: testProgram(t)}, rgba8)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	dev.calls = nil

	p.Release(dev)
	p.Release(dev)

	want := []string{"destroy pipeline", "destroy layout", "destroy module", "destroy module"}
	if len(dev.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", dev.calls, want)
	}
	for i := range want {
		if dev.calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, dev.calls[i], want[i])
		}
	}
	if !p.Released() {
		t.Error("Released() = false")
	}
}

func TestParseTopology(t *testing.T) {
	tests := []struct {
		in      string
		want    Topology
		wantErr bool
	}{
		{"", TopologyTriangle, false},
		{"triangle", TopologyTriangle, false},
		{"Points", TopologyPoint, false},
		{"line", TopologyLine, false},
		{"strip", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTopology(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTopology(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTopology(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
