// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/framegraph/internal/cache"
	"github.com/gogpu/framegraph/internal/spirvtest"
)

const compositeWGSL = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    var out: VertexOutput;
    let x = f32(index % 2u) * 2.0;
    let y = f32(index / 2u) * 2.0;
    out.position = vec4<f32>(x * 2.0 - 1.0, 1.0 - y * 2.0, 0.0, 1.0);
    out.uv = vec2<f32>(x, y);
    return out;
}

@group(0) @binding(0) var albedoTex: texture_2d<f32>;
@group(0) @binding(1) var linearSampler: sampler;

struct FragmentOutput {
    @location(0) color: vec4<f32>,
}

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> FragmentOutput {
    var out: FragmentOutput;
    out.color = textureSample(albedoTex, linearSampler, uv);
    return out;
}

@fragment
fn fs_flat() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

func TestCompilerSPIRV(t *testing.T) {
	c := NewCompiler()
	bin := spirvtest.Fragment([]spirvtest.Var{{Name: "outColor", Type: spirvtest.Vec4}}, "albedoTex")

	stage, err := c.Compile("blit_fragment", Source{SPIRV: bin}, StageFragment)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if stage.Name != "blit_fragment" || stage.Kind != StageFragment {
		t.Errorf("stage = %s/%v", stage.Name, stage.Kind)
	}
	if stage.EntryPoint != DefaultEntryPoint {
		t.Errorf("EntryPoint = %q, want %q", stage.EntryPoint, DefaultEntryPoint)
	}
	if _, ok := stage.Reflection.Output("outColor"); !ok {
		t.Error("reflection is missing outColor")
	}
	if !stage.Reflection.HasSampler("albedoTex") {
		t.Error("reflection is missing albedoTex")
	}

	// The binary is copied, not aliased.
	bin[len(bin)-1] ^= 0xff
	if stage.Binary[len(stage.Binary)-1] == bin[len(bin)-1] {
		t.Error("stage binary aliases the caller's slice")
	}
}

func TestCompilerWGSL(t *testing.T) {
	c := NewCompiler()

	vs, err := c.Compile("composite_vertex", Source{WGSL: compositeWGSL, EntryPoint: "vs_main"}, StageVertex)
	if err != nil {
		t.Fatalf("Compile vertex: %v", err)
	}
	fs, err := c.Compile("composite_fragment", Source{WGSL: compositeWGSL, EntryPoint: "fs_main"}, StageFragment)
	if err != nil {
		t.Fatalf("Compile fragment: %v", err)
	}

	if len(vs.Binary) == 0 || len(fs.Binary) == 0 {
		t.Fatal("empty SPIR-V output")
	}
	if got := len(fs.Reflection.Outputs()); got != 1 {
		t.Errorf("fragment outputs = %d, want 1", got)
	}
	for _, v := range vs.Reflection.Outputs() {
		if v.Name == "position" {
			t.Error("built-in position reported as a vertex output")
		}
	}
}

func TestCompilerWGSLNames(t *testing.T) {
	c := NewCompiler()

	fs, err := c.Compile("composite_fragment", Source{WGSL: compositeWGSL, EntryPoint: "fs_main"}, StageFragment)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	refl := fs.Reflection
	for _, name := range []string{"albedoTex", "linearSampler"} {
		if !refl.HasSampler(name) {
			t.Errorf("bindings %v are missing %q", refl.Samplers(), name)
		}
	}
	if b := refl.Samplers(); len(b) == 2 && (b[0].Binding != 0 || b[1].Binding != 1) {
		t.Errorf("bindings = %v, want albedoTex@0 then linearSampler@1", b)
	}
	if v, ok := refl.Output("color"); !ok || v.Type != Vec4f || v.Location != 0 {
		t.Errorf("Output(color) = %+v, %v", v, ok)
	}
	if v, ok := refl.Input("uv"); !ok || v.Type != Vec2f {
		t.Errorf("Input(uv) = %+v, %v", v, ok)
	}

	flat, err := c.Compile("flat_fragment", Source{WGSL: compositeWGSL, EntryPoint: "fs_flat"}, StageFragment)
	if err != nil {
		t.Fatalf("Compile fs_flat: %v", err)
	}
	if _, ok := flat.Reflection.Output(ResultSymbol(0)); !ok {
		t.Errorf("bare result outputs = %v, want %q", flat.Reflection.Outputs(), ResultSymbol(0))
	}
	if ResultSymbol(0) != "location0" {
		t.Errorf("ResultSymbol(0) = %q", ResultSymbol(0))
	}
}

func TestCompilerErrors(t *testing.T) {
	c := NewCompiler()

	tests := []struct {
		name    string
		src     Source
		wantErr error
	}{
		{"empty source", Source{}, ErrCompilation},
		{"bad wgsl", Source{WGSL: "fn broken( {"}, ErrCompilation},
		{"garbage binary", Source{SPIRV: []byte{1, 2, 3, 4}}, ErrInvalidBinary},
		{"missing entry point", Source{SPIRV: spirvtest.Fragment(nil), EntryPoint: "fs_main"}, ErrEntryPointNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile("broken", tt.src, StageFragment)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			var compileErr *CompileError
			if errors.As(err, &compileErr) && compileErr.Shader != "broken" {
				t.Errorf("Shader = %q, want broken", compileErr.Shader)
			}
		})
	}
}

func TestCompilerCache(t *testing.T) {
	c := NewCompiler(WithCacheSize(4))
	src := Source{SPIRV: spirvtest.Fragment([]spirvtest.Var{{Name: "color", Type: spirvtest.Vec4}})}

	first, err := c.Compile("a_fragment", src, StageFragment)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	second, err := c.Compile("b_fragment", src, StageFragment)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if second.Name != "b_fragment" {
		t.Errorf("cached stage Name = %q, want b_fragment", second.Name)
	}
	if first.Reflection != second.Reflection {
		t.Error("cached stage does not share reflection data")
	}
	if s := c.CacheStats(); s.Hits != 1 || s.Len != 1 {
		t.Errorf("CacheStats = %+v, want 1 hit and 1 entry", s)
	}

	// Same source compiled for another stage kind is a distinct entry.
	if _, err := c.Compile("a_vertex", src, StageVertex); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if s := c.CacheStats(); s.Len != 2 {
		t.Errorf("Len = %d, want 2", s.Len)
	}
}

func TestCompilerCacheDisabled(t *testing.T) {
	c := NewCompiler(WithCacheSize(0))
	src := Source{SPIRV: spirvtest.Fragment(nil)}
	for i := 0; i < 2; i++ {
		if _, err := c.Compile("x", src, StageFragment); err != nil {
			t.Fatalf("Compile: %v", err)
		}
	}
	if s := c.CacheStats(); s != (cache.Stats{}) {
		t.Errorf("CacheStats = %+v, want zero", s)
	}
}

func TestCompilerConcurrent(t *testing.T) {
	c := NewCompiler()
	bins := [][]byte{
		spirvtest.Fragment([]spirvtest.Var{{Name: "a", Type: spirvtest.Vec4}}),
		spirvtest.Fragment([]spirvtest.Var{{Name: "b", Type: spirvtest.Vec4}}),
		spirvtest.Fragment([]spirvtest.Var{{Name: "c", Type: spirvtest.Vec4}}),
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Compile("stage", Source{SPIRV: bins[i%len(bins)]}, StageFragment)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("Compile: %v", err)
		}
	}
}

func TestNewProgram(t *testing.T) {
	c := NewCompiler()
	p, err := NewProgram(c, "blit",
		Source{SPIRV: spirvtest.Vertex()},
		Source{SPIRV: spirvtest.Fragment([]spirvtest.Var{{Name: "color", Type: spirvtest.Vec4}})},
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if p.Vertex.Name != "blit_vertex" || p.Fragment.Name != "blit_fragment" {
		t.Errorf("stage names = %q, %q", p.Vertex.Name, p.Fragment.Name)
	}
	if p.FragmentReflection() == nil {
		t.Error("FragmentReflection() = nil")
	}

	_, err = NewProgram(c, "broken", Source{SPIRV: spirvtest.Vertex()}, Source{})
	if !errors.Is(err, ErrCompilation) {
		t.Errorf("err = %v, want ErrCompilation", err)
	}
	var nilProgram *Program
	if nilProgram.FragmentReflection() != nil {
		t.Error("nil program FragmentReflection() != nil")
	}
}
