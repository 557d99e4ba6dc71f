// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"sync"

	"github.com/gogpu/framegraph/internal/cache"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
)

// ErrCompilation is returned when a shader source cannot be turned into SPIR-V.
var ErrCompilation = errors.New("shader: compilation failed")

// DefaultEntryPoint is used when a Source does not name an entry point.
const DefaultEntryPoint = "main"

// DefaultCacheSize is the number of compiled stages kept by a Compiler.
const DefaultCacheSize = 64

// CompileError carries the shader name and the compiler diagnostic.
type CompileError struct {
	Shader     string
	Diagnostic string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shader: compiling %q: %s", e.Shader, e.Diagnostic)
}

// Unwrap returns ErrCompilation.
func (e *CompileError) Unwrap() error {
	return ErrCompilation
}

// Source is a shader stage input: WGSL text or a pre-compiled SPIR-V binary.
// When both are set, WGSL wins.
type Source struct {
	WGSL       string
	SPIRV      []byte
	EntryPoint string
}

func (s Source) entryPoint() string {
	if s.EntryPoint == "" {
		return DefaultEntryPoint
	}
	return s.EntryPoint
}

// CompilerOption configures a Compiler.
type CompilerOption func(*compilerOptions)

type compilerOptions struct {
	cacheSize int
}

// WithCacheSize sets how many compiled stages are memoized.
// Zero disables caching.
func WithCacheSize(n int) CompilerOption {
	return func(o *compilerOptions) {
		o.cacheSize = n
	}
}

// Compiler turns shader sources into reflected stages.
//
// A single mutex serializes compile calls. The lock is held for the
// duration of one Compile and released before it returns.
// Compiler is safe for concurrent use.
type Compiler struct {
	mu     sync.Mutex
	stages *cache.Cache[uint64, *Stage]
}

// NewCompiler creates a compilation service.
func NewCompiler(opts ...CompilerOption) *Compiler {
	o := compilerOptions{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Compiler{}
	if o.cacheSize > 0 {
		c.stages = cache.New[uint64, *Stage](o.cacheSize)
	}
	return c
}

// Compile produces a reflected stage named name from src.
// Reflection runs on every miss; cached stages are shared read-only.
func (c *Compiler) Compile(name string, src Source, kind StageKind) (*Stage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := sourceKey(src, kind)
	if c.stages != nil {
		if cached, ok := c.stages.Get(key); ok {
			stage := *cached
			stage.Name = name
			slogger().Debug("shader: cache hit", "shader", name, "kind", kind)
			return &stage, nil
		}
	}

	entry := src.entryPoint()
	var (
		bin   []byte
		names *symbolNames
	)
	switch {
	case src.WGSL != "":
		module, err := compileWGSL(name, src.WGSL)
		if err != nil {
			return nil, err
		}
		bin, err = naga.GenerateSPIRV(module, spirv.Options{Version: spirv.Version1_3, Debug: true})
		if err != nil {
			return nil, &CompileError{Shader: name, Diagnostic: err.Error()}
		}
		names = irSymbolNames(module, entry)
	case len(src.SPIRV) > 0:
		bin = append([]byte(nil), src.SPIRV...)
	default:
		return nil, &CompileError{Shader: name, Diagnostic: "empty source"}
	}

	refl, err := reflectEntryPoint(bin, entry, names)
	if err != nil {
		return nil, fmt.Errorf("shader: reflecting %q: %w", name, err)
	}

	stage := &Stage{
		Name:       name,
		Kind:       kind,
		EntryPoint: entry,
		Binary:     bin,
		Reflection: refl,
	}
	if c.stages != nil {
		c.stages.Set(key, stage)
	}

	slogger().Debug("shader: compiled",
		"shader", name,
		"kind", kind,
		"entry", entry,
		"bytes", len(bin),
		"inputs", len(refl.inputs),
		"outputs", len(refl.outputs),
		"samplers", len(refl.samplers))

	return stage, nil
}

// compileWGSL parses, lowers and validates WGSL into naga IR. The IR is
// kept for reflection: it names the resources and results that the
// generated SPIR-V leaves anonymous.
func compileWGSL(name, source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, &CompileError{Shader: name, Diagnostic: err.Error()}
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, &CompileError{Shader: name, Diagnostic: err.Error()}
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, &CompileError{Shader: name, Diagnostic: err.Error()}
	}
	if len(verrs) > 0 {
		return nil, &CompileError{Shader: name, Diagnostic: verrs[0].Error()}
	}
	return module, nil
}

// CacheStats reports the stage cache statistics.
func (c *Compiler) CacheStats() cache.Stats {
	if c.stages == nil {
		return cache.Stats{}
	}
	return c.stages.Stats()
}

// sourceKey hashes a source with FNV-1a.
func sourceKey(src Source, kind StageKind) uint64 {
	h := fnv.New64a()
	writeString(h, src.WGSL)
	writeUint32(h, uint32(len(src.SPIRV))) //nolint:gosec // G115: shader binaries are far below 4 GiB
	_, _ = h.Write(src.SPIRV)
	writeString(h, src.entryPoint())
	_, _ = h.Write([]byte{byte(kind)})
	return h.Sum64()
}

func writeUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func writeString(h hash.Hash64, s string) {
	writeUint32(h, uint32(len(s))) //nolint:gosec // G115: source text is far below 4 GiB
	_, _ = h.Write([]byte(s))
}
