// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/pipeline"
	"github.com/gogpu/framegraph/shader"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Extension is the file extension of declaration files.
const Extension = ".hcl"

var (
	// ErrNoFiles is returned when the given paths contain no declaration files.
	ErrNoFiles = errors.New("loader: no declaration files")

	// ErrInvalidDeclaration is returned for semantically invalid declarations.
	ErrInvalidDeclaration = errors.New("loader: invalid declaration")
)

// Option configures a Loader.
type Option func(*Loader)

// WithVariables makes vars available to expressions as var.<name>.
func WithVariables(vars map[string]cty.Value) Option {
	return func(l *Loader) {
		for k, v := range vars {
			l.vars[k] = v
		}
	}
}

// WithStringVariables is WithVariables for plain string values, such as
// those given on a command line.
func WithStringVariables(vars map[string]string) Option {
	return func(l *Loader) {
		for k, v := range vars {
			l.vars[k] = cty.StringVal(v)
		}
	}
}

// Loader parses declaration files. A Loader is not safe for concurrent use.
type Loader struct {
	parser *hclparse.Parser
	vars   map[string]cty.Value
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		parser: hclparse.NewParser(),
		vars:   make(map[string]cty.Value),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads declarations with a default Loader.
func Load(paths ...string) (*Declaration, error) {
	return New().Load(paths...)
}

// Load reads the given files, and every .hcl file below the given
// directories in lexical order, into one declaration.
func (l *Loader) Load(paths ...string) (*Declaration, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, strings.Join(paths, ", "))
	}

	decl := &Declaration{}
	for _, file := range files {
		if err := l.loadFile(decl, file); err != nil {
			return nil, err
		}
	}
	if err := decl.check(); err != nil {
		return nil, err
	}

	framegraph.Logger().Debug("loader: declaration loaded",
		"files", len(files),
		"shaders", len(decl.Shaders),
		"passes", len(decl.Passes))
	return decl, nil
}

// Files returns the parsed files by name, for printing diagnostics with
// source snippets.
func (l *Loader) Files() map[string]*hcl.File {
	return l.parser.Files()
}

func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("loader: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == Extension {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("loader: walking %s: %w", p, err)
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(l.vars)},
	}
}

func (l *Loader) loadFile(decl *Declaration, path string) error {
	f, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("loader: parsing %s: %w", path, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(f.Body, l.evalContext(), &parsed); diags.HasErrors() {
		return fmt.Errorf("loader: decoding %s: %w", path, diags)
	}

	dir := filepath.Dir(path)
	for _, s := range parsed.Shaders {
		sd, err := decodeShader(s, dir)
		if err != nil {
			return err
		}
		decl.Shaders = append(decl.Shaders, sd)
	}
	for _, p := range parsed.Passes {
		pd, err := decodePass(p)
		if err != nil {
			return err
		}
		decl.Passes = append(decl.Passes, pd)
	}
	return nil
}

func invalid(rng hcl.Range, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidDeclaration, rng, fmt.Sprintf(format, args...))
}

func decodeShader(s *hclShader, dir string) (*ShaderDecl, error) {
	sd := &ShaderDecl{Name: s.Name, Range: s.DeclRange}
	stages := []struct {
		kind  string
		block *hclStage
		dst   *shader.Source
	}{
		{"vertex", s.Vertex, &sd.Vertex},
		{"fragment", s.Fragment, &sd.Fragment},
	}
	for _, st := range stages {
		if st.block == nil {
			return nil, invalid(s.DeclRange, "shader %q has no %s block", s.Name, st.kind)
		}
		src, err := decodeStage(st.block, dir)
		if err != nil {
			return nil, fmt.Errorf("shader %q %s: %w", s.Name, st.kind, err)
		}
		*st.dst = src
	}
	return sd, nil
}

func decodeStage(st *hclStage, dir string) (shader.Source, error) {
	set := 0
	for _, v := range []string{st.File, st.SPIRV, st.Source} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return shader.Source{}, invalid(st.DeclRange, "exactly one of file, spirv or source must be set")
	}

	src := shader.Source{EntryPoint: st.Entry, WGSL: st.Source}
	switch {
	case st.File != "":
		b, err := os.ReadFile(resolve(dir, st.File))
		if err != nil {
			return shader.Source{}, fmt.Errorf("loader: %w", err)
		}
		src.WGSL = string(b)
	case st.SPIRV != "":
		b, err := os.ReadFile(resolve(dir, st.SPIRV))
		if err != nil {
			return shader.Source{}, fmt.Errorf("loader: %w", err)
		}
		src.SPIRV = b
	}
	return src, nil
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func decodePass(p *hclPass) (*PassDecl, error) {
	topology, err := pipeline.ParseTopology(p.Topology)
	if err != nil {
		return nil, invalid(p.DeclRange, "pass %q: %v", p.Name, err)
	}
	pd := &PassDecl{
		Name:     p.Name,
		Shader:   p.Shader,
		Topology: topology,
		MSAA:     p.MSAA,
		Range:    p.DeclRange,
	}

	switch p.Draw {
	case "vertices":
		if p.VertexCount == 0 {
			return nil, invalid(p.DeclRange, "pass %q: draw \"vertices\" needs vertex_count", p.Name)
		}
		instances := p.InstanceCount
		if instances == 0 {
			instances = 1
		}
		pd.Draw = framegraph.DrawVertices{VertexCount: p.VertexCount, InstanceCount: instances}
	default:
		ds, ok := framegraph.ParseDrawState(p.Draw)
		if !ok {
			return nil, invalid(p.DeclRange, "pass %q: unknown draw %q", p.Name, p.Draw)
		}
		pd.Draw = ds
	}

	for _, in := range p.ColorInputs {
		pd.ColorInputs = append(pd.ColorInputs, framegraph.ColorInput{Name: in.Name, Sampler: in.Sampler})
	}
	for _, out := range p.ColorOutputs {
		f, err := framegraph.ParseColorFormat(out.Format)
		if err != nil {
			return nil, invalid(p.DeclRange, "pass %q output %q: %v", p.Name, out.Name, err)
		}
		pd.ColorOutputs = append(pd.ColorOutputs, framegraph.ColorOutput{Name: out.Name, Symbol: out.Symbol, Format: f})
	}
	if p.DepthInput != nil {
		pd.DepthInput = &framegraph.DepthInput{Name: p.DepthInput.Name, Sampler: p.DepthInput.Sampler}
	}
	if p.DepthOutput != nil {
		f, err := framegraph.ParseDepthStencilFormat(p.DepthOutput.Format)
		if err != nil {
			return nil, invalid(p.DeclRange, "pass %q depth output %q: %v", p.Name, p.DepthOutput.Name, err)
		}
		pd.DepthOutput = &framegraph.DepthOutput{Name: p.DepthOutput.Name, Format: f}
	}
	return pd, nil
}
