// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/internal/spirvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphHCL = `
shader "blur" {
  vertex   { spirv = "vertex.spv" }
  fragment { spirv = "blur.spv" }
}

shader "present" {
  vertex   { spirv = "vertex.spv" }
  fragment { spirv = "present.spv" }
}

pass "present" {
  shader = "present"
  draw   = "fullscreen"
  color_input "blurred" { sampler = "blurredTex" }
  color_output "SCREEN_OUTPUT" {
    symbol = "outColor"
    format = var.surface_format
  }
}

pass "blur" {
  shader = "blur"
  draw   = "fullscreen"
  color_output "blurred" {
    symbol = "blurOut"
    format = "rgba16f"
  }
}
`

func writeGraph(t *testing.T, hcl string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"graph.hcl":   []byte(hcl),
		"vertex.spv":  spirvtest.Vertex(),
		"blur.spv":    spirvtest.Fragment([]spirvtest.Var{{Name: "blurOut", Type: spirvtest.Vec4}}),
		"present.spv": spirvtest.Fragment([]spirvtest.Var{{Name: "outColor", Type: spirvtest.Vec4}}, "blurredTex"),
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), content, 0o600))
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheck(t *testing.T) {
	dir := writeGraph(t, graphHCL)

	out, err := run(t, "check", "--var", "surface_format=bgra8", dir)
	require.NoError(t, err)
	assert.Equal(t, "1. blur\n2. present\n", out)
}

func TestCheckReportsGraphErrors(t *testing.T) {
	dir := writeGraph(t, graphHCL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.hcl"), []byte(`
pass "second" {
  shader = "present"
  color_input "blurred" { sampler = "blurredTex" }
  color_output "SCREEN_OUTPUT" {
    symbol = "outColor"
    format = "rgba8"
  }
}
`), 0o600))

	_, err := run(t, "check", "--var", "surface_format=bgra8", dir)
	require.ErrorIs(t, err, framegraph.ErrDuplicateProducer)
}

func TestCheckMissingVariable(t *testing.T) {
	_, err := run(t, "check", writeGraph(t, graphHCL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "surface_format")
}

func TestCompile(t *testing.T) {
	dir := writeGraph(t, graphHCL)

	out, err := run(t, "compile", "--var", "surface_format=rgba8",
		"--width", "640", "--height", "360", "--resize", "320x180", "--metrics", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "graph: 2 passes, 2 attachments, 640x360")
	assert.Contains(t, out, "2. present")
	assert.Contains(t, out, "after: blur")
	assert.Contains(t, out, "sampler blurredTex")
	assert.Contains(t, out, "recreated at 320x180 (generation 2)")
	assert.Contains(t, out, "framegraph_compilations_total{result=\"success\"} 1")
	assert.Contains(t, out, "framegraph_recreations_total{result=\"success\"} 1")
	assert.Contains(t, out, "unbounded")
}

func TestCompileBudgetBelowMinimum(t *testing.T) {
	_, err := run(t, "compile", "--var", "surface_format=rgba8", "--budget-mb", "8", writeGraph(t, graphHCL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 16")
}

func TestCompileErrors(t *testing.T) {
	dir := writeGraph(t, graphHCL)

	tests := []struct {
		name string
		args []string
	}{
		{"zero width", []string{"--width", "0"}},
		{"bad resize", []string{"--resize", "big"}},
		{"over budget", []string{"--width", "8192", "--height", "8192", "--budget-mb", "16"}},
		{"budget below minimum", []string{"--budget-mb", "8"}},
		{"negative budget", []string{"--budget-mb", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compile", "--var", "surface_format=rgba8"}, tt.args...)
			_, err := run(t, append(args, dir)...)
			assert.Error(t, err)
		})
	}
}

func TestRequiresPaths(t *testing.T) {
	_, err := run(t, "check")
	assert.Error(t, err)
}
