// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package loader

import "github.com/hashicorp/hcl/v2"

// hclFile is the top-level structure of a declaration file.
type hclFile struct {
	Shaders []*hclShader `hcl:"shader,block"`
	Passes  []*hclPass   `hcl:"pass,block"`
}

type hclShader struct {
	Name      string    `hcl:"name,label"`
	Vertex    *hclStage `hcl:"vertex,block"`
	Fragment  *hclStage `hcl:"fragment,block"`
	DeclRange hcl.Range `hcl:",def_range"`
}

// hclStage sets exactly one of File (WGSL), SPIRV or Source (inline WGSL).
type hclStage struct {
	File      string    `hcl:"file,optional"`
	SPIRV     string    `hcl:"spirv,optional"`
	Source    string    `hcl:"source,optional"`
	Entry     string    `hcl:"entry,optional"`
	DeclRange hcl.Range `hcl:",def_range"`
}

type hclPass struct {
	Name          string            `hcl:"name,label"`
	Shader        string            `hcl:"shader"`
	Topology      string            `hcl:"topology,optional"`
	MSAA          bool              `hcl:"msaa,optional"`
	Draw          string            `hcl:"draw,optional"`
	VertexCount   uint32            `hcl:"vertex_count,optional"`
	InstanceCount uint32            `hcl:"instance_count,optional"`
	ColorInputs   []*hclInput       `hcl:"color_input,block"`
	ColorOutputs  []*hclColorOutput `hcl:"color_output,block"`
	DepthInput    *hclInput         `hcl:"depth_input,block"`
	DepthOutput   *hclDepthOutput   `hcl:"depth_output,block"`
	DeclRange     hcl.Range         `hcl:",def_range"`
}

type hclInput struct {
	Name    string `hcl:"name,label"`
	Sampler string `hcl:"sampler"`
}

type hclColorOutput struct {
	Name   string `hcl:"name,label"`
	Symbol string `hcl:"symbol"`
	Format string `hcl:"format"`
}

type hclDepthOutput struct {
	Name   string `hcl:"name,label"`
	Format string `hcl:"format"`
}
