// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package loader reads frame graph declarations from HCL files.
//
// A declaration names shader programs and the passes built from them:
//
//	shader "composite" {
//	  vertex {
//	    file  = "fullscreen.wgsl"
//	    entry = "vs_main"
//	  }
//	  fragment { spirv = "composite.spv" }
//	}
//
//	pass "composite" {
//	  shader = "composite"
//	  draw   = "fullscreen"
//	  color_input  "albedo"        { sampler = "albedoTex" }
//	  color_output "SCREEN_OUTPUT" {
//	    symbol = "outColor"
//	    format = var.surface_format
//	  }
//	}
//
// Shader paths are relative to the declaring file. Attribute values may
// reference variables supplied with WithVariables as var.<name>.
package loader
