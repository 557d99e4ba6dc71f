// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package framegraph compiles declarative render graphs into GPU resources.
//
// Rendering work is declared as named passes. A pass reads logical
// attachments through fragment samplers and writes logical attachments
// through fragment outputs. Exactly one pass writes ScreenOutput.
//
// # Declaring passes
//
// A PassBuilder checks each pass against the reflection data of its
// fragment shader:
//
//	compiler := shader.NewCompiler()
//	prog, err := shader.NewProgram(compiler, "composite", vs, fs)
//	if err != nil {
//	    return err
//	}
//	composite, err := framegraph.NewPassBuilder("composite",
//	    pipeline.Descriptor{Program: prog}, framegraph.DrawFullscreen{}).
//	    ColorInput("albedo", "albedoTex").
//	    ColorOutput(framegraph.ScreenOutput, "outColor", framegraph.ColorFormatBGRA8).
//	    Build()
//
// # Compiling
//
// Validate orders the passes so that every producer runs before its
// consumers, keeping declaration order between independent passes.
// Compile additionally creates one pipeline per pass, one texture, view
// and sampler per logical output, and one framebuffer per pass:
//
//	g, err := framegraph.Compile(device, passes, width, height)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//
//	for _, p := range g.Passes() {
//	    fb := p.Framebuffer()
//	    // record p.Pipeline() and p.DrawState() into fb
//	}
//
// On resize, Recreate replaces the size-dependent resources. Handles
// issued before a Recreate no longer resolve.
//
// # Logging
//
// The package is silent by default. SetLogger installs an slog.Logger for
// this package and its shader and pipeline sub-packages.
package framegraph
