// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline builds the render pipeline of a frame-graph pass.
//
// Every pipeline uses the same fixed-function state: back-face culling with
// clockwise front faces, filled polygons, no depth clamp or bias, a single
// sample, and one opaque color target per pass output. Viewport, scissor and
// line width are dynamic and are supplied by the frame executor.
//
//	f := pipeline.NewFactory()
//	p, err := f.Build(device, pipeline.Descriptor{
//	    Label:   "composite",
//	    Program: program,
//	}, pipeline.Targets{Color: []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm}})
//	if err != nil {
//	    return err
//	}
//	defer p.Release(device)
package pipeline
