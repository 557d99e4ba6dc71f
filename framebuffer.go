// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"

	"github.com/gogpu/framegraph/alloc"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// attachmentAlignment is the alignment requested for attachment memory.
const attachmentAlignment = 256

// attachmentSpec is the format-level description of one attachment.
// Specs survive Recreate; only the physical resources are replaced.
type attachmentSpec struct {
	name   string
	pass   string
	format attachmentFormat
}

// Attachment is one physical attachment: texture, view, sampler and the
// memory accounted for it. Fields are read-only for callers.
type Attachment struct {
	Name    string
	Kind    AttachmentKind
	Format  gputypes.TextureFormat
	Width   uint32
	Height  uint32
	Texture hal.Texture
	View    hal.TextureView
	Sampler hal.Sampler
	Memory  alloc.Allocation

	allocated bool
}

// Framebuffer binds a pass's output views: color outputs in declaration
// order, then the depth output when present.
type Framebuffer struct {
	Pass        string
	Width       uint32
	Height      uint32
	ColorViews  []hal.TextureView
	DepthView   hal.TextureView
	Attachments []Handle
}

// released reports whether the framebuffer dropped its views.
func (f *Framebuffer) released() bool {
	return f.ColorViews == nil && f.DepthView == nil
}

// resourceSet is everything that depends on the graph dimensions.
type resourceSet struct {
	width        uint32
	height       uint32
	attachments  []*Attachment
	framebuffers []*Framebuffer
}

// createResourceSet instantiates every attachment and framebuffer at the
// given size. On failure the partial set is released and an error returned.
func (g *Graph) createResourceSet(width, height uint32) (*resourceSet, error) {
	set := &resourceSet{width: width, height: height}
	for _, spec := range g.specs {
		a := &Attachment{
			Name:   spec.name,
			Kind:   spec.format.kind,
			Format: spec.format.texture,
			Width:  width,
			Height: height,
		}
		set.attachments = append(set.attachments, a)
		if err := g.createAttachment(a, spec); err != nil {
			set.release(g.device, g.opts.allocator)
			return nil, err
		}
	}

	// Handles are issued for the generation this set will become.
	next := arena[*Attachment]{generation: g.attachments.generation + 1}
	for _, cp := range g.passes {
		fb := &Framebuffer{Pass: cp.pass.name, Width: width, Height: height}
		for i, idx := range cp.outputs {
			a := set.attachments[idx]
			if cp.pass.depthOutput != nil && i == len(cp.outputs)-1 {
				fb.DepthView = a.View
			} else {
				fb.ColorViews = append(fb.ColorViews, a.View)
			}
			fb.Attachments = append(fb.Attachments, next.handle(idx))
		}
		set.framebuffers = append(set.framebuffers, fb)
	}
	return set, nil
}

func (g *Graph) createAttachment(a *Attachment, spec attachmentSpec) error {
	label := g.opts.labelPrefix + spec.name
	d := g.device

	mem, err := g.opts.allocator.Allocate(alloc.Request{
		Name:      label,
		Size:      uint64(a.Width) * uint64(a.Height) * spec.format.bpp,
		Alignment: attachmentAlignment,
		Location:  alloc.GPUOnly,
		Linear:    false,
	})
	if err != nil {
		return fmt.Errorf("framegraph: attachment %q: allocate memory: %w", spec.name, err)
	}
	a.Memory = mem
	a.allocated = true

	a.Texture, err = d.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: a.Width, Height: a.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        spec.format.texture,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("framegraph: attachment %q: create texture: %w", spec.name, err)
	}

	a.View, err = d.CreateTextureView(a.Texture, &hal.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          spec.format.texture,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          spec.format.aspect,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("framegraph: attachment %q: create view: %w", spec.name, err)
	}

	a.Sampler, err = d.CreateSampler(&hal.SamplerDescriptor{
		Label:        label + "_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
		LodMinClamp:  0,
		LodMaxClamp:  1,
		Anisotropy:   1,
	})
	if err != nil {
		return fmt.Errorf("framegraph: attachment %q: create sampler: %w", spec.name, err)
	}

	Logger().Debug("framegraph: attachment created",
		"name", spec.name,
		"pass", spec.pass,
		"kind", spec.format.kind,
		"format", spec.format.texture,
		"width", a.Width,
		"height", a.Height,
		"bytes", mem.Size)
	return nil
}

// release destroys the set in a fixed order: framebuffers, samplers,
// views, textures, then memory. It tolerates partially created sets and
// is a no-op on a set that was already released.
func (s *resourceSet) release(d Device, allocator Allocator) {
	for _, fb := range s.framebuffers {
		fb.ColorViews = nil
		fb.DepthView = nil
	}
	for _, a := range s.attachments {
		if a.Sampler != nil {
			d.DestroySampler(a.Sampler)
			a.Sampler = nil
		}
	}
	for _, a := range s.attachments {
		if a.View != nil {
			d.DestroyTextureView(a.View)
			a.View = nil
		}
	}
	for _, a := range s.attachments {
		if a.Texture != nil {
			d.DestroyTexture(a.Texture)
			a.Texture = nil
		}
	}
	for _, a := range s.attachments {
		if !a.allocated {
			continue
		}
		if err := allocator.Free(a.Memory); err != nil {
			Logger().Warn("framegraph: free attachment memory", "name", a.Name, "err", err)
		}
		a.allocated = false
	}
}
