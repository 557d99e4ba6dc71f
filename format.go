// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// ColorFormat is the pixel format of a color attachment.
// The zero value is not a valid format.
type ColorFormat uint8

// Color formats.
const (
	ColorFormatRGBA8 ColorFormat = iota + 1
	ColorFormatBGRA8
	ColorFormatRGBA16F
	ColorFormatRGBA32F
)

var colorFormats = []struct {
	format  ColorFormat
	name    string
	texture gputypes.TextureFormat
	bpp     uint64
}{
	{ColorFormatRGBA8, "rgba8", gputypes.TextureFormatRGBA8Unorm, 4},
	{ColorFormatBGRA8, "bgra8", gputypes.TextureFormatBGRA8Unorm, 4},
	{ColorFormatRGBA16F, "rgba16f", gputypes.TextureFormatRGBA16Float, 8},
	{ColorFormatRGBA32F, "rgba32f", gputypes.TextureFormatRGBA32Float, 16},
}

// Valid reports whether f is a supported format.
func (f ColorFormat) Valid() bool {
	return f >= ColorFormatRGBA8 && f <= ColorFormatRGBA32F
}

// String returns the format name.
func (f ColorFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("ColorFormat(%d)", uint8(f))
	}
	return colorFormats[f-1].name
}

// TextureFormat returns the GPU texture format.
func (f ColorFormat) TextureFormat() gputypes.TextureFormat {
	if !f.Valid() {
		return gputypes.TextureFormatUndefined
	}
	return colorFormats[f-1].texture
}

// BytesPerPixel returns the size of one texel.
func (f ColorFormat) BytesPerPixel() uint64 {
	if !f.Valid() {
		return 0
	}
	return colorFormats[f-1].bpp
}

// ParseColorFormat parses a format name such as "rgba8".
func ParseColorFormat(s string) (ColorFormat, error) {
	for _, c := range colorFormats {
		if strings.EqualFold(s, c.name) {
			return c.format, nil
		}
	}
	return 0, fmt.Errorf("%w: color format %q", ErrUnknownFormat, s)
}

// ColorFormatFromTexture maps a GPU texture format, such as a surface
// format, to a color format.
func ColorFormatFromTexture(tf gputypes.TextureFormat) (ColorFormat, error) {
	for _, c := range colorFormats {
		if c.texture == tf {
			return c.format, nil
		}
	}
	return 0, fmt.Errorf("%w: texture format %v", ErrUnknownFormat, tf)
}

// DepthStencilFormat is the pixel format of a depth attachment.
// The zero value is not a valid format.
type DepthStencilFormat uint8

// Depth formats.
const (
	DepthFormat16 DepthStencilFormat = iota + 1
	DepthFormat24Stencil8
	DepthFormat32F
)

var depthFormats = []struct {
	format  DepthStencilFormat
	name    string
	texture gputypes.TextureFormat
	bpp     uint64
	stencil bool
}{
	{DepthFormat16, "depth16", gputypes.TextureFormatDepth16Unorm, 2, false},
	{DepthFormat24Stencil8, "depth24stencil8", gputypes.TextureFormatDepth24PlusStencil8, 4, true},
	{DepthFormat32F, "depth32f", gputypes.TextureFormatDepth32Float, 4, false},
}

// Valid reports whether f is a supported format.
func (f DepthStencilFormat) Valid() bool {
	return f >= DepthFormat16 && f <= DepthFormat32F
}

// String returns the format name.
func (f DepthStencilFormat) String() string {
	if !f.Valid() {
		return fmt.Sprintf("DepthStencilFormat(%d)", uint8(f))
	}
	return depthFormats[f-1].name
}

// TextureFormat returns the GPU texture format.
func (f DepthStencilFormat) TextureFormat() gputypes.TextureFormat {
	if !f.Valid() {
		return gputypes.TextureFormatUndefined
	}
	return depthFormats[f-1].texture
}

// BytesPerPixel returns the size of one texel.
func (f DepthStencilFormat) BytesPerPixel() uint64 {
	if !f.Valid() {
		return 0
	}
	return depthFormats[f-1].bpp
}

// HasStencil reports whether the format carries a stencil component.
func (f DepthStencilFormat) HasStencil() bool {
	return f.Valid() && depthFormats[f-1].stencil
}

// ParseDepthStencilFormat parses a format name such as "depth24stencil8".
func ParseDepthStencilFormat(s string) (DepthStencilFormat, error) {
	for _, d := range depthFormats {
		if strings.EqualFold(s, d.name) {
			return d.format, nil
		}
	}
	return 0, fmt.Errorf("%w: depth format %q", ErrUnknownFormat, s)
}

// AttachmentKind distinguishes color from depth attachments.
type AttachmentKind uint8

// Attachment kinds.
const (
	AttachmentColor AttachmentKind = iota
	AttachmentDepth
)

// String returns the kind name.
func (k AttachmentKind) String() string {
	if k == AttachmentDepth {
		return "depth"
	}
	return "color"
}

// attachmentFormat is the physical description shared by both kinds.
type attachmentFormat struct {
	kind    AttachmentKind
	texture gputypes.TextureFormat
	bpp     uint64
	aspect  gputypes.TextureAspect
}

func colorAttachment(f ColorFormat) attachmentFormat {
	return attachmentFormat{
		kind:    AttachmentColor,
		texture: f.TextureFormat(),
		bpp:     f.BytesPerPixel(),
		aspect:  gputypes.TextureAspectAll,
	}
}

// depthAttachment selects the depth+stencil aspect for combined formats
// and the depth aspect otherwise.
func depthAttachment(f DepthStencilFormat) attachmentFormat {
	aspect := gputypes.TextureAspectDepthOnly
	if f.HasStencil() {
		aspect = gputypes.TextureAspectAll
	}
	return attachmentFormat{
		kind:    AttachmentDepth,
		texture: f.TextureFormat(),
		bpp:     f.BytesPerPixel(),
		aspect:  aspect,
	}
}
