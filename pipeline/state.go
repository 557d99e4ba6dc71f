// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// Topology is the primitive topology of a pass. The zero value is
// TopologyTriangle.
type Topology uint8

// Supported topologies.
const (
	TopologyTriangle Topology = iota
	TopologyPoint
	TopologyLine
)

// String returns the topology name.
func (t Topology) String() string {
	switch t {
	case TopologyTriangle:
		return "triangle"
	case TopologyPoint:
		return "point"
	case TopologyLine:
		return "line"
	default:
		return fmt.Sprintf("Topology(%d)", uint8(t))
	}
}

// ParseTopology parses a topology name. The empty string yields TopologyTriangle.
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(s) {
	case "", "triangle", "triangles":
		return TopologyTriangle, nil
	case "point", "points":
		return TopologyPoint, nil
	case "line", "lines":
		return TopologyLine, nil
	}
	return 0, fmt.Errorf("pipeline: unknown topology %q", s)
}

func (t Topology) primitive() gputypes.PrimitiveTopology {
	switch t {
	case TopologyPoint:
		return gputypes.PrimitiveTopologyPointList
	case TopologyLine:
		return gputypes.PrimitiveTopologyLineList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

// PolygonMode is the rasterization fill mode.
type PolygonMode uint8

// PolygonFill fills triangle interiors.
const PolygonFill PolygonMode = iota

// RasterState is the fixed rasterization state of every pipeline.
type RasterState struct {
	DepthClamp  bool
	CullMode    gputypes.CullMode
	FrontFace   gputypes.FrontFace
	PolygonMode PolygonMode
	LineWidth   float32
	DepthBias   bool
}

// DefaultRasterState returns the rasterization state used by the factory.
func DefaultRasterState() RasterState {
	return RasterState{
		DepthClamp:  false,
		CullMode:    gputypes.CullModeBack,
		FrontFace:   gputypes.FrontFaceCW,
		PolygonMode: PolygonFill,
		LineWidth:   1.0,
		DepthBias:   false,
	}
}

// MultisampleState records sample count and sample shading.
type MultisampleState struct {
	Samples       uint32
	SampleShading bool
}

// DynamicState is pipeline state supplied per frame.
type DynamicState uint8

// Dynamic states enabled on every pipeline.
const (
	DynamicViewport DynamicState = iota
	DynamicLineWidth
	DynamicScissor
)

// String returns the state name.
func (s DynamicState) String() string {
	switch s {
	case DynamicViewport:
		return "viewport"
	case DynamicLineWidth:
		return "line_width"
	case DynamicScissor:
		return "scissor"
	default:
		return fmt.Sprintf("DynamicState(%d)", uint8(s))
	}
}

var dynamicStates = []DynamicState{DynamicViewport, DynamicLineWidth, DynamicScissor}

// Targets lists the attachment formats a pipeline renders into.
// Depth is gputypes.TextureFormatUndefined when the pass has no depth output.
type Targets struct {
	Color []gputypes.TextureFormat
	Depth gputypes.TextureFormat
}

func (t Targets) colorTargets() []gputypes.ColorTargetState {
	out := make([]gputypes.ColorTargetState, len(t.Color))
	for i, f := range t.Color {
		out[i] = gputypes.ColorTargetState{
			Format:    f,
			Blend:     nil,
			WriteMask: gputypes.ColorWriteMaskAll,
		}
	}
	return out
}
