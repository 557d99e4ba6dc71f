// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

// DrawState tells the frame executor what to draw for a pass.
// The compiler copies it into the compiled pass and never inspects it.
//
// The set of variants is closed: DrawNone, DrawFullscreen, DrawVertices
// and DrawExternal.
type DrawState interface {
	drawState()
}

// DrawNone draws nothing. The pass only clears its attachments.
type DrawNone struct{}

// DrawFullscreen draws one triangle covering the viewport (3 vertices).
type DrawFullscreen struct{}

// DrawVertices draws non-indexed geometry.
type DrawVertices struct {
	VertexCount   uint32
	InstanceCount uint32
}

// DrawExternal carries an opaque handle owned by the integrator.
type DrawExternal struct {
	Handle any
}

func (DrawNone) drawState()       {}
func (DrawFullscreen) drawState() {}
func (DrawVertices) drawState()   {}
func (DrawExternal) drawState()   {}

// ParseDrawState maps "none", "fullscreen" or "" to a draw state.
// Other variants have no textual form.
func ParseDrawState(s string) (DrawState, bool) {
	switch s {
	case "", "none":
		return DrawNone{}, true
	case "fullscreen":
		return DrawFullscreen{}, true
	}
	return nil, false
}
