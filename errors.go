// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"errors"
	"fmt"
	"strings"
)

// ScreenOutput is the reserved color output name of the pass presented to
// the display.
const ScreenOutput = "SCREEN_OUTPUT"

// Pass validation errors.
var (
	// ErrShaderUniformNotFound means an input's sampler is not bound by the fragment shader.
	ErrShaderUniformNotFound = errors.New("framegraph: shader uniform not found")

	// ErrShaderOutputNotFound means an output's symbol is not written by the fragment shader.
	ErrShaderOutputNotFound = errors.New("framegraph: shader output not found")

	// ErrCyclicDependency means a pass depends on itself, directly or through other passes.
	ErrCyclicDependency = errors.New("framegraph: cyclic dependency")

	// ErrUnknownFormat is returned for attachment formats outside the supported set.
	ErrUnknownFormat = errors.New("framegraph: unknown format")
)

// Graph configuration errors.
var (
	// ErrNoScreenOutput means no pass writes ScreenOutput.
	ErrNoScreenOutput = errors.New("framegraph: no screen output")

	// ErrDuplicateProducer means two passes write the same logical output.
	ErrDuplicateProducer = errors.New("framegraph: duplicate producer")

	// ErrDanglingInput means an input is not produced by any pass.
	ErrDanglingInput = errors.New("framegraph: dangling input")

	// ErrDuplicatePassName means two passes share a name.
	ErrDuplicatePassName = errors.New("framegraph: duplicate pass name")

	// ErrNilPass means the pass list contains a nil entry.
	ErrNilPass = errors.New("framegraph: nil pass")
)

// Compilation errors.
var (
	// ErrInvalidDimensions is returned for a zero width or height.
	ErrInvalidDimensions = errors.New("framegraph: invalid dimensions")

	// ErrGraphReleased is returned when using a released graph.
	ErrGraphReleased = errors.New("framegraph: graph released")

	// ErrStaleHandle is returned when resolving a handle from a replaced resource set.
	ErrStaleHandle = errors.New("framegraph: stale handle")

	// ErrNoHALDevice is returned when a device provider does not expose a HAL device.
	ErrNoHALDevice = errors.New("framegraph: provider does not expose a HAL device")
)

// PassValidationError reports a pass that failed its local checks.
// Kind is ErrShaderUniformNotFound, ErrShaderOutputNotFound or ErrCyclicDependency.
type PassValidationError struct {
	Kind   error
	Pass   string
	Symbol string // shader symbol (sampler or output variable)
	Name   string // logical attachment name
	Shader string
}

func (e *PassValidationError) Error() string {
	switch e.Kind {
	case ErrShaderUniformNotFound:
		return fmt.Sprintf("framegraph: pass %q: input %q binds sampler %q, which shader %q does not declare",
			e.Pass, e.Name, e.Symbol, e.Shader)
	case ErrShaderOutputNotFound:
		return fmt.Sprintf("framegraph: pass %q: output %q writes symbol %q, which shader %q does not declare",
			e.Pass, e.Name, e.Symbol, e.Shader)
	case ErrCyclicDependency:
		return fmt.Sprintf("framegraph: pass %q: cyclic dependency: a logical name is both read and written", e.Pass)
	default:
		return fmt.Sprintf("framegraph: pass %q: %v", e.Pass, e.Kind)
	}
}

// Unwrap returns Kind.
func (e *PassValidationError) Unwrap() error {
	return e.Kind
}

// GraphConfigurationError reports a whole-graph validation failure.
type GraphConfigurationError struct {
	Kind  error
	Pass  string   // offending pass, when there is one
	Name  string   // offending logical name, when there is one
	Cycle []string // pass names forming a cycle, first pass repeated last
}

func (e *GraphConfigurationError) Error() string {
	switch e.Kind {
	case ErrNoScreenOutput:
		return fmt.Sprintf("framegraph: no pass writes %s", ScreenOutput)
	case ErrDuplicateProducer:
		return fmt.Sprintf("framegraph: %q is produced by more than one pass (second: %q)", e.Name, e.Pass)
	case ErrDanglingInput:
		return fmt.Sprintf("framegraph: pass %q reads %q, which no pass produces", e.Pass, e.Name)
	case ErrCyclicDependency:
		return fmt.Sprintf("framegraph: cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
	case ErrDuplicatePassName:
		return fmt.Sprintf("framegraph: pass name %q is declared more than once", e.Pass)
	default:
		return fmt.Sprintf("framegraph: %v", e.Kind)
	}
}

// Unwrap returns Kind.
func (e *GraphConfigurationError) Unwrap() error {
	return e.Kind
}
