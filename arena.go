// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import "fmt"

// Handle refers to a physical attachment of a graph. Handles carry the
// generation of the resource set they were issued for and stop resolving
// once Recreate replaces that set. The zero Handle never resolves.
type Handle struct {
	index      uint32
	generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool { return h.generation == 0 }

// String returns a debug representation such as "#2@3".
func (h Handle) String() string {
	return fmt.Sprintf("#%d@%d", h.index, h.generation)
}

// arena is a flat slot list whose contents are replaced wholesale.
// Every replacement bumps the generation, invalidating earlier handles.
type arena[T any] struct {
	items      []T
	generation uint32
}

func (a *arena[T]) handle(i int) Handle {
	//nolint:gosec // G115: a graph has far fewer than 2^32 attachments
	return Handle{index: uint32(i), generation: a.generation}
}

func (a *arena[T]) get(h Handle) (T, error) {
	var zero T
	if h.generation == 0 || h.generation != a.generation || int(h.index) >= len(a.items) {
		return zero, fmt.Errorf("%w: %v (current generation %d)", ErrStaleHandle, h, a.generation)
	}
	return a.items[h.index], nil
}

// replace installs items as a new generation and returns the previous items.
func (a *arena[T]) replace(items []T) []T {
	old := a.items
	a.items = items
	a.generation++
	return old
}
