// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package alloc tracks attachment memory against a fixed budget.
//
// Allocations are keyed by size, alignment, location and linearity. The
// allocator never aliases memory: every allocation gets its own aligned
// range and freed ranges are not reused within the allocator's lifetime.
package alloc

import (
	"errors"
	"fmt"
	"sync"
)

// Allocation errors.
var (
	// ErrBudgetExceeded is returned when an allocation would exceed the budget.
	ErrBudgetExceeded = errors.New("alloc: memory budget exceeded")

	// ErrUnknownAllocation is returned when freeing an allocation that is not live.
	ErrUnknownAllocation = errors.New("alloc: unknown allocation")

	// ErrInvalidRequest is returned for zero sizes and non power-of-two alignments.
	ErrInvalidRequest = errors.New("alloc: invalid request")

	// ErrClosed is returned when operating on a closed allocator.
	ErrClosed = errors.New("alloc: allocator closed")
)

// Default limits.
const (
	// DefaultBudgetMB is the default memory budget (256 MB).
	DefaultBudgetMB = 256

	// MinBudgetMB is the smallest accepted budget (16 MB).
	MinBudgetMB = 16
)

// Location is where the memory lives.
type Location uint8

// Memory locations.
const (
	GPUOnly Location = iota
	CPUToGPU
	GPUToCPU
)

// String returns the location name.
func (l Location) String() string {
	switch l {
	case GPUOnly:
		return "GPUOnly"
	case CPUToGPU:
		return "CPUToGPU"
	case GPUToCPU:
		return "GPUToCPU"
	default:
		return fmt.Sprintf("Location(%d)", uint8(l))
	}
}

// Request describes a memory requirement.
type Request struct {
	Name      string
	Size      uint64
	Alignment uint64
	Location  Location
	Linear    bool
}

// Allocation is a live memory range.
type Allocation struct {
	ID       uint64
	Name     string
	Offset   uint64
	Size     uint64
	Location Location
	Linear   bool
}

// Stats contains memory usage statistics.
type Stats struct {
	// BudgetBytes is the total budget in bytes, zero when unbounded.
	BudgetBytes uint64
	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64
	// AvailableBytes is the remaining budget, zero when unbounded.
	AvailableBytes uint64
	// PeakBytes is the highest UsedBytes observed.
	PeakBytes uint64
	// Allocations is the number of live allocations.
	Allocations int
	// Utilization is UsedBytes / BudgetBytes (0.0 to 1.0), zero when unbounded.
	Utilization float64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	if s.BudgetBytes == 0 {
		return fmt.Sprintf("Memory[%d MB used, unbounded, %d allocations, peak %d MB]",
			s.UsedBytes/(1024*1024),
			s.Allocations,
			s.PeakBytes/(1024*1024))
	}
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d allocations, peak %d MB]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.BudgetBytes/(1024*1024),
		s.Allocations,
		s.PeakBytes/(1024*1024))
}

// Config holds allocator configuration.
type Config struct {
	// BudgetMB is the memory budget in megabytes. Zero or negative selects
	// DefaultBudgetMB; positive values below MinBudgetMB are raised to it.
	BudgetMB int

	// Unbounded disables the budget. Usage and peak are still tracked.
	Unbounded bool
}

// Allocator is a non-aliasing memory allocator, budgeted unless
// configured as unbounded.
//
// Allocator is safe for concurrent use.
type Allocator struct {
	mu sync.Mutex

	budgetBytes uint64 // 0 means unbounded
	usedBytes   uint64
	peakBytes   uint64

	// next offset per location
	cursor map[Location]uint64
	nextID uint64
	live   map[uint64]Allocation

	closed bool
}

// New creates an allocator.
func New(config Config) *Allocator {
	a := &Allocator{
		cursor: make(map[Location]uint64),
		live:   make(map[uint64]Allocation),
	}
	if config.Unbounded {
		return a
	}
	mb := config.BudgetMB
	switch {
	case mb <= 0:
		mb = DefaultBudgetMB
	case mb < MinBudgetMB:
		mb = MinBudgetMB
	}
	a.budgetBytes = uint64(mb) * 1024 * 1024 //nolint:gosec // G115: mb is positive
	return a
}

// Allocate reserves memory for req.
func (a *Allocator) Allocate(req Request) (Allocation, error) {
	if req.Size == 0 {
		return Allocation{}, fmt.Errorf("%w: %q has zero size", ErrInvalidRequest, req.Name)
	}
	align := req.Alignment
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return Allocation{}, fmt.Errorf("%w: %q alignment %d is not a power of two", ErrInvalidRequest, req.Name, align)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return Allocation{}, ErrClosed
	}

	size := alignUp(req.Size, align)
	if a.budgetBytes > 0 && a.usedBytes+size > a.budgetBytes {
		return Allocation{}, fmt.Errorf("%w: %q needs %d bytes, have %d bytes available",
			ErrBudgetExceeded, req.Name, size, a.budgetBytes-a.usedBytes)
	}

	offset := alignUp(a.cursor[req.Location], align)
	a.cursor[req.Location] = offset + size

	a.nextID++
	alloc := Allocation{
		ID:       a.nextID,
		Name:     req.Name,
		Offset:   offset,
		Size:     size,
		Location: req.Location,
		Linear:   req.Linear,
	}
	a.live[alloc.ID] = alloc
	a.usedBytes += size
	if a.usedBytes > a.peakBytes {
		a.peakBytes = a.usedBytes
	}
	return alloc, nil
}

// Free returns an allocation to the budget. Freeing an allocation twice
// returns ErrUnknownAllocation.
func (a *Allocator) Free(alloc Allocation) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if _, ok := a.live[alloc.ID]; !ok {
		return fmt.Errorf("%w: %q (id %d)", ErrUnknownAllocation, alloc.Name, alloc.ID)
	}
	delete(a.live, alloc.ID)
	a.usedBytes -= alloc.Size
	return nil
}

// Stats returns current usage statistics.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Stats{
		BudgetBytes: a.budgetBytes,
		UsedBytes:   a.usedBytes,
		PeakBytes:   a.peakBytes,
		Allocations: len(a.live),
	}
	if a.budgetBytes > 0 {
		s.AvailableBytes = a.budgetBytes - a.usedBytes
		s.Utilization = float64(a.usedBytes) / float64(a.budgetBytes)
	}
	return s
}

// Close drops all live allocations. The allocator must not be used afterwards.
func (a *Allocator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.live = nil
	a.usedBytes = 0
	a.closed = true
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
