// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
)

// hashDescriptor computes a 64-bit FNV-1a hash over everything that shapes
// the created pipeline: shader binaries and entry points, topology, MSAA
// and target formats.
func hashDescriptor(desc Descriptor, targets Targets) uint64 {
	h := fnv.New64a()

	for _, stage := range desc.stages() {
		hashWriteString(h, stage.EntryPoint)
		hashWriteUint32(h, uint32(len(stage.Binary))) //nolint:gosec // G115: shader binaries are far below 4 GiB
		_, _ = h.Write(stage.Binary)
	}

	hashWriteUint32(h, uint32(desc.Topology))
	hashWriteBool(h, desc.MSAA)

	hashWriteUint32(h, uint32(len(targets.Color))) //nolint:gosec // G115: a pass has a handful of outputs
	for _, f := range targets.Color {
		hashWriteUint32(h, uint32(f))
	}
	hashWriteUint32(h, uint32(targets.Depth))

	return h.Sum64()
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

//nolint:gosec // G115: entry point names are short
func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}

func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
