// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command fgc checks and compiles frame graph declarations.
//
// Usage:
//
//	fgc check graph.hcl
//	fgc compile --width 1920 --height 1080 --var surface_format=bgra8 graphs/
//
// compile runs on the noop device, so it needs no GPU. It reports the
// execution order and every physical resource the graph would create.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fgc:", err)
		os.Exit(1)
	}
}
