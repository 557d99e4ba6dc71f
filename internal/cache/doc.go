// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides the LRU cache used to memoize compiled shader stages.
//
//	c := cache.New[uint64, *shader.Stage](64)
//	c.Set(key, stage)
//	stage, ok := c.Get(key)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
