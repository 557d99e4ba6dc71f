// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"fmt"
	"sort"
)

// producer identifies the pass writing a logical attachment.
type producer struct {
	pass int
	kind AttachmentKind
}

// resolution is the outcome of whole-graph validation.
type resolution struct {
	order     []int // pass indices in execution order
	producers map[string]producer
	edges     [][]int // producer -> consumers, deduplicated, ascending
}

// Validate checks a set of passes as one frame graph and returns them in
// execution order.
//
// Checks run in order: no nil entries, unique pass names, exactly one
// ScreenOutput producer, at most one producer per logical output, a
// producer of the matching kind for every input, and no dependency cycles.
// Passes that do not depend on each other keep their declaration order.
func Validate(passes []*Pass) ([]*Pass, error) {
	res, err := resolve(passes)
	if err != nil {
		return nil, err
	}
	ordered := make([]*Pass, len(res.order))
	for i, idx := range res.order {
		ordered[i] = passes[idx]
	}
	return ordered, nil
}

func resolve(passes []*Pass) (*resolution, error) {
	if err := checkPassNames(passes); err != nil {
		return nil, err
	}
	if err := checkScreenOutput(passes); err != nil {
		return nil, err
	}
	producers, err := collectProducers(passes)
	if err != nil {
		return nil, err
	}
	edges, err := buildEdges(passes, producers)
	if err != nil {
		return nil, err
	}
	if cycle := findCycle(edges); cycle != nil {
		names := make([]string, len(cycle))
		for i, idx := range cycle {
			names[i] = passes[idx].name
		}
		return nil, &GraphConfigurationError{Kind: ErrCyclicDependency, Pass: names[0], Cycle: names}
	}
	return &resolution{
		order:     topologicalOrder(edges),
		producers: producers,
		edges:     edges,
	}, nil
}

func checkPassNames(passes []*Pass) error {
	seen := make(map[string]struct{}, len(passes))
	for i, p := range passes {
		if p == nil {
			return fmt.Errorf("%w at index %d", ErrNilPass, i)
		}
		if _, dup := seen[p.name]; dup {
			return &GraphConfigurationError{Kind: ErrDuplicatePassName, Pass: p.name}
		}
		seen[p.name] = struct{}{}
	}
	return nil
}

// checkScreenOutput requires exactly one ScreenOutput producer. A second
// producer is reported like any other duplicate producer.
func checkScreenOutput(passes []*Pass) error {
	first := ""
	for _, p := range passes {
		if !p.writesScreen() {
			continue
		}
		if first != "" {
			return &GraphConfigurationError{Kind: ErrDuplicateProducer, Pass: p.name, Name: ScreenOutput}
		}
		first = p.name
	}
	if first == "" {
		return &GraphConfigurationError{Kind: ErrNoScreenOutput, Name: ScreenOutput}
	}
	return nil
}

func collectProducers(passes []*Pass) (map[string]producer, error) {
	producers := make(map[string]producer)
	for i, p := range passes {
		for _, out := range p.outputs() {
			if _, dup := producers[out.name]; dup {
				return nil, &GraphConfigurationError{Kind: ErrDuplicateProducer, Pass: p.name, Name: out.name}
			}
			producers[out.name] = producer{pass: i, kind: out.kind}
		}
	}
	return producers, nil
}

func buildEdges(passes []*Pass, producers map[string]producer) ([][]int, error) {
	edges := make([][]int, len(passes))
	for i, p := range passes {
		for _, in := range p.inputs() {
			prod, ok := producers[in.name]
			if !ok || prod.kind != in.kind {
				return nil, &GraphConfigurationError{Kind: ErrDanglingInput, Pass: p.name, Name: in.name}
			}
			edges[prod.pass] = appendUnique(edges[prod.pass], i)
		}
	}
	for _, e := range edges {
		sort.Ints(e)
	}
	return edges, nil
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// findCycle runs a depth-first search with a recursion stack and returns
// the first cycle found as pass indices, first node repeated last.
func findCycle(edges [][]int) []int {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make([]int, len(edges))
	var stack []int

	var visit func(n int) []int
	visit = func(n int) []int {
		state[n] = onStack
		stack = append(stack, n)
		for _, m := range edges[n] {
			switch state[m] {
			case onStack:
				start := len(stack) - 1
				for stack[start] != m {
					start--
				}
				cycle := append([]int(nil), stack[start:]...)
				return append(cycle, m)
			case unvisited:
				if cycle := visit(m); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for n := range edges {
		if state[n] == unvisited {
			if cycle := visit(n); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// topologicalOrder is Kahn's algorithm choosing the lowest declaration
// index among ready passes. The graph must be acyclic.
func topologicalOrder(edges [][]int) []int {
	indegree := make([]int, len(edges))
	for _, consumers := range edges {
		for _, c := range consumers {
			indegree[c]++
		}
	}

	var ready []int
	for n, d := range indegree {
		if d == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]int, 0, len(edges))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, c := range edges[n] {
			indegree[c]--
			if indegree[c] == 0 {
				at := sort.SearchInts(ready, c)
				ready = append(ready, 0)
				copy(ready[at+1:], ready[at:])
				ready[at] = c
			}
		}
	}
	return order
}
