//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package agent

import (
	"encoding/json"
	"sync"

	"golang.org/x/sync/singleflight"
)

// toolCallGuard bounds tool-calling behavior for one invocation: an
// iteration counter enforcing RunConfig.MaxToolIterations and a cache of
// tool-call results keyed by call signature. Both are shared across all
// sub-invocations of the run and are only mutated under the guard mutex.
type toolCallGuard struct {
	limit int
	scope DedupeScope

	mu         sync.Mutex
	iterations int
	results    map[string]any

	group singleflight.Group
}

func newToolCallGuard(cfg RunConfig) *toolCallGuard {
	scope := cfg.DedupeScope
	if scope == "" {
		scope = DedupeScopeStep
	}
	return &toolCallGuard{
		limit:   cfg.MaxToolIterations,
		scope:   scope,
		results: make(map[string]any),
	}
}

func (g *toolCallGuard) increment() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.iterations++
	if g.limit > 0 && g.iterations > g.limit {
		return &MaxToolIterationsExceededError{Limit: g.limit}
	}
	return nil
}

func (g *toolCallGuard) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.iterations = 0
}

func (g *toolCallGuard) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.iterations
}

func (g *toolCallGuard) lookup(signature string) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	result, ok := g.results[signature]
	return result, ok
}

func (g *toolCallGuard) store(signature string, result any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[signature] = result
}

func (g *toolCallGuard) resetStep() {
	if g.scope != DedupeScopeStep {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results = make(map[string]any)
}

// guardOnce backs lazy guard creation for invocations built as struct
// literals rather than through NewInvocation.
func (inv *Invocation) toolGuard() *toolCallGuard {
	inv.guardOnce.Do(func() {
		if inv.guard == nil {
			inv.guard = newToolCallGuard(inv.RunConfig)
		}
	})
	return inv.guard
}

// IncrementToolIterations charges one tool invocation against the budget.
// It returns a *MaxToolIterationsExceededError once the counter would exceed
// a non-zero limit. With a limit of zero the counter still increments but
// never faults.
func (inv *Invocation) IncrementToolIterations() error {
	return inv.toolGuard().increment()
}

// ResetToolIterations zeroes the counter, restoring the full increment
// budget. Used at well-defined reset points such as the start of a new
// top-level turn.
func (inv *Invocation) ResetToolIterations() {
	inv.toolGuard().reset()
}

// ToolIterations returns the current value of the iteration counter.
func (inv *Invocation) ToolIterations() int {
	return inv.toolGuard().count()
}

// CachedToolResult returns the cached result for the given call signature,
// if one exists in the active scope.
func (inv *Invocation) CachedToolResult(signature string) (any, bool) {
	if !inv.RunConfig.DedupeToolCalls {
		return nil, false
	}
	return inv.toolGuard().lookup(signature)
}

// ExecuteToolOnce runs execute for the given signature, collapsing
// concurrent identical calls into a single execution. Successful results are
// cached under the signature; failures are never cached, so a retried
// identical call re-executes. Callers must charge the iteration counter
// inside execute so that cache hits and collapsed duplicates are free.
func (inv *Invocation) ExecuteToolOnce(signature string, execute func() (any, error)) (any, error) {
	guard := inv.toolGuard()
	if !inv.RunConfig.DedupeToolCalls {
		return execute()
	}
	if result, ok := guard.lookup(signature); ok {
		return result, nil
	}
	result, err, _ := guard.group.Do(signature, func() (any, error) {
		// First writer wins: a racing call may have populated the cache
		// between the lookup above and entering the flight.
		if cached, ok := guard.lookup(signature); ok {
			return cached, nil
		}
		result, err := execute()
		if err != nil {
			return nil, err
		}
		guard.store(signature, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetToolCallStep marks a step boundary (a new model turn). With the
// default step scope this clears the dedup cache; with invocation scope it
// is a no-op.
func (inv *Invocation) ResetToolCallStep() {
	inv.toolGuard().resetStep()
}

// CallSignature computes the normalized identity of a tool invocation:
// the tool name plus a canonical encoding of its JSON arguments. Encoding
// through map[string]any sorts object keys recursively, so argument order
// in the raw JSON does not affect identity.
func CallSignature(toolName string, jsonArgs []byte) string {
	if len(jsonArgs) == 0 {
		return toolName
	}
	var decoded any
	if err := json.Unmarshal(jsonArgs, &decoded); err != nil {
		return toolName + ":" + string(jsonArgs)
	}
	canonical, err := json.Marshal(decoded)
	if err != nil {
		return toolName + ":" + string(jsonArgs)
	}
	return toolName + ":" + string(canonical)
}
