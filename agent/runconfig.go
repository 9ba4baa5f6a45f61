//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package agent

// DefaultMaxToolIterations is the default budget of tool invocations per
// invocation before the run is aborted.
const DefaultMaxToolIterations = 50

// DedupeScope controls the lifetime of cached tool-call results.
type DedupeScope string

const (
	// DedupeScopeStep clears the dedup cache at each new model turn.
	// This is the default: it still collapses duplicate calls within one
	// batch of parallel calls, without replaying results whose external
	// side effects may vary across turns.
	DedupeScopeStep DedupeScope = "step"
	// DedupeScopeInvocation keeps cached results for the whole invocation.
	DedupeScopeInvocation DedupeScope = "invocation"
)

// RunConfig holds the per-run safety configuration.
type RunConfig struct {
	// Resumable indicates whether agents persist enough state for the
	// invocation to continue after an interruption. Set at invocation start,
	// immutable thereafter.
	Resumable bool

	// MaxToolIterations is the maximum number of tool invocations per
	// invocation. Zero disables enforcement, which removes the infinite-loop
	// guard; the counter keeps counting but never faults.
	MaxToolIterations int

	// DedupeToolCalls enables returning cached results for repeated tool
	// calls with identical arguments instead of executing the tool again.
	DedupeToolCalls bool

	// DedupeScope selects the lifetime of cached tool-call results.
	// Fixed at invocation construction; never changes mid-invocation.
	DedupeScope DedupeScope
}

// NewRunConfig returns a RunConfig with the default limits.
func NewRunConfig() RunConfig {
	return RunConfig{
		MaxToolIterations: DefaultMaxToolIterations,
		DedupeScope:       DedupeScopeStep,
	}
}
