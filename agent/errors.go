//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package agent

import "fmt"

// Error type constants for error events produced by agents.
const (
	// ErrorTypeAgentCallbackError is used for errors from agent callbacks.
	ErrorTypeAgentCallbackError = "agent_callback_error"
	// ErrorTypeToolIterationLimit is used when the tool iteration budget is
	// exhausted.
	ErrorTypeToolIterationLimit = "tool_iteration_limit"
)

// MaxToolIterationsExceededError is returned by IncrementToolIterations when
// the counter would exceed a non-zero limit. It terminates the invocation.
type MaxToolIterationsExceededError struct {
	// Limit is the configured maximum number of tool iterations.
	Limit int
}

// Error implements the error interface.
func (e *MaxToolIterationsExceededError) Error() string {
	return fmt.Sprintf(
		"max number of tool iterations limit of %d exceeded", e.Limit,
	)
}
