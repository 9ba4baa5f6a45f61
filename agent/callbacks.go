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
	"context"

	"github.com/flowcore-ai/flowcore/model"
)

// BeforeAgentCallback is called before the agent runs.
// If it returns a non-nil response, that response is returned to the caller
// and agent execution is skipped. A non-nil error stops execution.
type BeforeAgentCallback func(ctx context.Context, invocation *Invocation) (*model.Response, error)

// AfterAgentCallback is called after the agent runs.
// If it returns a non-nil response, that response is emitted after the
// agent's own events. A non-nil error is surfaced as an error event.
type AfterAgentCallback func(ctx context.Context, invocation *Invocation, runErr error) (*model.Response, error)

// Callbacks holds callbacks for agent operations.
type Callbacks struct {
	BeforeAgent []BeforeAgentCallback
	AfterAgent  []AfterAgentCallback
}

// NewCallbacks creates a new Callbacks instance.
func NewCallbacks() *Callbacks {
	return &Callbacks{}
}

// RegisterBeforeAgent registers a before agent callback.
func (c *Callbacks) RegisterBeforeAgent(cb BeforeAgentCallback) {
	c.BeforeAgent = append(c.BeforeAgent, cb)
}

// RegisterAfterAgent registers an after agent callback.
func (c *Callbacks) RegisterAfterAgent(cb AfterAgentCallback) {
	c.AfterAgent = append(c.AfterAgent, cb)
}

// RunBeforeAgent runs all before agent callbacks in order, stopping at the
// first custom response or error.
func (c *Callbacks) RunBeforeAgent(ctx context.Context, invocation *Invocation) (*model.Response, error) {
	for _, cb := range c.BeforeAgent {
		customResponse, err := cb(ctx, invocation)
		if err != nil {
			return nil, err
		}
		if customResponse != nil {
			return customResponse, nil
		}
	}
	return nil, nil
}

// RunAfterAgent runs all after agent callbacks in order, stopping at the
// first custom response or error.
func (c *Callbacks) RunAfterAgent(ctx context.Context, invocation *Invocation, runErr error) (*model.Response, error) {
	for _, cb := range c.AfterAgent {
		customResponse, err := cb(ctx, invocation, runErr)
		if err != nil {
			return nil, err
		}
		if customResponse != nil {
			return customResponse, nil
		}
	}
	return nil, nil
}
