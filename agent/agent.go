//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package agent provides the core agent functionality.
package agent

import (
	"context"

	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/tool"
)

// Info contains basic information about an agent.
type Info struct {
	Name        string
	Description string
}

// Agent is the interface that all agents must implement.
type Agent interface {
	// Run executes the provided invocation within the given context and returns
	// a channel of events that represent the progress and results of the execution.
	Run(ctx context.Context, invocation *Invocation) (<-chan *event.Event, error)

	// Tools returns the list of tools that this agent has access to and can execute.
	Tools() []tool.Tool

	// Info returns the basic information about this agent.
	Info() Info

	// SubAgents returns the list of sub-agents available to this agent.
	// Returns an empty slice if no sub-agents are available.
	SubAgents() []Agent

	// FindSubAgent finds a sub-agent by name.
	// Returns nil if no sub-agent with the given name is found.
	FindSubAgent(name string) Agent
}

// LiveRunner is implemented by agents that support live (bidirectional
// streaming) sessions. The invocation's LiveRequestQueue carries caller
// inputs for the duration of the session; the returned channel carries
// events until the session ends.
type LiveRunner interface {
	// RunLive executes the invocation in live mode.
	RunLive(ctx context.Context, invocation *Invocation) (<-chan *event.Event, error)
}
