//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package flow provides the interfaces for agent execution flows.
package flow

import (
	"context"

	"github.com/flowcore-ai/flowcore/agent"
	"github.com/flowcore-ai/flowcore/event"
)

// Flow drives one finite execution of an agent.
type Flow interface {
	// Run executes the flow for the given invocation and returns a channel
	// of events representing its progress. The channel is closed when the
	// flow completes.
	Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error)
}

// LiveFlow drives a continuous bidirectional execution, consuming the
// invocation's live request queue until the session ends.
type LiveFlow interface {
	// RunLive executes the flow in live mode.
	RunLive(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error)
}
