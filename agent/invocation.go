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
	"sync"

	"github.com/google/uuid"

	"github.com/flowcore-ai/flowcore/live"
	"github.com/flowcore-ai/flowcore/log"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/session"
)

// Invocation carries the mutable state of one end-to-end run of a root
// agent. It is shared by reference across all agents within that run and is
// exclusively owned by it: no other component may mutate it concurrently
// from outside the run's own execution.
type Invocation struct {
	// Agent is the agent that is being invoked.
	Agent Agent
	// AgentName is the name of the agent that is being invoked.
	AgentName string
	// InvocationID is the ID of the invocation.
	InvocationID string
	// Branch is the branch identifier for hierarchical event filtering.
	Branch string
	// EndInvocation is a flag that indicates if the invocation is complete.
	EndInvocation bool
	// Session is the session that is being used for the invocation.
	Session *session.Session
	// Model is the model that is being used for the invocation.
	Model model.Model
	// Message is the message that is being sent to the agent.
	Message model.Message
	// LiveRequestQueue carries caller inputs for live sessions. Nil for
	// request/response runs.
	LiveRequestQueue *live.Queue
	// RunConfig is the per-run safety configuration.
	RunConfig RunConfig
	// AgentCallbacks contains callbacks for agent operations.
	AgentCallbacks *Callbacks

	// guard holds the iteration counter and dedup cache. Shared across all
	// sub-invocations of the run.
	guard     *toolCallGuard
	guardOnce sync.Once
}

// InvocationOption configures a new Invocation.
type InvocationOption func(*Invocation)

// WithInvocationID sets the invocation ID.
func WithInvocationID(id string) InvocationOption {
	return func(inv *Invocation) { inv.InvocationID = id }
}

// WithInvocationSession sets the session.
func WithInvocationSession(sess *session.Session) InvocationOption {
	return func(inv *Invocation) { inv.Session = sess }
}

// WithInvocationModel sets the model.
func WithInvocationModel(m model.Model) InvocationOption {
	return func(inv *Invocation) { inv.Model = m }
}

// WithInvocationMessage sets the triggering message.
func WithInvocationMessage(message model.Message) InvocationOption {
	return func(inv *Invocation) { inv.Message = message }
}

// WithInvocationRunConfig sets the run configuration.
func WithInvocationRunConfig(cfg RunConfig) InvocationOption {
	return func(inv *Invocation) { inv.RunConfig = cfg }
}

// WithInvocationLiveRequestQueue attaches a live request queue.
func WithInvocationLiveRequestQueue(queue *live.Queue) InvocationOption {
	return func(inv *Invocation) { inv.LiveRequestQueue = queue }
}

// NewInvocation creates an invocation for the given root agent.
func NewInvocation(a Agent, opts ...InvocationOption) *Invocation {
	inv := &Invocation{
		Agent:        a,
		InvocationID: uuid.New().String(),
		RunConfig:    NewRunConfig(),
	}
	if a != nil {
		inv.AgentName = a.Info().Name
	}
	for _, opt := range opts {
		if opt != nil {
			opt(inv)
		}
	}
	if inv.RunConfig.MaxToolIterations == 0 {
		log.Warnf("Invocation %s: max tool iterations is 0, "+
			"the infinite tool-loop guard is disabled", inv.InvocationID)
	}
	if inv.RunConfig.DedupeScope == "" {
		inv.RunConfig.DedupeScope = DedupeScopeStep
	}
	inv.guard = newToolCallGuard(inv.RunConfig)
	return inv
}

// CreateSubInvocation creates a copy of the invocation attributed to the
// given sub-agent. The guard and session are shared by reference so that
// counters, caches, and state span the whole run.
func (inv *Invocation) CreateSubInvocation(subAgent Agent) *Invocation {
	subInvocation := Invocation{
		Agent:            subAgent,
		AgentName:        subAgent.Info().Name,
		InvocationID:     inv.InvocationID,
		Branch:           inv.Branch,
		Session:          inv.Session,
		Model:            inv.Model,
		Message:          inv.Message,
		LiveRequestQueue: inv.LiveRequestQueue,
		RunConfig:        inv.RunConfig,
		guard:            inv.guard,
	}
	return &subInvocation
}
