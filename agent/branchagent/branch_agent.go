//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package branchagent provides a conditional routing agent implementation.
package branchagent

import (
	"context"
	"fmt"

	"github.com/flowcore-ai/flowcore/agent"
	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/log"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/telemetry"
	"github.com/flowcore-ai/flowcore/tool"
)

const defaultChannelBufferSize = 256

// ConditionFunc decides which child a BranchAgent routes to. It may be
// impure and may fail; failures never escape the agent and degrade to a
// result of false.
type ConditionFunc func(ctx context.Context, invocation *agent.Invocation) (bool, error)

// State is the persisted decision record of a BranchAgent. It is written
// once, on first evaluation, and read back verbatim on resumption.
type State struct {
	// ConditionResult is the result of the condition evaluation.
	ConditionResult bool `json:"condition_result"`
	// ChosenAgent is the name of the chosen sub-agent.
	ChosenAgent string `json:"chosen_agent"`
	// EndOfAgent marks the agent as completed; a completed branch is not
	// restartable.
	EndOfAgent bool `json:"end_of_agent,omitempty"`
}

// BranchAgent evaluates a condition at runtime and delegates execution to
// one of exactly two sub-agents: the first when the condition is true, the
// second when it is false. When the invocation is resumable, the decision is
// persisted before the chosen child starts, so an interrupted run resumes
// with the original routing and the condition is not re-evaluated.
type BranchAgent struct {
	name              string
	condition         ConditionFunc
	subAgents         []agent.Agent
	channelBufferSize int
	agentCallbacks    *agent.Callbacks
}

// Option configures BranchAgent settings using the functional options pattern.
type Option func(*Options)

// Options contains all configuration options for BranchAgent.
type Options struct {
	condition         ConditionFunc
	subAgents         []agent.Agent
	channelBufferSize int
	agentCallbacks    *agent.Callbacks
}

// WithSubAgents sets the two children: index 0 runs when the condition is
// true, index 1 when it is false. Construction fails for any other count.
func WithSubAgents(subAgents []agent.Agent) Option {
	return func(o *Options) { o.subAgents = subAgents }
}

// WithCondition sets the condition function. If not set, the condition
// defaults to always true.
func WithCondition(condition ConditionFunc) Option {
	return func(o *Options) { o.condition = condition }
}

// WithChannelBufferSize sets the buffer size for the event channel.
// Default is 256 if not specified.
func WithChannelBufferSize(size int) Option {
	return func(o *Options) { o.channelBufferSize = size }
}

// WithAgentCallbacks attaches lifecycle callbacks to the branch agent.
func WithAgentCallbacks(cb *agent.Callbacks) Option {
	return func(o *Options) { o.agentCallbacks = cb }
}

// New creates a new BranchAgent with the given name and options.
// It returns an error unless exactly two sub-agents are supplied; this is
// the only failure this agent can surface.
func New(name string, opts ...Option) (*BranchAgent, error) {
	cfg := Options{
		channelBufferSize: defaultChannelBufferSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(cfg.subAgents) != 2 {
		return nil, fmt.Errorf(
			"branch agent %s requires exactly 2 sub-agents (if-true and if-false), got %d",
			name, len(cfg.subAgents),
		)
	}
	if cfg.channelBufferSize <= 0 {
		cfg.channelBufferSize = defaultChannelBufferSize
	}
	if cfg.condition == nil {
		cfg.condition = func(context.Context, *agent.Invocation) (bool, error) {
			return true, nil
		}
	}
	return &BranchAgent{
		name:              name,
		condition:         cfg.condition,
		subAgents:         cfg.subAgents,
		channelBufferSize: cfg.channelBufferSize,
		agentCallbacks:    cfg.agentCallbacks,
	}, nil
}

// IfTrueAgent returns the agent executed when the condition is true.
func (a *BranchAgent) IfTrueAgent() agent.Agent {
	return a.subAgents[0]
}

// IfFalseAgent returns the agent executed when the condition is false.
func (a *BranchAgent) IfFalseAgent() agent.Agent {
	return a.subAgents[1]
}

// evaluateCondition evaluates the condition function safely. Any failure,
// including a panic inside the condition, degrades to false with a warning;
// nothing escapes the agent.
func (a *BranchAgent) evaluateCondition(ctx context.Context, invocation *agent.Invocation) (result bool) {
	ctx, span := telemetry.Tracer.Start(ctx, telemetry.SpanNameBranchDecision)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			log.Warnf("Branch agent %s: condition panicked: %v. Defaulting to false.", a.name, r)
			result = false
		}
	}()

	result, err := a.condition(ctx, invocation)
	if err != nil {
		log.Warnf("Branch agent %s: condition evaluation failed: %v. Defaulting to false.", a.name, err)
		return false
	}
	log.Debugf("Branch agent %s: condition evaluated to %v", a.name, result)
	return result
}

func (a *BranchAgent) chosenAgent(conditionResult bool) agent.Agent {
	if conditionResult {
		return a.IfTrueAgent()
	}
	return a.IfFalseAgent()
}

// createSubAgentInvocation creates a clean invocation for the chosen child.
func (a *BranchAgent) createSubAgentInvocation(
	subAgent agent.Agent,
	baseInvocation *agent.Invocation,
) *agent.Invocation {
	subInvocation := baseInvocation.CreateSubInvocation(subAgent)
	if subInvocation.Branch == "" {
		subInvocation.Branch = a.name
	}
	return subInvocation
}

// Run implements the agent.Agent interface. It evaluates the condition (or
// reuses the persisted decision when resuming), delegates to the chosen
// child, and relays its events in order.
func (a *BranchAgent) Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	eventChan := make(chan *event.Event, a.channelBufferSize)

	go func() {
		defer close(eventChan)
		a.executeBranchRun(ctx, invocation, eventChan)
	}()

	return eventChan, nil
}

func (a *BranchAgent) executeBranchRun(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) {
	a.setupInvocation(invocation)

	if a.handleBeforeAgentCallbacks(ctx, invocation, eventChan) {
		return
	}

	var state State
	resumed, err := invocation.LoadAgentState(a.name, &state)
	if err != nil {
		log.Warnf("Branch agent %s: failed to load persisted state, re-evaluating: %v", a.name, err)
		resumed = false
	}
	if resumed && state.EndOfAgent {
		// The branch already ran to completion; a terminal branch is not
		// restartable.
		return
	}

	if resumed {
		log.Debugf("Branch agent %s: resuming with condition_result=%v, chosen_agent=%s",
			a.name, state.ConditionResult, state.ChosenAgent)
	} else {
		state = State{}
		state.ConditionResult = a.evaluateCondition(ctx, invocation)
		state.ChosenAgent = a.chosenAgent(state.ConditionResult).Info().Name

		// Persist the decision before the child starts: a crash after this
		// point resumes the child without re-evaluating the condition.
		if invocation.RunConfig.Resumable {
			if !a.emitCheckpoint(ctx, invocation, state, eventChan) {
				return
			}
		}
	}

	chosen := a.chosenAgent(state.ConditionResult)
	if !a.runChosenAgent(ctx, invocation, chosen, eventChan) {
		return
	}

	if invocation.RunConfig.Resumable {
		state.EndOfAgent = true
		if !a.emitCheckpoint(ctx, invocation, state, eventChan) {
			return
		}
	}

	a.handleAfterAgentCallbacks(ctx, invocation, eventChan)
}

// emitCheckpoint persists the state and emits one checkpoint event carrying
// the written delta. Returns false if the context was cancelled.
func (a *BranchAgent) emitCheckpoint(
	ctx context.Context,
	invocation *agent.Invocation,
	state State,
	eventChan chan<- *event.Event,
) bool {
	delta, err := invocation.SaveAgentState(a.name, state)
	if err != nil {
		// Serialization of State cannot realistically fail; degrade to a
		// non-resumable run rather than surfacing an error.
		log.Warnf("Branch agent %s: failed to persist state: %v", a.name, err)
		return true
	}
	checkpoint := event.New(
		invocation.InvocationID,
		a.name,
		event.WithObject(model.ObjectTypeAgentState),
		event.WithStateDelta(delta),
		event.WithBranch(invocation.Branch),
	)
	select {
	case eventChan <- checkpoint:
		return true
	case <-ctx.Done():
		return false
	}
}

// runChosenAgent executes the chosen child and forwards every event it
// produces, in order, without transformation. Returns false if the context
// was cancelled or the child failed to start.
func (a *BranchAgent) runChosenAgent(
	ctx context.Context,
	invocation *agent.Invocation,
	chosen agent.Agent,
	eventChan chan<- *event.Event,
) bool {
	subInvocation := a.createSubAgentInvocation(chosen, invocation)
	subAgentCtx := agent.NewInvocationContext(ctx, subInvocation)

	subEventChan, err := chosen.Run(subAgentCtx, subInvocation)
	if err != nil {
		errorEvent := event.NewErrorEvent(
			invocation.InvocationID,
			invocation.AgentName,
			model.ErrorTypeFlowError,
			err.Error(),
		)
		select {
		case eventChan <- errorEvent:
		case <-ctx.Done():
		}
		return false
	}

	for subEvent := range subEventChan {
		select {
		case eventChan <- subEvent:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// RunLive implements the agent.LiveRunner interface. The condition is
// evaluated fresh on every live session start; live sessions do not resume
// mid-decision. The chosen child is driven through its own bidirectional
// contract for the duration of the session.
func (a *BranchAgent) RunLive(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	eventChan := make(chan *event.Event, a.channelBufferSize)

	go func() {
		defer close(eventChan)
		a.executeBranchLive(ctx, invocation, eventChan)
	}()

	return eventChan, nil
}

func (a *BranchAgent) executeBranchLive(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) {
	a.setupInvocation(invocation)

	conditionResult := a.evaluateCondition(ctx, invocation)
	chosen := a.chosenAgent(conditionResult)
	log.Debugf("Branch agent %s (live): condition=%v, executing agent=%s",
		a.name, conditionResult, chosen.Info().Name)

	liveRunner, ok := chosen.(agent.LiveRunner)
	if !ok {
		errorEvent := event.NewErrorEvent(
			invocation.InvocationID,
			invocation.AgentName,
			model.ErrorTypeFlowError,
			fmt.Sprintf("agent %s does not support live mode", chosen.Info().Name),
		)
		select {
		case eventChan <- errorEvent:
		case <-ctx.Done():
		}
		return
	}

	subInvocation := a.createSubAgentInvocation(chosen, invocation)
	subAgentCtx := agent.NewInvocationContext(ctx, subInvocation)

	subEventChan, err := liveRunner.RunLive(subAgentCtx, subInvocation)
	if err != nil {
		errorEvent := event.NewErrorEvent(
			invocation.InvocationID,
			invocation.AgentName,
			model.ErrorTypeFlowError,
			err.Error(),
		)
		select {
		case eventChan <- errorEvent:
		case <-ctx.Done():
		}
		return
	}

	for subEvent := range subEventChan {
		select {
		case eventChan <- subEvent:
		case <-ctx.Done():
			return
		}
	}
}

func (a *BranchAgent) setupInvocation(invocation *agent.Invocation) {
	invocation.Agent = a
	invocation.AgentName = a.name
	invocation.AgentCallbacks = a.agentCallbacks
}

func (a *BranchAgent) handleBeforeAgentCallbacks(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) bool {
	if invocation.AgentCallbacks == nil {
		return false
	}

	customResponse, err := invocation.AgentCallbacks.RunBeforeAgent(ctx, invocation)
	if err != nil {
		errorEvent := event.NewErrorEvent(
			invocation.InvocationID,
			invocation.AgentName,
			agent.ErrorTypeAgentCallbackError,
			err.Error(),
		)
		select {
		case eventChan <- errorEvent:
		case <-ctx.Done():
		}
		return true
	}
	if customResponse != nil {
		customEvent := event.NewResponseEvent(
			invocation.InvocationID,
			invocation.AgentName,
			customResponse,
		)
		select {
		case eventChan <- customEvent:
		case <-ctx.Done():
		}
		return true
	}
	return false
}

func (a *BranchAgent) handleAfterAgentCallbacks(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) {
	if invocation.AgentCallbacks == nil {
		return
	}

	customResponse, err := invocation.AgentCallbacks.RunAfterAgent(ctx, invocation, nil)
	if err != nil {
		errorEvent := event.NewErrorEvent(
			invocation.InvocationID,
			invocation.AgentName,
			agent.ErrorTypeAgentCallbackError,
			err.Error(),
		)
		select {
		case eventChan <- errorEvent:
		case <-ctx.Done():
		}
		return
	}
	if customResponse != nil {
		customEvent := event.NewResponseEvent(
			invocation.InvocationID,
			invocation.AgentName,
			customResponse,
		)
		select {
		case eventChan <- customEvent:
		case <-ctx.Done():
		}
	}
}

// Tools implements the agent.Agent interface.
func (a *BranchAgent) Tools() []tool.Tool {
	return nil
}

// Info implements the agent.Agent interface.
func (a *BranchAgent) Info() agent.Info {
	return agent.Info{
		Name:        a.name,
		Description: "Branch agent that routes to one of two sub-agents based on a condition",
	}
}

// SubAgents implements the agent.Agent interface.
func (a *BranchAgent) SubAgents() []agent.Agent {
	return a.subAgents
}

// FindSubAgent implements the agent.Agent interface.
func (a *BranchAgent) FindSubAgent(name string) agent.Agent {
	for _, subAgent := range a.subAgents {
		if subAgent.Info().Name == name {
			return subAgent
		}
	}
	return nil
}
