//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package llmagent provides a model-backed agent implementation.
package llmagent

import (
	"context"

	"github.com/flowcore-ai/flowcore/agent"
	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/flow/llmflow"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/tool"
)

// LLMAgent is an agent backed by a language model. It delegates execution to
// an llmflow.Flow, which handles tool calling through the invocation guard.
type LLMAgent struct {
	name        string
	description string
	model       model.Model
	tools       []tool.Tool
	flow        *llmflow.Flow
}

// Option configures LLMAgent settings using the functional options pattern.
type Option func(*Options)

// Options contains all configuration options for LLMAgent.
type Options struct {
	description   string
	model         model.Model
	tools         []tool.Tool
	flowOptions   []llmflow.Option
	parallelTools bool
}

// WithDescription sets the agent description.
func WithDescription(description string) Option {
	return func(o *Options) { o.description = description }
}

// WithModel sets the model used by the agent.
func WithModel(m model.Model) Option {
	return func(o *Options) { o.model = m }
}

// WithTools sets the tools available to the agent.
func WithTools(tools []tool.Tool) Option {
	return func(o *Options) { o.tools = tools }
}

// WithParallelTools enables concurrent execution of the tool calls within
// one model turn.
func WithParallelTools(enabled bool) Option {
	return func(o *Options) { o.parallelTools = enabled }
}

// WithFlowOptions passes additional options to the underlying flow.
func WithFlowOptions(opts ...llmflow.Option) Option {
	return func(o *Options) { o.flowOptions = append(o.flowOptions, opts...) }
}

// New creates a new LLMAgent with the given name and options.
func New(name string, opts ...Option) *LLMAgent {
	cfg := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	flowOpts := append(
		[]llmflow.Option{llmflow.WithParallelTools(cfg.parallelTools)},
		cfg.flowOptions...,
	)
	return &LLMAgent{
		name:        name,
		description: cfg.description,
		model:       cfg.model,
		tools:       cfg.tools,
		flow:        llmflow.New(flowOpts...),
	}
}

// Run implements the agent.Agent interface.
func (a *LLMAgent) Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	a.setupInvocation(invocation)
	return a.flow.Run(ctx, invocation)
}

// RunLive implements the agent.LiveRunner interface.
func (a *LLMAgent) RunLive(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	a.setupInvocation(invocation)
	return a.flow.RunLive(ctx, invocation)
}

func (a *LLMAgent) setupInvocation(invocation *agent.Invocation) {
	invocation.Agent = a
	invocation.AgentName = a.name
	if invocation.Model == nil {
		invocation.Model = a.model
	}
}

// Tools implements the agent.Agent interface.
func (a *LLMAgent) Tools() []tool.Tool {
	return a.tools
}

// Info implements the agent.Agent interface.
func (a *LLMAgent) Info() agent.Info {
	return agent.Info{
		Name:        a.name,
		Description: a.description,
	}
}

// SubAgents implements the agent.Agent interface.
func (a *LLMAgent) SubAgents() []agent.Agent {
	return nil
}

// FindSubAgent implements the agent.Agent interface.
func (a *LLMAgent) FindSubAgent(name string) agent.Agent {
	return nil
}
