//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package runner provides the entry point for executing agents against
// sessions.
package runner

import (
	"context"

	"github.com/flowcore-ai/flowcore/agent"
	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/live"
	"github.com/flowcore-ai/flowcore/log"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/session"
	"github.com/flowcore-ai/flowcore/session/inmemory"
	"github.com/flowcore-ai/flowcore/telemetry"
)

// Option is a function that configures a Runner.
type Option func(*Options)

// Options is the options for the Runner.
type Options struct {
	sessionService session.Service
	runConfig      *agent.RunConfig
}

// WithSessionService sets the session service to use.
func WithSessionService(service session.Service) Option {
	return func(opts *Options) {
		opts.sessionService = service
	}
}

// WithRunConfig sets the default run configuration for invocations started
// by this runner.
func WithRunConfig(cfg agent.RunConfig) Option {
	return func(opts *Options) {
		opts.runConfig = &cfg
	}
}

// Runner is the interface for running agents.
type Runner interface {
	// Run executes one request/response invocation of the root agent.
	Run(
		ctx context.Context,
		userID string,
		sessionID string,
		message model.Message,
		runOpts ...RunOption,
	) (<-chan *event.Event, error)

	// RunLive executes a live (bidirectional) session of the root agent,
	// consuming caller inputs from the given queue until it is closed.
	RunLive(
		ctx context.Context,
		userID string,
		sessionID string,
		queue *live.Queue,
		runOpts ...RunOption,
	) (<-chan *event.Event, error)
}

// RunOption configures a single run.
type RunOption func(*runOptions)

type runOptions struct {
	runConfig *agent.RunConfig
}

// WithRuntimeRunConfig overrides the runner's run configuration for this run.
func WithRuntimeRunConfig(cfg agent.RunConfig) RunOption {
	return func(o *runOptions) { o.runConfig = &cfg }
}

type runner struct {
	appName        string
	agent          agent.Agent
	sessionService session.Service
	runConfig      agent.RunConfig
}

// NewRunner creates a new Runner for the given root agent.
func NewRunner(appName string, a agent.Agent, opts ...Option) Runner {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	if options.sessionService == nil {
		options.sessionService = inmemory.NewSessionService()
	}
	runConfig := agent.NewRunConfig()
	if options.runConfig != nil {
		runConfig = *options.runConfig
	}
	return &runner{
		appName:        appName,
		agent:          a,
		sessionService: options.sessionService,
		runConfig:      runConfig,
	}
}

// Run runs the agent for one request/response invocation.
func (r *runner) Run(
	ctx context.Context,
	userID string,
	sessionID string,
	message model.Message,
	runOpts ...RunOption,
) (<-chan *event.Event, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "invocation")
	defer span.End()

	sess, invocation, err := r.prepareInvocation(ctx, userID, sessionID, runOpts,
		agent.WithInvocationMessage(message))
	if err != nil {
		return nil, err
	}

	agentChan, err := r.agent.Run(agent.NewInvocationContext(ctx, invocation), invocation)
	if err != nil {
		return nil, err
	}
	return r.forwardEvents(ctx, sess, agentChan), nil
}

// RunLive runs the agent in live mode. The root agent (or the agent its
// routing selects) must implement agent.LiveRunner.
func (r *runner) RunLive(
	ctx context.Context,
	userID string,
	sessionID string,
	queue *live.Queue,
	runOpts ...RunOption,
) (<-chan *event.Event, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "live_invocation")
	defer span.End()

	liveRunner, ok := r.agent.(agent.LiveRunner)
	if !ok {
		return nil, &UnsupportedLiveError{AgentName: r.agent.Info().Name}
	}

	sess, invocation, err := r.prepareInvocation(ctx, userID, sessionID, runOpts,
		agent.WithInvocationLiveRequestQueue(queue))
	if err != nil {
		return nil, err
	}

	agentChan, err := liveRunner.RunLive(agent.NewInvocationContext(ctx, invocation), invocation)
	if err != nil {
		return nil, err
	}
	return r.forwardEvents(ctx, sess, agentChan), nil
}

func (r *runner) prepareInvocation(
	ctx context.Context,
	userID string,
	sessionID string,
	runOpts []RunOption,
	invOpts ...agent.InvocationOption,
) (*session.Session, *agent.Invocation, error) {
	var options runOptions
	for _, opt := range runOpts {
		opt(&options)
	}
	runConfig := r.runConfig
	if options.runConfig != nil {
		runConfig = *options.runConfig
	}

	sessionKey := session.Key{
		AppName:   r.appName,
		UserID:    userID,
		SessionID: sessionID,
	}
	sess, err := r.sessionService.GetSession(ctx, sessionKey)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		if sess, err = r.sessionService.CreateSession(ctx, sessionKey, session.StateMap{}); err != nil {
			return nil, nil, err
		}
	}

	opts := append([]agent.InvocationOption{
		agent.WithInvocationSession(sess),
		agent.WithInvocationRunConfig(runConfig),
	}, invOpts...)
	return sess, agent.NewInvocation(r.agent, opts...), nil
}

// forwardEvents relays agent events to the caller, appending each complete
// event to the session so invocations can be resumed and reconnected.
func (r *runner) forwardEvents(
	ctx context.Context,
	sess *session.Session,
	agentChan <-chan *event.Event,
) <-chan *event.Event {
	out := make(chan *event.Event)
	go func() {
		defer close(out)
		for e := range agentChan {
			if !e.IsPartial {
				if err := r.sessionService.AppendEvent(ctx, sess, e); err != nil {
					log.Errorf("runner: failed to append event %s to session: %v", e.ID, err)
				}
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
