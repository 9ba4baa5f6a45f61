//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package llmflow provides the model-driven execution flow.
package llmflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowcore-ai/flowcore/agent"
	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/flow"
	"github.com/flowcore-ai/flowcore/flow/processor"
	"github.com/flowcore-ai/flowcore/log"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/tool"
)

const defaultChannelBufferSize = 256

// defaultMaxSteps bounds the number of model turns per invocation. The tool
// iteration limit is the primary loop guard; this is a backstop against a
// model that keeps responding without tool calls or a finish.
const defaultMaxSteps = 100

// Flow is a model-driven execution flow: it calls the model, executes any
// requested tool calls through the invocation's guard, feeds the results
// back, and repeats until the model produces a final response.
type Flow struct {
	channelBufferSize int
	maxSteps          int
	functionProcessor *processor.FunctionCallResponseProcessor
}

var (
	_ flow.Flow     = (*Flow)(nil)
	_ flow.LiveFlow = (*Flow)(nil)
)

// Option configures the flow.
type Option func(*options)

type options struct {
	channelBufferSize int
	maxSteps          int
	parallelTools     bool
}

// WithChannelBufferSize sets the buffer size for the event channel.
func WithChannelBufferSize(size int) Option {
	return func(o *options) { o.channelBufferSize = size }
}

// WithMaxSteps sets the maximum number of model turns per invocation.
func WithMaxSteps(steps int) Option {
	return func(o *options) { o.maxSteps = steps }
}

// WithParallelTools enables concurrent execution of the tool calls within
// one model turn.
func WithParallelTools(enabled bool) Option {
	return func(o *options) { o.parallelTools = enabled }
}

// New creates a new model-driven flow.
func New(opts ...Option) *Flow {
	cfg := options{
		channelBufferSize: defaultChannelBufferSize,
		maxSteps:          defaultMaxSteps,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.channelBufferSize <= 0 {
		cfg.channelBufferSize = defaultChannelBufferSize
	}
	if cfg.maxSteps <= 0 {
		cfg.maxSteps = defaultMaxSteps
	}
	return &Flow{
		channelBufferSize: cfg.channelBufferSize,
		maxSteps:          cfg.maxSteps,
		functionProcessor: processor.New(processor.WithParallelTools(cfg.parallelTools)),
	}
}

// Run implements flow.Flow.
func (f *Flow) Run(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	if invocation.Model == nil {
		return nil, errors.New("llmflow: invocation has no model")
	}
	eventChan := make(chan *event.Event, f.channelBufferSize)
	go func() {
		defer close(eventChan)
		f.executeRun(ctx, invocation, eventChan)
	}()
	return eventChan, nil
}

func (f *Flow) executeRun(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) {
	messages := []model.Message{invocation.Message}
	tools := toolMap(invocation)

	for step := 0; step < f.maxSteps; step++ {
		// Each model turn is a step boundary for the dedup cache.
		invocation.ResetToolCallStep()

		lastRsp, ok := f.runModelTurn(ctx, invocation, messages, tools, eventChan)
		if !ok {
			return
		}

		toolCalls := processor.ToolCalls(lastRsp)
		if len(toolCalls) == 0 || lastRsp.Done {
			return
		}

		mergedEvent, err := f.functionProcessor.HandleFunctionCalls(ctx, invocation, toolCalls, tools)
		if err != nil {
			// Iteration-limit failures terminate the invocation with a
			// descriptive message.
			errorType := model.ErrorTypeFlowError
			var limitErr *agent.MaxToolIterationsExceededError
			if errors.As(err, &limitErr) {
				errorType = agent.ErrorTypeToolIterationLimit
			}
			f.emit(ctx, eventChan, event.NewErrorEvent(
				invocation.InvocationID, invocation.AgentName, errorType, err.Error()))
			return
		}
		if mergedEvent == nil {
			return
		}
		if !f.emit(ctx, eventChan, mergedEvent) {
			return
		}

		// Feed the assistant turn and tool results back for the next call.
		for _, choice := range lastRsp.Choices {
			messages = append(messages, choice.Message)
		}
		for _, choice := range mergedEvent.Choices {
			messages = append(messages, choice.Message)
		}
	}
	log.Warnf("llmflow: invocation %s reached max steps (%d)", invocation.InvocationID, f.maxSteps)
}

// runModelTurn performs one model call, forwarding every response as an
// event, and returns the final response of the turn.
func (f *Flow) runModelTurn(
	ctx context.Context,
	invocation *agent.Invocation,
	messages []model.Message,
	tools map[string]tool.Tool,
	eventChan chan<- *event.Event,
) (*model.Response, bool) {
	request := &model.Request{Messages: messages, Tools: tools}
	rspChan, err := invocation.Model.GenerateContent(ctx, request)
	if err != nil {
		f.emit(ctx, eventChan, event.NewErrorEvent(
			invocation.InvocationID, invocation.AgentName,
			model.ErrorTypeAPIError, err.Error()))
		return nil, false
	}

	var lastRsp *model.Response
	for rsp := range rspChan {
		e := event.NewResponseEvent(invocation.InvocationID, invocation.AgentName, rsp)
		e.Branch = invocation.Branch
		if !f.emit(ctx, eventChan, e) {
			return nil, false
		}
		if rsp.Error != nil {
			return nil, false
		}
		if !rsp.IsPartial {
			lastRsp = rsp
		}
	}
	if lastRsp == nil {
		return nil, false
	}
	return lastRsp, true
}

// RunLive implements flow.LiveFlow. It drains the invocation's live request
// queue, applying each request by priority, until a close request arrives.
func (f *Flow) RunLive(ctx context.Context, invocation *agent.Invocation) (<-chan *event.Event, error) {
	if invocation.LiveRequestQueue == nil {
		return nil, errors.New("llmflow: invocation has no live request queue")
	}
	if invocation.Model == nil {
		return nil, errors.New("llmflow: invocation has no model")
	}
	eventChan := make(chan *event.Event, f.channelBufferSize)
	go func() {
		defer close(eventChan)
		f.executeLive(ctx, invocation, eventChan)
	}()
	return eventChan, nil
}

func (f *Flow) executeLive(
	ctx context.Context,
	invocation *agent.Invocation,
	eventChan chan<- *event.Event,
) {
	queue := invocation.LiveRequestQueue
	tools := toolMap(invocation)

	for {
		req, err := queue.Receive(ctx)
		if err != nil {
			log.Debugf("llmflow: live session %s stopped: %v", invocation.InvocationID, err)
			return
		}

		switch {
		case req.Close:
			f.emit(ctx, eventChan, f.completionEvent(invocation))
			return

		// Payload fields are applied by priority:
		// activity-start > activity-end > blob > content.
		case req.ActivityStart:
			if !f.emit(ctx, eventChan, f.realtimeEvent(invocation, "activity_start")) {
				return
			}
		case req.ActivityEnd:
			if !f.emit(ctx, eventChan, f.realtimeEvent(invocation, "activity_end")) {
				return
			}
		case req.Blob != nil:
			if !f.emit(ctx, eventChan, f.realtimeEvent(invocation, req.Blob.MIMEType)) {
				return
			}
		case req.Content != nil:
			if req.StateDelta != nil {
				f.applyStateDelta(ctx, invocation, req.StateDelta, eventChan)
			}
			if !f.runLiveTurn(ctx, invocation, *req.Content, tools, eventChan) {
				return
			}
		case req.StateDelta != nil:
			f.applyStateDelta(ctx, invocation, req.StateDelta, eventChan)
		}
	}
}

// runLiveTurn runs one turn-by-turn exchange inside a live session. The
// iteration budget is reset per caller turn.
func (f *Flow) runLiveTurn(
	ctx context.Context,
	invocation *agent.Invocation,
	content model.Message,
	tools map[string]tool.Tool,
	eventChan chan<- *event.Event,
) bool {
	invocation.ResetToolIterations()
	invocation.ResetToolCallStep()

	lastRsp, ok := f.runModelTurn(ctx, invocation, []model.Message{content}, tools, eventChan)
	if !ok {
		return true // turn failed, session continues
	}
	toolCalls := processor.ToolCalls(lastRsp)
	if len(toolCalls) == 0 {
		return true
	}
	mergedEvent, err := f.functionProcessor.HandleFunctionCalls(ctx, invocation, toolCalls, tools)
	if err != nil {
		errorType := model.ErrorTypeFlowError
		var limitErr *agent.MaxToolIterationsExceededError
		if errors.As(err, &limitErr) {
			errorType = agent.ErrorTypeToolIterationLimit
		}
		f.emit(ctx, eventChan, event.NewErrorEvent(
			invocation.InvocationID, invocation.AgentName, errorType, err.Error()))
		// Limit failures are fatal to the invocation, live or not.
		return errorType != agent.ErrorTypeToolIterationLimit
	}
	if mergedEvent != nil {
		return f.emit(ctx, eventChan, mergedEvent)
	}
	return true
}

func (f *Flow) applyStateDelta(
	ctx context.Context,
	invocation *agent.Invocation,
	delta map[string][]byte,
	eventChan chan<- *event.Event,
) {
	if invocation.Session != nil {
		invocation.Session.ApplyStateDelta(delta)
	}
	e := event.New(
		invocation.InvocationID,
		invocation.AgentName,
		event.WithObject(model.ObjectTypeStateUpdate),
		event.WithStateDelta(delta),
		event.WithBranch(invocation.Branch),
	)
	f.emit(ctx, eventChan, e)
}

func (f *Flow) realtimeEvent(invocation *agent.Invocation, kind string) *event.Event {
	e := event.New(
		invocation.InvocationID,
		invocation.AgentName,
		event.WithObject(model.ObjectTypeRealtimeInput),
		event.WithBranch(invocation.Branch),
	)
	e.Choices = []model.Choice{{
		Message: model.Message{
			Role:    model.RoleUser,
			Content: fmt.Sprintf("[realtime] %s", kind),
		},
	}}
	return e
}

func (f *Flow) completionEvent(invocation *agent.Invocation) *event.Event {
	e := event.New(
		invocation.InvocationID,
		invocation.AgentName,
		event.WithObject(model.ObjectTypeRunnerCompletion),
		event.WithBranch(invocation.Branch),
	)
	e.Done = true
	return e
}

func (f *Flow) emit(ctx context.Context, eventChan chan<- *event.Event, e *event.Event) bool {
	select {
	case eventChan <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func toolMap(invocation *agent.Invocation) map[string]tool.Tool {
	tools := make(map[string]tool.Tool)
	if invocation.Agent == nil {
		return tools
	}
	for _, tl := range invocation.Agent.Tools() {
		if decl := tl.Declaration(); decl != nil {
			tools[decl.Name] = tl
		}
	}
	return tools
}
