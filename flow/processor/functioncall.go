//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package processor provides response processing for execution flows.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flowcore-ai/flowcore/agent"
	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/log"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/telemetry"
	"github.com/flowcore-ai/flowcore/tool"
)

// Error messages surfaced in tool-response choices.
const (
	// ErrorToolNotFound is returned when the requested tool is unknown.
	ErrorToolNotFound = "tool not found"
	// ErrorMarshalResult is returned when the tool result cannot be encoded.
	ErrorMarshalResult = "failed to marshal tool result"
)

// FunctionCallResponseProcessor executes the tool calls requested by a model
// response and produces one merged tool-response event per turn. Iteration
// limiting and deduplication are enforced through the invocation's guard:
// deduplicated calls are answered from cache without executing the tool or
// charging the counter, and concurrent identical calls collapse to a single
// execution.
type FunctionCallResponseProcessor struct {
	enableParallelTools bool
}

// Option configures the processor.
type Option func(*FunctionCallResponseProcessor)

// WithParallelTools enables concurrent execution when a single response
// carries multiple tool calls.
func WithParallelTools(enabled bool) Option {
	return func(p *FunctionCallResponseProcessor) { p.enableParallelTools = enabled }
}

// New creates a function call response processor.
func New(opts ...Option) *FunctionCallResponseProcessor {
	p := &FunctionCallResponseProcessor{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ToolCalls extracts the tool calls requested by a response.
func ToolCalls(rsp *model.Response) []model.ToolCall {
	if rsp == nil {
		return nil
	}
	var calls []model.ToolCall
	for _, choice := range rsp.Choices {
		calls = append(calls, choice.Message.ToolCalls...)
	}
	return calls
}

// HandleFunctionCalls executes the given tool calls and returns one merged
// tool-response event whose choices appear in call order. A nil event and
// non-nil error is returned only for failures fatal to the invocation, such
// as an exhausted tool iteration budget; ordinary tool-execution errors are
// embedded as error choices and propagate through the normal tool-error path.
func (p *FunctionCallResponseProcessor) HandleFunctionCalls(
	ctx context.Context,
	invocation *agent.Invocation,
	toolCalls []model.ToolCall,
	tools map[string]tool.Tool,
) (*event.Event, error) {
	if len(toolCalls) == 0 {
		return nil, nil
	}

	choices := make([]model.Choice, len(toolCalls))
	if p.enableParallelTools && len(toolCalls) > 1 {
		group, groupCtx := errgroup.WithContext(ctx)
		for i, toolCall := range toolCalls {
			group.Go(func() error {
				choice, err := p.executeToolCall(groupCtx, invocation, toolCall, tools, i)
				if err != nil {
					return err
				}
				choices[i] = *choice
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, toolCall := range toolCalls {
			choice, err := p.executeToolCall(ctx, invocation, toolCall, tools, i)
			if err != nil {
				return nil, err
			}
			choices[i] = *choice
		}
	}

	response := &model.Response{
		Object:    model.ObjectTypeToolResponse,
		Model:     invocation.AgentName,
		Choices:   choices,
		Timestamp: time.Now(),
	}
	mergedEvent := event.NewResponseEvent(invocation.InvocationID, invocation.AgentName, response)
	mergedEvent.Branch = invocation.Branch
	return mergedEvent, nil
}

// executeToolCall executes a single tool call and returns the choice.
func (p *FunctionCallResponseProcessor) executeToolCall(
	ctx context.Context,
	invocation *agent.Invocation,
	toolCall model.ToolCall,
	tools map[string]tool.Tool,
	index int,
) (*model.Choice, error) {
	name := toolCall.Function.Name
	tl, exists := tools[name]
	if !exists {
		log.Errorf("Tool %s not found (agent=%s)", name, invocation.AgentName)
		return p.createErrorChoice(index, toolCall.ID, ErrorToolNotFound), nil
	}
	callable, ok := tl.(tool.CallableTool)
	if !ok {
		return p.createErrorChoice(index, toolCall.ID,
			fmt.Sprintf("tool %s is not callable", name)), nil
	}

	args := toolCall.Function.Arguments
	signature := agent.CallSignature(name, args)

	result, err := invocation.ExecuteToolOnce(signature, func() (any, error) {
		// Iteration counting is charged only on true executions; cache hits
		// and collapsed duplicates never reach this point.
		if err := invocation.IncrementToolIterations(); err != nil {
			return nil, err
		}
		ctx, span := telemetry.Tracer.Start(ctx,
			fmt.Sprintf("%s %s", telemetry.SpanNamePrefixExecuteTool, name))
		defer span.End()
		return callable.Call(ctx, args)
	})
	if err != nil {
		var limitErr *agent.MaxToolIterationsExceededError
		if errors.As(err, &limitErr) {
			// Fatal to the invocation.
			return nil, err
		}
		log.Debugf("Tool %s failed: %v", name, err)
		return p.createErrorChoice(index, toolCall.ID, err.Error()), nil
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		log.Errorf("Failed to marshal tool result for %s: %v", name, err)
		return p.createErrorChoice(index, toolCall.ID, ErrorMarshalResult), nil
	}

	log.Debugf("Tool %s executed successfully, result: %s", name, string(resultBytes))

	return &model.Choice{
		Index: index,
		Message: model.Message{
			Role:    model.RoleTool,
			Content: string(resultBytes),
			ToolID:  toolCall.ID,
		},
	}, nil
}

func (p *FunctionCallResponseProcessor) createErrorChoice(index int, toolID, message string) *model.Choice {
	return &model.Choice{
		Index: index,
		Message: model.Message{
			Role:    model.RoleTool,
			Content: fmt.Sprintf(`{"error":%q}`, message),
			ToolID:  toolID,
		},
	}
}
