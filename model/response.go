//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package model

import "time"

// Error type constants for ResponseError.Type.
const (
	// ErrorTypeAPIError is the error type for API errors.
	ErrorTypeAPIError = "api_error"
	// ErrorTypeFlowError is the error type for flow execution errors.
	ErrorTypeFlowError = "flow_error"
	// ErrorTypeStreamError is the error type for streaming errors.
	ErrorTypeStreamError = "stream_error"
)

// Object type constants for Response.Object field.
const (
	// ObjectTypeError is the object type for error events.
	ObjectTypeError = "error"
	// ObjectTypeToolResponse is the object type for tool response events.
	ObjectTypeToolResponse = "tool.response"
	// ObjectTypeAgentState is the object type for agent state checkpoint events.
	ObjectTypeAgentState = "agent.state"
	// ObjectTypeStateUpdate is the object type for session state update events.
	ObjectTypeStateUpdate = "state.update"
	// ObjectTypeRealtimeInput is the object type for realtime caller input events.
	ObjectTypeRealtimeInput = "realtime.input"
	// ObjectTypeRunnerCompletion is the object type for runner completion events.
	ObjectTypeRunnerCompletion = "runner.completion"
	// ObjectTypeChatCompletion is the object type for chat completion events.
	ObjectTypeChatCompletion = "chat.completion"
	// ObjectTypeChatCompletionChunk is the object type for chat completion chunk events.
	ObjectTypeChatCompletionChunk = "chat.completion.chunk"
)

// ResponseError represents an API-level error in a response.
type ResponseError struct {
	// Message is a human-readable description of the error.
	Message string `json:"message"`
	// Type is the category of the error.
	Type string `json:"type"`
}

// Choice represents a single completion choice.
type Choice struct {
	// Index is the index of the choice.
	Index int `json:"index"`

	// Message is the message content.
	Message Message `json:"message,omitempty"`

	// Delta is the delta message content for streaming responses.
	Delta Message `json:"delta,omitempty"`

	// FinishReason is the reason the choice was finished.
	// "stop", "length", "content_filter", etc.
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Response is the response from the model.
//
// The Error field represents API-level errors that occur after successful
// communication with the model service, as opposed to function-level errors
// returned by GenerateContent which indicate the communication itself failed.
type Response struct {
	// ID is the unique identifier for this response.
	ID string `json:"id"`

	// Object describes the type of object returned (e.g., "chat.completion").
	Object string `json:"object"`

	// Created is the Unix timestamp when the response was created.
	Created int64 `json:"created"`

	// Model is the model used to generate the response.
	Model string `json:"model"`

	// Choices contains the completion choices.
	Choices []Choice `json:"choices"`

	// Error contains API-level error information if the request failed.
	Error *ResponseError `json:"error,omitempty"`

	// Timestamp when this response chunk was received (for streaming).
	Timestamp time.Time `json:"timestamp"`

	// Done indicates if the flow should stop.
	Done bool `json:"done"`

	// IsPartial indicates if this is a partial response.
	IsPartial bool `json:"is_partial"`
}

// Clone creates a deep copy of the response.
func (rsp *Response) Clone() *Response {
	if rsp == nil {
		return nil
	}
	clone := *rsp
	if rsp.Choices != nil {
		clone.Choices = make([]Choice, len(rsp.Choices))
		copy(clone.Choices, rsp.Choices)
	}
	if rsp.Error != nil {
		errCopy := *rsp.Error
		clone.Error = &errCopy
	}
	return &clone
}
