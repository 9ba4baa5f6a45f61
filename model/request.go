//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package model

import "github.com/flowcore-ai/flowcore/tool"

// Role represents the role of a message author.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Message represents a single message in a conversation.
type Message struct {
	Role      Role       `json:"role"`                 // The role of the message author
	Content   string     `json:"content"`              // The message content
	ToolID    string     `json:"tool_id,omitempty"`    // Used by tool response
	ToolCalls []ToolCall `json:"tool_calls,omitempty"` // Optional tool calls for the message
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Blob carries raw binary data exchanged with a model in realtime mode,
// for example an audio frame captured from the caller's microphone.
type Blob struct {
	// MIMEType is the IANA media type of Data, e.g. "audio/pcm".
	MIMEType string `json:"mime_type"`
	// Data is the raw payload.
	Data []byte `json:"data"`
}

// Request is the request to the model.
type Request struct {
	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// Stream indicates whether to stream the response.
	Stream bool `json:"stream"`

	// Tools are not serialized, handled separately.
	Tools map[string]tool.Tool `json:"-"`
}

// ToolCall represents a call to a tool (function) in the model response.
type ToolCall struct {
	// Type of the tool. Currently, only `function` is supported.
	Type string `json:"type"`
	// Function definition for the tool.
	Function FunctionDefinitionParam `json:"function,omitempty"`
	// The ID of the tool call returned by the model.
	ID string `json:"id,omitempty"`
	// Index is the index of the tool call in the message for streaming responses.
	Index *int `json:"index,omitempty"`
}

// FunctionDefinitionParam identifies the function a tool call targets.
type FunctionDefinitionParam struct {
	// The name of the function to be called.
	Name string `json:"name"`
	// A description of what the function does.
	Description string `json:"description,omitempty"`
	// Optional arguments to pass to the function, json-encoded.
	Arguments []byte `json:"arguments,omitempty"`
}
