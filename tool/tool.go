//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package tool provides tool interfaces for the agent system.
package tool

import "context"

// Tool is the interface implemented by everything an agent can call.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool defines the interface for tools that support calling operations.
type CallableTool interface {
	// Call calls the tool with the provided context and arguments.
	// Returns the result of execution or an error if the operation fails.
	Call(ctx context.Context, jsonArgs []byte) (any, error)

	Tool
}

// Declaration describes the metadata of a tool, such as its name, description,
// and expected arguments.
type Declaration struct {
	// Name is the unique identifier of the tool.
	Name string `json:"name"`

	// Description explains the tool's purpose and functionality.
	Description string `json:"description"`

	// InputSchema defines the expected input for the tool in JSON schema format.
	InputSchema *Schema `json:"inputSchema,omitempty"`

	// OutputSchema defines the expected output for the tool in JSON schema format.
	OutputSchema *Schema `json:"outputSchema,omitempty"`
}

// Schema represents the structure of JSON Schema used for defining arguments
// and responses. It follows the JSON Schema standard, supporting various
// types, properties, and validation rules.
type Schema struct {
	// Type specifies the data type (e.g., "object", "array", "string", "number").
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema.
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array.
	Items *Schema `json:"items,omitempty"`
}
