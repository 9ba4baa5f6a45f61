//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package function provides a generic way to wrap a Go function as a
// callable tool.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/flowcore-ai/flowcore/tool"
)

// FunctionTool implements the CallableTool interface for executing functions
// with JSON-encoded arguments.
type FunctionTool[I, O any] struct {
	name         string
	description  string
	inputSchema  *tool.Schema
	outputSchema *tool.Schema
	fn           func(context.Context, I) (O, error)
}

// Option is a function that configures a FunctionTool.
type Option func(*functionToolOptions)

type functionToolOptions struct {
	name        string
	description string
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(opts *functionToolOptions) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *functionToolOptions) {
		opts.description = description
	}
}

// NewFunctionTool creates a new FunctionTool wrapping fn. The input and
// output schemas are derived from the I and O types via reflection.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	options := &functionToolOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var (
		emptyI I
		emptyO O
	)
	return &FunctionTool[I, O]{
		name:         options.name,
		description:  options.description,
		fn:           fn,
		inputSchema:  generateSchema(reflect.TypeOf(emptyI)),
		outputSchema: generateSchema(reflect.TypeOf(emptyO)),
	}
}

// Call executes the function tool with the provided JSON arguments.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var input I
	if len(jsonArgs) > 0 {
		if err := json.Unmarshal(jsonArgs, &input); err != nil {
			return nil, fmt.Errorf("failed to unmarshal arguments for tool %s: %w", ft.name, err)
		}
	}
	return ft.fn(ctx, input)
}

// Declaration returns the metadata describing the tool.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:         ft.name,
		Description:  ft.description,
		InputSchema:  ft.inputSchema,
		OutputSchema: ft.outputSchema,
	}
}

// generateSchema builds a JSON schema for the given Go type. Only the shapes
// that appear in tool signatures are handled; anything else maps to a bare
// "object" schema.
func generateSchema(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{Type: "object"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: generateSchema(t.Elem())}
	case reflect.Struct:
		schema := &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{}}
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			tag := field.Tag.Get("json")
			if tag == "-" {
				continue
			}
			if tag != "" {
				parts := strings.Split(tag, ",")
				if parts[0] != "" {
					name = parts[0]
				}
			}
			schema.Properties[name] = generateSchema(field.Type)
		}
		return schema
	default:
		return &tool.Schema{Type: "object"}
	}
}
