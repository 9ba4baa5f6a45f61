//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package model provides interfaces for working with language models.
package model

import "context"

// Model is the interface for all language models.
//
// Error handling uses two layers: function-level errors are system failures
// that prevent communication (nil request, network issues), while
// Response.Error carries API-level errors delivered through the channel after
// communication succeeded.
type Model interface {
	// GenerateContent generates content from the given request.
	// It returns a channel of Response objects for streaming results and an
	// error for system-level failures.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a model.
type Info struct {
	// Name is the name of the model.
	Name string
}
