//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package live provides the request channel for live (bidirectional
// streaming) sessions.
package live

import (
	"errors"

	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/session"
)

// Validation errors returned by Request.Validate.
var (
	// ErrEmptyRequest indicates that no field of the request is set.
	ErrEmptyRequest = errors.New("live request must set at least one field")
	// ErrCloseCombined indicates that close was combined with another field.
	ErrCloseCombined = errors.New("close cannot be combined with other fields")
	// ErrStateDeltaCombined indicates that a state delta was combined with a
	// field other than content.
	ErrStateDeltaCombined = errors.New("state delta can only be combined with content")
)

// Request is a single caller input for a live session. At most one payload
// field may be meaningfully set; Close terminates the session.
//
// When multiple fields are set, they are processed by priority (highest
// first): ActivityStart > ActivityEnd > Blob > Content.
type Request struct {
	// Content is a structured message to send to the model in turn-by-turn
	// mode.
	Content *model.Message `json:"content,omitempty"`

	// Blob is a raw binary payload to send to the model in realtime mode.
	Blob *model.Blob `json:"blob,omitempty"`

	// ActivityStart signals the beginning of user activity.
	ActivityStart bool `json:"activityStart,omitempty"`

	// ActivityEnd signals the end of user activity.
	ActivityEnd bool `json:"activityEnd,omitempty"`

	// StateDelta is a key-value delta to merge into the session state.
	// It may be combined only with Content.
	StateDelta session.StateMap `json:"stateDelta,omitempty"`

	// Close signals the end of the live session. It is mutually exclusive
	// with every other field.
	Close bool `json:"close,omitempty"`
}

// Validate checks the mutual-exclusion invariants of the request.
func (r *Request) Validate() error {
	hasPayload := r.Content != nil || r.Blob != nil ||
		r.ActivityStart || r.ActivityEnd || r.StateDelta != nil
	if r.Close {
		if hasPayload {
			return ErrCloseCombined
		}
		return nil
	}
	if !hasPayload {
		return ErrEmptyRequest
	}
	if r.StateDelta != nil && (r.Blob != nil || r.ActivityStart || r.ActivityEnd) {
		return ErrStateDeltaCombined
	}
	return nil
}
