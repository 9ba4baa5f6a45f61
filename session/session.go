//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package session provides the core session functionality.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flowcore-ai/flowcore/event"
)

// StateMap is a map of state key-value pairs.
type StateMap map[string][]byte

var (
	// ErrAppNameRequired is the error for app name required.
	ErrAppNameRequired = errors.New("appName is required")
	// ErrUserIDRequired is the error for user id required.
	ErrUserIDRequired = errors.New("userID is required")
	// ErrSessionIDRequired is the error for session id required.
	ErrSessionIDRequired = errors.New("sessionID is required")
)

// Session holds the state and event history of one conversation.
type Session struct {
	ID        string        `json:"id"`      // ID is the session id.
	AppName   string        `json:"appName"` // AppName is the app name.
	UserID    string        `json:"userID"`  // UserID is the user id.
	State     StateMap      `json:"state"`   // State is the session state with delta support.
	Events    []event.Event `json:"events"`  // Events is the session events.
	EventMu   sync.RWMutex  `json:"-"`
	StateMu   sync.RWMutex  `json:"-"`
	UpdatedAt time.Time     `json:"updatedAt"` // UpdatedAt is the last update time.
	CreatedAt time.Time     `json:"createdAt"` // CreatedAt is the creation time.
}

// GetEvents returns a copy of the session events.
func (sess *Session) GetEvents() []event.Event {
	sess.EventMu.RLock()
	defer sess.EventMu.RUnlock()

	eventsCopy := make([]event.Event, len(sess.Events))
	copy(eventsCopy, sess.Events)
	return eventsCopy
}

// GetEventCount returns the session event count.
func (sess *Session) GetEventCount() int {
	sess.EventMu.RLock()
	defer sess.EventMu.RUnlock()

	return len(sess.Events)
}

// GetState returns the value stored under key, if any.
func (sess *Session) GetState(key string) ([]byte, bool) {
	sess.StateMu.RLock()
	defer sess.StateMu.RUnlock()

	value, ok := sess.State[key]
	return value, ok
}

// ApplyStateDelta merges the given delta into the session state.
func (sess *Session) ApplyStateDelta(delta StateMap) {
	if len(delta) == 0 {
		return
	}
	sess.StateMu.Lock()
	defer sess.StateMu.Unlock()

	if sess.State == nil {
		sess.State = make(StateMap, len(delta))
	}
	for k, v := range delta {
		sess.State[k] = v
	}
	sess.UpdatedAt = time.Now()
}

// Key is the key for a session.
type Key struct {
	AppName   string // app name
	UserID    string // user id
	SessionID string // session id
}

// CheckSessionKey checks if a session key is valid.
func (s *Key) CheckSessionKey() error {
	if s.AppName == "" {
		return ErrAppNameRequired
	}
	if s.UserID == "" {
		return ErrUserIDRequired
	}
	if s.SessionID == "" {
		return ErrSessionIDRequired
	}
	return nil
}

// Service is the interface that all session services must implement.
type Service interface {
	// CreateSession creates a new session.
	CreateSession(ctx context.Context, key Key, state StateMap) (*Session, error)

	// GetSession gets a session. Returns nil if the session does not exist.
	GetSession(ctx context.Context, key Key) (*Session, error)

	// DeleteSession deletes a session.
	DeleteSession(ctx context.Context, key Key) error

	// AppendEvent appends an event to a session and applies its state delta.
	AppendEvent(ctx context.Context, session *Session, event *event.Event) error

	// Close closes the service.
	Close() error
}
