//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package inmemory provides an in-memory session service implementation.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/session"
)

// SessionService is an in-memory implementation of session.Service.
// It is intended for tests and single-process deployments; state does not
// survive a restart.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

var _ session.Service = (*SessionService)(nil)

// NewSessionService creates a new in-memory session service.
func NewSessionService() *SessionService {
	return &SessionService{
		sessions: make(map[string]*session.Session),
	}
}

func sessionKey(key session.Key) string {
	return fmt.Sprintf("%s/%s/%s", key.AppName, key.UserID, key.SessionID)
}

// CreateSession creates a new session with the given initial state.
func (s *SessionService) CreateSession(
	ctx context.Context, key session.Key, state session.StateMap,
) (*session.Session, error) {
	if err := key.CheckSessionKey(); err != nil {
		return nil, err
	}

	now := time.Now()
	stateCopy := make(session.StateMap, len(state))
	for k, v := range state {
		stateCopy[k] = v
	}
	sess := &session.Session{
		ID:        key.SessionID,
		AppName:   key.AppName,
		UserID:    key.UserID,
		State:     stateCopy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(key)] = sess
	return sess, nil
}

// GetSession gets a session. Returns nil if the session does not exist.
func (s *SessionService) GetSession(
	ctx context.Context, key session.Key,
) (*session.Session, error) {
	if err := key.CheckSessionKey(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionKey(key)], nil
}

// DeleteSession deletes a session.
func (s *SessionService) DeleteSession(ctx context.Context, key session.Key) error {
	if err := key.CheckSessionKey(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(key))
	return nil
}

// AppendEvent appends an event to the session and applies its state delta.
func (s *SessionService) AppendEvent(
	ctx context.Context, sess *session.Session, e *event.Event,
) error {
	if sess == nil || e == nil {
		return nil
	}

	sess.ApplyStateDelta(e.StateDelta)

	sess.EventMu.Lock()
	defer sess.EventMu.Unlock()
	sess.Events = append(sess.Events, *e)
	sess.UpdatedAt = time.Now()
	return nil
}

// Close closes the service.
func (s *SessionService) Close() error {
	return nil
}
