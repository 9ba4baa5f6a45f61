//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package agent

import (
	"encoding/json"
	"fmt"

	"github.com/flowcore-ai/flowcore/session"
)

// StateKeyPrefix prefixes session state keys that hold persisted per-agent
// state for resumption.
const StateKeyPrefix = "agentstate:"

// StateKey returns the session state key holding the persisted state of the
// named agent.
func StateKey(agentName string) string {
	return StateKeyPrefix + agentName
}

// LoadAgentState reads the persisted state for the named agent from the
// invocation's session into v. It returns false if no state has been saved.
func (inv *Invocation) LoadAgentState(agentName string, v any) (bool, error) {
	if inv.Session == nil {
		return false, nil
	}
	raw, ok := inv.Session.GetState(StateKey(agentName))
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode state for agent %s: %w", agentName, err)
	}
	return true, nil
}

// SaveAgentState persists v as the state of the named agent, applying it to
// the session immediately and returning the delta so callers can surface it
// on a checkpoint event.
func (inv *Invocation) SaveAgentState(agentName string, v any) (session.StateMap, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state for agent %s: %w", agentName, err)
	}
	delta := session.StateMap{StateKey(agentName): raw}
	if inv.Session != nil {
		inv.Session.ApplyStateDelta(delta)
	}
	return delta, nil
}
