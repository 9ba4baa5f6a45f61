//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package runner

import "fmt"

// UnsupportedLiveError is returned by RunLive when the root agent does not
// implement agent.LiveRunner.
type UnsupportedLiveError struct {
	// AgentName is the name of the root agent.
	AgentName string
}

// Error implements the error interface.
func (e *UnsupportedLiveError) Error() string {
	return fmt.Sprintf("agent %s does not support live mode", e.AgentName)
}
