//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package live

import (
	"context"

	"sync"

	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/session"
)

// Queue is an unbounded first-in-first-out queue of live requests with one
// logical consumer per invocation. Producers may send concurrently without
// external locking; per-producer send order is preserved. Each invocation
// owns its own queue value; there is no process-wide queue state.
type Queue struct {
	mu       sync.Mutex
	requests []*Request

	// wake is signaled whenever a request is enqueued. Capacity 1 is enough
	// for a single consumer: Receive re-checks the slice after each wake.
	wake chan struct{}
}

// NewQueue creates a new live request queue.
func NewQueue() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Send validates the request and enqueues it. It never blocks; a well-formed
// request always succeeds.
func (q *Queue) Send(req *Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	q.mu.Lock()
	q.requests = append(q.requests, req)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// SendContent enqueues a structured message for turn-by-turn processing.
func (q *Queue) SendContent(content model.Message) error {
	return q.Send(&Request{Content: &content})
}

// SendRealtime enqueues a raw binary payload for realtime processing.
func (q *Queue) SendRealtime(blob model.Blob) error {
	return q.Send(&Request{Blob: &blob})
}

// SendActivityStart signals the beginning of user activity.
func (q *Queue) SendActivityStart() error {
	return q.Send(&Request{ActivityStart: true})
}

// SendActivityEnd signals the end of user activity.
func (q *Queue) SendActivityEnd() error {
	return q.Send(&Request{ActivityEnd: true})
}

// SendStateDelta enqueues a state delta to merge into the session state.
func (q *Queue) SendStateDelta(delta session.StateMap) error {
	return q.Send(&Request{StateDelta: delta})
}

// Close enqueues a close request rather than tearing down the queue, so a
// consumer blocked in Receive is woken with a well-formed terminal signal
// instead of an abrupt channel-closed fault.
func (q *Queue) Close() {
	// A close request always validates.
	_ = q.Send(&Request{Close: true})
}

// Receive suspends the consumer until a request is available and returns
// exactly one request in FIFO order. It returns the context error if ctx is
// done before a request arrives.
func (q *Queue) Receive(ctx context.Context) (*Request, error) {
	for {
		q.mu.Lock()
		if len(q.requests) > 0 {
			req := q.requests[0]
			q.requests = q.requests[1:]
			q.mu.Unlock()
			return req, nil
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}
