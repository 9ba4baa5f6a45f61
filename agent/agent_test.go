package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore-ai/flowcore/event"
	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/tool"
)

// fakeAgent is a minimal Agent used by tests in this package.
type fakeAgent struct {
	name string
}

func (a *fakeAgent) Run(ctx context.Context, invocation *Invocation) (<-chan *event.Event, error) {
	ch := make(chan *event.Event)
	close(ch)
	return ch, nil
}

func (a *fakeAgent) Tools() []tool.Tool             { return nil }
func (a *fakeAgent) Info() Info                     { return Info{Name: a.name} }
func (a *fakeAgent) SubAgents() []Agent             { return nil }
func (a *fakeAgent) FindSubAgent(name string) Agent { return nil }

func TestCallbacks_BeforeAgentCustomResponse(t *testing.T) {
	callbacks := NewCallbacks()
	callbacks.RegisterBeforeAgent(func(ctx context.Context, inv *Invocation) (*model.Response, error) {
		return nil, nil
	})
	custom := &model.Response{Object: model.ObjectTypeChatCompletion}
	callbacks.RegisterBeforeAgent(func(ctx context.Context, inv *Invocation) (*model.Response, error) {
		return custom, nil
	})

	rsp, err := callbacks.RunBeforeAgent(context.Background(), NewInvocation(nil))
	require.NoError(t, err)
	assert.Same(t, custom, rsp)
}

func TestCallbacks_BeforeAgentError(t *testing.T) {
	callbacks := NewCallbacks()
	callbacks.RegisterBeforeAgent(func(ctx context.Context, inv *Invocation) (*model.Response, error) {
		return nil, errors.New("denied")
	})

	_, err := callbacks.RunBeforeAgent(context.Background(), NewInvocation(nil))
	require.Error(t, err)
}

func TestCallbacks_AfterAgent(t *testing.T) {
	callbacks := NewCallbacks()
	var sawErr error
	callbacks.RegisterAfterAgent(func(ctx context.Context, inv *Invocation, runErr error) (*model.Response, error) {
		sawErr = runErr
		return nil, nil
	})

	runErr := errors.New("run failed")
	rsp, err := callbacks.RunAfterAgent(context.Background(), NewInvocation(nil), runErr)
	require.NoError(t, err)
	assert.Nil(t, rsp)
	assert.Equal(t, runErr, sawErr)
}
