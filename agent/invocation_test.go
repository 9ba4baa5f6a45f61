package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore-ai/flowcore/session"
)

func TestNewInvocation_Defaults(t *testing.T) {
	inv := NewInvocation(nil)

	assert.NotEmpty(t, inv.InvocationID)
	assert.Equal(t, DefaultMaxToolIterations, inv.RunConfig.MaxToolIterations)
	assert.Equal(t, DedupeScopeStep, inv.RunConfig.DedupeScope)
}

func TestCreateSubInvocation_SharesGuardAndSession(t *testing.T) {
	sess := &session.Session{ID: "s1", State: session.StateMap{}}
	inv := NewInvocation(nil,
		WithInvocationSession(sess),
		WithInvocationRunConfig(RunConfig{MaxToolIterations: 2}),
	)

	sub := inv.CreateSubInvocation(&fakeAgent{name: "child"})

	assert.Equal(t, inv.InvocationID, sub.InvocationID)
	assert.Same(t, inv.Session, sub.Session)
	assert.Equal(t, "child", sub.AgentName)

	// The iteration budget spans the whole run.
	require.NoError(t, sub.IncrementToolIterations())
	require.NoError(t, inv.IncrementToolIterations())
	require.Error(t, sub.IncrementToolIterations())
}

func TestInvocationContext_RoundTrip(t *testing.T) {
	inv := NewInvocation(nil)
	ctx := NewInvocationContext(context.Background(), inv)

	got, ok := InvocationFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, inv, got)

	_, ok = InvocationFromContext(context.Background())
	assert.False(t, ok)
}

func TestAgentState_SaveAndLoad(t *testing.T) {
	sess := &session.Session{ID: "s1", State: session.StateMap{}}
	inv := NewInvocation(nil, WithInvocationSession(sess))

	type routerState struct {
		Chosen string `json:"chosen"`
	}

	delta, err := inv.SaveAgentState("router", routerState{Chosen: "left"})
	require.NoError(t, err)
	require.Contains(t, delta, StateKey("router"))

	var loaded routerState
	found, err := inv.LoadAgentState("router", &loaded)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "left", loaded.Chosen)
}

func TestAgentState_LoadMissing(t *testing.T) {
	sess := &session.Session{ID: "s1", State: session.StateMap{}}
	inv := NewInvocation(nil, WithInvocationSession(sess))

	var state struct{}
	found, err := inv.LoadAgentState("missing", &state)
	require.NoError(t, err)
	assert.False(t, found)
}
