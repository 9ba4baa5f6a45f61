package agent

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvocation(cfg RunConfig) *Invocation {
	return NewInvocation(nil, WithInvocationRunConfig(cfg))
}

func TestIncrementToolIterations_EnforcesLimit(t *testing.T) {
	inv := newTestInvocation(RunConfig{MaxToolIterations: 3})

	require.NoError(t, inv.IncrementToolIterations())
	require.NoError(t, inv.IncrementToolIterations())
	require.NoError(t, inv.IncrementToolIterations())

	err := inv.IncrementToolIterations()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3")

	var limitErr *MaxToolIterationsExceededError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 3, limitErr.Limit)
}

func TestResetToolIterations_RestoresBudget(t *testing.T) {
	inv := newTestInvocation(RunConfig{MaxToolIterations: 2})

	require.NoError(t, inv.IncrementToolIterations())
	require.NoError(t, inv.IncrementToolIterations())

	inv.ResetToolIterations()

	require.NoError(t, inv.IncrementToolIterations())
	require.NoError(t, inv.IncrementToolIterations())
	require.Error(t, inv.IncrementToolIterations())
}

func TestIncrementToolIterations_ZeroDisablesEnforcement(t *testing.T) {
	inv := newTestInvocation(RunConfig{MaxToolIterations: 0})

	for i := 0; i < 100; i++ {
		require.NoError(t, inv.IncrementToolIterations())
	}
	assert.Equal(t, 100, inv.ToolIterations())
}

func TestNewRunConfig_Defaults(t *testing.T) {
	cfg := NewRunConfig()
	assert.Equal(t, DefaultMaxToolIterations, cfg.MaxToolIterations)
	assert.Equal(t, 50, cfg.MaxToolIterations)
	assert.Equal(t, DedupeScopeStep, cfg.DedupeScope)
}

func TestExecuteToolOnce_DedupesIdenticalCalls(t *testing.T) {
	inv := newTestInvocation(RunConfig{
		MaxToolIterations: 50,
		DedupeToolCalls:   true,
	})

	callCount := 0
	execute := func() (any, error) {
		callCount++
		require.NoError(t, inv.IncrementToolIterations())
		return map[string]int{"result": callCount}, nil
	}

	first, err := inv.ExecuteToolOnce("tool:{\"x\":1}", execute)
	require.NoError(t, err)
	second, err := inv.ExecuteToolOnce("tool:{\"x\":1}", execute)
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inv.ToolIterations(), "cache hits must not be charged")
}

func TestExecuteToolOnce_DifferentArgumentsExecuteIndependently(t *testing.T) {
	inv := newTestInvocation(RunConfig{
		MaxToolIterations: 50,
		DedupeToolCalls:   true,
	})

	callCount := 0
	execute := func() (any, error) {
		callCount++
		return callCount, nil
	}

	_, err := inv.ExecuteToolOnce("tool:{\"x\":1}", execute)
	require.NoError(t, err)
	_, err = inv.ExecuteToolOnce("tool:{\"x\":2}", execute)
	require.NoError(t, err)

	assert.Equal(t, 2, callCount)
}

func TestExecuteToolOnce_FailureIsNotCached(t *testing.T) {
	inv := newTestInvocation(RunConfig{
		MaxToolIterations: 50,
		DedupeToolCalls:   true,
	})

	callCount := 0
	execute := func() (any, error) {
		callCount++
		if callCount == 1 {
			return nil, fmt.Errorf("transient failure")
		}
		return "ok", nil
	}

	_, err := inv.ExecuteToolOnce("tool", execute)
	require.Error(t, err)

	result, err := inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, callCount)
}

func TestExecuteToolOnce_ConcurrentIdenticalCallsExecuteOnce(t *testing.T) {
	inv := newTestInvocation(RunConfig{
		MaxToolIterations: 50,
		DedupeToolCalls:   true,
	})

	var mu sync.Mutex
	callCount := 0
	block := make(chan struct{})
	execute := func() (any, error) {
		mu.Lock()
		callCount++
		mu.Unlock()
		<-block
		return "shared", nil
	}

	const producers = 8
	results := make([]any, producers)
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := inv.ExecuteToolOnce("tool", execute)
			assert.NoError(t, err)
			results[i] = result
		}()
	}
	close(block)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, callCount)
	for _, result := range results {
		assert.Equal(t, "shared", result)
	}
}

func TestExecuteToolOnce_DisabledRunsEveryCall(t *testing.T) {
	inv := newTestInvocation(RunConfig{MaxToolIterations: 50})

	callCount := 0
	execute := func() (any, error) {
		callCount++
		return callCount, nil
	}

	_, err := inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)
	_, err = inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)
	assert.Equal(t, 2, callCount)
}

func TestResetToolCallStep_ClearsStepScope(t *testing.T) {
	inv := newTestInvocation(RunConfig{
		MaxToolIterations: 50,
		DedupeToolCalls:   true,
		DedupeScope:       DedupeScopeStep,
	})

	callCount := 0
	execute := func() (any, error) {
		callCount++
		return callCount, nil
	}

	_, err := inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)
	inv.ResetToolCallStep()
	_, err = inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)

	assert.Equal(t, 2, callCount)
}

func TestResetToolCallStep_InvocationScopeSurvivesSteps(t *testing.T) {
	inv := newTestInvocation(RunConfig{
		MaxToolIterations: 50,
		DedupeToolCalls:   true,
		DedupeScope:       DedupeScopeInvocation,
	})

	callCount := 0
	execute := func() (any, error) {
		callCount++
		return callCount, nil
	}

	_, err := inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)
	inv.ResetToolCallStep()
	_, err = inv.ExecuteToolOnce("tool", execute)
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
}

func TestCallSignature_ArgumentOrderIndependent(t *testing.T) {
	a := CallSignature("search", []byte(`{"query":"go","limit":10}`))
	b := CallSignature("search", []byte(`{"limit":10,"query":"go"}`))
	assert.Equal(t, a, b)

	c := CallSignature("search", []byte(`{"query":"rust","limit":10}`))
	assert.NotEqual(t, a, c)
}

func TestCallSignature_DistinguishesTools(t *testing.T) {
	a := CallSignature("alpha", []byte(`{"x":1}`))
	b := CallSignature("beta", []byte(`{"x":1}`))
	assert.NotEqual(t, a, b)

	assert.Equal(t, "alpha", CallSignature("alpha", nil))
}
