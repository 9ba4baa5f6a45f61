package live

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcore-ai/flowcore/model"
	"github.com/flowcore-ai/flowcore/session"
)

func TestQueue_FIFOOrder(t *testing.T) {
	queue := NewQueue()

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, queue.SendContent(model.NewUserMessage(fmt.Sprintf("msg-%d", i))))
	}

	ctx := context.Background()
	for i := 0; i < n; i++ {
		req, err := queue.Receive(ctx)
		require.NoError(t, err)
		require.NotNil(t, req.Content)
		assert.Equal(t, fmt.Sprintf("msg-%d", i), req.Content.Content)
	}
	assert.Equal(t, 0, queue.Len())
}

func TestQueue_SendRejectsMalformedRequest(t *testing.T) {
	queue := NewQueue()

	err := queue.Send(&Request{})
	assert.ErrorIs(t, err, ErrEmptyRequest)

	content := model.NewUserMessage("hi")
	err = queue.Send(&Request{Close: true, Content: &content})
	assert.ErrorIs(t, err, ErrCloseCombined)

	// Nothing malformed enters the queue.
	assert.Equal(t, 0, queue.Len())
}

func TestQueue_ReceiveBlocksUntilSend(t *testing.T) {
	queue := NewQueue()
	ctx := context.Background()

	received := make(chan *Request, 1)
	go func() {
		req, err := queue.Receive(ctx)
		if err == nil {
			received <- req
		}
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-received:
		t.Fatal("Receive returned before any request was sent")
	default:
	}

	require.NoError(t, queue.SendActivityStart())

	select {
	case req := <-received:
		assert.True(t, req.ActivityStart)
	case <-time.After(time.Second):
		t.Fatal("Receive did not wake after send")
	}
}

func TestQueue_CloseWakesBlockedConsumer(t *testing.T) {
	queue := NewQueue()
	ctx := context.Background()

	received := make(chan *Request, 1)
	go func() {
		req, err := queue.Receive(ctx)
		if err == nil {
			received <- req
		}
	}()

	queue.Close()

	select {
	case req := <-received:
		assert.True(t, req.Close)
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken by close")
	}
}

func TestQueue_ReceiveHonorsContext(t *testing.T) {
	queue := NewQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := queue.Receive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_ConcurrentProducersPreservePerProducerOrder(t *testing.T) {
	queue := NewQueue()

	const producers = 4
	const perProducer = 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				err := queue.SendContent(model.NewUserMessage(fmt.Sprintf("p%d-%d", p, i)))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	ctx := context.Background()
	lastSeen := make(map[string]int)
	for i := 0; i < producers*perProducer; i++ {
		req, err := queue.Receive(ctx)
		require.NoError(t, err)
		var producer string
		var seq int
		_, err = fmt.Sscanf(req.Content.Content, "p%1s-%d", &producer, &seq)
		require.NoError(t, err)
		if last, ok := lastSeen[producer]; ok {
			assert.Greater(t, seq, last, "order violated for producer %s", producer)
		}
		lastSeen[producer] = seq
	}
}

func TestQueue_ConvenienceProducers(t *testing.T) {
	queue := NewQueue()
	ctx := context.Background()

	require.NoError(t, queue.SendContent(model.NewUserMessage("hello")))
	require.NoError(t, queue.SendRealtime(model.Blob{MIMEType: "audio/pcm", Data: []byte{1}}))
	require.NoError(t, queue.SendActivityStart())
	require.NoError(t, queue.SendActivityEnd())
	require.NoError(t, queue.SendStateDelta(session.StateMap{"k": []byte(`"v"`)}))
	queue.Close()

	req, err := queue.Receive(ctx)
	require.NoError(t, err)
	assert.NotNil(t, req.Content)

	req, err = queue.Receive(ctx)
	require.NoError(t, err)
	assert.NotNil(t, req.Blob)

	req, err = queue.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, req.ActivityStart)

	req, err = queue.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, req.ActivityEnd)

	req, err = queue.Receive(ctx)
	require.NoError(t, err)
	assert.NotNil(t, req.StateDelta)

	req, err = queue.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, req.Close)
}
