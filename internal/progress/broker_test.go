package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	n    int
	last bool
}

func isLast(e event) bool { return e.last }

func drain(ch <-chan event) []event {
	var out []event
	for e := range ch {
		out = append(out, e)
	}
	return out
}

func TestBroker_DeliversInOrderAndCloses(t *testing.T) {
	b := New(isLast)
	b.Open("job")

	ch, _, err := b.Subscribe("job")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		assert.True(t, b.Publish("job", event{n: i}))
	}
	b.Publish("job", event{n: 6, last: true})

	got := drain(ch)
	require.Len(t, got, 6)
	for i, e := range got {
		assert.Equal(t, i+1, e.n)
	}
	assert.Equal(t, 0, b.Subscribers("job"))
}

func TestBroker_NoReplayBeforeSubscribe(t *testing.T) {
	b := New(isLast)
	b.Open("job")

	b.Publish("job", event{n: 1})
	ch, _, err := b.Subscribe("job")
	require.NoError(t, err)
	b.Publish("job", event{n: 2, last: true})

	got := drain(ch)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].n)
}

func TestBroker_FinishedTopicYieldsTerminalEvent(t *testing.T) {
	b := New(isLast, WithLinger(time.Hour))
	b.Open("job")
	b.Publish("job", event{n: 1})
	b.Publish("job", event{n: 2, last: true})

	ch, cancel, err := b.Subscribe("job")
	require.NoError(t, err)
	defer cancel()

	got := drain(ch)
	require.Len(t, got, 1)
	assert.True(t, got[0].last)

	// Events after the terminal one are ignored.
	b.Publish("job", event{n: 3})
	ch, _, _ = b.Subscribe("job")
	assert.Equal(t, 2, drain(ch)[0].n)
}

func TestBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := New(isLast, WithBuffer(2))
	b.Open("job")

	ch, _, err := b.Subscribe("job")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("job", event{n: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Len(t, ch, 2)
}

func TestBroker_UnknownTopic(t *testing.T) {
	b := New(isLast)
	_, _, err := b.Subscribe("missing")
	assert.ErrorIs(t, err, ErrUnknownTopic)
	assert.False(t, b.Publish("missing", event{}))
}

func TestBroker_CancelSubscription(t *testing.T) {
	b := New(isLast)
	b.Open("job")

	ch, cancel, err := b.Subscribe("job")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Subscribers("job"))

	cancel()
	cancel() // idempotent
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.Subscribers("job"))

	// Publishing after cancel must not panic on a closed channel.
	b.Publish("job", event{n: 1, last: true})
}

func TestBroker_TopicRemovedAfterLinger(t *testing.T) {
	b := New(isLast, WithLinger(10*time.Millisecond))
	b.Open("job")
	b.Publish("job", event{last: true})

	require.Eventually(t, func() bool { return b.Topics() == 0 }, time.Second, 5*time.Millisecond)
	_, _, err := b.Subscribe("job")
	assert.ErrorIs(t, err, ErrUnknownTopic)
}

func TestBroker_ReopenAfterFinish(t *testing.T) {
	b := New(isLast, WithLinger(20*time.Millisecond))
	b.Open("job")
	b.Publish("job", event{n: 1, last: true})

	b.Open("job")
	ch, _, err := b.Subscribe("job")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, b.Topics(), "reopened topic survives the old removal timer")

	b.Publish("job", event{n: 2, last: true})
	got := drain(ch)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].n)
}

func TestBroker_Close(t *testing.T) {
	b := New(isLast)
	b.Open("job")
	ch, _, err := b.Subscribe("job")
	require.NoError(t, err)

	b.Close("job")
	assert.Empty(t, drain(ch))
	assert.Equal(t, 0, b.Topics())
}

func TestBroker_ConcurrentSubscribers(t *testing.T) {
	b := New(isLast)
	b.Open("job")

	const subs = 8
	var wg sync.WaitGroup
	results := make([][]event, subs)
	ready := make(chan struct{}, subs)

	for i := 0; i < subs; i++ {
		ch, _, err := b.Subscribe("job")
		require.NoError(t, err)
		wg.Add(1)
		go func(i int, ch <-chan event) {
			defer wg.Done()
			ready <- struct{}{}
			results[i] = drain(ch)
		}(i, ch)
	}
	for i := 0; i < subs; i++ {
		<-ready
	}

	for i := 0; i < 10; i++ {
		b.Publish("job", event{n: i})
	}
	b.Publish("job", event{n: 10, last: true})
	wg.Wait()

	for i := range results {
		assert.Len(t, results[i], 11)
	}
}
