package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"quorum/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) (*Notifier, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb), rdb
}

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishSolutionMarked(context.Background(), &models.Comment{ID: 1, UserID: 2}))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestPublishSolutionMarked_PayloadAndChannel(t *testing.T) {
	n, rdb := newTestNotifier(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "notifications:user:7")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	comment := &models.Comment{ID: 31, UserID: 7, PostID: 11}
	require.NoError(t, n.PublishSolutionMarked(ctx, comment))

	select {
	case raw := <-sub.Channel():
		var msg Message
		require.NoError(t, json.Unmarshal([]byte(raw.Payload), &msg))
		assert.Equal(t, "solution_marked", msg.Kind)
		assert.Equal(t, uint(7), msg.UserID)
		assert.Equal(t, uint(11), msg.PostID)
		assert.Equal(t, uint(31), msg.CommentID)
		assert.NotEmpty(t, msg.ID)
		assert.NotEmpty(t, msg.Body)
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}
}

func TestStartPatternSubscriber_ReceivesAllUserChannels(t *testing.T) {
	n, _ := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	channels := make(chan string, 4)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel string, _ string) {
		atomic.AddInt32(&received, 1)
		channels <- channel
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "a"))
	require.NoError(t, n.PublishUser(context.Background(), 2, "b"))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestStartPatternSubscriber_StopsOnCancel(t *testing.T) {
	n, _ := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	payloads := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		payloads <- payload
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "before-cancel"))
	select {
	case <-payloads:
	case <-time.After(time.Second):
		t.Fatal("subscriber never delivered")
	}

	cancel()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.PublishUser(context.Background(), 1, "after-cancel"))
	assert.Never(t, func() bool {
		select {
		case payload := <-payloads:
			return payload == "after-cancel"
		default:
			return false
		}
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestStartPatternSubscriber_SurvivesHandlerPanic(t *testing.T) {
	n, _ := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	require.NoError(t, n.StartPatternSubscriber(ctx, func(string, string) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("handler blew up")
		}
	}))

	require.NoError(t, n.PublishUser(context.Background(), 1, "first"))
	require.NoError(t, n.PublishUser(context.Background(), 1, "second"))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 10*time.Millisecond)
}
