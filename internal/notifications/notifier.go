// Package notifications provides fire-and-forget notification delivery over
// Redis pub/sub. Delivery (mail, chat bridge, web push) is a separate
// consumer's concern. Publishing failures are reported to the caller, who is
// expected to log and move on; notifications never gate a business write.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"quorum/internal/models"
	"quorum/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// Message is the payload published for a user notification.
type Message struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	UserID    uint      `json:"user_id"`
	PostID    uint      `json:"post_id,omitempty"`
	CommentID uint      `json:"comment_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n.rdb == nil {
		return nil
	}
	ctx, span := observability.GetTraceLayer().TraceRedisOperation(ctx, "publish")
	defer span.End()

	channel := fmt.Sprintf("notifications:user:%d", userID)
	return n.rdb.Publish(ctx, channel, payload).Err()
}

// PublishSolutionMarked notifies a comment's author that their comment was
// accepted as the solution.
func (n *Notifier) PublishSolutionMarked(ctx context.Context, comment *models.Comment) error {
	msg := Message{
		ID:        uuid.NewString(),
		Kind:      "solution_marked",
		UserID:    comment.UserID,
		PostID:    comment.PostID,
		CommentID: comment.ID,
		Body:      "Your comment was marked as the solution",
		CreatedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.PublishUser(ctx, comment.UserID, string(payload))
}

// StartPatternSubscriber subscribes to pattern `notifications:user:*` and calls
// onMessage for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in PatternSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
