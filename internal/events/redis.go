package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"sitevis/internal/editor"
)

const (
	projectChannelPrefix = "project:"
	userChannelPrefix    = "user:"
)

// Event names carried in Message.Event.
const (
	EditStarted   = "edit_started"
	EditCompleted = "edit_completed"
	EditFailed    = "edit_failed"
)

// Message is the JSON envelope published on every channel.
type Message struct {
	Event   string             `json:"event"`
	Payload editor.StatusEvent `json:"payload"`
}

func ProjectChannel(id uuid.UUID) string { return projectChannelPrefix + id.String() }

func UserChannel(userID string) string { return userChannelPrefix + userID }

// RedisPublisher fans status events out over redis pub/sub, on the
// project's channel and on its owner's channel.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (p *RedisPublisher) PublishStatus(ctx context.Context, event editor.StatusEvent) error {
	data, err := json.Marshal(Message{Event: eventName(event.Status), Payload: event})
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Publish(ctx, ProjectChannel(event.SessionID), data)
	if event.OwnerID != "" {
		pipe.Publish(ctx, UserChannel(event.OwnerID), data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish status event: %w", err)
	}
	return nil
}

// Subscribe streams the messages of one project until ctx is done.
func (p *RedisPublisher) Subscribe(ctx context.Context, projectID uuid.UUID) (<-chan Message, error) {
	sub := p.client.Subscribe(ctx, ProjectChannel(projectID))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func eventName(s editor.Status) string {
	switch s.State {
	case editor.StatePending:
		return EditStarted
	case editor.StateFailed:
		return EditFailed
	default:
		return EditCompleted
	}
}
