package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sitevis/internal/editor"
	"sitevis/internal/events"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client, mr
}

func TestRedisPublisher_PublishesOnProjectAndUserChannels(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()
	id := uuid.New()

	projectSub := client.Subscribe(ctx, events.ProjectChannel(id))
	defer projectSub.Close()
	_, err := projectSub.Receive(ctx)
	require.NoError(t, err)
	userSub := client.Subscribe(ctx, events.UserChannel("user-1"))
	defer userSub.Close()
	_, err = userSub.Receive(ctx)
	require.NoError(t, err)

	pub := events.NewRedisPublisher(client)
	require.NoError(t, pub.PublishStatus(ctx, editor.StatusEvent{
		SessionID:      id,
		OwnerID:        "user-1",
		Intent:         editor.IntentPreset,
		Status:         editor.Status{State: editor.StateFailed, Error: editor.MsgEditFailed},
		CurrentVersion: 2,
		HistoryLength:  3,
	}))

	for _, sub := range []*redis.PubSub{projectSub, userSub} {
		select {
		case msg := <-sub.Channel():
			var m events.Message
			require.NoError(t, json.Unmarshal([]byte(msg.Payload), &m))
			assert.Equal(t, events.EditFailed, m.Event)
			assert.Equal(t, id, m.Payload.SessionID)
			assert.Equal(t, 2, m.Payload.CurrentVersion)
			assert.Equal(t, editor.MsgEditFailed, m.Payload.Status.Error)
		case <-time.After(2 * time.Second):
			t.Fatal("no message received")
		}
	}
}

func TestRedisPublisher_Subscribe(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	id := uuid.New()

	pub := events.NewRedisPublisher(client)
	stream, err := pub.Subscribe(ctx, id)
	require.NoError(t, err)

	require.NoError(t, pub.PublishStatus(ctx, editor.StatusEvent{
		SessionID: id,
		Status:    editor.Status{State: editor.StatePending, Message: "Generating"},
	}))

	select {
	case m := <-stream:
		assert.Equal(t, events.EditStarted, m.Event)
		assert.Equal(t, "Generating", m.Payload.Status.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	for range stream {
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := events.Connect(context.Background(), "not a url")
	assert.Error(t, err)

	_, mr := setupTestRedis(t)
	client, err := events.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	client.Close()
}
