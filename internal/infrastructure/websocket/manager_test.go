package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerDeliversToEveryConnectionOfUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)

	first := NewClient("buyer-1", nil)
	second := NewClient("buyer-1", nil)
	other := NewClient("buyer-2", nil)
	m.Register <- first
	m.Register <- second
	m.Register <- other

	require.Eventually(t, func() bool { return m.ConnectionCount("buyer-1") == 2 }, time.Second, 10*time.Millisecond)

	m.Notify("buyer-1", EventOrderStatus, map[string]string{"id": "o-1", "status": "completed"})

	for _, c := range []*Client{first, second} {
		select {
		case raw := <-c.Send:
			var msg struct {
				Type  string            `json:"type"`
				Order map[string]string `json:"order"`
			}
			require.NoError(t, json.Unmarshal(raw, &msg))
			assert.Equal(t, EventOrderStatus, msg.Type)
			assert.Equal(t, "o-1", msg.Order["id"])
		case <-time.After(time.Second):
			t.Fatal("no message delivered")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("message leaked to another user")
	default:
	}
}

func TestManagerUnregisterClosesSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager()
	m.Start(ctx)

	c := NewClient("u", nil)
	m.Register <- c
	m.Unregister <- c

	require.Eventually(t, func() bool { return m.ConnectionCount("u") == 0 }, time.Second, 10*time.Millisecond)
	_, ok := <-c.Send
	assert.False(t, ok)
	assert.Equal(t, 0, m.SendToUser("u", []byte("x")))
}

func TestManagerReleasesCallersAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	m := NewManager()
	m.Start(ctx)

	c := NewClient("u", nil)
	require.True(t, m.Add(c))
	require.Eventually(t, func() bool { return m.ConnectionCount("u") == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	_, ok := <-c.Send
	assert.False(t, ok)

	released := make(chan struct{})
	go func() {
		m.Drop(c)
		assert.False(t, m.Add(NewClient("late", nil)))
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Drop or Add blocked after shutdown")
	}
}
