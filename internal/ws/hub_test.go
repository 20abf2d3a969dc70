package ws

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(zap.NewNop())

	for i := 0; i < broadcastBuffer+10; i++ {
		hub.Publish("admin_status_changed", []byte(`{}`))
	}
	assert.Equal(t, broadcastBuffer, len(hub.Broadcast))
}

func TestRunDrainsQueueAndStops(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	hub.Publish("security_policy_updated", []byte(`{"version":2}`))
	assert.Eventually(t, func() bool { return len(hub.Broadcast) == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestShutdownReleasesDepartingClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	// With Run gone nobody drains Unregister; a departing client must not hang.
	left := make(chan struct{})
	go func() {
		hub.leave(nil)
		assert.False(t, hub.join(nil))
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("departing client blocked after shutdown")
	}
}

func TestUpgradeRequired(t *testing.T) {
	hub := NewHub(nil)
	app := fiber.New()
	app.Use("/ws", hub.Upgrade())
	app.Get("/ws", hub.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
