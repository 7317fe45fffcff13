package workers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wachat/domain/event"
)

func TestTelemetryWorker_DrainsChannelAndCountsPerStream(t *testing.T) {
	req := require.New(t)
	events := make(chan event.DomainEvent, 4)
	worker := NewTelemetryWorker(testLogger(), time.Hour, events)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	events <- event.NewMessage{ChatUpdate: event.ChatUpdate{RoomID: "room-1"}}
	events <- event.NewMessage{ChatUpdate: event.ChatUpdate{RoomID: "room-2"}}
	events <- event.LatestChatUpdate{ChatUpdate: event.ChatUpdate{Content: "hi"}}

	req.Eventually(func() bool {
		counters := worker.Counters()
		return counters["NewMessage"] == 2 && counters[event.LatestChatUpdateStream] == 1
	}, time.Second, 10*time.Millisecond)

	// Every forwarded event was consumed, the channel never fills up.
	req.Empty(events)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Telemetry worker did not stop on context cancellation")
	}
}
