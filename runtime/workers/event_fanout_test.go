package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wachat/contract"
	"wachat/domain"
	"wachat/domain/event"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fixedRegistry struct {
	sinks map[domain.RoomID][]contract.EventSink
}

func (r fixedRegistry) GetSinksForRoom(roomID domain.RoomID) []contract.EventSink {
	return r.sinks[roomID]
}
func (r fixedRegistry) Subscribe(_ string, _ domain.RoomID, _ contract.EventSink) {}
func (r fixedRegistry) Unsubscribe(_ string, _ domain.RoomID)                     {}

func TestEventFanout_RoomScopedReachesRoomAndPermanentSinks(t *testing.T) {
	req := require.New(t)
	roomID := domain.RoomID("room-1")
	roomSink := &recordingSink{}
	permanentSink := &recordingSink{}
	registry := fixedRegistry{sinks: map[domain.RoomID][]contract.EventSink{roomID: {roomSink}}}

	worker := NewEventFanout(
		testLogger(), registry,
		make(chan event.DomainEvent, 1), make(chan event.DomainEvent, 1),
		[]contract.EventSink{permanentSink}, time.Second,
	)

	worker.Fanout(context.Background(), event.NewMessage{ChatUpdate: event.ChatUpdate{RoomID: roomID, Content: "hello"}})

	req.Equal(1, roomSink.count())
	req.Equal(1, permanentSink.count())
}

func TestEventFanout_BroadcastSkipsRoomSinks(t *testing.T) {
	req := require.New(t)
	roomSink := &recordingSink{}
	permanentSink := &recordingSink{}
	registry := fixedRegistry{sinks: map[domain.RoomID][]contract.EventSink{"room-1": {roomSink}}}

	worker := NewEventFanout(
		testLogger(), registry,
		make(chan event.DomainEvent, 1), make(chan event.DomainEvent, 1),
		[]contract.EventSink{permanentSink}, time.Second,
	)

	worker.Fanout(context.Background(), event.CrmLinked{ReferenceKind: "Lead", ReferenceID: "1"})

	req.Equal(0, roomSink.count())
	req.Equal(1, permanentSink.count())
}

func TestEventFanout_DrainsChannelUntilContextDone(t *testing.T) {
	req := require.New(t)
	permanentSink := &recordingSink{}
	events := make(chan event.DomainEvent, 4)
	worker := NewEventFanout(
		testLogger(), fixedRegistry{},
		events, make(chan event.DomainEvent, 4),
		[]contract.EventSink{permanentSink}, time.Second,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	events <- event.LatestChatUpdate{ChatUpdate: event.ChatUpdate{Content: "one"}}
	events <- event.LatestChatUpdate{ChatUpdate: event.ChatUpdate{Content: "two"}}

	req.Eventually(func() bool { return permanentSink.count() == 2 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Fanout did not stop on context cancellation")
	}
}

type blockingSink struct{}

func (blockingSink) Consume(ctx context.Context, _ event.DomainEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestEventFanout_SlowSinkIsCutOffByTimeout(t *testing.T) {
	req := require.New(t)
	permanentSink := &recordingSink{}
	worker := NewEventFanout(
		testLogger(), fixedRegistry{},
		make(chan event.DomainEvent, 1), make(chan event.DomainEvent, 1),
		[]contract.EventSink{blockingSink{}, permanentSink}, 20*time.Millisecond,
	)

	start := time.Now()
	worker.Fanout(context.Background(), event.LatestChatUpdate{})

	// The blocking sink was abandoned at the timeout, the next one still served.
	req.Less(time.Since(start), time.Second)
	req.Equal(1, permanentSink.count())
}
