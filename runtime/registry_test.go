package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"wachat/domain"
	"wachat/domain/event"
)

type nopSink struct{}

func (nopSink) Consume(_ context.Context, _ event.DomainEvent) error { return nil }

func TestRegistry_SubscribeAndResolve(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("room-1")

	req.Nil(registry.GetSinksForRoom(roomID))

	registry.Subscribe("alice", roomID, nopSink{})
	registry.Subscribe("bob", roomID, nopSink{})
	req.Len(registry.GetSinksForRoom(roomID), 2)

	// A participant in two rooms keeps one session.
	registry.Subscribe("alice", domain.RoomID("room-2"), nopSink{})
	req.Len(registry.GetSinksForRoom(roomID), 2)
}

func TestRegistry_UnsubscribePrunesEmptyRooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("room-1")

	registry.Subscribe("alice", roomID, nopSink{})
	registry.Unsubscribe("alice", roomID)

	req.Nil(registry.GetSinksForRoom(roomID))
	req.Empty(registry.roomMembers)
	req.Empty(registry.sessions)
}
