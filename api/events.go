package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"wachat/domain"
	"wachat/domain/event"
)

// sseSink bridges the fanout pipeline to one SSE connection. Consume
// never blocks: events beyond the buffer are dropped for that client.
type sseSink struct {
	events chan event.DomainEvent
}

func newSSESink(buffer int) *sseSink {
	return &sseSink{events: make(chan event.DomainEvent, buffer)}
}

func (s *sseSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

const sseBuffer = 16

// handleRoomEvents streams the room's realtime events as server-sent
// events until the client disconnects.
func (s *Server) handleRoomEvents(w http.ResponseWriter, r *http.Request) {
	roomUUID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	roomID := domain.RoomID(roomUUID.String())
	participantID := uuid.New().String()
	sink := newSSESink(sseBuffer)
	s.orchestrator.RegisterParticipant(participantID, roomID, sink)
	defer s.orchestrator.UnregisterParticipant(participantID, roomID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-sink.events:
			payload, err := json.Marshal(evt)
			if err != nil {
				s.log.Warn("Failed to encode event", "stream", evt.Stream(), "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Stream(), payload)
			flusher.Flush()
		}
	}
}
