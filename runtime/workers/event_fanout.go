package workers

import (
	"context"
	"log/slog"
	"time"

	"wachat/contract"
	"wachat/domain/event"
)

// EventFanout drains the committed-event channel and delivers each
// event to its audience: room-scoped events go to the room's current
// subscribers plus the permanent sinks, broadcast events to the
// permanent sinks only.
//
// Delivery is best-effort with no guarantees regarding retries or
// durability. EventFanout is not a message broker: a slow sink is cut
// off by the per-delivery timeout and a failing sink only gets logged.
// Events of one room leave the channel in commit order.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	events         chan event.DomainEvent
	telemetryEvent chan event.DomainEvent
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(
	log *slog.Logger,
	registry contract.IRegistry,
	events, telemetryEvent chan event.DomainEvent,
	permanentSinks []contract.EventSink,
	sinkTimeout time.Duration,
) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		events:         events,
		telemetryEvent: telemetryEvent,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
			select {
			case w.telemetryEvent <- evt:
			default:
				w.log.Debug("Telemetry event lost")
			}
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout delivers one event to every sink of its audience.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := w.permanentSinks
	if scoped, ok := evt.(event.RoomScoped); ok {
		sinks = append(w.registry.GetSinksForRoom(scoped.TargetRoom()), sinks...)
	}
	for _, sink := range sinks {
		w.deliver(ctx, sink, evt)
	}
}

func (w *EventFanout) deliver(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	deliveryCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(deliveryCtx, evt); err != nil {
		w.log.Warn("Sink delivery failed", "stream", evt.Stream(), "error", err)
	}
}
