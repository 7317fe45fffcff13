package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"wachat/domain/event"
)

// TelemetryWorker drains the telemetry copy of the event stream and
// aggregates per-stream counters, reported at a fixed interval. It is
// the sole consumer of the telemetry channel: without it the fanout's
// forwarded events would pile up unread.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	events   chan event.DomainEvent

	mu       sync.Mutex
	counters map[string]uint64
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, events chan event.DomainEvent) *TelemetryWorker {
	return &TelemetryWorker{
		log:      log,
		interval: interval,
		events:   events,
		counters: make(map[string]uint64),
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-w.events:
			w.record(evt)
		case <-ticker.C:
			w.report()
		}
	}
}

// Counters returns a snapshot of the per-stream totals.
func (w *TelemetryWorker) Counters() map[string]uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	snapshot := make(map[string]uint64, len(w.counters))
	for stream, count := range w.counters {
		snapshot[stream] = count
	}
	return snapshot
}

func (w *TelemetryWorker) record(evt event.DomainEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.counters[streamLabel(evt)]++
}

func (w *TelemetryWorker) report() {
	for stream, count := range w.Counters() {
		w.log.Debug("Event telemetry", "stream", stream, "count", count)
	}
}

// streamLabel keeps counter cardinality bounded: room-scoped events
// stream under their room id, which would otherwise grow one counter
// per room.
func streamLabel(evt event.DomainEvent) string {
	if _, ok := evt.(event.RoomScoped); ok {
		return "NewMessage"
	}
	return evt.Stream()
}
