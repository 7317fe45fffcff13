// Package runtime handles event propagation and worker lifecycle.
// It orchestrates the realtime side of the system without containing
// business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"wachat/contract"
	"wachat/domain"
	"wachat/domain/event"
	"wachat/runtime/workers"
)

// lowCapacityRatio is the free-slot ratio under which the heartbeat
// worker starts warning about the event channel.
const lowCapacityRatio = 0.1

type Orchestrator struct {
	mu                sync.Mutex
	log               *slog.Logger
	supervisor        contract.ISupervisor
	registry          contract.IRegistry
	events            chan event.DomainEvent
	telemetryEvents   chan event.DomainEvent
	permanentSinks    []contract.EventSink
	sinkTimeout       time.Duration
	heartbeatInterval time.Duration
}

func NewOrchestrator(
	log *slog.Logger,
	supervisor *workers.Supervisor,
	registry *Registry,
	bufferSize int,
	sinkTimeout, heartbeatInterval time.Duration,
) *Orchestrator {
	return &Orchestrator{
		log:               log,
		supervisor:        supervisor,
		registry:          registry,
		events:            make(chan event.DomainEvent, bufferSize),
		telemetryEvents:   make(chan event.DomainEvent, bufferSize),
		sinkTimeout:       sinkTimeout,
		heartbeatInterval: heartbeatInterval,
	}
}

// Add registers permanent sinks, receiving every event regardless of room.
// Must be called before Start.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.permanentSinks = append(o.permanentSinks, sinks...)
}

// Publish hands a committed event to the fanout pipeline. It never
// blocks: when the channel is full the event is dropped with a warning,
// realtime delivery is best-effort and must not fail the operation that
// produced the event.
func (o *Orchestrator) Publish(evt event.DomainEvent) {
	select {
	case o.events <- evt:
	default:
		o.log.Warn(fmt.Sprintf("Event channel full, dropping event on stream %s", evt.Stream()))
	}
}

// RegisterParticipant attaches a subscriber sink to a room stream.
func (o *Orchestrator) RegisterParticipant(pID string, roomID domain.RoomID, sink contract.EventSink) {
	o.registry.Subscribe(pID, roomID, sink)
}

// UnregisterParticipant disconnects a subscriber.
func (o *Orchestrator) UnregisterParticipant(pID string, roomID domain.RoomID) {
	o.registry.Unsubscribe(pID, roomID)
}

// Start wires the fanout, telemetry and heartbeat workers into the
// supervisor and launches it. The supervisor keeps running until ctx is
// canceled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	fanout := workers.NewEventFanout(
		o.log, o.registry, o.events, o.telemetryEvents, o.permanentSinks, o.sinkTimeout,
	)
	telemetry := workers.NewTelemetryWorker(o.log, o.heartbeatInterval, o.telemetryEvents)
	heartbeat := workers.NewHeartbeatWorker(o.log, o.heartbeatInterval, o.events, lowCapacityRatio)
	o.supervisor.Add(fanout, telemetry, heartbeat)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	go o.supervisor.Run(ctx)
}

// Stop initiates a graceful shutdown of all supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}
