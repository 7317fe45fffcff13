package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"wachat/domain/event"
)

// HeartbeatWorker periodically logs process health (RSS, CPU, status)
// together with the occupancy of the event channel, and warns when the
// channel gets close to full.
type HeartbeatWorker struct {
	log              *slog.Logger
	interval         time.Duration
	events           chan event.DomainEvent
	lowCapacityRatio float64
}

func NewHeartbeatWorker(log *slog.Logger, interval time.Duration, events chan event.DomainEvent, lowCapacityRatio float64) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, interval: interval, events: events, lowCapacityRatio: lowCapacityRatio}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			length, capacity := len(w.events), cap(w.events)
			w.log.Debug("Heartbeat",
				"ram_bytes", rss,
				"cpu_percent", cpu,
				"status", status,
				"event_queue", length,
				"event_capacity", capacity,
			)
			if capacity > 0 && float64(capacity-length) < float64(capacity)*w.lowCapacityRatio {
				w.log.Warn("Event channel almost full", "length", length, "capacity", capacity)
			}
		}
	}
}

// selfStats retrieves technical metrics (memory, CPU, OS status) for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
