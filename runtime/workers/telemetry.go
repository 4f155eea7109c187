package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-relay/runtime"
)

// TelemetryWorker periodically logs process health (CPU, RSS) together with
// the relay gauges: live sessions and total postings seen by the bus.
// Log-only; nothing here feeds back into delivery.
type TelemetryWorker struct {
	log      *slog.Logger
	registry *runtime.Registry
	bus      *runtime.Bus
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, registry *runtime.Registry,
	bus *runtime.Bus, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, registry: registry, bus: bus, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("Relay telemetry",
				"sessions", w.registry.Len(),
				"postings", w.bus.Published(),
				"cpu_percent", cpu,
				"ram_bytes", rss,
			)
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
