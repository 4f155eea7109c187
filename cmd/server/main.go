package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/internal"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/server"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components and manages the relay lifecycle.
// Centralizing errors here keeps every defer running before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ServerConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Shared relay state
	registry := runtime.NewRegistry()
	bus := runtime.NewBus(config.BusCapacity)
	defer bus.Close()

	relay := server.New(logger, registry, bus, config.Port)
	if err := relay.Listen(); err != nil {
		return exitRuntime, err
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		logger.Info("Debug session inspector available",
			"url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		internal.StartDebugServer(logger, config.DebugPort, endpoint, registry, func() map[string]any {
			return map[string]any{
				"Sessions": registry.Len(),
				"Postings": bus.Published(),
				"Time":     time.Now().Format(time.RFC822),
			}
		})
	}

	// 3. Supervised workers: the accept loop and the telemetry ticker
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		relay,
		workers.NewTelemetryWorker(logger, registry, bus, config.TelemetryInterval),
	)
	supervisor.Run(ctx)

	logger.Info("Relay stopped")
	return exitOK, nil
}
