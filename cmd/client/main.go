package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/client"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/internal"
	"chat-relay/storage"
	"chat-relay/ui"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	// 2. Connection to the relay
	conn, err := net.Dial("tcp", config.ServerAddr)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to reach relay at %s: %w", config.ServerAddr, err)
	}
	defer conn.Close()

	// 3. Sinks: terminal rendering, plus file downloads with an optional
	// BadgerDB journal of everything received
	sinks := []contract.EnvelopeSink{ui.NewRenderer(os.Stdout, config.Colours)}

	var index *storage.ReceivedIndex
	if config.IndexPath != "" {
		db, err := badger.Open(badger.DefaultOptions(config.IndexPath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return exitRuntime, fmt.Errorf("journal opening failed: %w", err)
		}
		defer db.Close()
		index = storage.NewReceivedIndex(db, logger)
	}
	sinks = append(sinks, storage.NewFileStore(logger, config.DownloadsDir, index))

	// 4. Duplex pump
	pump := client.NewPump(logger, conn, config.Username, config.ConnectionBufferSize)
	if err := pump.Start(ctx); err != nil {
		return exitRuntime, err
	}

	go func() {
		client.Fanout(ctx, logger, pump.Incoming(), sinks...)
		// The relay hung up: stop reading stdin
		cancel()
	}()

	// 5. Stdin loop
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			out, quit := parseLine(line)
			if quit {
				return exitOK, nil
			}
			if out == nil {
				continue
			}
			if err := pump.Send(ctx, *out); err != nil {
				return exitRuntime, err
			}
		}
	}
}

// parseLine maps one stdin line to an outbound request.
// "/file <path>" sends a file, "/quit" leaves, anything else is chat text.
func parseLine(line string) (*domain.Outbound, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil, false
	case line == "/quit":
		return nil, true
	case strings.HasPrefix(line, "/file "):
		path := strings.TrimSpace(strings.TrimPrefix(line, "/file "))
		return &domain.Outbound{File: &domain.FileSendRequest{Path: path}}, false
	default:
		return &domain.Outbound{Text: line}, false
	}
}
