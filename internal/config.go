package internal

import "time"

// ServerConfig is read from the environment by cmd/server.
type ServerConfig struct {
	Port              int           `env:"PORT,default=8080"`
	BusCapacity       int           `env:"BUS_CAPACITY,default=100"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=5s"`
	TelemetryInterval time.Duration `env:"TELEMETRY_INTERVAL,default=30s"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081"`
}

// ClientConfig is read from the environment by cmd/client.
type ClientConfig struct {
	ServerAddr           string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Username             string `env:"CHAT_USERNAME,required=true"`
	DownloadsDir         string `env:"CHAT_DOWNLOADS_DIR,default=downloads"`
	IndexPath            string `env:"CHAT_INDEX_PATH"`
	ConnectionBufferSize int    `env:"CONNECTION_BUFFER_SIZE,default=16"`
	Colours              bool   `env:"CHAT_COLOURS,default=true"`
	LogLevel             string `env:"LOG_LEVEL,default=INFO"`
}
