package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TEST_RECEIVE_TIMEOUT bounds how long the scenario waits for the relayed file
	ReceiveTimeout time.Duration `envconfig:"TEST_RECEIVE_TIMEOUT" default:"5s"`
	// TEST_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"TEST_COLOURS" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
