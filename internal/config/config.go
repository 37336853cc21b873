// Package config loads the engine tunables from the environment and owns
// the on-disk layout under the slidemote home directory.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable the binary reads from the environment. None of
// the values are load-bearing for correctness; they bound timing behaviour.
type Config struct {
	// Addr is the default receiver address when no flag is given.
	Addr string `env:"SLIDEMOTE_ADDR"`
	// DialTimeout bounds an in-flight connect attempt.
	DialTimeout time.Duration `env:"SLIDEMOTE_DIAL_TIMEOUT" envDefault:"10s"`
	// PointerInterval is the minimum interval between pointer-move frames.
	PointerInterval time.Duration `env:"SLIDEMOTE_POINTER_INTERVAL" envDefault:"50ms"`
	// Reconnect backoff curve.
	BackoffInitial    time.Duration `env:"SLIDEMOTE_BACKOFF_INITIAL" envDefault:"500ms"`
	BackoffMax        time.Duration `env:"SLIDEMOTE_BACKOFF_MAX" envDefault:"30s"`
	BackoffMultiplier float64       `env:"SLIDEMOTE_BACKOFF_MULTIPLIER" envDefault:"1.5"`
	// DataDir overrides the default ~/.slidemote home.
	DataDir string `env:"SLIDEMOTE_DATA_DIR"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Home()
	} else {
		cfg.DataDir = ExpandPath(cfg.DataDir)
	}
	return cfg, nil
}

// HistoryDB returns the path of the connection-history database.
func (c Config) HistoryDB() string {
	return HistoryDBPath(c.DataDir)
}
