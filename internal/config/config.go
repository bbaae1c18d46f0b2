package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tallyledger/tally-go/internal/mux"
	"github.com/tallyledger/tally-go/internal/session"
	"github.com/tallyledger/tally-go/internal/types"
)

// ClientConfig is the TOML shape of a client configuration file.
type ClientConfig struct {
	ClusterID          string   `toml:"cluster_id"`
	Addresses          []string `toml:"addresses"`
	MaxInFlight        int      `toml:"max_in_flight"`
	NonBlocking        bool     `toml:"non_blocking"`
	ConnectTimeoutMS   int64    `toml:"connect_timeout_ms"`
	HandshakeTimeoutMS int64    `toml:"handshake_timeout_ms"`
}

func LoadClientConfig(path string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if cfg.ClusterID == "" {
		cfg.ClusterID = "0"
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = session.DefaultConfig().MaxInFlight
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if _, err := types.ParseUint128(strings.TrimSpace(cfg.ClusterID)); err != nil {
		return fmt.Errorf("client config cluster_id: %w", err)
	}
	if err := session.ValidateAddresses(cfg.Addresses); err != nil {
		return fmt.Errorf("client config addresses: %w", err)
	}
	if cfg.MaxInFlight < 1 {
		return fmt.Errorf("client config max_in_flight must be at least 1")
	}
	return nil
}

// SessionConfig converts the file shape into the session's runtime
// configuration.
func (c ClientConfig) SessionConfig() (session.Config, error) {
	cluster, err := types.ParseUint128(strings.TrimSpace(c.ClusterID))
	if err != nil {
		return session.Config{}, fmt.Errorf("client config cluster_id: %w", err)
	}
	cfg := session.DefaultConfig()
	cfg.ClusterID = cluster
	cfg.Addresses = c.Addresses
	cfg.MaxInFlight = c.MaxInFlight
	if c.NonBlocking {
		cfg.SubmitPolicy = mux.PolicyReject
	}
	if c.ConnectTimeoutMS > 0 {
		cfg.ConnectTimeout = msDuration(c.ConnectTimeoutMS)
	}
	if c.HandshakeTimeoutMS > 0 {
		cfg.HandshakeTimeout = msDuration(c.HandshakeTimeoutMS)
	}
	return cfg, nil
}
