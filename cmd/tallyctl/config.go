package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	tally "github.com/tallyledger/tally-go"
)

type fileConfig struct {
	ClusterID        string   `toml:"cluster_id"`
	Addresses        []string `toml:"addresses"`
	MaxInFlight      int      `toml:"max_in_flight"`
	NonBlocking      bool     `toml:"non_blocking"`
	ConnectTimeout   string   `toml:"connect_timeout"`
	HandshakeTimeout string   `toml:"handshake_timeout"`
}

func loadClientConfig(path string) (tally.Config, error) {
	cfg := tally.DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return tally.Config{}, fmt.Errorf("load tally config: %w", err)
	}

	if meta.IsDefined("cluster_id") {
		id := strings.TrimSpace(raw.ClusterID)
		if id != "" {
			cfg.ClusterID = id
		}
	}

	if meta.IsDefined("addresses") {
		cfg.Addresses = normalizeAddresses(raw.Addresses)
	}

	if meta.IsDefined("max_in_flight") {
		cfg.MaxInFlight = raw.MaxInFlight
	}

	if meta.IsDefined("non_blocking") {
		cfg.NonBlocking = raw.NonBlocking
	}

	if meta.IsDefined("connect_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ConnectTimeout))
		if err != nil {
			return tally.Config{}, fmt.Errorf("parse connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}

	if meta.IsDefined("handshake_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.HandshakeTimeout))
		if err != nil {
			return tally.Config{}, fmt.Errorf("parse handshake_timeout: %w", err)
		}
		cfg.HandshakeTimeout = d
	}

	return cfg, nil
}

func normalizeAddresses(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, addr := range in {
		v := strings.TrimSpace(addr)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
