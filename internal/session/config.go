package session

import (
	"time"

	"github.com/tallyledger/tally-go/internal/mux"
	"github.com/tallyledger/tally-go/internal/protocol/frame"
	"github.com/tallyledger/tally-go/internal/types"
)

// BackoffConfig defines retry backoff behavior for callers that
// reconnect by constructing new sessions.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines session identity and reliability defaults.
type Config struct {
	ClusterID        types.Uint128
	Addresses        []string
	MaxInFlight      int
	SubmitPolicy     mux.Policy
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	Limits           frame.Limits
	Backoff          BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		MaxInFlight:      32,
		SubmitPolicy:     mux.PolicyBlock,
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		Limits:           frame.DefaultLimits(),
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}
