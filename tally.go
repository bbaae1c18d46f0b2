// Package tally is the Go client for the tally ledger engine. It
// submits batched account and transfer operations over one multiplexed
// connection and correlates each response back to its caller.
//
// Example usage:
//
//	cfg := tally.DefaultConfig()
//	cfg.ClusterID = "0"
//	cfg.Addresses = []string{"127.0.0.1:3000"}
//	c, err := tally.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := c.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//	results, err := c.CreateAccounts(ctx, []map[string]any{
//	    {"id": tally.NewID(), "ledger": 1, "code": 10},
//	})
package tally

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/client"
	"github.com/tallyledger/tally-go/internal/config"
	"github.com/tallyledger/tally-go/internal/marshal"
	"github.com/tallyledger/tally-go/internal/mux"
	"github.com/tallyledger/tally-go/internal/protocol"
	"github.com/tallyledger/tally-go/internal/session"
	"github.com/tallyledger/tally-go/internal/types"
)

// Client submits batched operations to the engine. Construct with New.
type Client = client.Client

// Dialer produces the duplex byte channel a session runs on. The
// default is plain TCP.
type Dialer = session.Dialer

// State is the session lifecycle state.
type State = session.State

const (
	StateDisconnected = session.StateDisconnected
	StateConnecting   = session.StateConnecting
	StateConnected    = session.StateConnected
	StateFailed       = session.StateFailed
)

// Sentinel errors surfaced by the client. Validation errors carry the
// offending field name and are matched with errors.As against
// marshal.InvalidNumericFieldError and friends.
var (
	ErrInvalidAddress  = session.ErrInvalidAddress
	ErrNotConnected    = session.ErrNotConnected
	ErrNotImplemented  = session.ErrNotImplemented
	ErrConnectionLost  = mux.ErrConnectionLost
	ErrTooManyInFlight = mux.ErrTooManyInFlight
	ErrMalformedRecord = protocol.ErrMalformedRecord
	ErrUnknownOutcome  = protocol.ErrUnknownOutcome
	ErrEngineRejected  = session.ErrEngineRejected
)

// Config holds the application-facing client configuration.
type Config struct {
	// ClusterID is the target cluster's 128-bit id as a decimal string.
	ClusterID string
	// Addresses lists engine replicas as host:port pairs.
	Addresses []string
	// MaxInFlight bounds concurrent in-flight requests.
	MaxInFlight int
	// NonBlocking makes submission fail with ErrTooManyInFlight at the
	// bound instead of waiting for a slot.
	NonBlocking      bool
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults. ClusterID and
// Addresses must still be set before New.
func DefaultConfig() Config {
	sc := session.DefaultConfig()
	return Config{
		ClusterID:        "0",
		MaxInFlight:      sc.MaxInFlight,
		ConnectTimeout:   sc.ConnectTimeout,
		HandshakeTimeout: sc.HandshakeTimeout,
	}
}

// LoadConfig reads and validates a client configuration from a TOML
// file. See internal/config for the file shape.
func LoadConfig(path string) (Config, error) {
	fc, err := config.LoadClientConfig(path)
	if err != nil {
		return Config{}, err
	}
	sc, err := fc.SessionConfig()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ClusterID:        fc.ClusterID,
		Addresses:        fc.Addresses,
		MaxInFlight:      fc.MaxInFlight,
		NonBlocking:      fc.NonBlocking,
		ConnectTimeout:   sc.ConnectTimeout,
		HandshakeTimeout: sc.HandshakeTimeout,
	}, nil
}

type options struct {
	log    zerolog.Logger
	dialer session.Dialer
}

// Option customizes client construction.
type Option func(*options)

// WithLogger injects the observability hook. Without it the client is
// silent.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithDialer swaps the transport, e.g. for an in-process pipe in tests.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// New builds a disconnected client. Address syntax is validated on
// Connect, not here; the cluster id is validated immediately.
func New(cfg Config, opts ...Option) (*Client, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	cluster, err := types.ParseUint128(cfg.ClusterID)
	if err != nil {
		return nil, fmt.Errorf("tally: invalid cluster id %q: %w", cfg.ClusterID, err)
	}

	sc := session.DefaultConfig()
	sc.ClusterID = cluster
	sc.Addresses = cfg.Addresses
	if cfg.MaxInFlight > 0 {
		sc.MaxInFlight = cfg.MaxInFlight
	}
	if cfg.NonBlocking {
		sc.SubmitPolicy = mux.PolicyReject
	}
	if cfg.ConnectTimeout > 0 {
		sc.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.HandshakeTimeout > 0 {
		sc.HandshakeTimeout = cfg.HandshakeTimeout
	}

	return client.New(sc, o.dialer, o.log), nil
}

// NewID returns a fresh time-ordered 128-bit identifier as a decimal
// string, ready to use as an account or transfer id.
func NewID() string {
	return types.NewID().String()
}

// IsInvalidNumericField reports whether err is a 128-bit field
// validation failure, returning the field name.
func IsInvalidNumericField(err error) (string, bool) {
	var e marshal.InvalidNumericFieldError
	if errors.As(err, &e) {
		return e.Field, true
	}
	return "", false
}

// IsFieldOutOfRange reports whether err is a width validation failure.
func IsFieldOutOfRange(err error) (string, bool) {
	var e marshal.FieldOutOfRangeError
	if errors.As(err, &e) {
		return e.Field, true
	}
	return "", false
}

// IsMissingRequiredField reports whether err is a missing mandatory
// field failure.
func IsMissingRequiredField(err error) (string, bool) {
	var e marshal.MissingRequiredFieldError
	if errors.As(err, &e) {
		return e.Field, true
	}
	return "", false
}
