package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/mux"
	"github.com/tallyledger/tally-go/internal/protocol/frame"
)

// State is the session lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrNotConnected   = errors.New("session: not connected")
	ErrAlreadyStarted = errors.New("session: connect already attempted")
	ErrBadHandshake   = errors.New("session: malformed handshake response")
	// ErrEngineRejected wraps a per-request error frame from the engine.
	ErrEngineRejected = errors.New("session: engine rejected request")
)

// Session owns one logical connection to the ledger engine. All request
// traffic is multiplexed through its Table; the session itself only
// moves frames and drives the state machine.
type Session struct {
	cfg    Config
	log    zerolog.Logger
	dialer Dialer

	writeMu sync.Mutex

	mu      sync.Mutex
	state   State
	conn    io.ReadWriteCloser
	table   *mux.Table
	failErr error
}

// New constructs a disconnected session. The logger is the injected
// observability hook; pass zerolog.Nop() to silence it.
func New(cfg Config, dialer Dialer, log zerolog.Logger) *Session {
	if dialer == nil {
		dialer = TCPDialer{Timeout: cfg.ConnectTimeout}
	}
	return &Session{
		cfg:    cfg,
		log:    log.With().Str("component", "session").Logger(),
		dialer: dialer,
		state:  StateDisconnected,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the transport error that moved the session to Failed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failErr
}

// Connect validates the address list, dials the first reachable address
// and performs the hello handshake. Validation failures are synchronous
// and happen before any I/O; transport and handshake failures leave the
// session in the terminal Failed state.
func (s *Session) Connect(ctx context.Context) error {
	if err := ValidateAddresses(s.cfg.Addresses); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state != StateDisconnected {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: state is %s", ErrAlreadyStarted, st)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.dialAny(ctx)
	if err != nil {
		s.fail(err)
		return err
	}

	if err := s.handshake(conn); err != nil {
		conn.Close()
		s.fail(err)
		return err
	}

	table := mux.NewTable(s.cfg.MaxInFlight, s.cfg.SubmitPolicy, s.log)

	s.mu.Lock()
	s.state = StateConnected
	s.conn = conn
	s.table = table
	s.mu.Unlock()

	go s.readLoop(conn, table)
	s.log.Info().Int("max_in_flight", s.cfg.MaxInFlight).Msg("session connected")
	return nil
}

func (s *Session) dialAny(ctx context.Context) (io.ReadWriteCloser, error) {
	var lastErr error
	for _, addr := range s.cfg.Addresses {
		conn, err := s.dialer.Dial(ctx, addr)
		if err == nil {
			s.log.Debug().Str("addr", addr).Msg("transport established")
			return conn, nil
		}
		lastErr = err
		s.log.Debug().Str("addr", addr).Err(err).Msg("dial failed")
	}
	return nil, fmt.Errorf("session: no reachable address: %w", lastErr)
}

// handshake sends the 16-byte cluster id and reads the engine's init
// status verdict.
func (s *Session) handshake(conn io.ReadWriteCloser) error {
	if nc, ok := conn.(net.Conn); ok && s.cfg.HandshakeTimeout > 0 {
		// Without the deadline a silent peer blocks the handshake
		// indefinitely; a set failure is worth surfacing, not fatal.
		if err := nc.SetDeadline(time.Now().Add(s.cfg.HandshakeTimeout)); err != nil {
			s.log.Warn().Err(err).Msg("handshake deadline not set")
		}
		defer func() {
			if err := nc.SetDeadline(time.Time{}); err != nil {
				s.log.Warn().Err(err).Msg("handshake deadline not cleared")
			}
		}()
	}

	cluster := s.cfg.ClusterID.Bytes()
	hello := frame.Frame{
		Header:  frame.Header{Operation: frame.OpHello},
		Payload: cluster[:],
	}
	if err := frame.WriteFrame(conn, hello, s.cfg.Limits); err != nil {
		return fmt.Errorf("session: handshake write: %w", err)
	}

	ack, err := frame.ReadFrame(conn, s.cfg.Limits)
	if err != nil {
		return fmt.Errorf("session: handshake read: %w", err)
	}
	if ack.Header.Operation != frame.OpHello || !ack.IsResponse() || len(ack.Payload) != 4 {
		return ErrBadHandshake
	}
	return InitStatus(binary.LittleEndian.Uint32(ack.Payload)).Err()
}

// Submit registers a request with the multiplexer and writes its frame.
// It returns as soon as the bytes are handed to the transport; results
// arrive through Await. Outside Connected it fails with ErrNotConnected
// and never touches the multiplexer.
func (s *Session) Submit(ctx context.Context, op frame.Operation, payload []byte) (uint64, error) {
	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return 0, ErrNotConnected
	}
	conn, table := s.conn, s.table
	s.mu.Unlock()

	id, err := table.Submit(ctx, op)
	if err != nil {
		return 0, err
	}

	fr := frame.Frame{
		Header:  frame.Header{CorrelationID: id, Operation: op},
		Payload: payload,
	}
	s.writeMu.Lock()
	err = frame.WriteFrame(conn, fr, s.cfg.Limits)
	s.writeMu.Unlock()
	if err != nil {
		// A failed write poisons the stream; tear down so every pending
		// waiter resolves instead of hanging.
		s.teardown(fmt.Errorf("session: write: %w", err))
		return 0, err
	}
	return id, nil
}

// Await blocks until the completion for id arrives or ctx is cancelled.
func (s *Session) Await(ctx context.Context, id uint64) ([]byte, error) {
	s.mu.Lock()
	table := s.table
	s.mu.Unlock()
	if table == nil {
		return nil, ErrNotConnected
	}
	return table.Await(ctx, id)
}

// Call is Submit followed by Await.
func (s *Session) Call(ctx context.Context, op frame.Operation, payload []byte) ([]byte, error) {
	id, err := s.Submit(ctx, op, payload)
	if err != nil {
		return nil, err
	}
	return s.Await(ctx, id)
}

// InFlight reports the number of requests awaiting completion.
func (s *Session) InFlight() int {
	s.mu.Lock()
	table := s.table
	s.mu.Unlock()
	if table == nil {
		return 0
	}
	return table.InFlight()
}

// Close moves the session to Disconnected, resolving every pending
// request with a connection-lost failure.
func (s *Session) Close() error {
	s.teardown(nil)
	return nil
}

func (s *Session) readLoop(conn io.ReadWriteCloser, table *mux.Table) {
	for {
		fr, err := frame.ReadFrame(conn, s.cfg.Limits)
		if err != nil {
			s.teardown(fmt.Errorf("session: read: %w", err))
			return
		}
		if !fr.IsResponse() {
			s.log.Warn().
				Uint64("correlation_id", fr.Header.CorrelationID).
				Str("operation", fr.Header.Operation.String()).
				Msg("dropping unsolicited frame")
			continue
		}
		var completionErr error
		if fr.IsError() {
			completionErr = fmt.Errorf("%w: %s", ErrEngineRejected, fr.Payload)
		}
		// Unknown ids are logged inside the table; they never kill the
		// session.
		_ = table.Complete(fr.Header.CorrelationID, fr.Payload, completionErr)
	}
}

// teardown leaves Connected (or Connecting) for Disconnected and
// broadcasts the loss to all pending waiters. Idempotent.
func (s *Session) teardown(cause error) {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateFailed {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	s.failErr = cause
	conn, table := s.conn, s.table
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if table != nil {
		table.FailAll(mux.ErrConnectionLost)
	}
	if cause != nil {
		s.log.Warn().Err(cause).Msg("session disconnected")
	} else {
		s.log.Info().Msg("session closed")
	}
}

// fail marks the terminal Failed state, reachable from Connecting only.
func (s *Session) fail(cause error) {
	s.mu.Lock()
	s.state = StateFailed
	s.failErr = cause
	s.mu.Unlock()
	s.log.Error().Err(cause).Msg("session failed")
}
