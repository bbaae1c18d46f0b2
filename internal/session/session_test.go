package session_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/tallyledger/tally-go/internal/mux"
	"github.com/tallyledger/tally-go/internal/protocol"
	"github.com/tallyledger/tally-go/internal/protocol/frame"
	"github.com/tallyledger/tally-go/internal/session"
	"github.com/tallyledger/tally-go/internal/testutil/ledgertest"
	"github.com/tallyledger/tally-go/internal/testutil/testlog"
	"github.com/tallyledger/tally-go/internal/types"
)

func TestValidateAddresses(t *testing.T) {
	cases := []struct {
		name  string
		addrs []string
		ok    bool
	}{
		{"empty list", nil, false},
		{"single", []string{"127.0.0.1:3000"}, true},
		{"several", []string{"10.0.0.1:3000", "10.0.0.2:3001"}, true},
		{"hostname", []string{"ledger.internal:3000"}, true},
		{"missing port", []string{"127.0.0.1"}, false},
		{"missing host", []string{":3000"}, false},
		{"port zero", []string{"127.0.0.1:0"}, false},
		{"port too large", []string{"127.0.0.1:70000"}, false},
		{"port not numeric", []string{"127.0.0.1:abc"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := session.ValidateAddresses(tc.addrs)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, session.ErrInvalidAddress) {
				t.Fatalf("expected ErrInvalidAddress, got %v", err)
			}
		})
	}
}

func startServer(t *testing.T) *ledgertest.Server {
	t.Helper()
	srv, err := ledgertest.Start(testlog.Start(t))
	if err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func newSession(t *testing.T, addr string) *session.Session {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.Addresses = []string{addr}
	return session.New(cfg, nil, testlog.Start(t))
}

func TestConnectAndCall(t *testing.T) {
	srv := startServer(t)
	sess := newSession(t, srv.Addr())
	ctx := context.Background()

	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer sess.Close()
	if got := sess.State(); got != session.StateConnected {
		t.Fatalf("state after connect: %v", got)
	}

	accounts := []types.Account{
		{ID: types.Uint128FromUint64(1), Ledger: 1, Code: 1},
		{ID: types.Uint128FromUint64(2), Ledger: 1, Code: 1},
	}
	payload, err := sess.Call(ctx, frame.OpCreateAccounts, protocol.EncodeAccounts(accounts))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	results, err := protocol.DecodeAccountResults(payload)
	if err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected all-success empty result, got %+v", results)
	}
}

func TestSubmitBeforeConnect(t *testing.T) {
	sess := newSession(t, "127.0.0.1:3000")
	if _, err := sess.Submit(context.Background(), frame.OpCreateAccounts, nil); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestConnectValidatesAddressesFirst(t *testing.T) {
	sess := newSession(t, "not-an-address")
	err := sess.Connect(context.Background())
	if !errors.Is(err, session.ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	// Validation is synchronous; the session never left Disconnected.
	if got := sess.State(); got != session.StateDisconnected {
		t.Fatalf("state after validation failure: %v", got)
	}
}

func TestConnectTwice(t *testing.T) {
	srv := startServer(t)
	sess := newSession(t, srv.Addr())
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer sess.Close()
	if err := sess.Connect(context.Background()); !errors.Is(err, session.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestHandshakeRejectionIsTerminal(t *testing.T) {
	srv := startServer(t)
	srv.HelloStatus = session.InitOutOfMemory

	sess := newSession(t, srv.Addr())
	err := sess.Connect(context.Background())
	var initErr *session.InitError
	if !errors.As(err, &initErr) || initErr.Status != session.InitOutOfMemory {
		t.Fatalf("expected InitError(out of memory), got %v", err)
	}
	if got := sess.State(); got != session.StateFailed {
		t.Fatalf("state after rejection: %v", got)
	}
	if _, err := sess.Submit(context.Background(), frame.OpCreateAccounts, nil); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("submit in Failed: expected ErrNotConnected, got %v", err)
	}
}

func TestDialFailureIsTerminal(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Addresses = []string{"127.0.0.1:9"}
	sess := session.New(cfg, session.StubDialer{}, testlog.Start(t))

	err := sess.Connect(context.Background())
	if !errors.Is(err, session.ErrNotImplemented) {
		t.Fatalf("expected dial error, got %v", err)
	}
	if got := sess.State(); got != session.StateFailed {
		t.Fatalf("state after dial failure: %v", got)
	}
	if sess.Err() == nil {
		t.Fatalf("failure cause not recorded")
	}
}

func TestClosePendingRequestsResolve(t *testing.T) {
	srv := startServer(t)
	// Hold every data response long enough for Close to win the race.
	srv.Delay = func(fr frame.Frame) time.Duration {
		if fr.Header.Operation == frame.OpHello {
			return 0
		}
		return 2 * time.Second
	}

	sess := newSession(t, srv.Addr())
	ctx := context.Background()
	if err := sess.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}

	accounts := []types.Account{{ID: types.Uint128FromUint64(7), Ledger: 1, Code: 1}}
	id, err := sess.Submit(ctx, frame.OpCreateAccounts, protocol.EncodeAccounts(accounts))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := sess.Await(ctx, id)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	sess.Close()

	select {
	case err := <-done:
		if !errors.Is(err, mux.ErrConnectionLost) {
			t.Fatalf("expected ErrConnectionLost, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("pending request never resolved after close")
	}
	if got := sess.State(); got != session.StateDisconnected {
		t.Fatalf("state after close: %v", got)
	}
}

// deadlineErrConn scripts a hello acceptance but refuses deadlines, as
// an in-process pipe would.
type deadlineErrConn struct {
	r *bytes.Reader
}

func (c *deadlineErrConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *deadlineErrConn) Write(p []byte) (int, error) { return len(p), nil }
func (c *deadlineErrConn) Close() error                { return nil }
func (c *deadlineErrConn) LocalAddr() net.Addr         { return &net.TCPAddr{} }
func (c *deadlineErrConn) RemoteAddr() net.Addr        { return &net.TCPAddr{} }
func (c *deadlineErrConn) SetDeadline(time.Time) error {
	return errors.New("deadlines unsupported")
}
func (c *deadlineErrConn) SetReadDeadline(time.Time) error {
	return errors.New("deadlines unsupported")
}
func (c *deadlineErrConn) SetWriteDeadline(time.Time) error {
	return errors.New("deadlines unsupported")
}

type connDialer struct {
	conn io.ReadWriteCloser
}

func (d connDialer) Dial(context.Context, string) (io.ReadWriteCloser, error) {
	return d.conn, nil
}

func TestHandshakeSurvivesDeadlineFailure(t *testing.T) {
	ack := frame.EncodeHeader(frame.Header{
		Magic:      frame.Magic,
		Version:    frame.Version,
		HeaderLen:  frame.FixedHeaderLen,
		Operation:  frame.OpHello,
		Flags:      frame.FlagIsResponse,
		PayloadLen: 4,
	})
	ack = append(ack, 0, 0, 0, 0) // accepted

	cfg := session.DefaultConfig()
	cfg.Addresses = []string{"127.0.0.1:3000"}
	conn := &deadlineErrConn{r: bytes.NewReader(ack)}
	sess := session.New(cfg, connDialer{conn: conn}, testlog.Start(t))

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("connect over deadline-less conn: %v", err)
	}
	sess.Close()
}

func TestNextBackoffDelay(t *testing.T) {
	cfg := session.BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     time.Second,
	}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}
	for _, tc := range cases {
		if got := session.NextBackoffDelay(cfg, tc.attempt, nil); got != tc.want {
			t.Fatalf("attempt %d: got %v want %v", tc.attempt, got, tc.want)
		}
	}
}
