package session

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
)

var ErrNotImplemented = errors.New("session: transport not implemented")

// Dialer produces the opaque duplex byte channel the session runs on.
// The session does not care about framing below its own header or
// whether the channel is TCP, TLS or an in-process pipe.
type Dialer interface {
	Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error)
}

// TCPDialer dials plain TCP.
type TCPDialer struct {
	Timeout time.Duration
}

func (d TCPDialer) Dial(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	return nd.DialContext(ctx, "tcp", addr)
}

// StubDialer is the bring-up placeholder. It never fabricates a
// connection or a success; every dial fails with ErrNotImplemented.
type StubDialer struct{}

func (StubDialer) Dial(context.Context, string) (io.ReadWriteCloser, error) {
	return nil, ErrNotImplemented
}
