// Package client is the application-facing surface of the protocol
// core. Operations accept and return value bags, never wire bytes:
// each call marshals, encodes, submits through the session's
// multiplexer and renders the correlated response back into bags.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tallyledger/tally-go/internal/marshal"
	"github.com/tallyledger/tally-go/internal/observability"
	"github.com/tallyledger/tally-go/internal/protocol"
	"github.com/tallyledger/tally-go/internal/protocol/frame"
	"github.com/tallyledger/tally-go/internal/session"
	"github.com/tallyledger/tally-go/internal/types"
)

// Client submits batched account and transfer operations to the ledger
// engine over one session.
type Client struct {
	log  zerolog.Logger
	sess *session.Session
}

// New constructs a client around a fresh session. A nil dialer means
// plain TCP.
func New(cfg session.Config, dialer session.Dialer, log zerolog.Logger) *Client {
	return &Client{
		log:  log.With().Str("component", "client").Logger(),
		sess: session.New(cfg, dialer, log),
	}
}

// Connect establishes the session. See session.Session.Connect.
func (c *Client) Connect(ctx context.Context) error {
	return c.sess.Connect(ctx)
}

// State exposes the session lifecycle state.
func (c *Client) State() session.State {
	return c.sess.State()
}

// Close tears the session down; pending calls resolve with a
// connection-lost failure.
func (c *Client) Close() error {
	return c.sess.Close()
}

// CreateAccounts submits a batch of account value bags. The returned
// bags enumerate only the failing indices; an empty result means every
// item succeeded. Validation failures are reported before any bytes
// reach the wire.
func (c *Client) CreateAccounts(ctx context.Context, bags []map[string]any) ([]map[string]any, error) {
	if len(bags) == 0 {
		return nil, nil
	}
	accounts := make([]types.Account, len(bags))
	for i, bag := range bags {
		a, err := marshal.AccountFromBag(bag)
		if err != nil {
			return nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		accounts[i] = a
	}

	payload, err := c.call(ctx, frame.OpCreateAccounts, protocol.EncodeAccounts(accounts), len(accounts))
	if err != nil {
		return nil, err
	}
	results, err := protocol.DecodeAccountResults(payload)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(results))
	for i, r := range results {
		out[i] = marshal.AccountResultToBag(r)
	}
	return out, nil
}

// CreateTransfers submits a batch of transfer value bags.
func (c *Client) CreateTransfers(ctx context.Context, bags []map[string]any) ([]map[string]any, error) {
	if len(bags) == 0 {
		return nil, nil
	}
	transfers := make([]types.Transfer, len(bags))
	for i, bag := range bags {
		t, err := marshal.TransferFromBag(bag)
		if err != nil {
			return nil, fmt.Errorf("transfers[%d]: %w", i, err)
		}
		transfers[i] = t
	}

	payload, err := c.call(ctx, frame.OpCreateTransfers, protocol.EncodeTransfers(transfers), len(transfers))
	if err != nil {
		return nil, err
	}
	results, err := protocol.DecodeTransferResults(payload)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(results))
	for i, r := range results {
		out[i] = marshal.TransferResultToBag(r)
	}
	return out, nil
}

// LookupAccounts fetches the accounts matching the given decimal id
// strings. Ids with no matching record are simply absent from the
// result; order follows the encoding order of the ids that exist.
func (c *Client) LookupAccounts(ctx context.Context, ids []string) ([]map[string]any, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	parsed, err := marshal.ParseIDs(ids)
	if err != nil {
		return nil, err
	}

	payload, err := c.call(ctx, frame.OpLookupAccounts, protocol.EncodeIDs(parsed), len(parsed))
	if err != nil {
		return nil, err
	}
	accounts, err := protocol.DecodeAccounts(payload)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(accounts))
	for i, a := range accounts {
		out[i] = marshal.AccountToBag(a)
	}
	return out, nil
}

// call runs one correlated round trip and records its metrics.
func (c *Client) call(ctx context.Context, op frame.Operation, encoded []byte, records int) ([]byte, error) {
	start := time.Now()
	observability.RequestStarted()
	defer observability.RequestFinished()

	payload, err := c.sess.Call(ctx, op, encoded)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.RecordRequest(op.String(), status, records, time.Since(start))

	if err != nil {
		c.log.Debug().Str("operation", op.String()).Int("records", records).Err(err).Msg("request failed")
		return nil, err
	}
	c.log.Debug().
		Str("operation", op.String()).
		Int("records", records).
		Int("response_bytes", len(payload)).
		Dur("elapsed", time.Since(start)).
		Msg("request complete")
	return payload, nil
}
