package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyledger/tally-go/internal/client"
	"github.com/tallyledger/tally-go/internal/marshal"
	"github.com/tallyledger/tally-go/internal/protocol/frame"
	"github.com/tallyledger/tally-go/internal/session"
	"github.com/tallyledger/tally-go/internal/testutil/ledgertest"
	"github.com/tallyledger/tally-go/internal/testutil/testlog"
	"github.com/tallyledger/tally-go/internal/types"
)

func startClient(t *testing.T) (*client.Client, *ledgertest.Server) {
	t.Helper()
	log := testlog.Start(t)
	srv, err := ledgertest.Start(log)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	cfg := session.DefaultConfig()
	cfg.Addresses = []string{srv.Addr()}
	c := client.New(cfg, nil, log)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c, srv
}

func account(id string) map[string]any {
	return map[string]any{"id": id, "ledger": 1, "code": 10}
}

func TestCreateAccountsAllSucceed(t *testing.T) {
	c, srv := startClient(t)

	results, err := c.CreateAccounts(context.Background(), []map[string]any{
		account("1"), account("2"), account("3"),
	})
	require.NoError(t, err)
	assert.Empty(t, results, "an all-success batch reports no per-item results")

	for _, id := range []uint64{1, 2, 3} {
		_, ok := srv.Account(types.Uint128FromUint64(id))
		assert.True(t, ok, "account %d not stored", id)
	}
}

func TestCreateAccountsPartialFailure(t *testing.T) {
	c, _ := startClient(t)
	ctx := context.Background()

	_, err := c.CreateAccounts(ctx, []map[string]any{account("1")})
	require.NoError(t, err)

	// Index 1 is the duplicate; index 0 and 2 succeed and are absent from
	// the results.
	results, err := c.CreateAccounts(ctx, []map[string]any{
		account("10"), account("1"), account("11"),
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint32(1), results[0]["index"])
	assert.Equal(t, "exists", results[0]["result"])
}

func TestCreateAccountsValidationStopsBatch(t *testing.T) {
	c, srv := startClient(t)

	_, err := c.CreateAccounts(context.Background(), []map[string]any{
		account("1"),
		{"id": "not-a-number", "ledger": 1, "code": 10},
	})
	var invalid marshal.InvalidNumericFieldError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "id", invalid.Field)
	assert.Contains(t, err.Error(), "accounts[1]")

	// Nothing reached the wire, including the valid first record.
	_, ok := srv.Account(types.Uint128FromUint64(1))
	assert.False(t, ok)
}

func TestEmptyBatches(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Addresses = []string{"127.0.0.1:3000"}
	c := client.New(cfg, nil, testlog.Start(t))

	// Empty input short-circuits before the session is consulted.
	results, err := c.CreateAccounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	results, err = c.CreateTransfers(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
	accounts, err := c.LookupAccounts(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, accounts)
}

func TestLookupAccountsOmitsMissing(t *testing.T) {
	c, _ := startClient(t)
	ctx := context.Background()

	_, err := c.CreateAccounts(ctx, []map[string]any{account("42")})
	require.NoError(t, err)

	accounts, err := c.LookupAccounts(ctx, []string{"42", "43"})
	require.NoError(t, err)
	require.Len(t, accounts, 1, "ids with no record are omitted, not errors")
	assert.Equal(t, "42", accounts[0]["id"])
	assert.Equal(t, uint32(1), accounts[0]["ledger"])
	assert.NotZero(t, accounts[0]["timestamp"], "engine assigns the timestamp")
}

func TestCreateTransfersMovesBalances(t *testing.T) {
	c, _ := startClient(t)
	ctx := context.Background()

	_, err := c.CreateAccounts(ctx, []map[string]any{account("1"), account("2")})
	require.NoError(t, err)

	results, err := c.CreateTransfers(ctx, []map[string]any{{
		"id":                "900",
		"debit_account_id":  "1",
		"credit_account_id": "2",
		"amount":            "250",
		"ledger":            1,
		"code":              10,
	}})
	require.NoError(t, err)
	assert.Empty(t, results)

	accounts, err := c.LookupAccounts(ctx, []string{"1", "2"})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "250", accounts[0]["debits_posted"])
	assert.Equal(t, "0", accounts[0]["credits_posted"])
	assert.Equal(t, "250", accounts[1]["credits_posted"])
}

func TestPendingTransferHoldsAmount(t *testing.T) {
	c, _ := startClient(t)
	ctx := context.Background()

	_, err := c.CreateAccounts(ctx, []map[string]any{account("1"), account("2")})
	require.NoError(t, err)

	results, err := c.CreateTransfers(ctx, []map[string]any{{
		"id":                "901",
		"debit_account_id":  "1",
		"credit_account_id": "2",
		"amount":            "99",
		"ledger":            1,
		"code":              10,
		"flags":             int(types.TransferPending),
	}})
	require.NoError(t, err)
	assert.Empty(t, results)

	accounts, err := c.LookupAccounts(ctx, []string{"1"})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "99", accounts[0]["debits_pending"])
	assert.Equal(t, "0", accounts[0]["debits_posted"])
}

func TestTransferRejections(t *testing.T) {
	c, _ := startClient(t)
	ctx := context.Background()

	_, err := c.CreateAccounts(ctx, []map[string]any{account("1")})
	require.NoError(t, err)

	results, err := c.CreateTransfers(ctx, []map[string]any{{
		"id":                "902",
		"debit_account_id":  "1",
		"credit_account_id": "999",
		"amount":            "1",
		"ledger":            1,
		"code":              10,
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "credit_account_not_found", results[0]["result"])
}

// Slow responses to one operation must not stall concurrent calls; the
// multiplexer matches completions by correlation id, not arrival order.
func TestConcurrentCallsCompleteOutOfOrder(t *testing.T) {
	log := testlog.Start(t)
	srv, err := ledgertest.Start(log)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	srv.Delay = func(fr frame.Frame) time.Duration {
		if fr.Header.Operation == frame.OpCreateAccounts {
			return 150 * time.Millisecond
		}
		return 0
	}

	cfg := session.DefaultConfig()
	cfg.Addresses = []string{srv.Addr()}
	c := client.New(cfg, nil, log)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Close() })
	ctx := context.Background()

	var wg sync.WaitGroup
	var slowErr, fastErr error
	var fast []map[string]any
	fastDone := time.Time{}
	slowDone := time.Time{}

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, slowErr = c.CreateAccounts(ctx, []map[string]any{account("1")})
		slowDone = time.Now()
	}()
	go func() {
		defer wg.Done()
		time.Sleep(10 * time.Millisecond)
		fast, fastErr = c.LookupAccounts(ctx, []string{"1"})
		fastDone = time.Now()
	}()
	wg.Wait()

	require.NoError(t, slowErr)
	require.NoError(t, fastErr)
	assert.Empty(t, fast, "lookup raced ahead of the create")
	assert.True(t, fastDone.Before(slowDone), "delayed call should finish last")
}

func TestHandshakeRejectionSurfaces(t *testing.T) {
	log := testlog.Start(t)
	srv, err := ledgertest.Start(log)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	srv.HelloStatus = session.InitInvalidConcurrencyMax

	cfg := session.DefaultConfig()
	cfg.Addresses = []string{srv.Addr()}
	c := client.New(cfg, nil, log)

	err = c.Connect(context.Background())
	var initErr *session.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, session.InitInvalidConcurrencyMax, initErr.Status)
	assert.Equal(t, session.StateFailed, c.State())
}
