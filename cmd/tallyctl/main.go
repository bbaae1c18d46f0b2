// tallyctl is a thin operator CLI over the tally client. Records are
// read as JSON arrays of value bags, matching the shapes the library
// accepts, and results are printed back as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	tally "github.com/tallyledger/tally-go"
	"github.com/tallyledger/tally-go/internal/logging"
	"github.com/tallyledger/tally-go/internal/observability"
	"github.com/tallyledger/tally-go/internal/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tallyctl: %v\n", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath  string
	clusterID   string
	addresses   []string
	maxInFlight int
	nonBlocking bool
	attempts    int
}

func newRootCmd() *cobra.Command {
	logging.ConfigureRuntime()
	log := observability.InitLogger("tallyctl")

	var flags cliFlags

	root := &cobra.Command{
		Use:           "tallyctl",
		Short:         "Submit batched account and transfer operations to a tally cluster",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "path to a TOML config file")
	pf.StringVar(&flags.clusterID, "cluster", "", "cluster id (decimal)")
	pf.StringSliceVar(&flags.addresses, "addr", nil, "engine address host:port (repeatable)")
	pf.IntVar(&flags.maxInFlight, "max-in-flight", 0, "in-flight request bound")
	pf.BoolVar(&flags.nonBlocking, "non-blocking", false, "fail instead of waiting when the in-flight bound is hit")
	pf.IntVar(&flags.attempts, "connect-attempts", 3, "connection attempts before giving up")

	root.AddCommand(
		newIDCmd(),
		newBatchCmd(log, &flags, "create-accounts", "Create a batch of accounts from a JSON array",
			func(ctx context.Context, c *tally.Client, bags []map[string]any) ([]map[string]any, error) {
				return c.CreateAccounts(ctx, bags)
			}),
		newBatchCmd(log, &flags, "create-transfers", "Create a batch of transfers from a JSON array",
			func(ctx context.Context, c *tally.Client, bags []map[string]any) ([]map[string]any, error) {
				return c.CreateTransfers(ctx, bags)
			}),
		newLookupCmd(log, &flags),
	)
	return root
}

func newIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Generate a fresh time-ordered 128-bit identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), tally.NewID())
			return nil
		},
	}
}

type batchFn func(ctx context.Context, c *tally.Client, bags []map[string]any) ([]map[string]any, error)

func newBatchCmd(log zerolog.Logger, flags *cliFlags, use, short string, run batchFn) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [file]",
		Short: short + " (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bags, err := readBags(args)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			client, err := dialCluster(ctx, log, cmd, flags)
			if err != nil {
				return err
			}
			defer client.Close()

			results, err := run(ctx, client, bags)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
}

func newLookupCmd(log zerolog.Logger, flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup-accounts id...",
		Short: "Fetch accounts by id; missing ids are omitted from the output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			client, err := dialCluster(ctx, log, cmd, flags)
			if err != nil {
				return err
			}
			defer client.Close()

			accounts, err := client.LookupAccounts(ctx, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), accounts)
		},
	}
}

// resolveConfig layers flag overrides on top of the config file. Only
// flags the user actually set win over file values.
func resolveConfig(cmd *cobra.Command, flags *cliFlags) (tally.Config, error) {
	cfg := tally.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := loadClientConfig(flags.configPath)
		if err != nil {
			return tally.Config{}, err
		}
		cfg = loaded
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if changed["cluster"] {
		cfg.ClusterID = flags.clusterID
	}
	if changed["addr"] {
		cfg.Addresses = flags.addresses
	}
	if changed["max-in-flight"] {
		cfg.MaxInFlight = flags.maxInFlight
	}
	if changed["non-blocking"] {
		cfg.NonBlocking = flags.nonBlocking
	}
	return cfg, nil
}

// dialCluster connects with bounded retries. Handshake rejections are
// terminal and are not retried.
func dialCluster(ctx context.Context, log zerolog.Logger, cmd *cobra.Command, flags *cliFlags) (*tally.Client, error) {
	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return nil, err
	}

	backoff := session.DefaultConfig().Backoff
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	attempts := flags.attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := tally.New(cfg, tally.WithLogger(log))
		if err != nil {
			return nil, err
		}
		err = client.Connect(ctx)
		if err == nil {
			return client, nil
		}
		client.Close()
		// An engine that rejected the handshake will reject it again;
		// only transport errors are worth another attempt.
		var initErr *session.InitError
		if errors.As(err, &initErr) {
			return nil, err
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		delay := session.NextBackoffDelay(backoff, attempt, rng)
		log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("connect failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("connect: %w", lastErr)
}

func readBags(args []string) ([]map[string]any, error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var bags []map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&bags); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for _, bag := range bags {
		for k, v := range bag {
			if n, ok := v.(json.Number); ok {
				bag[k] = normalizeNumber(n)
			}
		}
	}
	return bags, nil
}

// normalizeNumber keeps integral JSON numbers as uint64 so wide values
// survive the trip; anything else falls back to float64 and the
// library's own validation.
func normalizeNumber(n json.Number) any {
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func printJSON(w io.Writer, v any) error {
	if v == nil {
		v = []map[string]any{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
