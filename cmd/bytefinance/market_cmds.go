package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"

	"bytefinance/internal/poll"
)

type quoteCmd struct {
	provider string
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "fetch normalized quotes for one or more symbols" }
func (*quoteCmd) Usage() string {
	return `bytefinance quote [-provider <name>] <symbol> [symbol...]

A single symbol walks the provider fallback chain (iex, finnhub,
alphavantage) and returns the first success. Multiple symbols are
fetched as a batch from one named provider; symbols that fail are
dropped from the output.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.provider, "provider", "", "provider for batch mode (default alphavantage)")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fail(fmt.Errorf("at least one symbol is required"))
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if f.NArg() == 1 && c.provider == "" {
		q, err := a.gateway.Quote(ctx, f.Arg(0))
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		printQuote(q)
		return subcommands.ExitSuccess
	}

	quotes, err := a.gateway.BatchQuotes(ctx, f.Args(), c.provider)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	for _, q := range quotes {
		printQuote(q)
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	interval string
	provider string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "fetch a historical time series for charting" }
func (*historyCmd) Usage() string {
	return `bytefinance history [-interval daily|1min|5min|15min|30min|60min] [-provider <name>] <symbol>

Prints one bar per line, oldest first. An unconfigured provider or a
failed call yields no output rather than an error.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.interval, "interval", "daily", "bar interval")
	f.StringVar(&c.provider, "provider", "", "provider to use (default alphavantage)")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail(fmt.Errorf("exactly one symbol is required"))
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	series := a.gateway.History(ctx, f.Arg(0), c.interval, c.provider)
	if len(series) == 0 {
		fmt.Println("no data")
		return subcommands.ExitSuccess
	}
	for _, bar := range series {
		fmt.Printf("%s  o %s  h %s  l %s  c %s  v %d\n",
			bar.Time.Format("2006-01-02 15:04"),
			bar.Open.StringFixed(2), bar.High.StringFixed(2),
			bar.Low.StringFixed(2), bar.Close.StringFixed(2), bar.Volume)
	}
	return subcommands.ExitSuccess
}

type watchCmd struct {
	interval time.Duration
	provider string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "refresh quotes at a fixed interval until interrupted" }
func (*watchCmd) Usage() string {
	return `bytefinance watch [-interval 30s] [-provider <name>] <symbol> [symbol...]

Re-fetches the given symbols on a fixed schedule. The refresh task is
tied to the command lifetime and stops cleanly on Ctrl-C.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "interval", 30*time.Second, "refresh interval")
	f.StringVar(&c.provider, "provider", "", "provider for batch fetch (default alphavantage)")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fail(fmt.Errorf("at least one symbol is required"))
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	symbols := f.Args()
	poll.Run(ctx, c.interval, func(ctx context.Context) {
		quotes, err := a.gateway.BatchQuotes(ctx, symbols, c.provider)
		if err != nil {
			fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
			return
		}
		fmt.Printf("-- %s\n", time.Now().Format(time.TimeOnly))
		for _, q := range quotes {
			printQuote(q)
		}
	})
	return subcommands.ExitSuccess
}
