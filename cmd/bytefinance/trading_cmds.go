package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"bytefinance/internal/api"
	"bytefinance/internal/guard"
)

type portfolioCmd struct{}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "list portfolio positions" }
func (*portfolioCmd) Usage() string {
	return `bytefinance portfolio

Requires a logged-in session.
`
}
func (*portfolioCmd) SetFlags(*flag.FlagSet) {}

func (c *portfolioCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := a.requireAuth(ctx, guard.AccessUser); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	positions, err := a.client.Portfolio(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(positions) == 0 {
		fmt.Println("no positions")
		return subcommands.ExitSuccess
	}
	for _, p := range positions {
		fmt.Printf("%-8s qty %10s  avg %10s  value %12s\n",
			p.Symbol, p.Quantity.String(), p.AveragePrice.StringFixed(2), p.MarketValue.StringFixed(2))
	}
	return subcommands.ExitSuccess
}

type transactionsCmd struct{}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list past transactions" }
func (*transactionsCmd) Usage() string {
	return `bytefinance transactions

Requires a logged-in session.
`
}
func (*transactionsCmd) SetFlags(*flag.FlagSet) {}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := a.requireAuth(ctx, guard.AccessUser); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	txs, err := a.client.Transactions(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(txs) == 0 {
		fmt.Println("no transactions")
		return subcommands.ExitSuccess
	}
	for _, t := range txs {
		fmt.Printf("%s  %-4s %-8s qty %10s @ %10s\n",
			t.CreatedAt, t.Side, t.Symbol, t.Quantity.String(), t.Price.StringFixed(2))
	}
	return subcommands.ExitSuccess
}

type tradeCmd struct {
	instrumentID int64
	side         string
	quantity     string
}

func (*tradeCmd) Name() string     { return "trade" }
func (*tradeCmd) Synopsis() string { return "place a simulated trade" }
func (*tradeCmd) Usage() string {
	return `bytefinance trade -instrument <id> -side buy|sell -quantity <qty>

Requires a logged-in session.
`
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.instrumentID, "instrument", 0, "instrument id")
	f.StringVar(&c.side, "side", "buy", "buy or sell")
	f.StringVar(&c.quantity, "quantity", "", "quantity to trade")
}

func (c *tradeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.instrumentID == 0 || c.quantity == "" {
		fail(fmt.Errorf("-instrument and -quantity are required"))
		return subcommands.ExitUsageError
	}
	if c.side != "buy" && c.side != "sell" {
		fail(fmt.Errorf("-side must be buy or sell"))
		return subcommands.ExitUsageError
	}
	qty, err := decimal.NewFromString(c.quantity)
	if err != nil {
		fail(fmt.Errorf("bad quantity %q: %w", c.quantity, err))
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.close()

	if err := a.requireAuth(ctx, guard.AccessUser); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	tx, err := a.client.PlaceTrade(ctx, api.TradeRequest{
		InstrumentID: c.instrumentID,
		Side:         c.side,
		Quantity:     qty,
	})
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("trade %d: %s %s x %s\n", tx.ID, tx.Side, tx.Symbol, tx.Quantity.String())
	return subcommands.ExitSuccess
}
