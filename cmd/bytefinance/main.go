// Command bytefinance is the ByteFinance client: it manages the local
// session against the platform backend and fetches market data through
// the provider gateway.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")

	subcommands.Register(&loginCmd{}, "session")
	subcommands.Register(&registerCmd{}, "session")
	subcommands.Register(&logoutCmd{}, "session")
	subcommands.Register(&meCmd{}, "session")

	subcommands.Register(&quoteCmd{}, "market")
	subcommands.Register(&historyCmd{}, "market")
	subcommands.Register(&watchCmd{}, "market")

	subcommands.Register(&portfolioCmd{}, "trading")
	subcommands.Register(&transactionsCmd{}, "trading")
	subcommands.Register(&tradeCmd{}, "trading")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
