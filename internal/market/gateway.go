package market

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"bytefinance/internal/provider"
)

// ErrNoProvider is returned when every configured provider failed or no
// provider is configured at all.
var ErrNoProvider = errors.New("no market data provider available")

// DefaultBatchProvider matches the historical batch default.
const DefaultBatchProvider = "alphavantage"

// Gateway masks provider-specific request/response shapes behind one
// normalized quote API. Providers are attempted in the order given.
type Gateway struct {
	providers []provider.Provider
	logger    *slog.Logger
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

func New(providers []provider.Provider, opts ...Option) *Gateway {
	g := &Gateway{providers: providers, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Quote attempts providers in preference order and returns the first
// success. Unconfigured providers are skipped without counting as a
// failure. Attempts are strictly sequential so the short-circuit on
// first success is well-defined.
func (g *Gateway) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	for _, p := range g.providers {
		if !p.Configured() {
			continue
		}
		q, err := p.Quote(ctx, symbol)
		if err != nil {
			g.logger.Warn("provider failed, trying next",
				"provider", p.Name(),
				"symbol", symbol,
				"err", err,
			)
			continue
		}
		return q, nil
	}
	return provider.Quote{}, ErrNoProvider
}

// BatchQuotes fetches quotes for all symbols from one named provider.
// There is no fallback chain in batch mode. Requests run concurrently;
// a symbol whose request fails is dropped from the result set, so the
// output order follows completion, not input.
func (g *Gateway) BatchQuotes(ctx context.Context, symbols []string, providerName string) ([]provider.Quote, error) {
	if providerName == "" {
		providerName = DefaultBatchProvider
	}
	p, ok := g.lookup(providerName)
	if !ok || !p.Configured() {
		return nil, ErrNoProvider
	}

	var (
		mu  sync.Mutex
		out = make([]provider.Quote, 0, len(symbols))
	)
	eg, ctx := errgroup.WithContext(ctx)
	for _, symbol := range symbols {
		symbol := symbol
		eg.Go(func() error {
			q, err := p.Quote(ctx, symbol)
			if err != nil {
				g.logger.Warn("batch quote dropped",
					"provider", p.Name(),
					"symbol", symbol,
					"err", err,
				)
				return nil
			}
			mu.Lock()
			out = append(out, q)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return out, nil
}

// History fetches a time series from one named provider. An unconfigured
// provider or a failed call yields an empty series, never an error:
// callers treat empty as "no data".
func (g *Gateway) History(ctx context.Context, symbol, interval, providerName string) provider.Series {
	if providerName == "" {
		providerName = DefaultBatchProvider
	}
	p, ok := g.lookup(providerName)
	if !ok || !p.Configured() {
		return provider.Series{}
	}
	hp, ok := p.(provider.HistoryProvider)
	if !ok {
		return provider.Series{}
	}
	series, err := hp.History(ctx, symbol, interval)
	if err != nil {
		g.logger.Warn("history fetch failed",
			"provider", p.Name(),
			"symbol", symbol,
			"err", err,
		)
		return provider.Series{}
	}
	if series == nil {
		series = provider.Series{}
	}
	return series
}

func (g *Gateway) lookup(name string) (provider.Provider, bool) {
	for _, p := range g.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
