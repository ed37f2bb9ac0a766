package market_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bytefinance/internal/market"
	"bytefinance/internal/provider"
)

// fakeProvider scripts one provider in the chain.
type fakeProvider struct {
	name       string
	configured bool
	quoteFn    func(ctx context.Context, symbol string) (provider.Quote, error)
	calls      atomic.Int64
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	f.calls.Add(1)
	return f.quoteFn(ctx, symbol)
}

func quoteFor(symbol, source string) func(context.Context, string) (provider.Quote, error) {
	return func(_ context.Context, _ string) (provider.Quote, error) {
		return provider.Quote{Symbol: symbol, Price: decimal.NewFromInt(100), Source: source}, nil
	}
}

func failWith(err error) func(context.Context, string) (provider.Quote, error) {
	return func(context.Context, string) (provider.Quote, error) {
		return provider.Quote{}, err
	}
}

func TestQuote_SkipsUnconfigured_ShortCircuitsOnFirstSuccess(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "iex", configured: false, quoteFn: quoteFor("AAPL", "iex")}
	b := &fakeProvider{name: "finnhub", configured: true, quoteFn: quoteFor("AAPL", "finnhub")}
	c := &fakeProvider{name: "alphavantage", configured: true, quoteFn: quoteFor("AAPL", "alphavantage")}

	g := market.New([]provider.Provider{a, b, c})
	q, err := g.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "finnhub", q.Source)

	// A is disabled and never attempted; C is never reached.
	require.Zero(t, a.calls.Load())
	require.EqualValues(t, 1, b.calls.Load())
	require.Zero(t, c.calls.Load())
}

func TestQuote_FallsBackPastFailures(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "iex", configured: true, quoteFn: failWith(errors.New("boom"))}
	b := &fakeProvider{name: "finnhub", configured: true, quoteFn: failWith(provider.ErrRateLimited)}
	c := &fakeProvider{name: "alphavantage", configured: true, quoteFn: quoteFor("AAPL", "alphavantage")}

	g := market.New([]provider.Provider{a, b, c})
	q, err := g.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "alphavantage", q.Source)
	require.EqualValues(t, 1, a.calls.Load())
	require.EqualValues(t, 1, b.calls.Load())
}

func TestQuote_AllFail_NoProviderError(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "iex", configured: true, quoteFn: failWith(errors.New("boom"))}
	b := &fakeProvider{name: "finnhub", configured: true, quoteFn: failWith(errors.New("boom"))}

	g := market.New([]provider.Provider{a, b})
	_, err := g.Quote(context.Background(), "ZZZZ")
	require.ErrorIs(t, err, market.ErrNoProvider)
}

func TestQuote_NoneConfigured_NoProviderError(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "iex", configured: false, quoteFn: quoteFor("AAPL", "iex")}

	g := market.New([]provider.Provider{a})
	_, err := g.Quote(context.Background(), "AAPL")
	require.ErrorIs(t, err, market.ErrNoProvider)
	require.Zero(t, a.calls.Load())
}

func TestBatchQuotes_DropsFailedSymbols(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "alphavantage", configured: true,
		quoteFn: func(_ context.Context, symbol string) (provider.Quote, error) {
			if symbol == "BAD" {
				return provider.Quote{}, errors.New("boom")
			}
			return provider.Quote{Symbol: symbol, Price: decimal.NewFromInt(1)}, nil
		},
	}

	g := market.New([]provider.Provider{p})
	quotes, err := g.BatchQuotes(context.Background(), []string{"AAPL", "BAD"}, "alphavantage")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "AAPL", quotes[0].Symbol)
}

func TestBatchQuotes_DefaultsToAlphaVantage(t *testing.T) {
	t.Parallel()

	av := &fakeProvider{name: "alphavantage", configured: true, quoteFn: quoteFor("AAPL", "alphavantage")}
	other := &fakeProvider{name: "iex", configured: true, quoteFn: quoteFor("AAPL", "iex")}

	g := market.New([]provider.Provider{other, av})
	quotes, err := g.BatchQuotes(context.Background(), []string{"AAPL"}, "")
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "alphavantage", quotes[0].Source)
	require.Zero(t, other.calls.Load())
}

func TestBatchQuotes_UnknownOrUnconfiguredProvider(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "alphavantage", configured: false, quoteFn: quoteFor("AAPL", "alphavantage")}
	g := market.New([]provider.Provider{p})

	_, err := g.BatchQuotes(context.Background(), []string{"AAPL"}, "alphavantage")
	require.ErrorIs(t, err, market.ErrNoProvider)

	_, err = g.BatchQuotes(context.Background(), []string{"AAPL"}, "nosuch")
	require.ErrorIs(t, err, market.ErrNoProvider)
}

// historyProvider adds a scripted time series to fakeProvider.
type historyProvider struct {
	fakeProvider
	historyFn func(ctx context.Context, symbol, interval string) (provider.Series, error)
}

func (h *historyProvider) History(ctx context.Context, symbol, interval string) (provider.Series, error) {
	return h.historyFn(ctx, symbol, interval)
}

func TestHistory_EmptyOnFailureOrUnconfigured(t *testing.T) {
	t.Parallel()

	failing := &historyProvider{
		fakeProvider: fakeProvider{name: "alphavantage", configured: true},
		historyFn: func(context.Context, string, string) (provider.Series, error) {
			return nil, errors.New("boom")
		},
	}
	g := market.New([]provider.Provider{failing})
	require.Empty(t, g.History(context.Background(), "AAPL", "daily", "alphavantage"))

	unconfigured := &historyProvider{
		fakeProvider: fakeProvider{name: "alphavantage", configured: false},
	}
	g = market.New([]provider.Provider{unconfigured})
	require.Empty(t, g.History(context.Background(), "AAPL", "daily", "alphavantage"))

	// providers without history support also yield empty
	plain := &fakeProvider{name: "finnhub", configured: true, quoteFn: quoteFor("AAPL", "finnhub")}
	g = market.New([]provider.Provider{plain})
	require.Empty(t, g.History(context.Background(), "AAPL", "daily", "finnhub"))
}

func TestHistory_ReturnsSeries(t *testing.T) {
	t.Parallel()

	p := &historyProvider{
		fakeProvider: fakeProvider{name: "alphavantage", configured: true},
		historyFn: func(_ context.Context, symbol, interval string) (provider.Series, error) {
			require.Equal(t, "AAPL", symbol)
			require.Equal(t, "daily", interval)
			return provider.Series{{Close: decimal.NewFromInt(42)}}, nil
		},
	}
	g := market.New([]provider.Provider{p})
	series := g.History(context.Background(), "AAPL", "daily", "alphavantage")
	require.Len(t, series, 1)
}
