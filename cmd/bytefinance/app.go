package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bytefinance/internal/api"
	"bytefinance/internal/config"
	"bytefinance/internal/guard"
	"bytefinance/internal/httpx"
	"bytefinance/internal/market"
	"bytefinance/internal/provider"
	"bytefinance/internal/provider/alphavantage"
	"bytefinance/internal/provider/finnhub"
	"bytefinance/internal/provider/iex"
	"bytefinance/internal/provider/ratelimit"
	"bytefinance/internal/session"
	"bytefinance/internal/tokenstore"
)

// app wires the config, the durable token store, the backend client, the
// session manager and the market gateway for one CLI invocation.
type app struct {
	cfg     config.Config
	tokens  *tokenstore.SQLite
	client  *api.Client
	session *session.Manager
	gateway *market.Gateway
}

func newApp() (*app, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	tokens, err := tokenstore.Open(cfg.Session.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	apiHTTP := httpx.New(time.Duration(cfg.API.TimeoutSec) * time.Second)
	client := api.NewClient(cfg.API.BaseURL, tokens, api.WithHTTPClient(apiHTTP.HTTP))

	return &app{
		cfg:     cfg,
		tokens:  tokens,
		client:  client,
		session: session.NewManager(client, tokens),
		gateway: market.New(buildProviders(cfg)),
	}, nil
}

func (a *app) close() {
	_ = a.tokens.Close()
}

// requireAuth restores the session and gates the command the way route
// guards gate protected views.
func (a *app) requireAuth(ctx context.Context, access guard.Access) error {
	_ = a.session.Initialize(ctx)
	switch guard.Decide(access, a.session.State()) {
	case guard.Allow:
		return nil
	case guard.RedirectLogin:
		return fmt.Errorf("not logged in; run 'bytefinance login' first")
	case guard.RedirectHome:
		return fmt.Errorf("this command requires an admin account")
	default:
		return fmt.Errorf("session state unresolved")
	}
}

// buildProviders assembles the fallback chain in preference order:
// IEX Cloud, then Finnhub, then Alpha Vantage.
func buildProviders(cfg config.Config) []provider.Provider {
	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	providers := make([]provider.Provider, 0, 3)
	if cfg.IEX.Enabled {
		providers = append(providers, iex.New(iex.Config{
			URL:    cfg.IEX.Endpoint,
			APIKey: cfg.IEX.APIKey,
		}, httpClient))
	}
	if cfg.Finnhub.Enabled {
		providers = append(providers, finnhub.New(finnhub.Config{
			URL:    cfg.Finnhub.Endpoint,
			APIKey: cfg.Finnhub.APIKey,
		}, httpClient))
	}
	if cfg.AlphaVantage.Enabled {
		av := alphavantage.New(alphavantage.Config{
			URL:    cfg.AlphaVantage.Endpoint,
			APIKey: cfg.AlphaVantage.APIKey,
		}, httpClient)
		var p provider.Provider = av
		if cfg.AlphaVantage.MinRequestIntervalSec > 0 {
			interval := time.Duration(cfg.AlphaVantage.MinRequestIntervalSec) * time.Second
			p = &ratelimit.MinInterval{P: p, Interval: interval}
		}
		providers = append(providers, p)
	}
	return providers
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printQuote(q provider.Quote) {
	fmt.Printf("%-8s %12s  %8s (%s)  vol %d\n",
		q.Symbol, q.Price.StringFixed(2), q.Change.StringFixed(2), q.ChangePercent, q.Volume)
}
