package main

import (
	"time"

	"bytefinance/internal/config"
	"bytefinance/internal/httpx"
	"bytefinance/internal/provider"
	"bytefinance/internal/provider/alphavantage"
	"bytefinance/internal/provider/finnhub"
	"bytefinance/internal/provider/iex"
	"bytefinance/internal/provider/ratelimit"
)

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
