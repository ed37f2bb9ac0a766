package iex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bytefinance/internal/httpx"
	"bytefinance/internal/provider"
)

type Config struct {
	Name   string
	URL    string
	APIKey string
}

// Provider serves real-time quotes from IEX Cloud.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "iex"
	}
	if cfg.URL == "" {
		cfg.URL = "https://cloud.iexapis.com/stable"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Configured() bool { return p.cfg.APIKey != "" }

type quotePayload struct {
	Symbol        string  `json:"symbol"`
	LatestPrice   float64 `json:"latestPrice"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"` // raw fraction, e.g. 0.0123
	Volume        int64   `json:"volume"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
}

func (p *Provider) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	u := fmt.Sprintf("%s/stock/%s/quote?token=%s",
		strings.TrimRight(p.cfg.URL, "/"), url.PathEscape(symbol), url.QueryEscape(p.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return provider.Quote{}, err
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return provider.Quote{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return provider.Quote{}, fmt.Errorf("%s: %w", p.cfg.Name, provider.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return provider.Quote{}, fmt.Errorf("GET %s -> %d: %s", u, resp.StatusCode, string(b))
	}
	var pay quotePayload
	if err := json.NewDecoder(resp.Body).Decode(&pay); err != nil {
		return provider.Quote{}, fmt.Errorf("decode: %w", err)
	}
	sym := strings.ToUpper(pay.Symbol)
	if sym == "" {
		sym = strings.ToUpper(symbol)
	}
	return provider.Quote{
		Symbol:        sym,
		Price:         decimal.NewFromFloat(pay.LatestPrice),
		Change:        decimal.NewFromFloat(pay.Change),
		ChangePercent: fmt.Sprintf("%.2f%%", pay.ChangePercent*100),
		Volume:        pay.Volume,
		High:          decimal.NewFromFloat(pay.High),
		Low:           decimal.NewFromFloat(pay.Low),
		Open:          decimal.NewFromFloat(pay.Open),
		PreviousClose: decimal.NewFromFloat(pay.PreviousClose),
		Source:        p.cfg.Name,
		ReceivedAt:    time.Now().UTC(),
	}, nil
}
