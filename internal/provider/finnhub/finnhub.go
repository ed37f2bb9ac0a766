package finnhub

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

// Provider serves real-time quotes from Finnhub.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "finnhub"
	}
	if cfg.URL == "" {
		cfg.URL = "https://finnhub.io/api/v1"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Configured() bool { return p.cfg.APIKey != "" }

// Finnhub does not echo the symbol; fields are single letters.
type quotePayload struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"` // already a percentage
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
}

func (p *Provider) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	symbol = strings.ToUpper(symbol)
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", p.cfg.APIKey)
	u := strings.TrimRight(p.cfg.URL, "/") + "/quote?" + q.Encode()
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
	// Finnhub returns all zeros for unknown symbols instead of an error.
	if pay.Current == 0 && pay.PreviousClose == 0 {
		return provider.Quote{}, fmt.Errorf("%s: no data for %q", p.cfg.Name, symbol)
	}
	return provider.Quote{
		Symbol:        symbol,
		Price:         decimal.NewFromFloat(pay.Current),
		Change:        decimal.NewFromFloat(pay.Change),
		ChangePercent: fmt.Sprintf("%.2f%%", pay.ChangePercent),
		High:          decimal.NewFromFloat(pay.High),
		Low:           decimal.NewFromFloat(pay.Low),
		Open:          decimal.NewFromFloat(pay.Open),
		PreviousClose: decimal.NewFromFloat(pay.PreviousClose),
		Source:        p.cfg.Name,
		ReceivedAt:    time.Now().UTC(),
	}, nil
}
