package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
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

// Provider serves quotes and time series from Alpha Vantage.
// Alpha Vantage reports rate limits as a "Note"/"Information" field in an
// otherwise successful response, so those are sniffed on every payload.
type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "alphavantage"
	}
	if cfg.URL == "" {
		cfg.URL = "https://www.alphavantage.co/query"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Configured() bool { return p.cfg.APIKey != "" }

type globalQuote struct {
	Symbol        string `json:"01. symbol"`
	Open          string `json:"02. open"`
	High          string `json:"03. high"`
	Low           string `json:"04. low"`
	Price         string `json:"05. price"`
	Volume        string `json:"06. volume"`
	PreviousClose string `json:"08. previous close"`
	Change        string `json:"09. change"`
	ChangePercent string `json:"10. change percent"`
}

type quoteResponse struct {
	GlobalQuote  *globalQuote `json:"Global Quote"`
	Note         string       `json:"Note"`
	Information  string       `json:"Information"`
	ErrorMessage string       `json:"Error Message"`
}

func (p *Provider) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	q := url.Values{}
	q.Set("function", "GLOBAL_QUOTE")
	q.Set("symbol", symbol)
	q.Set("apikey", p.cfg.APIKey)

	var api quoteResponse
	if err := p.get(ctx, q, &api); err != nil {
		return provider.Quote{}, err
	}
	if api.ErrorMessage != "" {
		return provider.Quote{}, fmt.Errorf("%s: %s", p.cfg.Name, api.ErrorMessage)
	}
	if api.Note != "" || api.Information != "" {
		return provider.Quote{}, fmt.Errorf("%s: %w", p.cfg.Name, provider.ErrRateLimited)
	}
	g := api.GlobalQuote
	if g == nil || g.Symbol == "" {
		return provider.Quote{}, fmt.Errorf("%s: empty quote for %q", p.cfg.Name, symbol)
	}

	price, err := decimal.NewFromString(g.Price)
	if err != nil {
		return provider.Quote{}, fmt.Errorf("%s: bad price %q: %w", p.cfg.Name, g.Price, err)
	}
	volume, _ := strconv.ParseInt(g.Volume, 10, 64)
	return provider.Quote{
		Symbol:        strings.ToUpper(g.Symbol),
		Price:         price,
		Change:        parseDecimal(g.Change),
		ChangePercent: g.ChangePercent, // pre-formatted, e.g. "1.2345%"
		Volume:        volume,
		High:          parseDecimal(g.High),
		Low:           parseDecimal(g.Low),
		Open:          parseDecimal(g.Open),
		PreviousClose: parseDecimal(g.PreviousClose),
		Source:        p.cfg.Name,
		ReceivedAt:    time.Now().UTC(),
	}, nil
}

// History fetches TIME_SERIES_DAILY or TIME_SERIES_INTRADAY bars.
// interval is "daily" or one of 1min/5min/15min/30min/60min.
func (p *Provider) History(ctx context.Context, symbol, interval string) (provider.Series, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("apikey", p.cfg.APIKey)
	seriesKey := "Time Series (Daily)"
	if interval == "" || interval == "daily" {
		q.Set("function", "TIME_SERIES_DAILY")
	} else {
		q.Set("function", "TIME_SERIES_INTRADAY")
		q.Set("interval", interval)
		seriesKey = fmt.Sprintf("Time Series (%s)", interval)
	}

	var raw map[string]json.RawMessage
	if err := p.get(ctx, q, &raw); err != nil {
		return nil, err
	}
	if msg, ok := raw["Error Message"]; ok {
		return nil, fmt.Errorf("%s: %s", p.cfg.Name, string(msg))
	}
	if _, ok := raw["Note"]; ok {
		return nil, fmt.Errorf("%s: %w", p.cfg.Name, provider.ErrRateLimited)
	}
	if _, ok := raw["Information"]; ok {
		return nil, fmt.Errorf("%s: %w", p.cfg.Name, provider.ErrRateLimited)
	}
	entries, ok := raw[seriesKey]
	if !ok {
		return provider.Series{}, nil
	}
	var bars map[string]struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	}
	if err := json.Unmarshal(entries, &bars); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	out := make(provider.Series, 0, len(bars))
	for stamp, b := range bars {
		ts, err := parseStamp(stamp)
		if err != nil {
			continue
		}
		volume, _ := strconv.ParseInt(b.Volume, 10, 64)
		out = append(out, provider.Candle{
			Time:   ts,
			Open:   parseDecimal(b.Open),
			High:   parseDecimal(b.High),
			Low:    parseDecimal(b.Low),
			Close:  parseDecimal(b.Close),
			Volume: volume,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (p *Provider) get(ctx context.Context, q url.Values, out any) error {
	u := p.cfg.URL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return fmt.Errorf("GET %s -> %d: %s", p.cfg.URL, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
