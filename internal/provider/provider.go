package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the normalized shape returned by all providers.
// ChangePercent stays a string on purpose: each provider formats it in
// its own precision and the gateway does not reconcile them.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent string          `json:"change_percent"`
	Volume        int64           `json:"volume,omitempty"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Open          decimal.Decimal `json:"open"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Source        string          `json:"source"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// Candle is one bar of a historical time series.
type Candle struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Series is a historical time series, oldest bar first.
type Series []Candle

type Provider interface {
	Name() string
	// Configured reports whether the provider has the credentials it
	// needs. Unconfigured providers are skipped, never attempted.
	Configured() bool
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// HistoryProvider is implemented by providers that can serve time series.
type HistoryProvider interface {
	Provider
	History(ctx context.Context, symbol, interval string) (Series, error)
}

// ErrRateLimited marks a provider-reported rate limit, including limits
// embedded in a 200 response body. Callers treat it like a hard failure.
var ErrRateLimited = errors.New("provider rate limited")

// ErrNoHistory is returned when a provider cannot serve time series.
var ErrNoHistory = errors.New("historical data not supported")
