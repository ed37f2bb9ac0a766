package ratelimit

import (
	"context"
	"sync"
	"time"

	"bytefinance/internal/provider"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// Concurrent calls will wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Configured() bool { return m.P.Configured() }

func (m *MinInterval) Quote(ctx context.Context, symbol string) (provider.Quote, error) {
	if err := m.gate(ctx); err != nil {
		return provider.Quote{}, err
	}
	q, err := m.P.Quote(ctx, symbol)
	m.stamp()
	return q, err
}

// History delegates when the wrapped provider serves time series.
func (m *MinInterval) History(ctx context.Context, symbol, interval string) (provider.Series, error) {
	hp, ok := m.P.(provider.HistoryProvider)
	if !ok {
		return nil, provider.ErrNoHistory
	}
	if err := m.gate(ctx); err != nil {
		return nil, err
	}
	s, err := hp.History(ctx, symbol, interval)
	m.stamp()
	return s, err
}

func (m *MinInterval) gate(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	m.mu.Lock()
	wait := time.Until(m.last.Add(m.Interval))
	m.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MinInterval) stamp() {
	if m.Interval <= 0 {
		return
	}
	m.mu.Lock()
	m.last = time.Now()
	m.mu.Unlock()
}
