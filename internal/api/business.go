package api

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Instrument is a tradable product listed by the platform.
type Instrument struct {
	ID     int64           `json:"id"`
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Position is one holding in the user's portfolio.
type Position struct {
	InstrumentID int64           `json:"instrument_id"`
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	MarketValue  decimal.Decimal `json:"market_value"`
}

// Transaction is one historical trade or cash movement.
type Transaction struct {
	ID           int64           `json:"id"`
	InstrumentID int64           `json:"instrument_id"`
	Symbol       string          `json:"symbol"`
	Side         string          `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	CreatedAt    string          `json:"created_at"`
}

// TradeRequest places an order.
type TradeRequest struct {
	InstrumentID int64           `json:"instrumentId"`
	Side         string          `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
}

func (c *Client) Instruments(ctx context.Context) ([]Instrument, error) {
	var env listEnvelope[Instrument]
	if err := c.get(ctx, "/instruments", &env); err != nil {
		return nil, err
	}
	return env.items, nil
}

func (c *Client) Portfolio(ctx context.Context) ([]Position, error) {
	var env listEnvelope[Position]
	if err := c.get(ctx, "/portfolio", &env); err != nil {
		return nil, err
	}
	return env.items, nil
}

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var env listEnvelope[Transaction]
	if err := c.get(ctx, "/transactions", &env); err != nil {
		return nil, err
	}
	return env.items, nil
}

func (c *Client) PlaceTrade(ctx context.Context, req TradeRequest) (Transaction, error) {
	var out Transaction
	err := c.post(ctx, "/trades", req, &out)
	return out, err
}

// Admin CRUD. These are opaque pass-throughs; the backend owns all
// validation.

func (c *Client) CreateInstrument(ctx context.Context, in Instrument) (Instrument, error) {
	var out Instrument
	err := c.post(ctx, "/admin/instruments", in, &out)
	return out, err
}

func (c *Client) UpdateInstrument(ctx context.Context, in Instrument) (Instrument, error) {
	var out Instrument
	err := c.put(ctx, fmt.Sprintf("/admin/instruments/%d", in.ID), in, &out)
	return out, err
}

func (c *Client) DeleteInstrument(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/instruments/%d", id))
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var env listEnvelope[User]
	if err := c.get(ctx, "/admin/users", &env); err != nil {
		return nil, err
	}
	return env.items, nil
}

func (c *Client) UpdateUser(ctx context.Context, u User) (User, error) {
	var out User
	err := c.put(ctx, fmt.Sprintf("/admin/users/%d", u.ID), u, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/admin/users/%d", id))
}
