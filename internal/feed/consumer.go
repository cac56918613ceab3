// Package feed consumes external price quotes from Kafka and applies them to
// the asset list. The feed is optional; the server runs without it.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/market"
)

// Quote is the JSON schema published by the feed generator.
type Quote struct {
	QuoteID string          `json:"quote_id"`
	Symbol  string          `json:"symbol"`
	Price   decimal.Decimal `json:"price"`
	TS      time.Time       `json:"ts"`
}

// Broadcaster pushes the refreshed asset list to websocket clients after a
// quote lands.
type Broadcaster interface {
	BroadcastJSON(v any)
}

type Consumer struct {
	Reader *kafka.Reader
	Market *market.Service
	Hub    Broadcaster
	Logger *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, m *market.Service, hub Broadcaster, logger *zap.Logger) *Consumer {
	return &Consumer{
		Reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
			MaxWait:  500 * time.Millisecond,
		}),
		Market: m,
		Hub:    hub,
		Logger: logger,
	}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.Reader.Close()
	for {
		m, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			return err
		}
		c.process(m.Value)
	}
}

// process applies one raw quote message. Malformed payloads and quotes for
// unknown symbols are logged and skipped; applied quotes trigger an asset
// broadcast.
func (c *Consumer) process(value []byte) {
	var q Quote
	if err := json.Unmarshal(value, &q); err != nil {
		c.Logger.Warn("bad quote message", zap.Error(err))
		return
	}
	if err := c.Market.ApplyQuote(q.Symbol, q.Price); err != nil {
		if errors.Is(err, market.ErrUnknownSymbol) || errors.Is(err, market.ErrInvalidQuote) {
			c.Logger.Warn("quote skipped",
				zap.String("symbol", q.Symbol),
				zap.Error(err),
			)
			return
		}
		c.Logger.Error("apply quote", zap.Error(err))
		return
	}
	c.Logger.Debug("quote applied",
		zap.String("quote_id", q.QuoteID),
		zap.String("symbol", q.Symbol),
	)
	c.broadcastAssets()
}

func (c *Consumer) broadcastAssets() {
	if c.Hub == nil {
		return
	}
	assets, err := c.Market.Assets()
	if err != nil {
		c.Logger.Warn("broadcast skipped", zap.Error(err))
		return
	}
	c.Hub.BroadcastJSON(map[string]any{"type": "assets", "assets": assets})
}
