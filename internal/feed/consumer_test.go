package feed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/market"
	"github.com/example/paper-trader/internal/models"
	"github.com/example/paper-trader/internal/store"
)

type recordingHub struct{ calls int }

func (r *recordingHub) BroadcastJSON(any) { r.calls++ }

func newTestConsumer(t *testing.T) (*Consumer, *market.Service, *recordingHub) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Write(store.Assets, []models.Asset{
		{ID: "aapl", Symbol: "AAPL", Name: "Apple Inc.", Price: decimal.RequireFromString("190")},
	}))

	m := market.New(fs, zap.NewNop())
	hub := &recordingHub{}
	return &Consumer{Market: m, Hub: hub, Logger: zap.NewNop()}, m, hub
}

func aaplPrice(t *testing.T, m *market.Service) decimal.Decimal {
	t.Helper()
	assets, err := m.Assets()
	require.NoError(t, err)
	require.Len(t, assets, 1)
	return assets[0].Price
}

func TestProcessAppliesQuoteAndBroadcasts(t *testing.T) {
	c, m, hub := newTestConsumer(t)

	c.process([]byte(`{"quote_id":"q1","symbol":"AAPL","price":"199.50","ts":"2026-01-02T03:04:05Z"}`))

	assert.True(t, aaplPrice(t, m).Equal(decimal.RequireFromString("199.5")))
	assert.Equal(t, 1, hub.calls)
}

func TestProcessSkipsMalformedMessage(t *testing.T) {
	c, m, hub := newTestConsumer(t)

	c.process([]byte(`{"symbol":`))

	assert.True(t, aaplPrice(t, m).Equal(decimal.RequireFromString("190")))
	assert.Zero(t, hub.calls)
}

func TestProcessSkipsUnknownSymbol(t *testing.T) {
	c, m, hub := newTestConsumer(t)

	c.process([]byte(`{"quote_id":"q2","symbol":"ZZZ","price":"10","ts":"2026-01-02T03:04:05Z"}`))

	assert.True(t, aaplPrice(t, m).Equal(decimal.RequireFromString("190")))
	assert.Zero(t, hub.calls)
}

func TestProcessSkipsNonPositivePrice(t *testing.T) {
	c, m, hub := newTestConsumer(t)

	c.process([]byte(`{"quote_id":"q3","symbol":"AAPL","price":"0","ts":"2026-01-02T03:04:05Z"}`))

	assert.True(t, aaplPrice(t, m).Equal(decimal.RequireFromString("190")))
	assert.Zero(t, hub.calls)
}
