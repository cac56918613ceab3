// Package market owns the assets collection: initial seeding, the random-walk
// tick, and applying quotes from the external feed.
package market

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/models"
	"github.com/example/paper-trader/internal/store"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrInvalidQuote  = errors.New("invalid quote")
)

// priceFloor keeps every asset strictly positive regardless of noise.
var priceFloor = decimal.RequireFromString("0.01")

type Store interface {
	Read(name string, out any) error
	Write(name string, v any) error
}

type Service struct {
	store  Store
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(store Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Assets returns the current asset list.
func (s *Service) Assets() ([]models.Asset, error) {
	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []models.Asset{}
	}
	return assets, nil
}

// Tick applies one independent multiplicative perturbation to every asset:
// uniform noise in [-0.01, 0.01), price floored at 0.01 and rounded to two
// places, percent change recorded. Returns the number of assets updated.
func (s *Service) Tick() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return 0, err
	}
	if assets == nil {
		assets = []models.Asset{}
	}

	for i := range assets {
		noise := (s.rng.Float64() - 0.5) * 0.02
		next := assets[i].Price.Mul(decimal.NewFromFloat(1 + noise)).Round(2)
		if next.LessThan(priceFloor) {
			next = priceFloor
		}
		assets[i].Price = next
		assets[i].ChangePct = decimal.NewFromFloat(noise * 100).Round(2)
	}

	if err := s.store.Write(store.Assets, assets); err != nil {
		return 0, err
	}
	return len(assets), nil
}

// ApplyQuote sets one asset's price from an external quote and records the
// percent change against the previous price.
func (s *Service) ApplyQuote(symbol string, price decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidQuote
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return err
	}

	for i := range assets {
		if assets[i].Symbol != symbol {
			continue
		}
		next := price.Round(2)
		if next.LessThan(priceFloor) {
			next = priceFloor
		}
		prev := assets[i].Price
		if prev.IsPositive() {
			assets[i].ChangePct = next.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
		} else {
			assets[i].ChangePct = decimal.Zero
		}
		assets[i].Price = next
		return s.store.Write(store.Assets, assets)
	}
	return ErrUnknownSymbol
}

// Seed writes the initial asset list if the collection is empty. Returns the
// number of assets created.
func (s *Service) Seed() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return 0, err
	}
	if len(assets) > 0 {
		return 0, nil
	}
	seeded := seedAssets()
	if err := s.store.Write(store.Assets, seeded); err != nil {
		return 0, err
	}
	s.logger.Info("seeded assets", zap.Int("count", len(seeded)))
	return len(seeded), nil
}

func seedAssets() []models.Asset {
	mk := func(id, symbol, name, price string) models.Asset {
		return models.Asset{
			ID:        id,
			Symbol:    symbol,
			Name:      name,
			Price:     decimal.RequireFromString(price),
			ChangePct: decimal.Zero,
		}
	}
	return []models.Asset{
		mk("aapl", "AAPL", "Apple Inc.", "190"),
		mk("msft", "MSFT", "Microsoft Corp.", "420"),
		mk("googl", "GOOGL", "Alphabet Inc.", "145"),
		mk("amzn", "AMZN", "Amazon.com Inc.", "180"),
		mk("tsla", "TSLA", "Tesla Inc.", "220"),
		mk("nvda", "NVDA", "NVIDIA Corp.", "800"),
		mk("nflx", "NFLX", "Netflix Inc.", "550"),
		mk("btc", "BTC", "Bitcoin", "60000"),
		mk("eth", "ETH", "Ethereum", "3200"),
		mk("sol", "SOL", "Solana", "150"),
	}
}
