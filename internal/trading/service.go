// Package trading holds the account ledger and the order execution engine.
// All mutations of the portfolios and transactions collections go through
// this service, serialized by a single mutex around each read-modify-write
// cycle.
package trading

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/paper-trader/internal/domain"
	"github.com/example/paper-trader/internal/models"
	"github.com/example/paper-trader/internal/store"
)

var (
	ErrInvalidOrder         = errors.New("invalid order")
	ErrAssetNotFound        = errors.New("asset not found")
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Store is the collection-level persistence contract the service depends on.
type Store interface {
	Read(name string, out any) error
	Write(name string, v any) error
}

type Service struct {
	store  Store
	logger *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

func New(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreatePortfolio registers an empty portfolio with the given starting cash.
// Called once per user at signup.
func (s *Service) CreatePortfolio(userID string, startingCash decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var portfolios []models.Portfolio
	if err := s.store.Read(store.Portfolios, &portfolios); err != nil {
		return err
	}
	portfolios = append(portfolios, models.Portfolio{
		UserID:   userID,
		Cash:     startingCash,
		Holdings: []models.Holding{},
	})
	return s.store.Write(store.Portfolios, portfolios)
}

// ExecuteOrder validates and applies a buy or sell against the user's
// portfolio at the asset's current price, then appends a transaction record.
//
// The portfolio and transaction writes are two separate whole-collection
// persists with no atomicity across them: a crash in between leaves the
// ledger updated but the transaction unrecorded. Accepted demo-grade
// limitation.
func (s *Service) ExecuteOrder(userID, assetID string, side domain.Side, quantity decimal.Decimal) (models.Transaction, error) {
	if assetID == "" || !side.Valid() || !quantity.IsPositive() {
		return models.Transaction{}, ErrInvalidOrder
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return models.Transaction{}, err
	}
	asset := findAsset(assets, assetID)
	if asset == nil {
		return models.Transaction{}, ErrAssetNotFound
	}

	var portfolios []models.Portfolio
	if err := s.store.Read(store.Portfolios, &portfolios); err != nil {
		return models.Transaction{}, err
	}
	portfolio := findPortfolio(portfolios, userID)
	if portfolio == nil {
		return models.Transaction{}, ErrPortfolioNotFound
	}

	price := asset.Price
	amount := price.Mul(quantity)

	switch side {
	case domain.SideBuy:
		if portfolio.Cash.LessThan(amount) {
			return models.Transaction{}, ErrInsufficientCash
		}
		portfolio.Cash = portfolio.Cash.Sub(amount)
		if h := findHolding(portfolio, assetID); h != nil {
			newQty := h.Quantity.Add(quantity)
			// Quantity-weighted mean of all buy fills; the new lot enters
			// at its fill price.
			h.AvgCost = h.AvgCost.Mul(h.Quantity).Add(amount).Div(newQty)
			h.Quantity = newQty
		} else {
			portfolio.Holdings = append(portfolio.Holdings, models.Holding{
				AssetID:  assetID,
				Quantity: quantity,
				AvgCost:  price,
			})
		}

	case domain.SideSell:
		h := findHolding(portfolio, assetID)
		if h == nil || h.Quantity.LessThan(quantity) {
			return models.Transaction{}, ErrInsufficientHoldings
		}
		// Proceeds realize at the current market price; average cost is
		// display-only and never changes on a sell.
		h.Quantity = h.Quantity.Sub(quantity)
		portfolio.Cash = portfolio.Cash.Add(amount)
		if h.Quantity.IsZero() {
			removeHolding(portfolio, assetID)
		}
	}

	tx := models.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		AssetID:   assetID,
		Side:      side,
		Quantity:  quantity,
		Price:     price,
		Amount:    amount,
		CreatedAt: s.now().UTC(),
	}

	if err := s.store.Write(store.Portfolios, portfolios); err != nil {
		return models.Transaction{}, fmt.Errorf("persist portfolio: %w", err)
	}

	var transactions []models.Transaction
	if err := s.store.Read(store.Transactions, &transactions); err != nil {
		return models.Transaction{}, err
	}
	transactions = append(transactions, tx)
	if err := s.store.Write(store.Transactions, transactions); err != nil {
		return models.Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}

	s.logger.Info("order executed",
		zap.String("user_id", userID),
		zap.String("asset_id", assetID),
		zap.String("side", side.String()),
		zap.String("quantity", quantity.String()),
		zap.String("price", price.String()),
	)
	return tx, nil
}

// PortfolioView returns the user's cash and holdings enriched with current
// prices. Pure read; holdings whose asset has vanished keep zero derived
// fields instead of failing the whole request.
func (s *Service) PortfolioView(userID string) (models.PortfolioView, error) {
	var portfolios []models.Portfolio
	if err := s.store.Read(store.Portfolios, &portfolios); err != nil {
		return models.PortfolioView{}, err
	}
	portfolio := findPortfolio(portfolios, userID)
	if portfolio == nil {
		return models.PortfolioView{}, ErrPortfolioNotFound
	}

	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return models.PortfolioView{}, err
	}

	view := models.PortfolioView{
		Cash:       portfolio.Cash,
		Holdings:   make([]models.HoldingView, 0, len(portfolio.Holdings)),
		TotalValue: portfolio.Cash,
	}
	for _, h := range portfolio.Holdings {
		hv := models.HoldingView{Holding: h}
		if asset := findAsset(assets, h.AssetID); asset != nil {
			hv.Symbol = asset.Symbol
			hv.Name = asset.Name
			hv.Price = asset.Price
			hv.MarketValue = asset.Price.Mul(h.Quantity)
			hv.PnL = asset.Price.Sub(h.AvgCost).Mul(h.Quantity)
			view.TotalValue = view.TotalValue.Add(hv.MarketValue)
		}
		view.Holdings = append(view.Holdings, hv)
	}
	return view, nil
}

// Transactions returns the user's transaction history, newest last, enriched
// with asset symbol and name for display.
func (s *Service) Transactions(userID string) ([]models.TransactionView, error) {
	var transactions []models.Transaction
	if err := s.store.Read(store.Transactions, &transactions); err != nil {
		return nil, err
	}
	var assets []models.Asset
	if err := s.store.Read(store.Assets, &assets); err != nil {
		return nil, err
	}

	out := make([]models.TransactionView, 0)
	for _, tx := range transactions {
		if tx.UserID != userID {
			continue
		}
		tv := models.TransactionView{Transaction: tx}
		if asset := findAsset(assets, tx.AssetID); asset != nil {
			tv.Symbol = asset.Symbol
			tv.Name = asset.Name
		}
		out = append(out, tv)
	}
	return out, nil
}

func findAsset(assets []models.Asset, id string) *models.Asset {
	for i := range assets {
		if assets[i].ID == id {
			return &assets[i]
		}
	}
	return nil
}

func findPortfolio(portfolios []models.Portfolio, userID string) *models.Portfolio {
	for i := range portfolios {
		if portfolios[i].UserID == userID {
			return &portfolios[i]
		}
	}
	return nil
}

func findHolding(p *models.Portfolio, assetID string) *models.Holding {
	for i := range p.Holdings {
		if p.Holdings[i].AssetID == assetID {
			return &p.Holdings[i]
		}
	}
	return nil
}

func removeHolding(p *models.Portfolio, assetID string) {
	kept := p.Holdings[:0]
	for _, h := range p.Holdings {
		if h.AssetID != assetID {
			kept = append(kept, h)
		}
	}
	p.Holdings = kept
}
