package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/paper-trader/internal/domain"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the shape returned by the auth endpoints; no credential material.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type Asset struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ChangePct decimal.Decimal `json:"changePct"`
}

// Holding is one position inside a portfolio. Quantity is strictly positive
// while the holding exists; a holding that reaches zero is removed.
type Holding struct {
	AssetID  string          `json:"assetId"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avgCost"`
}

type Portfolio struct {
	UserID   string          `json:"userId"`
	Cash     decimal.Decimal `json:"cash"`
	Holdings []Holding       `json:"holdings"`
}

// Transaction is an immutable record of one executed order; the transactions
// collection is append-only.
type Transaction struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	AssetID   string          `json:"assetId"`
	Side      domain.Side     `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HoldingView is a holding enriched with the current asset price. Derived
// fields stay zero when the referenced asset no longer exists.
type HoldingView struct {
	Holding
	Symbol      string          `json:"symbol,omitempty"`
	Name        string          `json:"name,omitempty"`
	Price       decimal.Decimal `json:"price"`
	MarketValue decimal.Decimal `json:"marketValue"`
	PnL         decimal.Decimal `json:"pnl"`
}

type PortfolioView struct {
	Cash       decimal.Decimal `json:"cash"`
	Holdings   []HoldingView   `json:"holdings"`
	TotalValue decimal.Decimal `json:"totalValue"`
}

// TransactionView adds asset display fields for the transaction history.
type TransactionView struct {
	Transaction
	Symbol string `json:"symbol,omitempty"`
	Name   string `json:"name,omitempty"`
}
