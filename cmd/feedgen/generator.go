package main

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// Symbols match the backend's seeded asset list; quotes for anything else
// would be skipped by the consumer.
var (
	symbols = []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "NFLX", "BTC", "ETH", "SOL"}

	basePrice = map[string]float64{
		"AAPL": 190, "MSFT": 420, "GOOGL": 145, "AMZN": 180, "TSLA": 220,
		"NVDA": 800, "NFLX": 550, "BTC": 60000, "ETH": 3200, "SOL": 150,
	}

	// lastPrice keeps each symbol on a random walk instead of re-quoting base.
	lastPrice = map[string]float64{}
)

func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}

func pick[T any](xs []T) T { return xs[rng.Intn(len(xs))] }

func genQuote() Quote {
	sym := pick(symbols)
	prev, ok := lastPrice[sym]
	if !ok {
		prev = basePrice[sym]
	}

	px := round(prev*(1+(rng.Float64()-0.5)*0.02), 2) // ±1%
	if px < 0.01 {
		px = 0.01
	}
	lastPrice[sym] = px

	return Quote{
		QuoteID: uuid.NewString(),
		Symbol:  sym,
		Price:   px,
		TS:      time.Now().UTC(),
	}
}
