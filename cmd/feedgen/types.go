package main

import "time"

// Quote is the JSON schema the backend's feed consumer expects.
type Quote struct {
	QuoteID string    `json:"quote_id"`
	Symbol  string    `json:"symbol"`
	Price   float64   `json:"price"` // quoted currency (USD here)
	TS      time.Time `json:"ts"`    // RFC3339
}
