package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

func runQuoteLoop(ctx context.Context, cfg Config, w *kafka.Writer) {
	rate := cfg.Rate
	if rate <= 0 {
		rate = 1
	}
	period := time.Second / time.Duration(rate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				log.Println("feedgen: TTL reached; exiting")
			} else {
				log.Println("feedgen: shutting down (signal)")
			}
			return
		case <-ticker.C:
			// jitter
			time.Sleep(time.Duration(rng.Intn(150)) * time.Millisecond)

			q := genQuote()
			b, err := json.Marshal(q)
			if err != nil {
				log.Printf("marshal error: %v", err)
				continue
			}

			msg := kafka.Message{Key: []byte(q.Symbol), Value: b, Time: q.TS}
			if err := w.WriteMessages(ctx, msg); err != nil {
				log.Printf("write error: %v", err)
				continue
			}
			log.Printf("sent: %s %s price=%v", q.QuoteID, q.Symbol, q.Price)
		}
	}
}
