// feedgen publishes simulated market quotes to Kafka for the backend's quote
// consumer. It is a development tool, not part of the serving path.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg := LoadConfig()

	// Base context canceled by SIGINT/SIGTERM
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply TTL unless stay-alive requested or TTL <= 0
	ctx := baseCtx
	if !cfg.StayAlive && cfg.TTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(baseCtx, cfg.TTL)
		defer cancel()
	}

	// Best-effort ensure topic exists (short timeout)
	if cfg.EnsureTopic {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		EnsureTopic(c, cfg.Brokers[0], cfg.Topic)
		cancel()
	}

	writer, err := NewKafkaWriter(cfg.Brokers, cfg.Topic)
	if err != nil {
		log.Fatalf("feedgen: failed to create kafka writer: %v", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Printf("feedgen: writer close error: %v", err)
		}
	}()

	log.Printf("feedgen: brokers=%v topic=%s rate=%d/s stayAlive=%v ttl=%s", cfg.Brokers, cfg.Topic, cfg.Rate, cfg.StayAlive, cfg.TTL)

	runQuoteLoop(ctx, cfg, writer)
}
